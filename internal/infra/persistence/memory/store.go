// Package memory provides an in-memory implementation of the persistence
// layer. It backs the service tests, where it stands in for PostgreSQL with
// the same repository semantics: cascading person deletes, oldest-alias
// lookups and a unique link per external account.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"rollcall/internal/domain/entity"
	domainerrors "rollcall/internal/domain/errors"
	"rollcall/internal/domain/repository"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// Store holds every table as a map keyed by row ID. A sequence counter
// stamps rows with strictly increasing creation times so age-based
// tie-breaking is deterministic even within one test run.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex

	persons       map[uuid.UUID]personRow
	aliases       map[uuid.UUID]aliasRow
	accounts      map[uuid.UUID]accountRow
	links         map[uuid.UUID]linkRow
	submissions   map[uuid.UUID]submissionRow
	signers       map[uuid.UUID]signerRow
	fields        map[uuid.UUID]fieldRow
	subscriptions map[uuid.UUID]subscriptionRow
	audits        []auditRow

	base   time.Time
	seq    int64
	folder cases.Caser
}

type personRow struct {
	id           uuid.UUID
	name         string
	preferred    uuid.UUID
	hasPreferred bool
	createdAt    time.Time
	updatedAt    time.Time
}

type aliasRow struct {
	id        uuid.UUID
	personID  uuid.UUID
	address   string
	createdAt time.Time
	seq       int64
}

type accountRow struct {
	id         uuid.UUID
	kind       entity.AccountKind
	externalID string
	email      string
	name       string
	createdAt  time.Time
	seq        int64
}

type linkRow struct {
	id        uuid.UUID
	personID  uuid.UUID
	accountID uuid.UUID
	kind      entity.AccountKind
	createdAt time.Time
	seq       int64
}

type submissionRow struct {
	id          uuid.UUID
	externalID  string
	category    string
	name        string
	status      string
	completedAt *time.Time
}

type signerRow struct {
	id              uuid.UUID
	submissionID    uuid.UUID
	signerAccountID uuid.UUID
	role            string
	status          string
}

type fieldRow struct {
	id           uuid.UUID
	submissionID uuid.UUID
	field        string
	value        string
}

type subscriptionRow struct {
	id                uuid.UUID
	externalID        string
	customerAccountID uuid.UUID
	name              string
	status            string
	currentPeriodEnd  *time.Time
	createdAt         time.Time
}

type auditRow struct {
	id          uuid.UUID
	timestamp   time.Time
	kind        string
	description string
	context     map[string]any
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		persons:       make(map[uuid.UUID]personRow),
		aliases:       make(map[uuid.UUID]aliasRow),
		accounts:      make(map[uuid.UUID]accountRow),
		links:         make(map[uuid.UUID]linkRow),
		submissions:   make(map[uuid.UUID]submissionRow),
		signers:       make(map[uuid.UUID]signerRow),
		fields:        make(map[uuid.UUID]fieldRow),
		subscriptions: make(map[uuid.UUID]subscriptionRow),
		base:          time.Now().UTC(),
		folder:        cases.Fold(),
	}
}

// next returns a fresh sequence number and the matching creation timestamp.
// Callers must hold mu.
func (s *Store) next() (int64, time.Time) {
	s.seq++

	return s.seq, s.base.Add(time.Duration(s.seq) * time.Millisecond)
}

func (s *Store) foldContains(haystack, needle string) bool {
	return strings.Contains(s.folder.String(haystack), s.folder.String(needle))
}

func (s *Store) foldEqual(a, b string) bool {
	return s.folder.String(a) == s.folder.String(b)
}

// Execute implements repository.TransactionManager. Transactions are
// serialized and rolled back by restoring a snapshot taken at entry, which
// keeps multi-step operations atomic the way the GORM manager does.
func (s *Store) Execute(_ context.Context, fn func(txRepoFactory repository.RepositoryFactory) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snapshot := s.snapshot()

	if err := fn(s); err != nil {
		s.restore(snapshot)

		return err
	}

	return nil
}

type storeSnapshot struct {
	persons       map[uuid.UUID]personRow
	aliases       map[uuid.UUID]aliasRow
	accounts      map[uuid.UUID]accountRow
	links         map[uuid.UUID]linkRow
	submissions   map[uuid.UUID]submissionRow
	signers       map[uuid.UUID]signerRow
	fields        map[uuid.UUID]fieldRow
	subscriptions map[uuid.UUID]subscriptionRow
	audits        []auditRow
	seq           int64
}

func (s *Store) snapshot() storeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return storeSnapshot{
		persons:       copyMap(s.persons),
		aliases:       copyMap(s.aliases),
		accounts:      copyMap(s.accounts),
		links:         copyMap(s.links),
		submissions:   copyMap(s.submissions),
		signers:       copyMap(s.signers),
		fields:        copyMap(s.fields),
		subscriptions: copyMap(s.subscriptions),
		audits:        append([]auditRow(nil), s.audits...),
		seq:           s.seq,
	}
}

func (s *Store) restore(snap storeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.persons = snap.persons
	s.aliases = snap.aliases
	s.accounts = snap.accounts
	s.links = snap.links
	s.submissions = snap.submissions
	s.signers = snap.signers
	s.fields = snap.fields
	s.subscriptions = snap.subscriptions
	s.audits = snap.audits
	s.seq = snap.seq
}

func copyMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}

	return dst
}

// RepositoryFactory implementation. The store itself hands out repositories,
// inside and outside of transactions alike.

// NewPersonRepository returns the person repository view of the store.
func (s *Store) NewPersonRepository() repository.PersonRepository {
	return &personRepo{store: s}
}

// NewAccountRepository returns the account repository view of the store.
func (s *Store) NewAccountRepository() repository.AccountRepository {
	return &accountRepo{store: s}
}

// NewLinkRepository returns the link repository view of the store.
func (s *Store) NewLinkRepository() repository.LinkRepository {
	return &linkRepo{store: s}
}

// NewSubmissionRepository returns the submission repository view of the store.
func (s *Store) NewSubmissionRepository() repository.SubmissionRepository {
	return &submissionRepo{store: s}
}

// NewSubscriptionRepository returns the subscription repository view of the store.
func (s *Store) NewSubscriptionRepository() repository.SubscriptionRepository {
	return &subscriptionRepo{store: s}
}

// NewAuditRepository returns the audit repository view of the store.
func (s *Store) NewAuditRepository() repository.AuditRepository {
	return &auditRepo{store: s}
}

// --- Person repository ---

type personRepo struct {
	store *Store
}

func (r *personRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Person, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.persons[id]
	if !ok {
		return nil, repository.ErrPersonNotFound
	}

	return s.toPerson(row), nil
}

func (r *personRepo) List(_ context.Context) ([]*entity.Person, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	persons := make([]*entity.Person, 0, len(s.persons))
	for _, row := range s.persons {
		persons = append(persons, s.toPerson(row))
	}
	s.sortByName(persons)

	return persons, nil
}

func (r *personRepo) SearchByText(_ context.Context, query string) ([]*entity.Person, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make(map[uuid.UUID]bool)
	for _, row := range s.persons {
		if s.foldContains(row.name, query) {
			matched[row.id] = true
		}
	}
	for _, alias := range s.aliases {
		if s.foldContains(alias.address, query) {
			matched[alias.personID] = true
		}
	}

	persons := make([]*entity.Person, 0, len(matched))
	for id := range matched {
		persons = append(persons, s.toPerson(s.persons[id]))
	}
	s.sortByName(persons)

	return persons, nil
}

func (r *personRepo) Create(_ context.Context, person *entity.Person) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if person.ID == uuid.Nil {
		person.ID = uuid.New()
	}
	_, now := s.next()
	person.CreatedAt = now
	person.UpdatedAt = now

	row := personRow{
		id:        person.ID,
		name:      person.Name,
		createdAt: now,
		updatedAt: now,
	}
	if person.PreferredEmailID != nil {
		row.preferred = *person.PreferredEmailID
		row.hasPreferred = true
	}
	s.persons[person.ID] = row

	return nil
}

func (r *personRepo) Update(_ context.Context, person *entity.Person) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.persons[person.ID]
	if !ok {
		return repository.ErrPersonNotFound
	}

	row.name = person.Name
	row.hasPreferred = person.PreferredEmailID != nil
	if row.hasPreferred {
		row.preferred = *person.PreferredEmailID
	} else {
		row.preferred = uuid.Nil
	}
	_, row.updatedAt = s.next()
	s.persons[person.ID] = row

	return nil
}

func (r *personRepo) Delete(_ context.Context, id uuid.UUID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.persons[id]; !ok {
		return repository.ErrPersonNotFound
	}
	delete(s.persons, id)
	for aliasID, alias := range s.aliases {
		if alias.personID == id {
			delete(s.aliases, aliasID)
		}
	}
	for linkID, link := range s.links {
		if link.personID == id {
			delete(s.links, linkID)
		}
	}

	return nil
}

func (r *personRepo) AddAlias(_ context.Context, alias *entity.EmailAlias) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.persons[alias.PersonID]; !ok {
		return repository.ErrPersonNotFound
	}

	if alias.ID == uuid.Nil {
		alias.ID = uuid.New()
	}
	seq, now := s.next()
	alias.CreatedAt = now

	s.aliases[alias.ID] = aliasRow{
		id:        alias.ID,
		personID:  alias.PersonID,
		address:   alias.Address,
		createdAt: now,
		seq:       seq,
	}

	return nil
}

func (r *personRepo) DeleteAlias(_ context.Context, id uuid.UUID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.aliases[id]; !ok {
		return repository.ErrAliasNotFound
	}
	delete(s.aliases, id)

	return nil
}

func (r *personRepo) FindAliasByID(_ context.Context, id uuid.UUID) (*entity.EmailAlias, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.aliases[id]
	if !ok {
		return nil, repository.ErrAliasNotFound
	}

	return toAlias(row), nil
}

func (r *personRepo) FindFirstAliasByAddress(_ context.Context, address string) (*entity.EmailAlias, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var oldest *aliasRow
	for id := range s.aliases {
		row := s.aliases[id]
		if !s.foldEqual(row.address, address) {
			continue
		}
		if oldest == nil || row.seq < oldest.seq {
			oldest = &row
		}
	}
	if oldest == nil {
		return nil, repository.ErrAliasNotFound
	}

	return toAlias(*oldest), nil
}

func (r *personRepo) ReassignAliases(_ context.Context, fromID, toID uuid.UUID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, row := range s.aliases {
		if row.personID == fromID {
			row.personID = toID
			s.aliases[id] = row
		}
	}

	return nil
}

func (s *Store) toPerson(row personRow) *entity.Person {
	person := &entity.Person{
		ID:        row.id,
		Name:      row.name,
		CreatedAt: row.createdAt,
		UpdatedAt: row.updatedAt,
	}
	if row.hasPreferred {
		preferred := row.preferred
		person.PreferredEmailID = &preferred
	}

	var rows []aliasRow
	for _, alias := range s.aliases {
		if alias.personID == row.id {
			rows = append(rows, alias)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	for _, alias := range rows {
		person.Aliases = append(person.Aliases, toAlias(alias))
	}

	return person
}

func (s *Store) sortByName(persons []*entity.Person) {
	sort.Slice(persons, func(i, j int) bool {
		return s.folder.String(persons[i].Name) < s.folder.String(persons[j].Name)
	})
}

func toAlias(row aliasRow) *entity.EmailAlias {
	return &entity.EmailAlias{
		ID:        row.id,
		PersonID:  row.personID,
		Address:   row.address,
		CreatedAt: row.createdAt,
	}
}

// --- Account and link repositories ---

type accountRepo struct {
	store *Store
}

func (r *accountRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.ExternalAccount, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}

	return toAccount(row), nil
}

func (r *accountRepo) FindByKindAndExternalID(_ context.Context, kind entity.AccountKind, externalID string) (*entity.ExternalAccount, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.accounts {
		if row.kind == kind && row.externalID == externalID {
			return toAccount(row), nil
		}
	}

	return nil, repository.ErrAccountNotFound
}

func (r *accountRepo) ListByEmail(_ context.Context, kind entity.AccountKind, email string) ([]*entity.ExternalAccount, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []accountRow
	for _, row := range s.accounts {
		if row.kind == kind && s.foldEqual(row.email, email) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	accounts := make([]*entity.ExternalAccount, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, toAccount(row))
	}

	return accounts, nil
}

func (r *accountRepo) Create(_ context.Context, account *entity.ExternalAccount) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.accounts {
		if row.kind == account.Kind && row.externalID == account.ExternalID {
			return domainerrors.ErrAccountAlreadyLinked.WrapMessage("account " + account.ExternalID + " already registered")
		}
	}

	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	seq, now := s.next()
	account.CreatedAt = now

	s.accounts[account.ID] = accountRow{
		id:         account.ID,
		kind:       account.Kind,
		externalID: account.ExternalID,
		email:      account.Email,
		name:       account.Name,
		createdAt:  now,
		seq:        seq,
	}

	return nil
}

func toAccount(row accountRow) *entity.ExternalAccount {
	return &entity.ExternalAccount{
		ID:         row.id,
		Kind:       row.kind,
		ExternalID: row.externalID,
		Email:      row.email,
		Name:       row.name,
		CreatedAt:  row.createdAt,
	}
}

type linkRepo struct {
	store *Store
}

func (r *linkRepo) Create(_ context.Context, link *entity.AccountLink) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.links {
		if row.accountID == link.AccountID {
			return domainerrors.ErrAccountAlreadyLinked.WrapMessage("account " + link.AccountID.String() + " already linked")
		}
	}
	if _, ok := s.persons[link.PersonID]; !ok {
		return repository.ErrPersonNotFound
	}

	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	seq, now := s.next()
	link.CreatedAt = now

	s.links[link.ID] = linkRow{
		id:        link.ID,
		personID:  link.PersonID,
		accountID: link.AccountID,
		kind:      link.Kind,
		createdAt: now,
		seq:       seq,
	}

	return nil
}

func (r *linkRepo) FindByAccount(_ context.Context, accountID uuid.UUID) (*entity.AccountLink, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.links {
		if row.accountID == accountID {
			return toLink(row), nil
		}
	}

	return nil, repository.ErrLinkNotFound
}

func (r *linkRepo) ListByPerson(_ context.Context, personID uuid.UUID, kinds ...entity.AccountKind) ([]*entity.AccountLink, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []linkRow
	for _, row := range s.links {
		if row.personID != personID {
			continue
		}
		if len(kinds) > 0 && !containsKind(kinds, row.kind) {
			continue
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	links := make([]*entity.AccountLink, 0, len(rows))
	for _, row := range rows {
		links = append(links, toLink(row))
	}

	return links, nil
}

func (r *linkRepo) DeleteByPerson(_ context.Context, personID uuid.UUID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, row := range s.links {
		if row.personID == personID {
			delete(s.links, id)
		}
	}

	return nil
}

func (r *linkRepo) Reassign(_ context.Context, fromID, toID uuid.UUID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, row := range s.links {
		if row.personID == fromID {
			row.personID = toID
			s.links[id] = row
		}
	}

	return nil
}

func containsKind(kinds []entity.AccountKind, kind entity.AccountKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}

	return false
}

func toLink(row linkRow) *entity.AccountLink {
	return &entity.AccountLink{
		ID:        row.id,
		PersonID:  row.personID,
		AccountID: row.accountID,
		Kind:      row.kind,
		CreatedAt: row.createdAt,
	}
}

// --- Facts repositories ---

type submissionRepo struct {
	store *Store
}

func (r *submissionRepo) Upsert(_ context.Context, sub *entity.Submission, signers []*entity.SubmissionSigner, fields []*entity.SubmissionField) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, row := range s.submissions {
		if row.externalID == sub.ExternalID {
			delete(s.submissions, id)
			for signerID, signer := range s.signers {
				if signer.submissionID == id {
					delete(s.signers, signerID)
				}
			}
			for fieldID, field := range s.fields {
				if field.submissionID == id {
					delete(s.fields, fieldID)
				}
			}
		}
	}

	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	s.submissions[sub.ID] = submissionRow{
		id:          sub.ID,
		externalID:  sub.ExternalID,
		category:    sub.Category,
		name:        sub.Name,
		status:      sub.Status,
		completedAt: sub.CompletedAt,
	}

	for _, signer := range signers {
		if signer.ID == uuid.Nil {
			signer.ID = uuid.New()
		}
		signer.SubmissionID = sub.ID
		s.signers[signer.ID] = signerRow{
			id:              signer.ID,
			submissionID:    sub.ID,
			signerAccountID: signer.SignerAccountID,
			role:            signer.Role,
			status:          signer.Status,
		}
	}
	for _, field := range fields {
		if field.ID == uuid.Nil {
			field.ID = uuid.New()
		}
		field.SubmissionID = sub.ID
		s.fields[field.ID] = fieldRow{
			id:           field.ID,
			submissionID: sub.ID,
			field:        field.Field,
			value:        field.Value,
		}
	}

	return nil
}

func (r *submissionRepo) ListBySignerAccounts(_ context.Context, accountIDs []uuid.UUID) ([]*entity.Submission, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[uuid.UUID]bool, len(accountIDs))
	for _, id := range accountIDs {
		wanted[id] = true
	}

	matched := make(map[uuid.UUID]bool)
	for _, signer := range s.signers {
		if wanted[signer.signerAccountID] {
			matched[signer.submissionID] = true
		}
	}

	submissions := make([]*entity.Submission, 0, len(matched))
	for id := range matched {
		row := s.submissions[id]
		submissions = append(submissions, &entity.Submission{
			ID:          row.id,
			ExternalID:  row.externalID,
			Category:    row.category,
			Name:        row.name,
			Status:      row.status,
			CompletedAt: row.completedAt,
		})
	}
	sort.Slice(submissions, func(i, j int) bool {
		return submissions[i].ExternalID < submissions[j].ExternalID
	})

	return submissions, nil
}

func (r *submissionRepo) ListSignerAccountIDsByFieldValue(_ context.Context, query string) ([]uuid.UUID, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make(map[uuid.UUID]bool)
	for _, field := range s.fields {
		if s.foldContains(field.value, query) {
			matched[field.submissionID] = true
		}
	}

	seen := make(map[uuid.UUID]bool)
	var accountIDs []uuid.UUID
	for _, signer := range s.signers {
		if matched[signer.submissionID] && !seen[signer.signerAccountID] {
			seen[signer.signerAccountID] = true
			accountIDs = append(accountIDs, signer.signerAccountID)
		}
	}

	return accountIDs, nil
}

type subscriptionRepo struct {
	store *Store
}

func (r *subscriptionRepo) Upsert(_ context.Context, sub *entity.Subscription) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, row := range s.subscriptions {
		if row.externalID == sub.ExternalID {
			delete(s.subscriptions, id)
		}
	}

	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	_, now := s.next()
	sub.CreatedAt = now

	s.subscriptions[sub.ID] = subscriptionRow{
		id:                sub.ID,
		externalID:        sub.ExternalID,
		customerAccountID: sub.CustomerAccountID,
		name:              sub.Name,
		status:            sub.Status,
		currentPeriodEnd:  sub.CurrentPeriodEnd,
		createdAt:         now,
	}

	return nil
}

func (r *subscriptionRepo) ListByCustomerAccounts(_ context.Context, accountIDs []uuid.UUID) ([]*entity.Subscription, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[uuid.UUID]bool, len(accountIDs))
	for _, id := range accountIDs {
		wanted[id] = true
	}

	var subscriptions []*entity.Subscription
	for _, row := range s.subscriptions {
		if !wanted[row.customerAccountID] {
			continue
		}
		subscriptions = append(subscriptions, &entity.Subscription{
			ID:                row.id,
			ExternalID:        row.externalID,
			CustomerAccountID: row.customerAccountID,
			Name:              row.name,
			Status:            row.status,
			CurrentPeriodEnd:  row.currentPeriodEnd,
			CreatedAt:         row.createdAt,
		})
	}
	sort.Slice(subscriptions, func(i, j int) bool {
		return subscriptions[i].ExternalID < subscriptions[j].ExternalID
	})

	return subscriptions, nil
}

// --- Audit repository ---

type auditRepo struct {
	store *Store
}

func (r *auditRepo) Append(_ context.Context, entry *entity.AuditEntry) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		_, entry.Timestamp = s.next()
	}

	contextCopy := make(map[string]any, len(entry.Context))
	for k, v := range entry.Context {
		contextCopy[k] = v
	}

	s.audits = append(s.audits, auditRow{
		id:          entry.ID,
		timestamp:   entry.Timestamp,
		kind:        entry.Kind,
		description: entry.Description,
		context:     contextCopy,
	})

	return nil
}

func (r *auditRepo) RecentByKind(_ context.Context, kind string, limit int) ([]*entity.AuditEntry, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []*entity.AuditEntry
	for i := len(s.audits) - 1; i >= 0; i-- {
		row := s.audits[i]
		if kind != "" && row.kind != kind {
			continue
		}
		entries = append(entries, &entity.AuditEntry{
			ID:          row.id,
			Timestamp:   row.timestamp,
			Kind:        row.kind,
			Description: row.description,
			Context:     row.context,
		})
		if limit > 0 && len(entries) == limit {
			break
		}
	}

	return entries, nil
}
