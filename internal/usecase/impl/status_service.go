package impl

import (
	"context"
	"log/slog"
	"sort"

	"rollcall/config"
	deliverycontext "rollcall/internal/delivery/context"
	"rollcall/internal/domain/entity"
	domainerrors "rollcall/internal/domain/errors"
	"rollcall/internal/domain/repository"
	"rollcall/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"golang.org/x/text/cases"
)

// statusService implements the StatusUsecase interface. It is read-only and
// works on the live repositories directly; replica reads are acceptable here.
type statusService struct {
	personRepo       repository.PersonRepository
	linkRepo         repository.LinkRepository
	submissionRepo   repository.SubmissionRepository
	subscriptionRepo repository.SubscriptionRepository
	waiverCategory   string
	folder           cases.Caser
	logger           *slog.Logger
}

// StatusServiceParams holds dependencies for statusService, injected by Fx.
type StatusServiceParams struct {
	fx.In

	PersonRepo       repository.PersonRepository
	LinkRepo         repository.LinkRepository
	SubmissionRepo   repository.SubmissionRepository
	SubscriptionRepo repository.SubscriptionRepository
	Config           *config.Config
	Logger           *slog.Logger
}

// NewStatusService is the constructor for statusService.
func NewStatusService(params StatusServiceParams) usecase.StatusUsecase {
	waiverCategory := "waiver"
	if params.Config != nil && params.Config.Reconcile != nil && params.Config.Reconcile.WaiverCategory != "" {
		waiverCategory = params.Config.Reconcile.WaiverCategory
	}

	return &statusService{
		personRepo:       params.PersonRepo,
		linkRepo:         params.LinkRepo,
		submissionRepo:   params.SubmissionRepo,
		subscriptionRepo: params.SubscriptionRepo,
		waiverCategory:   waiverCategory,
		folder:           cases.Fold(),
		logger:           params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *statusService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Get retrieves a person together with their derived statuses.
func (srv *statusService) Get(ctx context.Context, personID uuid.UUID) (*usecase.PersonStatus, error) {
	person, err := srv.personRepo.FindByID(ctx, personID)
	if errors.Is(err, repository.ErrPersonNotFound) {
		return nil, domainerrors.ErrPersonNotFound.WrapMessage("person " + personID.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find person by id")
	}

	return srv.buildStatus(ctx, person)
}

// List retrieves all persons ordered by name.
func (srv *statusService) List(ctx context.Context) ([]*entity.Person, error) {
	persons, err := srv.personRepo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list persons")
	}

	return persons, nil
}

// Members retrieves the persons holding a current membership.
func (srv *statusService) Members(ctx context.Context) ([]*usecase.PersonStatus, error) {
	persons, err := srv.personRepo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list persons")
	}

	var members []*usecase.PersonStatus
	for _, person := range persons {
		status, err := srv.buildStatus(ctx, person)
		if err != nil {
			return nil, err
		}
		if status.Membership.Current() {
			members = append(members, status)
		}
	}

	return members, nil
}

// Search retrieves persons matching the query by name, alias address or
// submitted field value. The field-value leg walks submissions back through
// their signer accounts to the linked persons, so a person found that way may
// carry neither the query in their name nor in any alias.
func (srv *statusService) Search(ctx context.Context, query string) ([]*entity.Person, error) {
	if query == "" {
		return nil, nil
	}

	persons, err := srv.personRepo.SearchByText(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search persons by text")
	}

	seen := make(map[uuid.UUID]bool, len(persons))
	for _, person := range persons {
		seen[person.ID] = true
	}

	signerIDs, err := srv.submissionRepo.ListSignerAccountIDsByFieldValue(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search submissions by field value")
	}
	for _, signerID := range signerIDs {
		link, err := srv.linkRepo.FindByAccount(ctx, signerID)
		if errors.Is(err, repository.ErrLinkNotFound) {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to find account link")
		}
		if seen[link.PersonID] {
			continue
		}

		person, err := srv.personRepo.FindByID(ctx, link.PersonID)
		if errors.Is(err, repository.ErrPersonNotFound) {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to find person by id")
		}
		seen[person.ID] = true
		persons = append(persons, person)
	}

	sort.Slice(persons, func(i, j int) bool {
		return srv.folder.String(persons[i].Name) < srv.folder.String(persons[j].Name)
	})

	srv.log(ctx).Debug("Search completed", slog.String("query", query), slog.Int("hits", len(persons)))

	return persons, nil
}

// MembershipStatus derives a person's membership from their subscriptions.
func (srv *statusService) MembershipStatus(ctx context.Context, personID uuid.UUID) (entity.MembershipStatus, error) {
	subs, err := srv.subscriptions(ctx, personID)
	if err != nil {
		return entity.MembershipNone, err
	}

	return deriveMembership(subs), nil
}

// HasValidWaiver reports whether any signer account linked to the person
// completed a waiver submission.
func (srv *statusService) HasValidWaiver(ctx context.Context, personID uuid.UUID) (bool, error) {
	subs, err := srv.submissions(ctx, personID)
	if err != nil {
		return false, err
	}

	return srv.hasWaiver(subs), nil
}

func (srv *statusService) buildStatus(ctx context.Context, person *entity.Person) (*usecase.PersonStatus, error) {
	subscriptions, err := srv.subscriptions(ctx, person.ID)
	if err != nil {
		return nil, err
	}
	submissions, err := srv.submissions(ctx, person.ID)
	if err != nil {
		return nil, err
	}

	return &usecase.PersonStatus{
		Person:        person,
		Membership:    deriveMembership(subscriptions),
		Waiver:        srv.hasWaiver(submissions),
		Subscriptions: subscriptions,
		Submissions:   submissions,
	}, nil
}

func (srv *statusService) subscriptions(ctx context.Context, personID uuid.UUID) ([]*entity.Subscription, error) {
	accountIDs, err := srv.linkedAccountIDs(ctx, personID, entity.AccountKindCustomer)
	if err != nil {
		return nil, err
	}
	if len(accountIDs) == 0 {
		return nil, nil
	}

	subs, err := srv.subscriptionRepo.ListByCustomerAccounts(ctx, accountIDs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list subscriptions")
	}

	return subs, nil
}

func (srv *statusService) submissions(ctx context.Context, personID uuid.UUID) ([]*entity.Submission, error) {
	accountIDs, err := srv.linkedAccountIDs(ctx, personID, entity.AccountKindSigner)
	if err != nil {
		return nil, err
	}
	if len(accountIDs) == 0 {
		return nil, nil
	}

	subs, err := srv.submissionRepo.ListBySignerAccounts(ctx, accountIDs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list submissions")
	}

	return subs, nil
}

func (srv *statusService) linkedAccountIDs(ctx context.Context, personID uuid.UUID, kind entity.AccountKind) ([]uuid.UUID, error) {
	links, err := srv.linkRepo.ListByPerson(ctx, personID, kind)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list account links")
	}

	accountIDs := make([]uuid.UUID, 0, len(links))
	for _, link := range links {
		accountIDs = append(accountIDs, link.AccountID)
	}

	return accountIDs, nil
}

func (srv *statusService) hasWaiver(submissions []*entity.Submission) bool {
	for _, sub := range submissions {
		if sub.Status == entity.SubmissionStatusCompleted &&
			srv.folder.String(sub.Category) == srv.folder.String(srv.waiverCategory) {
			return true
		}
	}

	return false
}

// deriveMembership is pessimistic. One subscription in any non-active state
// outweighs every active one, so a lapsed member with a stale second
// subscription never reads as current.
func deriveMembership(subscriptions []*entity.Subscription) entity.MembershipStatus {
	if len(subscriptions) == 0 {
		return entity.MembershipNone
	}

	for _, sub := range subscriptions {
		if !sub.Active() {
			return entity.MembershipStatus(sub.Status)
		}
	}

	return entity.MembershipActive
}
