package postgres

import (
	"context"

	"rollcall/internal/domain/entity"
	domainerrors "rollcall/internal/domain/errors"
	"rollcall/internal/domain/repository"
	"rollcall/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// accountRepository implements the repository.AccountRepository interface.
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository is the constructor for accountRepository.
func NewAccountRepository(db *gorm.DB) repository.AccountRepository {
	return &accountRepository{
		db: db,
	}
}

// FindByID retrieves an external account by its unique ID.
func (repo *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ExternalAccount, error) {
	var accountM model.ExternalAccountModel

	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&accountM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAccountNotFound
		}

		return nil, errors.Wrap(err, "failed to find account by ID")
	}

	return toAccountDomain(&accountM), nil
}

// FindByKindAndExternalID retrieves an account by its provider identifier.
func (repo *accountRepository) FindByKindAndExternalID(ctx context.Context, kind entity.AccountKind, externalID string) (*entity.ExternalAccount, error) {
	var accountM model.ExternalAccountModel

	if err := repo.db.WithContext(ctx).
		Where("kind = ? AND external_id = ?", string(kind), externalID).
		First(&accountM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAccountNotFound
		}

		return nil, errors.Wrap(err, "failed to find account by provider identifier")
	}

	return toAccountDomain(&accountM), nil
}

// ListByEmail retrieves accounts of the given kind carrying the given address.
func (repo *accountRepository) ListByEmail(ctx context.Context, kind entity.AccountKind, email string) ([]*entity.ExternalAccount, error) {
	var accountModels []*model.ExternalAccountModel

	if err := repo.db.WithContext(ctx).
		Where("kind = ? AND LOWER(email) = LOWER(?)", string(kind), email).
		Order("created_at ASC").
		Find(&accountModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list accounts by email")
	}

	accounts := make([]*entity.ExternalAccount, 0, len(accountModels))
	for _, accountM := range accountModels {
		accounts = append(accounts, toAccountDomain(accountM))
	}

	return accounts, nil
}

// Create persists a new external account.
func (repo *accountRepository) Create(ctx context.Context, account *entity.ExternalAccount) error {
	accountM := fromAccountDomain(account)

	if err := repo.db.WithContext(ctx).Create(accountM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrAccountAlreadyLinked.WrapMessage("account " + account.ExternalID + " already registered")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("missing required account fields")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create external account")
	}

	account.ID = accountM.ID
	account.CreatedAt = accountM.CreatedAt

	return nil
}

// linkRepository implements the repository.LinkRepository interface.
type linkRepository struct {
	db *gorm.DB
}

// NewLinkRepository is the constructor for linkRepository.
func NewLinkRepository(db *gorm.DB) repository.LinkRepository {
	return &linkRepository{
		db: db,
	}
}

// Create persists a new account link. The unique account_id column turns a
// concurrent double link into a constraint violation instead of a second row.
func (repo *linkRepository) Create(ctx context.Context, link *entity.AccountLink) error {
	linkM := fromLinkDomain(link)

	if err := repo.db.WithContext(ctx).Create(linkM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrAccountAlreadyLinked.WrapMessage("account " + link.AccountID.String() + " already linked")
		}
		if isForeignKeyConstraintViolation(err) {
			return repository.ErrPersonNotFound
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create account link")
	}

	link.ID = linkM.ID
	link.CreatedAt = linkM.CreatedAt

	return nil
}

// FindByAccount retrieves the link for the given external account.
func (repo *linkRepository) FindByAccount(ctx context.Context, accountID uuid.UUID) (*entity.AccountLink, error) {
	var linkM model.AccountLinkModel

	if err := repo.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		First(&linkM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrLinkNotFound
		}

		return nil, errors.Wrap(err, "failed to find link by account")
	}

	return toLinkDomain(&linkM), nil
}

// ListByPerson retrieves all links held by a person, optionally filtered by kind.
func (repo *linkRepository) ListByPerson(ctx context.Context, personID uuid.UUID, kinds ...entity.AccountKind) ([]*entity.AccountLink, error) {
	var linkModels []*model.AccountLinkModel

	query := repo.db.WithContext(ctx).Where("person_id = ?", personID)
	if len(kinds) > 0 {
		kindStrings := make([]string, 0, len(kinds))
		for _, kind := range kinds {
			kindStrings = append(kindStrings, string(kind))
		}
		query = query.Where("kind IN ?", kindStrings)
	}

	if err := query.Order("created_at ASC").Find(&linkModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list links by person")
	}

	links := make([]*entity.AccountLink, 0, len(linkModels))
	for _, linkM := range linkModels {
		links = append(links, toLinkDomain(linkM))
	}

	return links, nil
}

// DeleteByPerson removes every link held by a person.
func (repo *linkRepository) DeleteByPerson(ctx context.Context, personID uuid.UUID) error {
	if err := repo.db.WithContext(ctx).
		Where("person_id = ?", personID).
		Delete(&model.AccountLinkModel{}).Error; err != nil {
		return errors.Wrap(err, "failed to delete links by person")
	}

	return nil
}

// Reassign moves every link held by fromID to toID.
func (repo *linkRepository) Reassign(ctx context.Context, fromID, toID uuid.UUID) error {
	if err := repo.db.WithContext(ctx).
		Model(&model.AccountLinkModel{}).
		Where("person_id = ?", fromID).
		Update("person_id", toID).Error; err != nil {
		return errors.Wrap(err, "failed to reassign account links")
	}

	return nil
}

// --- Mapper Functions ---

// toAccountDomain converts a GORM ExternalAccountModel to a domain ExternalAccount entity.
func toAccountDomain(data *model.ExternalAccountModel) *entity.ExternalAccount {
	if data == nil {
		return nil
	}

	return &entity.ExternalAccount{
		ID:         data.ID,
		Kind:       entity.AccountKind(data.Kind),
		ExternalID: data.ExternalID,
		Email:      data.Email,
		Name:       data.Name,
		CreatedAt:  data.CreatedAt,
	}
}

// fromAccountDomain converts a domain ExternalAccount entity to a GORM ExternalAccountModel.
func fromAccountDomain(data *entity.ExternalAccount) *model.ExternalAccountModel {
	if data == nil {
		return nil
	}

	return &model.ExternalAccountModel{
		ID:         data.ID,
		Kind:       string(data.Kind),
		ExternalID: data.ExternalID,
		Email:      data.Email,
		Name:       data.Name,
		CreatedAt:  data.CreatedAt,
	}
}

// toLinkDomain converts a GORM AccountLinkModel to a domain AccountLink entity.
func toLinkDomain(data *model.AccountLinkModel) *entity.AccountLink {
	if data == nil {
		return nil
	}

	return &entity.AccountLink{
		ID:        data.ID,
		PersonID:  data.PersonID,
		AccountID: data.AccountID,
		Kind:      entity.AccountKind(data.Kind),
		CreatedAt: data.CreatedAt,
	}
}

// fromLinkDomain converts a domain AccountLink entity to a GORM AccountLinkModel.
func fromLinkDomain(data *entity.AccountLink) *model.AccountLinkModel {
	if data == nil {
		return nil
	}

	return &model.AccountLinkModel{
		ID:        data.ID,
		PersonID:  data.PersonID,
		AccountID: data.AccountID,
		Kind:      string(data.Kind),
		CreatedAt: data.CreatedAt,
	}
}
