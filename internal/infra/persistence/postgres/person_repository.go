package postgres

import (
	"context"
	"strings"

	"rollcall/internal/domain/entity"
	domainerrors "rollcall/internal/domain/errors"
	"rollcall/internal/domain/repository"
	"rollcall/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// personRepository implements the repository.PersonRepository interface.
type personRepository struct {
	db *gorm.DB
}

// NewPersonRepository is the constructor for personRepository.
func NewPersonRepository(db *gorm.DB) repository.PersonRepository {
	return &personRepository{
		db: db,
	}
}

// FindByID retrieves a person with aliases preloaded.
func (repo *personRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Person, error) {
	var personM model.PersonModel

	if err := repo.db.WithContext(ctx).
		Preload("Aliases").
		Where("id = ?", id).
		First(&personM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrPersonNotFound
		}

		return nil, errors.Wrap(err, "failed to find person by ID")
	}

	return toPersonDomain(&personM), nil
}

// List retrieves all persons ordered by name. Reads may hit a replica.
func (repo *personRepository) List(ctx context.Context) ([]*entity.Person, error) {
	var personModels []*model.PersonModel

	if err := repo.db.WithContext(ctx).
		Clauses(dbresolver.Read).
		Preload("Aliases").
		Order("name ASC").
		Find(&personModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list persons")
	}

	persons := make([]*entity.Person, 0, len(personModels))
	for _, personM := range personModels {
		persons = append(persons, toPersonDomain(personM))
	}

	return persons, nil
}

// SearchByText retrieves persons whose name or alias address contains the
// query as a case-insensitive substring. Reads may hit a replica.
func (repo *personRepository) SearchByText(ctx context.Context, query string) ([]*entity.Person, error) {
	var personModels []*model.PersonModel

	pattern := "%" + escapeLike(query) + "%"
	if err := repo.db.WithContext(ctx).
		Clauses(dbresolver.Read).
		Preload("Aliases").
		Where("id IN (?)", repo.db.
			Model(&model.PersonModel{}).
			Select("persons.id").
			Joins("LEFT JOIN email_aliases ON email_aliases.person_id = persons.id").
			Where("persons.name ILIKE ? OR email_aliases.address ILIKE ?", pattern, pattern)).
		Order("name ASC").
		Find(&personModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to search persons by text")
	}

	persons := make([]*entity.Person, 0, len(personModels))
	for _, personM := range personModels {
		persons = append(persons, toPersonDomain(personM))
	}

	return persons, nil
}

// Create persists a new person.
func (repo *personRepository) Create(ctx context.Context, person *entity.Person) error {
	personM := fromPersonDomain(person)

	if err := repo.db.WithContext(ctx).Omit("Aliases").Create(personM).Error; err != nil {
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("missing required person fields")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create person")
	}

	// Update the entity with generated values
	person.ID = personM.ID
	person.CreatedAt = personM.CreatedAt
	person.UpdatedAt = personM.UpdatedAt

	return nil
}

// Update modifies an existing person.
func (repo *personRepository) Update(ctx context.Context, person *entity.Person) error {
	result := repo.db.WithContext(ctx).
		Model(&model.PersonModel{}).
		Where("id = ?", person.ID).
		Updates(map[string]any{
			"name":               person.Name,
			"preferred_email_id": person.PreferredEmailID,
		})

	if result.Error != nil {
		if isForeignKeyConstraintViolation(result.Error) {
			return domainerrors.ErrAliasNotOwned.WrapMessage("preferred email does not exist")
		}

		return errors.Wrap(result.Error, "failed to update person")
	}

	if result.RowsAffected == 0 {
		return repository.ErrPersonNotFound
	}

	return nil
}

// Delete removes a person. Aliases and account links cascade at the
// database level.
func (repo *personRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.PersonModel{})

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete person")
	}

	if result.RowsAffected == 0 {
		return repository.ErrPersonNotFound
	}

	return nil
}

// AddAlias persists a new email alias.
func (repo *personRepository) AddAlias(ctx context.Context, alias *entity.EmailAlias) error {
	aliasM := fromAliasDomain(alias)

	if err := repo.db.WithContext(ctx).Create(aliasM).Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return repository.ErrPersonNotFound
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create email alias")
	}

	alias.ID = aliasM.ID
	alias.CreatedAt = aliasM.CreatedAt

	return nil
}

// DeleteAlias removes a single email alias.
func (repo *personRepository) DeleteAlias(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.EmailAliasModel{})

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete email alias")
	}

	if result.RowsAffected == 0 {
		return repository.ErrAliasNotFound
	}

	return nil
}

// FindAliasByID retrieves a single email alias.
func (repo *personRepository) FindAliasByID(ctx context.Context, id uuid.UUID) (*entity.EmailAlias, error) {
	var aliasM model.EmailAliasModel

	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&aliasM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAliasNotFound
		}

		return nil, errors.Wrap(err, "failed to find email alias by ID")
	}

	return toAliasDomain(&aliasM), nil
}

// FindFirstAliasByAddress retrieves the oldest alias carrying the address.
// The created_at, id ordering keeps the winner stable when rows share a timestamp.
func (repo *personRepository) FindFirstAliasByAddress(ctx context.Context, address string) (*entity.EmailAlias, error) {
	var aliasM model.EmailAliasModel

	if err := repo.db.WithContext(ctx).
		Where("LOWER(address) = LOWER(?)", address).
		Order("created_at ASC, id ASC").
		First(&aliasM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAliasNotFound
		}

		return nil, errors.Wrap(err, "failed to find alias by address")
	}

	return toAliasDomain(&aliasM), nil
}

// ReassignAliases moves every alias owned by fromID to toID.
func (repo *personRepository) ReassignAliases(ctx context.Context, fromID, toID uuid.UUID) error {
	if err := repo.db.WithContext(ctx).
		Model(&model.EmailAliasModel{}).
		Where("person_id = ?", fromID).
		Update("person_id", toID).Error; err != nil {
		return errors.Wrap(err, "failed to reassign email aliases")
	}

	return nil
}

// escapeLike neutralizes LIKE wildcards in user-supplied search text.
func escapeLike(query string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

	return replacer.Replace(query)
}

// --- Mapper Functions ---

// toPersonDomain converts a GORM PersonModel to a domain Person entity.
func toPersonDomain(data *model.PersonModel) *entity.Person {
	if data == nil {
		return nil
	}

	aliases := make([]*entity.EmailAlias, 0, len(data.Aliases))
	for i := range data.Aliases {
		aliases = append(aliases, toAliasDomain(&data.Aliases[i]))
	}

	return &entity.Person{
		ID:               data.ID,
		Name:             data.Name,
		PreferredEmailID: data.PreferredEmailID,
		Aliases:          aliases,
		CreatedAt:        data.CreatedAt,
		UpdatedAt:        data.UpdatedAt,
	}
}

// fromPersonDomain converts a domain Person entity to a GORM PersonModel.
func fromPersonDomain(data *entity.Person) *model.PersonModel {
	if data == nil {
		return nil
	}

	return &model.PersonModel{
		ID:               data.ID,
		Name:             data.Name,
		PreferredEmailID: data.PreferredEmailID,
		CreatedAt:        data.CreatedAt,
		UpdatedAt:        data.UpdatedAt,
	}
}

// toAliasDomain converts a GORM EmailAliasModel to a domain EmailAlias entity.
func toAliasDomain(data *model.EmailAliasModel) *entity.EmailAlias {
	if data == nil {
		return nil
	}

	return &entity.EmailAlias{
		ID:        data.ID,
		PersonID:  data.PersonID,
		Address:   data.Address,
		CreatedAt: data.CreatedAt,
	}
}

// fromAliasDomain converts a domain EmailAlias entity to a GORM EmailAliasModel.
func fromAliasDomain(data *entity.EmailAlias) *model.EmailAliasModel {
	if data == nil {
		return nil
	}

	return &model.EmailAliasModel{
		ID:        data.ID,
		PersonID:  data.PersonID,
		Address:   data.Address,
		CreatedAt: data.CreatedAt,
	}
}
