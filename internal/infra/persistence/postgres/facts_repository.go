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
	"gorm.io/plugin/dbresolver"
)

// submissionRepository implements the repository.SubmissionRepository interface.
type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository is the constructor for submissionRepository.
func NewSubmissionRepository(db *gorm.DB) repository.SubmissionRepository {
	return &submissionRepository{
		db: db,
	}
}

// Upsert replaces any prior copy of the same external submission. Signers and
// fields are rewritten wholesale; provider payloads are small enough that
// diffing them is not worth the complexity.
func (repo *submissionRepository) Upsert(ctx context.Context, sub *entity.Submission, signers []*entity.SubmissionSigner, fields []*entity.SubmissionField) error {
	if err := repo.db.WithContext(ctx).
		Where("external_id = ?", sub.ExternalID).
		Delete(&model.SubmissionModel{}).Error; err != nil {
		return errors.Wrap(err, "failed to drop prior submission copy")
	}

	subM := &model.SubmissionModel{
		ID:          sub.ID,
		ExternalID:  sub.ExternalID,
		Category:    sub.Category,
		Name:        sub.Name,
		Status:      sub.Status,
		CompletedAt: sub.CompletedAt,
	}
	for _, signer := range signers {
		subM.Signers = append(subM.Signers, model.SubmissionSignerModel{
			SignerAccountID: signer.SignerAccountID,
			Role:            signer.Role,
			Status:          signer.Status,
		})
	}
	for _, field := range fields {
		subM.Fields = append(subM.Fields, model.SubmissionFieldModel{
			Field: field.Field,
			Value: field.Value,
		})
	}

	if err := repo.db.WithContext(ctx).Create(subM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create submission")
	}

	sub.ID = subM.ID
	for i, signerM := range subM.Signers {
		signers[i].ID = signerM.ID
		signers[i].SubmissionID = subM.ID
	}
	for i, fieldM := range subM.Fields {
		fields[i].ID = fieldM.ID
		fields[i].SubmissionID = subM.ID
	}

	return nil
}

// ListBySignerAccounts retrieves submissions signed by any of the accounts.
func (repo *submissionRepository) ListBySignerAccounts(ctx context.Context, accountIDs []uuid.UUID) ([]*entity.Submission, error) {
	if len(accountIDs) == 0 {
		return []*entity.Submission{}, nil
	}

	var submissionModels []*model.SubmissionModel

	if err := repo.db.WithContext(ctx).
		Clauses(dbresolver.Read).
		Where("id IN (?)", repo.db.
			Model(&model.SubmissionSignerModel{}).
			Select("submission_id").
			Where("signer_account_id IN ?", accountIDs)).
		Order("completed_at DESC NULLS LAST").
		Find(&submissionModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list submissions by signer accounts")
	}

	submissions := make([]*entity.Submission, 0, len(submissionModels))
	for _, subM := range submissionModels {
		submissions = append(submissions, toSubmissionDomain(subM))
	}

	return submissions, nil
}

// ListSignerAccountIDsByFieldValue retrieves the signer accounts of
// submissions holding a matching field value.
func (repo *submissionRepository) ListSignerAccountIDsByFieldValue(ctx context.Context, query string) ([]uuid.UUID, error) {
	var accountIDs []uuid.UUID

	pattern := "%" + escapeLike(query) + "%"
	if err := repo.db.WithContext(ctx).
		Clauses(dbresolver.Read).
		Model(&model.SubmissionSignerModel{}).
		Distinct("signer_account_id").
		Where("submission_id IN (?)", repo.db.
			Model(&model.SubmissionFieldModel{}).
			Select("submission_id").
			Where("value ILIKE ?", pattern)).
		Pluck("signer_account_id", &accountIDs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list signer accounts by field value")
	}

	return accountIDs, nil
}

// subscriptionRepository implements the repository.SubscriptionRepository interface.
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository is the constructor for subscriptionRepository.
func NewSubscriptionRepository(db *gorm.DB) repository.SubscriptionRepository {
	return &subscriptionRepository{
		db: db,
	}
}

// Upsert replaces any prior copy of the same external subscription.
func (repo *subscriptionRepository) Upsert(ctx context.Context, sub *entity.Subscription) error {
	if err := repo.db.WithContext(ctx).
		Where("external_id = ?", sub.ExternalID).
		Delete(&model.SubscriptionModel{}).Error; err != nil {
		return errors.Wrap(err, "failed to drop prior subscription copy")
	}

	subM := &model.SubscriptionModel{
		ID:                sub.ID,
		ExternalID:        sub.ExternalID,
		CustomerAccountID: sub.CustomerAccountID,
		Name:              sub.Name,
		Status:            sub.Status,
		CurrentPeriodEnd:  sub.CurrentPeriodEnd,
	}

	if err := repo.db.WithContext(ctx).Create(subM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create subscription")
	}

	sub.ID = subM.ID
	sub.CreatedAt = subM.CreatedAt

	return nil
}

// ListByCustomerAccounts retrieves subscriptions of any of the accounts.
func (repo *subscriptionRepository) ListByCustomerAccounts(ctx context.Context, accountIDs []uuid.UUID) ([]*entity.Subscription, error) {
	if len(accountIDs) == 0 {
		return []*entity.Subscription{}, nil
	}

	var subscriptionModels []*model.SubscriptionModel

	if err := repo.db.WithContext(ctx).
		Clauses(dbresolver.Read).
		Where("customer_account_id IN ?", accountIDs).
		Order("created_at DESC").
		Find(&subscriptionModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list subscriptions by customer accounts")
	}

	subscriptions := make([]*entity.Subscription, 0, len(subscriptionModels))
	for _, subM := range subscriptionModels {
		subscriptions = append(subscriptions, toSubscriptionDomain(subM))
	}

	return subscriptions, nil
}

// --- Mapper Functions ---

// toSubmissionDomain converts a GORM SubmissionModel to a domain Submission entity.
func toSubmissionDomain(data *model.SubmissionModel) *entity.Submission {
	if data == nil {
		return nil
	}

	return &entity.Submission{
		ID:          data.ID,
		ExternalID:  data.ExternalID,
		Category:    data.Category,
		Name:        data.Name,
		Status:      data.Status,
		CompletedAt: data.CompletedAt,
	}
}

// toSubscriptionDomain converts a GORM SubscriptionModel to a domain Subscription entity.
func toSubscriptionDomain(data *model.SubscriptionModel) *entity.Subscription {
	if data == nil {
		return nil
	}

	return &entity.Subscription{
		ID:                data.ID,
		ExternalID:        data.ExternalID,
		CustomerAccountID: data.CustomerAccountID,
		Name:              data.Name,
		Status:            data.Status,
		CurrentPeriodEnd:  data.CurrentPeriodEnd,
		CreatedAt:         data.CreatedAt,
	}
}
