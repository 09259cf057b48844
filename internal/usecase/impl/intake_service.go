package impl

import (
	"context"
	"log/slog"

	deliverycontext "rollcall/internal/delivery/context"
	"rollcall/internal/domain/entity"
	domainerrors "rollcall/internal/domain/errors"
	"rollcall/internal/domain/repository"
	"rollcall/internal/usecase"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// intakeService implements the IntakeUsecase interface.
type intakeService struct {
	txManager  repository.TransactionManager
	associator usecase.AssociatorUsecase
	validate   *validator.Validate
	logger     *slog.Logger
}

// IntakeServiceParams holds dependencies for intakeService, injected by Fx.
type IntakeServiceParams struct {
	fx.In

	TxManager  repository.TransactionManager
	Associator usecase.AssociatorUsecase
	Logger     *slog.Logger
}

// NewIntakeService is the constructor for intakeService.
func NewIntakeService(params IntakeServiceParams) usecase.IntakeUsecase {
	return &intakeService{
		txManager:  params.TxManager,
		associator: params.Associator,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *intakeService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// SyncSubmission stores a submission after observing each of its signers.
// Signer observation runs first so the stored rows always reference accounts
// the store knows, and every signer ends up linked to a person.
func (srv *intakeService) SyncSubmission(ctx context.Context, input *usecase.SubmissionInput) error {
	if err := srv.validate.Struct(input); err != nil {
		return domainerrors.ErrValidationFailed.WrapMessage(err.Error())
	}

	srv.log(ctx).Debug("Syncing submission", slog.String("externalID", input.ExternalID))

	sub := &entity.Submission{
		ExternalID:  input.ExternalID,
		Category:    input.Category,
		Name:        input.Name,
		Status:      input.Status,
		CompletedAt: input.CompletedAt,
	}

	signers := make([]*entity.SubmissionSigner, 0, len(input.Signers))
	for _, signer := range input.Signers {
		result, err := srv.associator.Observe(ctx, &usecase.ObservedAccountInput{
			Kind:       entity.AccountKindSigner,
			ExternalID: signer.ExternalID,
			Email:      signer.Email,
			Name:       signer.Name,
		})
		if err != nil {
			return errors.Wrap(err, "failed to observe signer account")
		}

		signers = append(signers, &entity.SubmissionSigner{
			SignerAccountID: result.Account.ID,
			Role:            signer.Role,
			Status:          signer.Status,
		})
	}

	fields := make([]*entity.SubmissionField, 0, len(input.Fields))
	for _, field := range input.Fields {
		fields = append(fields, &entity.SubmissionField{
			Field: field.Field,
			Value: field.Value,
		})
	}

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.NewSubmissionRepository().Upsert(ctx, sub, signers, fields)
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute submission sync transaction",
			slog.String("externalID", input.ExternalID),
			slog.Any("error", err))

		return errors.Wrap(err, "failed to execute submission sync transaction")
	}

	return nil
}

// SyncSubscription stores a subscription after observing its customer.
func (srv *intakeService) SyncSubscription(ctx context.Context, input *usecase.SubscriptionInput) error {
	if err := srv.validate.Struct(input); err != nil {
		return domainerrors.ErrValidationFailed.WrapMessage(err.Error())
	}

	srv.log(ctx).Debug("Syncing subscription", slog.String("externalID", input.ExternalID))

	result, err := srv.associator.Observe(ctx, &usecase.ObservedAccountInput{
		Kind:       entity.AccountKindCustomer,
		ExternalID: input.CustomerExternalID,
		Email:      input.CustomerEmail,
		Name:       input.CustomerName,
	})
	if err != nil {
		return errors.Wrap(err, "failed to observe customer account")
	}

	sub := &entity.Subscription{
		ExternalID:        input.ExternalID,
		CustomerAccountID: result.Account.ID,
		Name:              input.Name,
		Status:            input.Status,
		CurrentPeriodEnd:  input.CurrentPeriodEnd,
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.NewSubscriptionRepository().Upsert(ctx, sub)
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute subscription sync transaction",
			slog.String("externalID", input.ExternalID),
			slog.Any("error", err))

		return errors.Wrap(err, "failed to execute subscription sync transaction")
	}

	return nil
}
