// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"strings"

	"rollcall/config"
	deliverycontext "rollcall/internal/delivery/context"
	"rollcall/internal/domain/entity"
	domainerrors "rollcall/internal/domain/errors"
	"rollcall/internal/domain/repository"
	"rollcall/internal/domain/service"
	"rollcall/internal/usecase"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// associatorService implements the AssociatorUsecase interface.
type associatorService struct {
	txManager repository.TransactionManager
	publisher service.EventPublisher
	locker    *EmailLocker
	validate  *validator.Validate
	logger    *slog.Logger
}

// AssociatorServiceParams holds dependencies for associatorService, injected by Fx.
type AssociatorServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	Publisher service.EventPublisher
	Locker    *EmailLocker
	Config    *config.Config
	Logger    *slog.Logger
}

// NewAssociatorService is the constructor for associatorService.
func NewAssociatorService(params AssociatorServiceParams) usecase.AssociatorUsecase {
	return &associatorService{
		txManager: params.TxManager,
		publisher: params.Publisher,
		locker:    params.Locker,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *associatorService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Observe registers an observed external account and links it to a person.
// An account that already holds a link is returned as-is: provider syncs
// replay the same accounts on every run and must stay idempotent.
func (srv *associatorService) Observe(ctx context.Context, input *usecase.ObservedAccountInput) (*usecase.AssociationResult, error) {
	if err := srv.validate.Struct(input); err != nil {
		return nil, domainerrors.ErrValidationFailed.WrapMessage(err.Error())
	}

	address := strings.ToLower(input.Email)
	srv.log(ctx).Debug("Observing external account",
		slog.String("kind", string(input.Kind)),
		slog.String("externalID", input.ExternalID))

	unlock := srv.locker.Lock(address)
	defer unlock()

	var result *usecase.AssociationResult
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		accountRepo := repoFactory.NewAccountRepository()
		linkRepo := repoFactory.NewLinkRepository()

		account, err := accountRepo.FindByKindAndExternalID(ctx, input.Kind, input.ExternalID)
		if errors.Is(err, repository.ErrAccountNotFound) {
			account = &entity.ExternalAccount{
				Kind:       input.Kind,
				ExternalID: input.ExternalID,
				Email:      address,
				Name:       input.Name,
			}
			if err := accountRepo.Create(ctx, account); err != nil {
				return errors.Wrap(err, "failed to create external account")
			}
		} else if err != nil {
			return errors.Wrap(err, "failed to find external account")
		}

		link, err := linkRepo.FindByAccount(ctx, account.ID)
		if err == nil {
			person, findErr := repoFactory.NewPersonRepository().FindByID(ctx, link.PersonID)
			if findErr != nil {
				return errors.Wrap(findErr, "failed to load linked person")
			}
			result = &usecase.AssociationResult{Account: account, Person: person}

			return nil
		}
		if !errors.Is(err, repository.ErrLinkNotFound) {
			return errors.Wrap(err, "failed to find account link")
		}

		result, err = associateAccount(ctx, repoFactory, account)

		return err
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute observe transaction",
			slog.String("kind", string(input.Kind)),
			slog.String("externalID", input.ExternalID),
			slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute observe transaction")
	}

	srv.publishAssociation(ctx, result)

	return result, nil
}

// Associate links an already registered account to a person by email.
func (srv *associatorService) Associate(ctx context.Context, account *entity.ExternalAccount) (*usecase.AssociationResult, error) {
	unlock := srv.locker.Lock(account.Email)
	defer unlock()

	var result *usecase.AssociationResult
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		linkRepo := repoFactory.NewLinkRepository()

		_, err := linkRepo.FindByAccount(ctx, account.ID)
		if err == nil {
			return domainerrors.ErrAccountAlreadyLinked.WrapMessage("account " + account.ExternalID + " already linked")
		}
		if !errors.Is(err, repository.ErrLinkNotFound) {
			return errors.Wrap(err, "failed to find account link")
		}

		result, err = associateAccount(ctx, repoFactory, account)

		return err
	})
	if err != nil {
		srv.log(ctx).Warn("Failed to associate account",
			slog.String("externalID", account.ExternalID),
			slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute associate transaction")
	}

	srv.publishAssociation(ctx, result)

	return result, nil
}

// publishAssociation fans out events for a committed association. Publish
// failures are logged and swallowed: the store is already consistent.
func (srv *associatorService) publishAssociation(ctx context.Context, result *usecase.AssociationResult) {
	if result == nil || !result.CreatedLink {
		return
	}

	requestID := deliverycontext.GetRequestIDFromContext(ctx)
	if result.CreatedPerson {
		event := &service.IdentityEvent{
			RequestID: requestID,
			Kind:      service.IdentityEventPersonCreated,
			PersonID:  result.Person.ID.String(),
			Email:     result.Account.Email,
		}
		if err := srv.publisher.PublishIdentityEvent(ctx, event); err != nil {
			srv.log(ctx).Warn("Failed to publish person created event", slog.Any("error", err))
		}
	}

	event := &service.IdentityEvent{
		RequestID: requestID,
		Kind:      service.IdentityEventAccountLinked,
		PersonID:  result.Person.ID.String(),
		AccountID: result.Account.ID.String(),
		Email:     result.Account.Email,
	}
	if err := srv.publisher.PublishIdentityEvent(ctx, event); err != nil {
		srv.log(ctx).Warn("Failed to publish account linked event", slog.Any("error", err))
	}
}

// associateAccount links an unlinked account to a person inside the current
// transaction. The association key is the account email: the oldest alias
// carrying it decides the person, and when no alias matches, a fresh person
// is bootstrapped with the email as its placeholder name. Every association,
// manual or automatic, flows through here.
func associateAccount(ctx context.Context, repoFactory repository.RepositoryFactory, account *entity.ExternalAccount) (*usecase.AssociationResult, error) {
	personRepo := repoFactory.NewPersonRepository()
	linkRepo := repoFactory.NewLinkRepository()
	auditRepo := repoFactory.NewAuditRepository()

	address := strings.ToLower(account.Email)

	var person *entity.Person
	createdPerson := false

	alias, err := personRepo.FindFirstAliasByAddress(ctx, address)
	switch {
	case err == nil:
		person, err = personRepo.FindByID(ctx, alias.PersonID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load alias owner")
		}
	case errors.Is(err, repository.ErrAliasNotFound):
		person = &entity.Person{Name: address}
		if err := personRepo.Create(ctx, person); err != nil {
			return nil, errors.Wrap(err, "failed to create person")
		}

		newAlias := &entity.EmailAlias{PersonID: person.ID, Address: address}
		if err := personRepo.AddAlias(ctx, newAlias); err != nil {
			return nil, errors.Wrap(err, "failed to create email alias")
		}

		person.PreferredEmailID = &newAlias.ID
		person.Aliases = []*entity.EmailAlias{newAlias}
		if err := personRepo.Update(ctx, person); err != nil {
			return nil, errors.Wrap(err, "failed to set preferred email")
		}
		createdPerson = true

		if err := auditRepo.Append(ctx, &entity.AuditEntry{
			Kind:        entity.AuditPersonCreated,
			Description: "bootstrapped person from " + address,
			Context: map[string]any{
				"person_id": person.ID.String(),
				"email":     address,
			},
		}); err != nil {
			return nil, errors.Wrap(err, "failed to append audit entry")
		}
	default:
		return nil, errors.Wrap(err, "failed to find alias by address")
	}

	link := &entity.AccountLink{
		PersonID:  person.ID,
		AccountID: account.ID,
		Kind:      account.Kind,
	}
	if err := linkRepo.Create(ctx, link); err != nil {
		return nil, errors.Wrap(err, "failed to create account link")
	}

	if err := auditRepo.Append(ctx, &entity.AuditEntry{
		Kind:        entity.AuditAccountLinked,
		Description: "linked " + string(account.Kind) + " account " + account.ExternalID,
		Context: map[string]any{
			"person_id":  person.ID.String(),
			"account_id": account.ID.String(),
			"kind":       string(account.Kind),
			"email":      address,
		},
	}); err != nil {
		return nil, errors.Wrap(err, "failed to append audit entry")
	}

	return &usecase.AssociationResult{
		Account:       account,
		Person:        person,
		CreatedPerson: createdPerson,
		CreatedLink:   true,
	}, nil
}
