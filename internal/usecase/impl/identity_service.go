package impl

import (
	"context"
	"log/slog"
	"strings"

	deliverycontext "rollcall/internal/delivery/context"
	"rollcall/internal/domain/entity"
	domainerrors "rollcall/internal/domain/errors"
	"rollcall/internal/domain/repository"
	"rollcall/internal/domain/service"
	"rollcall/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// identityService implements the IdentityUsecase interface.
type identityService struct {
	txManager repository.TransactionManager
	publisher service.EventPublisher
	locker    *EmailLocker
	logger    *slog.Logger
}

// IdentityServiceParams holds dependencies for identityService, injected by Fx.
type IdentityServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	Publisher service.EventPublisher
	Locker    *EmailLocker
	Logger    *slog.Logger
}

// NewIdentityService is the constructor for identityService.
func NewIdentityService(params IdentityServiceParams) usecase.IdentityUsecase {
	return &identityService{
		txManager: params.TxManager,
		publisher: params.Publisher,
		locker:    params.Locker,
		logger:    params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *identityService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Merge moves everything the source person owns onto the target and deletes
// the source. The target keeps its own name and preferred email; only links
// and aliases change hands. The whole move runs in one transaction so a
// failure leaves both persons untouched.
func (srv *identityService) Merge(ctx context.Context, targetID, sourceID uuid.UUID) (*entity.Person, error) {
	if targetID == sourceID {
		return nil, domainerrors.ErrSelfMerge.WrapMessage("person " + targetID.String())
	}

	srv.log(ctx).Info("Merging persons",
		slog.Any("targetID", targetID),
		slog.Any("sourceID", sourceID))

	var merged *entity.Person
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		personRepo := repoFactory.NewPersonRepository()
		linkRepo := repoFactory.NewLinkRepository()

		if _, err := srv.findPerson(ctx, personRepo, targetID); err != nil {
			return err
		}
		source, err := srv.findPerson(ctx, personRepo, sourceID)
		if err != nil {
			return err
		}

		if err := linkRepo.Reassign(ctx, sourceID, targetID); err != nil {
			return errors.Wrap(err, "failed to reassign account links")
		}
		if err := personRepo.ReassignAliases(ctx, sourceID, targetID); err != nil {
			return errors.Wrap(err, "failed to reassign email aliases")
		}
		if err := personRepo.Delete(ctx, sourceID); err != nil {
			return errors.Wrap(err, "failed to delete source person")
		}

		if err := repoFactory.NewAuditRepository().Append(ctx, &entity.AuditEntry{
			Kind:        entity.AuditPersonMerged,
			Description: "merged " + source.Name + " into person " + targetID.String(),
			Context: map[string]any{
				"target_id": targetID.String(),
				"source_id": sourceID.String(),
			},
		}); err != nil {
			return errors.Wrap(err, "failed to append audit entry")
		}

		merged, err = personRepo.FindByID(ctx, targetID)

		return errors.Wrap(err, "failed to reload merged person")
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute merge transaction",
			slog.Any("targetID", targetID),
			slog.Any("sourceID", sourceID),
			slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute merge transaction")
	}

	srv.publishEvent(ctx, &service.IdentityEvent{
		Kind:     service.IdentityEventPersonMerged,
		PersonID: targetID.String(),
		Absorbed: sourceID.String(),
	})

	return merged, nil
}

// Unmerge splits an alias away from its owner. The owner drops every account
// link it holds, the alias is deleted, and only the accounts carrying the
// removed address are re-associated through the regular association path.
// Those accounts bootstrap a fresh person; the owner's other accounts stay
// unlinked until a later observation re-links them.
func (srv *identityService) Unmerge(ctx context.Context, aliasID uuid.UUID) error {
	srv.log(ctx).Info("Unmerging email alias", slog.Any("aliasID", aliasID))

	var results []*usecase.AssociationResult
	var ownerID uuid.UUID

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		personRepo := repoFactory.NewPersonRepository()
		linkRepo := repoFactory.NewLinkRepository()
		accountRepo := repoFactory.NewAccountRepository()

		alias, err := personRepo.FindAliasByID(ctx, aliasID)
		if errors.Is(err, repository.ErrAliasNotFound) {
			return domainerrors.ErrEmailNotFound.WrapMessage("alias " + aliasID.String())
		}
		if err != nil {
			return errors.Wrap(err, "failed to find email alias")
		}

		owner, err := personRepo.FindByID(ctx, alias.PersonID)
		if errors.Is(err, repository.ErrPersonNotFound) {
			return domainerrors.ErrUnownedEmail.WrapMessage("alias " + aliasID.String())
		}
		if err != nil {
			return errors.Wrap(err, "failed to find alias owner")
		}
		ownerID = owner.ID

		var remaining []*entity.EmailAlias
		for _, owned := range owner.Aliases {
			if owned.ID != alias.ID {
				remaining = append(remaining, owned)
			}
		}

		if owner.PreferredEmailID != nil && *owner.PreferredEmailID == alias.ID {
			owner.PreferredEmailID = nil
			if len(remaining) > 0 {
				oldest := oldestAlias(remaining)
				owner.PreferredEmailID = &oldest.ID
			}
			if err := personRepo.Update(ctx, owner); err != nil {
				return errors.Wrap(err, "failed to clear preferred email")
			}
		}

		if err := linkRepo.DeleteByPerson(ctx, owner.ID); err != nil {
			return errors.Wrap(err, "failed to delete account links")
		}
		if err := personRepo.DeleteAlias(ctx, alias.ID); err != nil {
			return errors.Wrap(err, "failed to delete email alias")
		}

		// Only accounts on the removed address are reprocessed here. The
		// owner's other accounts wait for their next observation.
		for _, kind := range []entity.AccountKind{entity.AccountKindSigner, entity.AccountKindCustomer} {
			accounts, err := accountRepo.ListByEmail(ctx, kind, alias.Address)
			if err != nil {
				return errors.Wrap(err, "failed to list accounts by email")
			}
			for _, account := range accounts {
				if _, err := linkRepo.FindByAccount(ctx, account.ID); err == nil {
					// Still linked to some other person, leave it alone.
					continue
				} else if !errors.Is(err, repository.ErrLinkNotFound) {
					return errors.Wrap(err, "failed to find account link")
				}

				result, err := associateAccount(ctx, repoFactory, account)
				if err != nil {
					return errors.Wrap(err, "failed to re-associate account")
				}
				results = append(results, result)
			}
		}

		if err := repoFactory.NewAuditRepository().Append(ctx, &entity.AuditEntry{
			Kind:        entity.AuditPersonUnmerged,
			Description: "unmerged " + alias.Address + " from person " + owner.ID.String(),
			Context: map[string]any{
				"person_id": owner.ID.String(),
				"alias_id":  alias.ID.String(),
				"email":     alias.Address,
			},
		}); err != nil {
			return errors.Wrap(err, "failed to append audit entry")
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute unmerge transaction",
			slog.Any("aliasID", aliasID),
			slog.Any("error", err))

		return errors.Wrap(err, "failed to execute unmerge transaction")
	}

	srv.publishEvent(ctx, &service.IdentityEvent{
		Kind:     service.IdentityEventPersonUnmerged,
		PersonID: ownerID.String(),
	})
	for _, result := range results {
		if result.CreatedPerson {
			srv.publishEvent(ctx, &service.IdentityEvent{
				Kind:     service.IdentityEventPersonCreated,
				PersonID: result.Person.ID.String(),
				Email:    result.Account.Email,
			})
		}
		srv.publishEvent(ctx, &service.IdentityEvent{
			Kind:      service.IdentityEventAccountLinked,
			PersonID:  result.Person.ID.String(),
			AccountID: result.Account.ID.String(),
			Email:     result.Account.Email,
		})
	}

	return nil
}

// AddEmail attaches a new alias address to a person.
func (srv *identityService) AddEmail(ctx context.Context, personID uuid.UUID, address string) (*entity.EmailAlias, error) {
	address = strings.ToLower(strings.TrimSpace(address))
	if address == "" {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("empty email address")
	}

	unlock := srv.locker.Lock(address)
	defer unlock()

	var alias *entity.EmailAlias
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		personRepo := repoFactory.NewPersonRepository()

		person, err := srv.findPerson(ctx, personRepo, personID)
		if err != nil {
			return err
		}
		for _, owned := range person.Aliases {
			if strings.EqualFold(owned.Address, address) {
				return domainerrors.ErrDuplicateAlias.WrapMessage(address)
			}
		}

		alias = &entity.EmailAlias{PersonID: personID, Address: address}
		if err := personRepo.AddAlias(ctx, alias); err != nil {
			return errors.Wrap(err, "failed to create email alias")
		}

		if person.PreferredEmailID == nil {
			person.PreferredEmailID = &alias.ID
			if err := personRepo.Update(ctx, person); err != nil {
				return errors.Wrap(err, "failed to set preferred email")
			}
		}

		return errors.Wrap(repoFactory.NewAuditRepository().Append(ctx, &entity.AuditEntry{
			Kind:        entity.AuditEmailAdded,
			Description: "added " + address + " to person " + personID.String(),
			Context: map[string]any{
				"person_id": personID.String(),
				"email":     address,
			},
		}), "failed to append audit entry")
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute add email transaction")
	}

	return alias, nil
}

// SetPreferredEmail marks one of the person's own aliases as preferred.
func (srv *identityService) SetPreferredEmail(ctx context.Context, personID, aliasID uuid.UUID) error {
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		personRepo := repoFactory.NewPersonRepository()

		person, err := srv.findPerson(ctx, personRepo, personID)
		if err != nil {
			return err
		}
		if !person.OwnsAlias(aliasID) {
			return domainerrors.ErrAliasNotOwned.WrapMessage("alias " + aliasID.String())
		}

		person.PreferredEmailID = &aliasID
		if err := personRepo.Update(ctx, person); err != nil {
			return errors.Wrap(err, "failed to update preferred email")
		}

		return errors.Wrap(repoFactory.NewAuditRepository().Append(ctx, &entity.AuditEntry{
			Kind:        entity.AuditEmailPreferred,
			Description: "set preferred email for person " + personID.String(),
			Context: map[string]any{
				"person_id": personID.String(),
				"alias_id":  aliasID.String(),
			},
		}), "failed to append audit entry")
	})

	return errors.Wrap(err, "failed to execute preferred email transaction")
}

// Rename changes a person's display name.
func (srv *identityService) Rename(ctx context.Context, personID uuid.UUID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domainerrors.ErrValidationFailed.WrapMessage("empty person name")
	}

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		personRepo := repoFactory.NewPersonRepository()

		person, err := srv.findPerson(ctx, personRepo, personID)
		if err != nil {
			return err
		}
		previous := person.Name

		person.Name = name
		if err := personRepo.Update(ctx, person); err != nil {
			return errors.Wrap(err, "failed to update person name")
		}

		return errors.Wrap(repoFactory.NewAuditRepository().Append(ctx, &entity.AuditEntry{
			Kind:        entity.AuditPersonRenamed,
			Description: "renamed " + previous + " to " + name,
			Context: map[string]any{
				"person_id": personID.String(),
				"from":      previous,
				"to":        name,
			},
		}), "failed to append audit entry")
	})

	return errors.Wrap(err, "failed to execute rename transaction")
}

func (srv *identityService) findPerson(ctx context.Context, personRepo repository.PersonRepository, id uuid.UUID) (*entity.Person, error) {
	person, err := personRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrPersonNotFound) {
		return nil, domainerrors.ErrPersonNotFound.WrapMessage("person " + id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find person by id")
	}

	return person, nil
}

func (srv *identityService) publishEvent(ctx context.Context, event *service.IdentityEvent) {
	event.RequestID = deliverycontext.GetRequestIDFromContext(ctx)
	if err := srv.publisher.PublishIdentityEvent(ctx, event); err != nil {
		srv.log(ctx).Warn("Failed to publish identity event",
			slog.String("kind", event.Kind),
			slog.Any("error", err))
	}
}

func oldestAlias(aliases []*entity.EmailAlias) *entity.EmailAlias {
	oldest := aliases[0]
	for _, alias := range aliases[1:] {
		if alias.CreatedAt.Before(oldest.CreatedAt) {
			oldest = alias
		}
	}

	return oldest
}
