package repository

import (
	"context"
	"errors"

	"rollcall/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrAccountNotFound is a domain-specific error returned when an external account is not found.
var ErrAccountNotFound = errors.New("external account not found")

// ErrLinkNotFound is a domain-specific error returned when an account link is not found.
var ErrLinkNotFound = errors.New("account link not found")

// AccountRepository defines the standard operations for external account persistence.
// External accounts are provider-side records (signers, customers) observed
// through intake. They are never deleted; only their links change hands.
type AccountRepository interface {
	// FindByID retrieves a single external account by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ExternalAccount, error)

	// FindByKindAndExternalID retrieves an account by its provider identifier.
	FindByKindAndExternalID(ctx context.Context, kind entity.AccountKind, externalID string) (*entity.ExternalAccount, error)

	// ListByEmail retrieves accounts of the given kind carrying the given
	// email address.
	ListByEmail(ctx context.Context, kind entity.AccountKind, email string) ([]*entity.ExternalAccount, error)

	// Create persists a new external account entity to the storage.
	Create(ctx context.Context, account *entity.ExternalAccount) error
}

// LinkRepository defines the standard operations for account link persistence.
// At most one link may exist per external account.
type LinkRepository interface {
	// Create persists a new account link.
	Create(ctx context.Context, link *entity.AccountLink) error

	// FindByAccount retrieves the link for the given external account, if any.
	FindByAccount(ctx context.Context, accountID uuid.UUID) (*entity.AccountLink, error)

	// ListByPerson retrieves all links held by a person. When kinds are given,
	// only links of those kinds are returned.
	ListByPerson(ctx context.Context, personID uuid.UUID, kinds ...entity.AccountKind) ([]*entity.AccountLink, error)

	// DeleteByPerson removes every link held by a person.
	DeleteByPerson(ctx context.Context, personID uuid.UUID) error

	// Reassign moves every link held by fromID to toID.
	Reassign(ctx context.Context, fromID, toID uuid.UUID) error
}
