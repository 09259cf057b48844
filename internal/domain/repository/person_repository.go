// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"rollcall/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrPersonNotFound is a domain-specific error returned when a person is not found.
var ErrPersonNotFound = errors.New("person not found")

// ErrAliasNotFound is a domain-specific error returned when an email alias is not found.
var ErrAliasNotFound = errors.New("email alias not found")

// PersonRepository defines the standard operations for person persistence.
// The application layer will depend on this interface, not the concrete implementation.
type PersonRepository interface {
	// FindByID retrieves a single person, with aliases preloaded, by their unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Person, error)

	// List retrieves all persons ordered by name, with aliases preloaded.
	List(ctx context.Context) ([]*entity.Person, error)

	// SearchByText retrieves persons whose name or alias address contains the
	// query as a case-insensitive substring.
	SearchByText(ctx context.Context, query string) ([]*entity.Person, error)

	// Create persists a new person entity to the storage.
	Create(ctx context.Context, person *entity.Person) error

	// Update modifies an existing person entity in the storage.
	Update(ctx context.Context, person *entity.Person) error

	// Delete removes a person. Owned aliases are removed with it.
	Delete(ctx context.Context, id uuid.UUID) error

	// AddAlias persists a new email alias owned by an existing person.
	AddAlias(ctx context.Context, alias *entity.EmailAlias) error

	// DeleteAlias removes a single email alias by its unique ID.
	DeleteAlias(ctx context.Context, id uuid.UUID) error

	// FindAliasByID retrieves a single email alias by its unique ID.
	FindAliasByID(ctx context.Context, id uuid.UUID) (*entity.EmailAlias, error)

	// FindFirstAliasByAddress retrieves the oldest alias carrying the given
	// address. Addresses are not unique across persons, so the oldest row is
	// the deterministic winner for association lookups.
	FindFirstAliasByAddress(ctx context.Context, address string) (*entity.EmailAlias, error)

	// ReassignAliases moves every alias owned by fromID to toID.
	ReassignAliases(ctx context.Context, fromID, toID uuid.UUID) error
}
