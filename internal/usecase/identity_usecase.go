package usecase

import (
	"context"

	"rollcall/internal/domain/entity"

	"github.com/google/uuid"
)

// IdentityUsecase defines the interface for person curation use cases
type IdentityUsecase interface {
	// Merge moves everything owned by sourceID onto targetID and deletes the
	// source person. The target keeps its own name and preferred email.
	Merge(ctx context.Context, targetID, sourceID uuid.UUID) (*entity.Person, error)

	// Unmerge splits the given alias away from its owner. All of the owner's
	// account links are dropped and every account carrying the removed
	// address is re-associated from scratch.
	Unmerge(ctx context.Context, aliasID uuid.UUID) error

	// AddEmail attaches a new alias address to a person.
	AddEmail(ctx context.Context, personID uuid.UUID, address string) (*entity.EmailAlias, error)

	// SetPreferredEmail marks one of the person's own aliases as preferred.
	SetPreferredEmail(ctx context.Context, personID, aliasID uuid.UUID) error

	// Rename changes a person's display name.
	Rename(ctx context.Context, personID uuid.UUID, name string) error
}
