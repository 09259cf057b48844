package usecase

import (
	"context"

	"rollcall/internal/domain/entity"

	"github.com/google/uuid"
)

// PersonStatus bundles a person with the provider facts reachable through
// their account links.
type PersonStatus struct {
	Person        *entity.Person
	Membership    entity.MembershipStatus
	Waiver        bool
	Subscriptions []*entity.Subscription
	Submissions   []*entity.Submission
}

// StatusUsecase defines the read-side interface over reconciled identities
type StatusUsecase interface {
	// Get retrieves a person together with their derived membership and
	// waiver status.
	Get(ctx context.Context, personID uuid.UUID) (*PersonStatus, error)

	// List retrieves all persons ordered by name.
	List(ctx context.Context) ([]*entity.Person, error)

	// Members retrieves the persons holding a current membership.
	Members(ctx context.Context) ([]*PersonStatus, error)

	// Search retrieves persons matching the query by name, alias address or
	// submitted field value.
	Search(ctx context.Context, query string) ([]*entity.Person, error)

	// MembershipStatus derives a person's membership from their
	// subscriptions. Any subscription in a non-active state wins over an
	// active one.
	MembershipStatus(ctx context.Context, personID uuid.UUID) (entity.MembershipStatus, error)

	// HasValidWaiver reports whether any signer account linked to the person
	// completed a waiver submission.
	HasValidWaiver(ctx context.Context, personID uuid.UUID) (bool, error)
}
