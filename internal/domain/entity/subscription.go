// Package entity contains the core business objects of the project.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatusActive is the status the payment system reports for a
// subscription in good standing. Any other status is treated as degraded.
const SubscriptionStatusActive = "active"

// MembershipStatus is the derived membership state of a person. Besides the
// two fixed values below it can carry any degraded status string reported by
// the payment system (e.g. "past_due", "paused").
type MembershipStatus string

const (
	// MembershipNone means no subscription of any status was found.
	MembershipNone MembershipStatus = "none"

	// MembershipActive means every subscription found is in active state.
	MembershipActive MembershipStatus = "active"
)

// Current reports whether the status grants membership privileges.
func (s MembershipStatus) Current() bool {
	return s == MembershipActive
}

// Subscription is a read model of one recurring purchase in the payment
// system, reduced to what membership derivation needs. Rows are loaded by
// the external sync collaborator; the reconciliation core only reads them.
type Subscription struct {
	ID                uuid.UUID  // Local row id.
	ExternalID        string     // The vendor's subscription id.
	CustomerAccountID uuid.UUID  // The owning ExternalAccount row (customer kind).
	Name              string     // Label for whom the subscription was purchased, "self" when absent.
	Status            string     // Vendor-reported status.
	CurrentPeriodEnd  *time.Time // End of the paid-up period, nil when unknown.
	CreatedAt         time.Time  // When the subscription was created at the vendor.
}

// Active reports whether the subscription is in good standing.
func (s *Subscription) Active() bool {
	return s.Status == SubscriptionStatusActive
}
