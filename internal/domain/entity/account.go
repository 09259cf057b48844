// Package entity contains the core business objects of the project.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// AccountKind tags which external system an account originates from.
type AccountKind string

const (
	// AccountKindSigner identifies accounts from the e-signature system.
	AccountKindSigner AccountKind = "signer"

	// AccountKindCustomer identifies accounts from the payment system.
	AccountKindCustomer AccountKind = "customer"
)

// Valid reports whether the kind is one of the known external systems.
func (k AccountKind) Valid() bool {
	return k == AccountKindSigner || k == AccountKindCustomer
}

// ExternalAccount mirrors an identity record owned by one of the external
// systems. The reconciliation engine treats these as immutable inputs keyed
// by the vendor's id; they join to a Person only through an AccountLink.
type ExternalAccount struct {
	ID         uuid.UUID   // Local row id.
	Kind       AccountKind // Which external system the account belongs to.
	ExternalID string      // The vendor's stable account id.
	Email      string      // The email address the vendor reported for this account.
	Name       string      // The vendor-reported display name, when the system provides one.
	CreatedAt  time.Time   // Timestamp of when the account was first observed locally.
}

// AccountLink maps one external account to the Person that owns it.
// At most one link may exist per external account at any time; a link is
// re-pointed by merge and destroyed (then possibly recreated under another
// person) by unmerge.
type AccountLink struct {
	ID        uuid.UUID   // The Global Unique Identifier (GUID) for the link.
	PersonID  uuid.UUID   // The owning person.
	AccountID uuid.UUID   // The linked ExternalAccount row.
	Kind      AccountKind // Denormalized account kind, kept on the link for cheap filtering.
	CreatedAt time.Time   // Timestamp of when the association was made.
}
