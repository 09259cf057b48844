// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Person is the identity anchor of the system: one local record uniting every
// external account that has been recognized as the same human being.
// Persons are created either explicitly or implicitly by the auto-associator
// when an observed account matches no known email alias. A Person is deleted
// only as the source side of a merge, never otherwise.
type Person struct {
	ID               uuid.UUID     // The Global Unique Identifier (GUID) for the person.
	Name             string        // Display name. Bootstrapped persons carry their email address as a placeholder name until renamed.
	PreferredEmailID *uuid.UUID    // Optional reference to one of the person's own aliases. Nil when no preference is recorded.
	Aliases          []*EmailAlias // Every email alias owned by this person.
	CreatedAt        time.Time     // Timestamp of when this person record was created.
	UpdatedAt        time.Time     // Timestamp of the last modification to this person's data.
}

// OwnsAlias reports whether the given alias id belongs to this person.
// Used to enforce that a preferred email always references an owned alias.
func (p *Person) OwnsAlias(aliasID uuid.UUID) bool {
	for _, alias := range p.Aliases {
		if alias.ID == aliasID {
			return true
		}
	}

	return false
}

// EmailAlias is an email address owned by exactly one Person at a time.
// Address values are deliberately not unique across persons: two persons
// holding the same address is the unresolved-duplicate state the
// reconciliation engine exists to collapse on the next relevant event.
type EmailAlias struct {
	ID        uuid.UUID // The Global Unique Identifier (GUID) for the alias.
	PersonID  uuid.UUID // The owning person.
	Address   string    // The email address, stored lower-cased and matched case-insensitively.
	CreatedAt time.Time // Timestamp of when this alias was recorded. Oldest alias wins ambiguous lookups.
}
