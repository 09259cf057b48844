// Package entity contains the core business objects of the project.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Audit entry kinds written by the reconciliation engine. Kept as plain
// strings so operational tooling can filter without importing this package.
const (
	AuditPersonCreated  = "person.created"
	AuditAccountLinked  = "account.linked"
	AuditPersonMerged   = "person.merged"
	AuditPersonUnmerged = "person.unmerged"
	AuditEmailAdded     = "email.added"
	AuditEmailPreferred = "email.preferred"
	AuditPersonRenamed  = "person.renamed"
)

// AuditEntry is one append-only record of a mutation the engine performed,
// kept for operational traceability.
type AuditEntry struct {
	ID          uuid.UUID      // The Global Unique Identifier (GUID) for the entry.
	Timestamp   time.Time      // When the mutation happened.
	Kind        string         // One of the Audit* kinds above.
	Description string         // Free-text description of what happened.
	Context     map[string]any // Structured context (ids, email addresses) for filtering.
}
