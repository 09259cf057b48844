// Package entity contains the core business objects of the project.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionStatusCompleted is the status the e-signature system reports once
// every signer has finished a document. Only completed submissions count
// toward waiver status.
const SubmissionStatusCompleted = "completed"

// Submission is a read model of one signed-document workflow in the
// e-signature system. Rows are loaded by the external sync collaborator; the
// reconciliation core only reads them.
type Submission struct {
	ID          uuid.UUID  // Local row id.
	ExternalID  string     // The vendor's submission id.
	Category    string     // Folder/category of the underlying template, e.g. the designated waiver category.
	Name        string     // Template name.
	Status      string     // Vendor-reported workflow status.
	CompletedAt *time.Time // When the submission completed, nil while in progress.
}

// SubmissionSigner records that a signer account participated in a submission.
type SubmissionSigner struct {
	ID              uuid.UUID // Local row id.
	SubmissionID    uuid.UUID // The submission participated in.
	SignerAccountID uuid.UUID // The participating ExternalAccount row (signer kind).
	Role            string    // The signer's role on the document.
	Status          string    // The signer's individual completion status.
}

// SubmissionField is a form field value captured from a submission, kept so
// people remain searchable by what they wrote on their documents.
type SubmissionField struct {
	ID           uuid.UUID // Local row id.
	SubmissionID uuid.UUID // The submission the value was extracted from.
	Field        string    // Field title.
	Value        string    // The submitted value.
}
