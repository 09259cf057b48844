package usecase

import (
	"context"
	"time"
)

// SubmissionSignerInput is one signer on a synced submission. Each signer is
// observed as a signer account before the submission is stored.
type SubmissionSignerInput struct {
	ExternalID string `json:"external_id" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Status     string `json:"status"`
}

// SubmissionFieldInput is one submitted field value on a synced submission.
type SubmissionFieldInput struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// SubmissionInput carries a provider-side document submission.
type SubmissionInput struct {
	ExternalID  string                  `json:"external_id" validate:"required"`
	Category    string                  `json:"category"`
	Name        string                  `json:"name"`
	Status      string                  `json:"status"`
	CompletedAt *time.Time              `json:"completed_at"`
	Signers     []SubmissionSignerInput `json:"signers" validate:"dive"`
	Fields      []SubmissionFieldInput  `json:"fields"`
}

// SubscriptionInput carries a provider-side billing subscription together
// with the customer account it belongs to.
type SubscriptionInput struct {
	ExternalID         string     `json:"external_id" validate:"required"`
	CustomerExternalID string     `json:"customer_external_id" validate:"required"`
	CustomerEmail      string     `json:"customer_email" validate:"required,email"`
	CustomerName       string     `json:"customer_name"`
	Name               string     `json:"name"`
	Status             string     `json:"status"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end"`
}

// IntakeUsecase defines the interface for syncing provider facts.
// Every sync runs the accounts it mentions through association first, so a
// fact never references an account the store does not know.
type IntakeUsecase interface {
	// SyncSubmission stores a submission and observes its signers.
	SyncSubmission(ctx context.Context, input *SubmissionInput) error

	// SyncSubscription stores a subscription and observes its customer.
	SyncSubscription(ctx context.Context, input *SubscriptionInput) error
}
