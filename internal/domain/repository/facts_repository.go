package repository

import (
	"context"

	"rollcall/internal/domain/entity"

	"github.com/google/uuid"
)

// SubmissionRepository defines read and sync operations for signed documents.
// Submissions are a provider-sourced read model; the engine never mutates
// them outside of intake syncs.
type SubmissionRepository interface {
	// Upsert writes a submission together with its signers and field values,
	// replacing any prior copy of the same external submission.
	Upsert(ctx context.Context, sub *entity.Submission, signers []*entity.SubmissionSigner, fields []*entity.SubmissionField) error

	// ListBySignerAccounts retrieves submissions signed by any of the given
	// signer accounts.
	ListBySignerAccounts(ctx context.Context, accountIDs []uuid.UUID) ([]*entity.Submission, error)

	// ListSignerAccountIDsByFieldValue retrieves the signer accounts of
	// submissions holding a field value that contains the query as a
	// case-insensitive substring.
	ListSignerAccountIDsByFieldValue(ctx context.Context, query string) ([]uuid.UUID, error)
}

// SubscriptionRepository defines read and sync operations for billing subscriptions.
type SubscriptionRepository interface {
	// Upsert writes a subscription, replacing any prior copy of the same
	// external subscription.
	Upsert(ctx context.Context, sub *entity.Subscription) error

	// ListByCustomerAccounts retrieves subscriptions belonging to any of the
	// given customer accounts.
	ListByCustomerAccounts(ctx context.Context, accountIDs []uuid.UUID) ([]*entity.Subscription, error)
}
