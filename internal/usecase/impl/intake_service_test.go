package impl

import (
	"context"
	"testing"
	"time"

	"rollcall/internal/domain/entity"
	domainerrors "rollcall/internal/domain/errors"
	"rollcall/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntakeService_SyncSubmission_ObservesSigners(t *testing.T) {
	fx := createTestServices()
	ctx := context.Background()

	now := time.Now()
	err := fx.intake.SyncSubmission(ctx, &usecase.SubmissionInput{
		ExternalID:  "doc-1",
		Category:    "waiver",
		Name:        "Liability Waiver",
		Status:      entity.SubmissionStatusCompleted,
		CompletedAt: &now,
		Signers: []usecase.SubmissionSignerInput{
			{ExternalID: "sig-1", Email: "ada@example.com", Role: "participant", Status: "completed"},
			{ExternalID: "sig-2", Email: "grace@example.com", Role: "guardian", Status: "completed"},
		},
		Fields: []usecase.SubmissionFieldInput{
			{Field: "Phone", Value: "555-0100"},
		},
	})
	require.NoError(t, err)

	// Each signer bootstrapped a person and holds a link.
	persons, err := fx.store.NewPersonRepository().List(ctx)
	require.NoError(t, err)
	assert.Len(t, persons, 2)

	for _, person := range persons {
		links, err := fx.store.NewLinkRepository().ListByPerson(ctx, person.ID, entity.AccountKindSigner)
		require.NoError(t, err)
		assert.Len(t, links, 1)
	}
}

func TestIntakeService_SyncSubmission_UpsertReplaces(t *testing.T) {
	fx := createTestServices()
	ctx := context.Background()

	input := &usecase.SubmissionInput{
		ExternalID: "doc-1",
		Category:   "waiver",
		Status:     "pending",
		Signers: []usecase.SubmissionSignerInput{
			{ExternalID: "sig-1", Email: "ada@example.com", Status: "awaiting"},
		},
	}
	require.NoError(t, fx.intake.SyncSubmission(ctx, input))

	now := time.Now()
	input.Status = entity.SubmissionStatusCompleted
	input.CompletedAt = &now
	input.Signers[0].Status = "completed"
	require.NoError(t, fx.intake.SyncSubmission(ctx, input))

	persons, err := fx.store.NewPersonRepository().List(ctx)
	require.NoError(t, err)
	require.Len(t, persons, 1)

	// The re-sync replaced the stored row instead of duplicating it.
	waiver, err := fx.status.HasValidWaiver(ctx, persons[0].ID)
	require.NoError(t, err)
	assert.True(t, waiver)

	status, err := fx.status.Get(ctx, persons[0].ID)
	require.NoError(t, err)
	require.Len(t, status.Submissions, 1)
	assert.Equal(t, entity.SubmissionStatusCompleted, status.Submissions[0].Status)
}

func TestIntakeService_SyncSubmission_ValidationFailed(t *testing.T) {
	fx := createTestServices()

	err := fx.intake.SyncSubmission(context.Background(), &usecase.SubmissionInput{
		Category: "waiver",
	})
	assert.Error(t, err)
	assert.True(t, domainerrors.IsInvalidOperation(err))
}

func TestIntakeService_SyncSubscription_ObservesCustomer(t *testing.T) {
	fx := createTestServices()
	ctx := context.Background()

	err := fx.intake.SyncSubscription(ctx, &usecase.SubscriptionInput{
		ExternalID:         "sub-1",
		CustomerExternalID: "cus-1",
		CustomerEmail:      "ada@example.com",
		Name:               "self",
		Status:             "active",
	})
	require.NoError(t, err)

	persons, err := fx.store.NewPersonRepository().List(ctx)
	require.NoError(t, err)
	require.Len(t, persons, 1)

	links, err := fx.store.NewLinkRepository().ListByPerson(ctx, persons[0].ID, entity.AccountKindCustomer)
	require.NoError(t, err)
	assert.Len(t, links, 1)
}

func TestIntakeService_SyncSubscription_ValidationFailed(t *testing.T) {
	fx := createTestServices()

	err := fx.intake.SyncSubscription(context.Background(), &usecase.SubscriptionInput{
		ExternalID:         "sub-1",
		CustomerExternalID: "cus-1",
		CustomerEmail:      "not-an-email",
	})
	assert.Error(t, err)
	assert.True(t, domainerrors.IsInvalidOperation(err))
}
