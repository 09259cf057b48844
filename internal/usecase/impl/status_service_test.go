package impl

import (
	"context"
	"testing"
	"time"

	"rollcall/internal/domain/entity"
	domainerrors "rollcall/internal/domain/errors"
	"rollcall/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syncSubscription(t *testing.T, fx serviceFixtures, externalID, email, status string) {
	t.Helper()

	periodEnd := time.Now().Add(30 * 24 * time.Hour)
	err := fx.intake.SyncSubscription(context.Background(), &usecase.SubscriptionInput{
		ExternalID:         externalID,
		CustomerExternalID: "cus-" + externalID,
		CustomerEmail:      email,
		Name:               "self",
		Status:             status,
		CurrentPeriodEnd:   &periodEnd,
	})
	require.NoError(t, err)
}

func syncSubmission(t *testing.T, fx serviceFixtures, externalID, email, category, status string, fields ...usecase.SubmissionFieldInput) {
	t.Helper()

	var completedAt *time.Time
	if status == entity.SubmissionStatusCompleted {
		now := time.Now()
		completedAt = &now
	}

	err := fx.intake.SyncSubmission(context.Background(), &usecase.SubmissionInput{
		ExternalID:  externalID,
		Category:    category,
		Name:        "Document",
		Status:      status,
		CompletedAt: completedAt,
		Signers: []usecase.SubmissionSignerInput{
			{ExternalID: "sig-" + externalID, Email: email, Role: "participant", Status: status},
		},
		Fields: fields,
	})
	require.NoError(t, err)
}

func TestStatusService_Get_NotFound(t *testing.T) {
	fx := createTestServices()

	status, err := fx.status.Get(context.Background(), uuid.New())
	assert.Error(t, err)
	assert.Nil(t, status)
	assert.True(t, domainerrors.IsNotFound(err))
}

func TestStatusService_MembershipStatus_NoSubscriptions(t *testing.T) {
	fx := createTestServices()
	ctx := context.Background()

	person := observeAccount(t, fx, entity.AccountKindSigner, "sig-1", "ada@example.com")

	membership, err := fx.status.MembershipStatus(ctx, person.Person.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.MembershipNone, membership)
}

func TestStatusService_MembershipStatus_Active(t *testing.T) {
	fx := createTestServices()
	ctx := context.Background()

	syncSubscription(t, fx, "sub-1", "ada@example.com", "active")

	persons, err := fx.store.NewPersonRepository().List(ctx)
	require.NoError(t, err)
	require.Len(t, persons, 1)

	membership, err := fx.status.MembershipStatus(ctx, persons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, entity.MembershipActive, membership)
	assert.True(t, membership.Current())
}

func TestStatusService_MembershipStatus_Pessimistic(t *testing.T) {
	fx := createTestServices()
	ctx := context.Background()

	// One degraded subscription outweighs any number of active ones.
	syncSubscription(t, fx, "sub-1", "ada@example.com", "active")
	syncSubscription(t, fx, "sub-2", "ada@example.com", "past_due")

	persons, err := fx.store.NewPersonRepository().List(ctx)
	require.NoError(t, err)
	require.Len(t, persons, 1)

	membership, err := fx.status.MembershipStatus(ctx, persons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, entity.MembershipStatus("past_due"), membership)
	assert.False(t, membership.Current())
}

func TestStatusService_HasValidWaiver(t *testing.T) {
	fx := createTestServices()
	ctx := context.Background()

	syncSubmission(t, fx, "doc-1", "ada@example.com", "Waiver", entity.SubmissionStatusCompleted)
	syncSubmission(t, fx, "doc-2", "grace@example.com", "waiver", "pending")
	syncSubmission(t, fx, "doc-3", "alan@example.com", "newsletter", entity.SubmissionStatusCompleted)

	persons, err := fx.store.NewPersonRepository().List(ctx)
	require.NoError(t, err)
	require.Len(t, persons, 3)

	byName := make(map[string]uuid.UUID, len(persons))
	for _, person := range persons {
		byName[person.Name] = person.ID
	}

	// Category comparison folds case, so "Waiver" still counts.
	waiver, err := fx.status.HasValidWaiver(ctx, byName["ada@example.com"])
	require.NoError(t, err)
	assert.True(t, waiver)

	// A pending submission never grants a waiver.
	waiver, err = fx.status.HasValidWaiver(ctx, byName["grace@example.com"])
	require.NoError(t, err)
	assert.False(t, waiver)

	waiver, err = fx.status.HasValidWaiver(ctx, byName["alan@example.com"])
	require.NoError(t, err)
	assert.False(t, waiver)
}

func TestStatusService_Members(t *testing.T) {
	fx := createTestServices()
	ctx := context.Background()

	syncSubscription(t, fx, "sub-1", "ada@example.com", "active")
	syncSubscription(t, fx, "sub-2", "grace@example.com", "canceled")
	observeAccount(t, fx, entity.AccountKindSigner, "sig-1", "alan@example.com")

	members, err := fx.status.Members(ctx)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "ada@example.com", members[0].Person.Name)
	assert.Equal(t, entity.MembershipActive, members[0].Membership)
}

func TestStatusService_Search_ByNameAndAlias(t *testing.T) {
	fx := createTestServices()
	ctx := context.Background()

	ada := observeAccount(t, fx, entity.AccountKindSigner, "sig-1", "ada@example.com")
	require.NoError(t, fx.identity.Rename(ctx, ada.Person.ID, "Ada Lovelace"))
	observeAccount(t, fx, entity.AccountKindSigner, "sig-2", "grace@example.com")

	byName, err := fx.status.Search(ctx, "lovelace")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, ada.Person.ID, byName[0].ID)

	byAlias, err := fx.status.Search(ctx, "ada@")
	require.NoError(t, err)
	require.Len(t, byAlias, 1)
	assert.Equal(t, ada.Person.ID, byAlias[0].ID)
}

func TestStatusService_Search_ByFieldValue(t *testing.T) {
	fx := createTestServices()
	ctx := context.Background()

	syncSubmission(t, fx, "doc-1", "ada@example.com", "waiver", entity.SubmissionStatusCompleted,
		usecase.SubmissionFieldInput{Field: "Emergency Contact", Value: "Charles Babbage"},
	)

	// Nothing in the person record carries the value; the match walks the
	// submission back through its signer account.
	results, err := fx.status.Search(ctx, "babbage")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ada@example.com", results[0].Name)
}

func TestStatusService_Search_DedupesAndSorts(t *testing.T) {
	fx := createTestServices()
	ctx := context.Background()

	ada := observeAccount(t, fx, entity.AccountKindSigner, "sig-1", "ada@example.com")
	require.NoError(t, fx.identity.Rename(ctx, ada.Person.ID, "ada"))
	syncSubmission(t, fx, "doc-1", "ada@example.com", "waiver", entity.SubmissionStatusCompleted,
		usecase.SubmissionFieldInput{Field: "Nickname", Value: "ada"},
	)

	bert := observeAccount(t, fx, entity.AccountKindSigner, "sig-2", "bert.ada@example.com")
	require.NoError(t, fx.identity.Rename(ctx, bert.Person.ID, "Bert"))

	results, err := fx.status.Search(ctx, "ada")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "ada", results[0].Name)
	assert.Equal(t, "Bert", results[1].Name)
}

func TestStatusService_Search_EmptyQuery(t *testing.T) {
	fx := createTestServices()

	results, err := fx.status.Search(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStatusService_Get_FullStatus(t *testing.T) {
	fx := createTestServices()
	ctx := context.Background()

	syncSubscription(t, fx, "sub-1", "ada@example.com", "active")
	syncSubmission(t, fx, "doc-1", "ada@example.com", "waiver", entity.SubmissionStatusCompleted)

	persons, err := fx.store.NewPersonRepository().List(ctx)
	require.NoError(t, err)
	require.Len(t, persons, 1)

	status, err := fx.status.Get(ctx, persons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, entity.MembershipActive, status.Membership)
	assert.True(t, status.Waiver)
	assert.Len(t, status.Subscriptions, 1)
	assert.Len(t, status.Submissions, 1)
}
