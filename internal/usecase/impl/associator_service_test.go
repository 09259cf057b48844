package impl

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"rollcall/internal/domain/entity"
	domainerrors "rollcall/internal/domain/errors"
	"rollcall/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssociatorService_Observe_BootstrapsPerson(t *testing.T) {
	fx := createTestServices()
	ctx := context.Background()

	result, err := fx.associator.Observe(ctx, &usecase.ObservedAccountInput{
		Kind:       entity.AccountKindSigner,
		ExternalID: "sig-1",
		Email:      "ada@example.com",
		Name:       "Ada Lovelace",
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.CreatedPerson)
	assert.True(t, result.CreatedLink)
	assert.Equal(t, "ada@example.com", result.Person.Name)
	require.Len(t, result.Person.Aliases, 1)
	assert.Equal(t, "ada@example.com", result.Person.Aliases[0].Address)
	require.NotNil(t, result.Person.PreferredEmailID)
	assert.Equal(t, result.Person.Aliases[0].ID, *result.Person.PreferredEmailID)
}

func TestAssociatorService_Observe_Idempotent(t *testing.T) {
	fx := createTestServices()
	ctx := context.Background()

	input := &usecase.ObservedAccountInput{
		Kind:       entity.AccountKindSigner,
		ExternalID: "sig-1",
		Email:      "ada@example.com",
	}

	first, err := fx.associator.Observe(ctx, input)
	require.NoError(t, err)

	second, err := fx.associator.Observe(ctx, input)
	require.NoError(t, err)

	assert.Equal(t, first.Person.ID, second.Person.ID)
	assert.Equal(t, first.Account.ID, second.Account.ID)
	assert.False(t, second.CreatedPerson)
	assert.False(t, second.CreatedLink)

	persons, err := fx.store.NewPersonRepository().List(ctx)
	require.NoError(t, err)
	assert.Len(t, persons, 1)
}

func TestAssociatorService_Observe_JoinsByEmail(t *testing.T) {
	fx := createTestServices()
	ctx := context.Background()

	signer, err := fx.associator.Observe(ctx, &usecase.ObservedAccountInput{
		Kind:       entity.AccountKindSigner,
		ExternalID: "sig-1",
		Email:      "ada@example.com",
	})
	require.NoError(t, err)

	customer, err := fx.associator.Observe(ctx, &usecase.ObservedAccountInput{
		Kind:       entity.AccountKindCustomer,
		ExternalID: "cus-1",
		Email:      "ada@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, signer.Person.ID, customer.Person.ID)
	assert.False(t, customer.CreatedPerson)
	assert.True(t, customer.CreatedLink)
}

func TestAssociatorService_Observe_EmailCaseInsensitive(t *testing.T) {
	fx := createTestServices()
	ctx := context.Background()

	first, err := fx.associator.Observe(ctx, &usecase.ObservedAccountInput{
		Kind:       entity.AccountKindSigner,
		ExternalID: "sig-1",
		Email:      "Ada@Example.COM",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", first.Account.Email)

	second, err := fx.associator.Observe(ctx, &usecase.ObservedAccountInput{
		Kind:       entity.AccountKindCustomer,
		ExternalID: "cus-1",
		Email:      "ada@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, first.Person.ID, second.Person.ID)
}

func TestAssociatorService_Observe_OldestAliasWins(t *testing.T) {
	fx := createTestServices()
	ctx := context.Background()

	older, err := fx.associator.Observe(ctx, &usecase.ObservedAccountInput{
		Kind:       entity.AccountKindSigner,
		ExternalID: "sig-old",
		Email:      "shared@example.com",
	})
	require.NoError(t, err)

	newer, err := fx.associator.Observe(ctx, &usecase.ObservedAccountInput{
		Kind:       entity.AccountKindSigner,
		ExternalID: "sig-new",
		Email:      "other@example.com",
	})
	require.NoError(t, err)

	// Both persons now hold the shared address; the older alias decides.
	_, err = fx.identity.AddEmail(ctx, newer.Person.ID, "shared@example.com")
	require.NoError(t, err)

	result, err := fx.associator.Observe(ctx, &usecase.ObservedAccountInput{
		Kind:       entity.AccountKindCustomer,
		ExternalID: "cus-1",
		Email:      "shared@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, older.Person.ID, result.Person.ID)
}

func TestAssociatorService_Observe_ValidationFailed(t *testing.T) {
	fx := createTestServices()
	ctx := context.Background()

	result, err := fx.associator.Observe(ctx, &usecase.ObservedAccountInput{
		Kind:       entity.AccountKindSigner,
		ExternalID: "sig-1",
		Email:      "not-an-email",
	})
	assert.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, domainerrors.IsInvalidOperation(err))
}

func TestAssociatorService_Observe_UnknownKindRejected(t *testing.T) {
	fx := createTestServices()
	ctx := context.Background()

	_, err := fx.associator.Observe(ctx, &usecase.ObservedAccountInput{
		Kind:       entity.AccountKind("vendor"),
		ExternalID: "v-1",
		Email:      "ada@example.com",
	})
	assert.Error(t, err)
	assert.True(t, domainerrors.IsInvalidOperation(err))
}

func TestAssociatorService_Associate_AlreadyLinked(t *testing.T) {
	fx := createTestServices()
	ctx := context.Background()

	result, err := fx.associator.Observe(ctx, &usecase.ObservedAccountInput{
		Kind:       entity.AccountKindSigner,
		ExternalID: "sig-1",
		Email:      "ada@example.com",
	})
	require.NoError(t, err)

	_, err = fx.associator.Associate(ctx, result.Account)
	assert.Error(t, err)
	assert.True(t, domainerrors.IsConstraintViolation(err))
}

func TestAssociatorService_Observe_ConcurrentSameEmail(t *testing.T) {
	fx := createTestServices()
	ctx := context.Background()

	const workers = 16

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fx.associator.Observe(ctx, &usecase.ObservedAccountInput{
				Kind:       entity.AccountKindSigner,
				ExternalID: fmt.Sprintf("sig-%d", i),
				Email:      "race@example.com",
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Every account raced onto the same address; exactly one person may exist.
	persons, err := fx.store.NewPersonRepository().List(ctx)
	require.NoError(t, err)
	assert.Len(t, persons, 1)

	links, err := fx.store.NewLinkRepository().ListByPerson(ctx, persons[0].ID)
	require.NoError(t, err)
	assert.Len(t, links, workers)
}
