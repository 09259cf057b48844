package impl

import (
	"context"
	"testing"

	"rollcall/internal/domain/entity"
	domainerrors "rollcall/internal/domain/errors"
	"rollcall/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func observeAccount(t *testing.T, fx serviceFixtures, kind entity.AccountKind, externalID, email string) *usecase.AssociationResult {
	t.Helper()

	result, err := fx.associator.Observe(context.Background(), &usecase.ObservedAccountInput{
		Kind:       kind,
		ExternalID: externalID,
		Email:      email,
	})
	require.NoError(t, err)

	return result
}

func TestIdentityService_Merge_MovesLinksAndAliases(t *testing.T) {
	fx := createTestServices()
	ctx := context.Background()

	target := observeAccount(t, fx, entity.AccountKindSigner, "sig-1", "ada@example.com")
	source := observeAccount(t, fx, entity.AccountKindCustomer, "cus-1", "a.lovelace@example.com")
	require.NotEqual(t, target.Person.ID, source.Person.ID)

	require.NoError(t, fx.identity.Rename(ctx, target.Person.ID, "Ada Lovelace"))

	merged, err := fx.identity.Merge(ctx, target.Person.ID, source.Person.ID)
	require.NoError(t, err)

	// Target keeps its identity facet, gains the source's aliases.
	assert.Equal(t, "Ada Lovelace", merged.Name)
	assert.Len(t, merged.Aliases, 2)
	require.NotNil(t, merged.PreferredEmailID)
	assert.Equal(t, *target.Person.PreferredEmailID, *merged.PreferredEmailID)

	links, err := fx.store.NewLinkRepository().ListByPerson(ctx, target.Person.ID)
	require.NoError(t, err)
	assert.Len(t, links, 2)

	_, err = fx.store.NewPersonRepository().FindByID(ctx, source.Person.ID)
	assert.Error(t, err)
}

func TestIdentityService_Merge_SelfRejected(t *testing.T) {
	fx := createTestServices()
	ctx := context.Background()

	target := observeAccount(t, fx, entity.AccountKindSigner, "sig-1", "ada@example.com")

	merged, err := fx.identity.Merge(ctx, target.Person.ID, target.Person.ID)
	assert.Error(t, err)
	assert.Nil(t, merged)
	assert.True(t, domainerrors.IsInvalidOperation(err))
}

func TestIdentityService_Merge_SourceNotFound(t *testing.T) {
	fx := createTestServices()
	ctx := context.Background()

	target := observeAccount(t, fx, entity.AccountKindSigner, "sig-1", "ada@example.com")

	_, err := fx.identity.Merge(ctx, target.Person.ID, uuid.New())
	assert.Error(t, err)
	assert.True(t, domainerrors.IsNotFound(err))

	// The failed merge must leave the target untouched.
	person, findErr := fx.store.NewPersonRepository().FindByID(ctx, target.Person.ID)
	require.NoError(t, findErr)
	assert.Len(t, person.Aliases, 1)
}

func TestIdentityService_Unmerge_SplitsPerson(t *testing.T) {
	fx := createTestServices()
	ctx := context.Background()

	owner := observeAccount(t, fx, entity.AccountKindSigner, "sig-1", "ada@example.com")
	_, err := fx.identity.AddEmail(ctx, owner.Person.ID, "a.lovelace@example.com")
	require.NoError(t, err)

	// Second signer joins the owner through the added address.
	other := observeAccount(t, fx, entity.AccountKindSigner, "sig-2", "a.lovelace@example.com")
	require.Equal(t, owner.Person.ID, other.Person.ID)

	person, err := fx.store.NewPersonRepository().FindByID(ctx, owner.Person.ID)
	require.NoError(t, err)

	var removed *entity.EmailAlias
	for _, alias := range person.Aliases {
		if alias.Address == "a.lovelace@example.com" {
			removed = alias
		}
	}
	require.NotNil(t, removed)

	require.NoError(t, fx.identity.Unmerge(ctx, removed.ID))

	// The owner keeps its original alias but holds no links at all; accounts
	// on its remaining addresses wait for a later observation.
	person, err = fx.store.NewPersonRepository().FindByID(ctx, owner.Person.ID)
	require.NoError(t, err)
	require.Len(t, person.Aliases, 1)
	assert.Equal(t, "ada@example.com", person.Aliases[0].Address)

	ownerLinks, err := fx.store.NewLinkRepository().ListByPerson(ctx, owner.Person.ID)
	require.NoError(t, err)
	assert.Empty(t, ownerLinks)

	// The account on the removed address bootstrapped a fresh person.
	link, err := fx.store.NewLinkRepository().FindByAccount(ctx, other.Account.ID)
	require.NoError(t, err)
	assert.NotEqual(t, owner.Person.ID, link.PersonID)

	split, err := fx.store.NewPersonRepository().FindByID(ctx, link.PersonID)
	require.NoError(t, err)
	assert.Equal(t, "a.lovelace@example.com", split.Name)

	// Re-observing the owner's account settles it back on the owner.
	reobserved := observeAccount(t, fx, entity.AccountKindSigner, "sig-1", "ada@example.com")
	assert.False(t, reobserved.CreatedPerson)
	assert.Equal(t, owner.Person.ID, reobserved.Person.ID)
}

func TestIdentityService_Unmerge_SiblingsShareFreshPerson(t *testing.T) {
	fx := createTestServices()
	ctx := context.Background()

	owner := observeAccount(t, fx, entity.AccountKindSigner, "sig-1", "ada@example.com")
	_, err := fx.identity.AddEmail(ctx, owner.Person.ID, "a.lovelace@example.com")
	require.NoError(t, err)

	// Two accounts, one per kind, both join through the added address.
	first := observeAccount(t, fx, entity.AccountKindSigner, "sig-2", "a.lovelace@example.com")
	second := observeAccount(t, fx, entity.AccountKindCustomer, "cus-1", "a.lovelace@example.com")
	require.Equal(t, owner.Person.ID, first.Person.ID)
	require.Equal(t, owner.Person.ID, second.Person.ID)

	person, err := fx.store.NewPersonRepository().FindByID(ctx, owner.Person.ID)
	require.NoError(t, err)

	var removed *entity.EmailAlias
	for _, alias := range person.Aliases {
		if alias.Address == "a.lovelace@example.com" {
			removed = alias
		}
	}
	require.NotNil(t, removed)

	require.NoError(t, fx.identity.Unmerge(ctx, removed.ID))

	// Both accounts on the removed address land on the same fresh person.
	firstLink, err := fx.store.NewLinkRepository().FindByAccount(ctx, first.Account.ID)
	require.NoError(t, err)
	secondLink, err := fx.store.NewLinkRepository().FindByAccount(ctx, second.Account.ID)
	require.NoError(t, err)
	assert.Equal(t, firstLink.PersonID, secondLink.PersonID)
	assert.NotEqual(t, owner.Person.ID, firstLink.PersonID)

	split, err := fx.store.NewPersonRepository().FindByID(ctx, firstLink.PersonID)
	require.NoError(t, err)
	require.Len(t, split.Aliases, 1)
	assert.Equal(t, "a.lovelace@example.com", split.Aliases[0].Address)
}

func TestIdentityService_Unmerge_ReassignsPreferred(t *testing.T) {
	fx := createTestServices()
	ctx := context.Background()

	owner := observeAccount(t, fx, entity.AccountKindSigner, "sig-1", "ada@example.com")
	second, err := fx.identity.AddEmail(ctx, owner.Person.ID, "a.lovelace@example.com")
	require.NoError(t, err)

	// Prefer the newer alias, then strip it away.
	require.NoError(t, fx.identity.SetPreferredEmail(ctx, owner.Person.ID, second.ID))
	require.NoError(t, fx.identity.Unmerge(ctx, second.ID))

	person, err := fx.store.NewPersonRepository().FindByID(ctx, owner.Person.ID)
	require.NoError(t, err)
	require.NotNil(t, person.PreferredEmailID)
	require.Len(t, person.Aliases, 1)
	assert.Equal(t, person.Aliases[0].ID, *person.PreferredEmailID)
}

func TestIdentityService_Unmerge_AliasNotFound(t *testing.T) {
	fx := createTestServices()

	err := fx.identity.Unmerge(context.Background(), uuid.New())
	assert.Error(t, err)
	assert.True(t, domainerrors.IsNotFound(err))
}

func TestIdentityService_AddEmail_Duplicate(t *testing.T) {
	fx := createTestServices()
	ctx := context.Background()

	owner := observeAccount(t, fx, entity.AccountKindSigner, "sig-1", "ada@example.com")

	alias, err := fx.identity.AddEmail(ctx, owner.Person.ID, "Ada@Example.com")
	assert.Error(t, err)
	assert.Nil(t, alias)
	assert.True(t, domainerrors.IsConstraintViolation(err))
}

func TestIdentityService_SetPreferredEmail_NotOwned(t *testing.T) {
	fx := createTestServices()
	ctx := context.Background()

	owner := observeAccount(t, fx, entity.AccountKindSigner, "sig-1", "ada@example.com")
	stranger := observeAccount(t, fx, entity.AccountKindSigner, "sig-2", "grace@example.com")

	err := fx.identity.SetPreferredEmail(ctx, owner.Person.ID, *stranger.Person.PreferredEmailID)
	assert.Error(t, err)
	assert.True(t, domainerrors.IsInvalidOperation(err))
}

func TestIdentityService_Rename(t *testing.T) {
	fx := createTestServices()
	ctx := context.Background()

	owner := observeAccount(t, fx, entity.AccountKindSigner, "sig-1", "ada@example.com")

	require.NoError(t, fx.identity.Rename(ctx, owner.Person.ID, "Ada Lovelace"))

	person, err := fx.store.NewPersonRepository().FindByID(ctx, owner.Person.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", person.Name)

	err = fx.identity.Rename(ctx, owner.Person.ID, "   ")
	assert.Error(t, err)
	assert.True(t, domainerrors.IsInvalidOperation(err))
}
