package memory

import (
	"context"
	"testing"

	"rollcall/internal/domain/entity"
	"rollcall/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PersonDelete_CascadesAliasesAndLinks(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	personRepo := store.NewPersonRepository()
	accountRepo := store.NewAccountRepository()
	linkRepo := store.NewLinkRepository()

	person := &entity.Person{Name: "ada@example.com"}
	require.NoError(t, personRepo.Create(ctx, person))

	alias := &entity.EmailAlias{PersonID: person.ID, Address: "ada@example.com"}
	require.NoError(t, personRepo.AddAlias(ctx, alias))

	account := &entity.ExternalAccount{
		Kind:       entity.AccountKindSigner,
		ExternalID: "sig-1",
		Email:      "ada@example.com",
	}
	require.NoError(t, accountRepo.Create(ctx, account))

	link := &entity.AccountLink{
		PersonID:  person.ID,
		AccountID: account.ID,
		Kind:      account.Kind,
	}
	require.NoError(t, linkRepo.Create(ctx, link))

	require.NoError(t, personRepo.Delete(ctx, person.ID))

	// Owned aliases and links go with the person; the account itself stays.
	_, err := personRepo.FindAliasByID(ctx, alias.ID)
	assert.ErrorIs(t, err, repository.ErrAliasNotFound)

	_, err = linkRepo.FindByAccount(ctx, account.ID)
	assert.ErrorIs(t, err, repository.ErrLinkNotFound)

	kept, err := accountRepo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "sig-1", kept.ExternalID)
}
