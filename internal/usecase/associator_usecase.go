// Package usecase defines the application-layer contracts for identity reconciliation.
package usecase

import (
	"context"

	"rollcall/internal/domain/entity"
)

// ObservedAccountInput carries a provider-side account observed through intake.
// ExternalID is the provider's own identifier and is stable across observations.
type ObservedAccountInput struct {
	Kind       entity.AccountKind `json:"kind" validate:"required,oneof=signer customer"`
	ExternalID string             `json:"external_id" validate:"required"`
	Email      string             `json:"email" validate:"required,email"`
	Name       string             `json:"name"`
}

// AssociationResult reports what Observe did with an account.
type AssociationResult struct {
	Account *entity.ExternalAccount
	Person  *entity.Person
	// CreatedPerson is true when no alias matched the account email and a
	// person was bootstrapped from it.
	CreatedPerson bool
	// CreatedLink is false when the account was already linked and the
	// observation changed nothing.
	CreatedLink bool
}

// AssociatorUsecase defines the interface for automatic account association
type AssociatorUsecase interface {
	// Observe registers an external account if it is new and links it to a
	// person by email. An account that is already linked is left untouched.
	Observe(ctx context.Context, input *ObservedAccountInput) (*AssociationResult, error)

	// Associate links an already registered account to a person by email.
	// It fails with a constraint violation if the account is already linked.
	Associate(ctx context.Context, account *entity.ExternalAccount) (*AssociationResult, error)
}
