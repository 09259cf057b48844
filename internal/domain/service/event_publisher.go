package service

import (
	"context"
)

// Identity event kinds published after reconciliation mutations commit.
const (
	IdentityEventPersonCreated  = "person.created"
	IdentityEventAccountLinked  = "account.linked"
	IdentityEventPersonMerged   = "person.merged"
	IdentityEventPersonUnmerged = "person.unmerged"
)

// IdentityEvent represents a committed identity change fanned out to downstream consumers
type IdentityEvent struct {
	RequestID string `json:"request_id,omitempty"` // For distributed tracing
	Kind      string `json:"kind"`
	PersonID  string `json:"person_id"`
	// AccountID and Email are set for link events; Absorbed is set for merges
	// and names the person that was removed.
	AccountID string `json:"account_id,omitempty"`
	Email     string `json:"email,omitempty"`
	Absorbed  string `json:"absorbed_person_id,omitempty"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishIdentityEvent publishes an identity change event for async consumers
	PublishIdentityEvent(ctx context.Context, event *IdentityEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
