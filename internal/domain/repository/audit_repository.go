package repository

import (
	"context"

	"rollcall/internal/domain/entity"
)

// AuditRepository defines the append-only operations for the audit trail.
type AuditRepository interface {
	// Append persists a new audit entry.
	Append(ctx context.Context, entry *entity.AuditEntry) error

	// RecentByKind retrieves the newest entries of the given kind, newest
	// first. An empty kind matches all entries.
	RecentByKind(ctx context.Context, kind string, limit int) ([]*entity.AuditEntry, error)
}
