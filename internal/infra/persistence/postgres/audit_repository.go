package postgres

import (
	"context"

	"rollcall/internal/domain/entity"
	domainerrors "rollcall/internal/domain/errors"
	"rollcall/internal/domain/repository"
	"rollcall/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// auditRepository implements the repository.AuditRepository interface.
type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository is the constructor for auditRepository.
func NewAuditRepository(db *gorm.DB) repository.AuditRepository {
	return &auditRepository{
		db: db,
	}
}

// Append persists a new audit entry.
func (repo *auditRepository) Append(ctx context.Context, entry *entity.AuditEntry) error {
	entryM := &model.AuditEntryModel{
		ID:          entry.ID,
		Timestamp:   entry.Timestamp,
		Kind:        entry.Kind,
		Description: entry.Description,
		Context:     model.JSONMap(entry.Context),
	}

	if err := repo.db.WithContext(ctx).Create(entryM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to append audit entry")
	}

	entry.ID = entryM.ID
	entry.Timestamp = entryM.Timestamp

	return nil
}

// RecentByKind retrieves the newest entries of the given kind.
func (repo *auditRepository) RecentByKind(ctx context.Context, kind string, limit int) ([]*entity.AuditEntry, error) {
	var entryModels []*model.AuditEntryModel

	query := repo.db.WithContext(ctx).Clauses(dbresolver.Read)
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Order("timestamp DESC").Find(&entryModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list recent audit entries")
	}

	entries := make([]*entity.AuditEntry, 0, len(entryModels))
	for _, entryM := range entryModels {
		entries = append(entries, &entity.AuditEntry{
			ID:          entryM.ID,
			Timestamp:   entryM.Timestamp,
			Kind:        entryM.Kind,
			Description: entryM.Description,
			Context:     map[string]any(entryM.Context),
		})
	}

	return entries, nil
}
