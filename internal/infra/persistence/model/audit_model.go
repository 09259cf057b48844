package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// JSONMap stores a string-keyed map as a jsonb column.
type JSONMap map[string]any

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}

	data, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal json map")
	}

	return data, nil
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = nil

		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.Errorf("unsupported jsonb source type %T", value)
	}

	return errors.Wrap(json.Unmarshal(data, m), "failed to unmarshal json map")
}

// AuditEntryModel mirrors the append-only 'audit_entries' table.
type AuditEntryModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Timestamp   time.Time `gorm:"not null;index;autoCreateTime"`
	Kind        string    `gorm:"type:varchar(64);not null;index"`
	Description string    `gorm:"type:text"`
	Context     JSONMap   `gorm:"type:jsonb"`
}

// TableName explicitly sets the table name for GORM.
func (AuditEntryModel) TableName() string {
	return "audit_entries"
}
