package model

import (
	"time"

	"github.com/google/uuid"
)

// ExternalAccountModel mirrors the 'external_accounts' table. The (kind,
// external_id) pair is the provider-side identity and must stay unique.
type ExternalAccountModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Kind       string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_accounts_kind_external"`
	ExternalID string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_accounts_kind_external"`
	Email      string    `gorm:"type:varchar(255);not null;index"`
	Name       string    `gorm:"type:varchar(255)"`
	CreatedAt  time.Time
}

// TableName explicitly sets the table name for GORM.
func (ExternalAccountModel) TableName() string {
	return "external_accounts"
}

// AccountLinkModel mirrors the 'account_links' table. The unique account_id
// column enforces at most one link per external account.
type AccountLinkModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	PersonID  uuid.UUID `gorm:"type:uuid;not null;index"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;unique"`
	Kind      string    `gorm:"type:varchar(32);not null"`
	CreatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (AccountLinkModel) TableName() string {
	return "account_links"
}
