package model

import (
	"time"

	"github.com/google/uuid"
)

// PersonModel mirrors the 'persons' table. PostgreSQL generates UUIDs via uuid_generate_v7().
type PersonModel struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Name             string     `gorm:"type:varchar(255);not null"`
	PreferredEmailID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Aliases []EmailAliasModel  `gorm:"foreignKey:PersonID;constraint:OnDelete:CASCADE"`
	Links   []AccountLinkModel `gorm:"foreignKey:PersonID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (PersonModel) TableName() string {
	return "persons"
}

// EmailAliasModel mirrors the 'email_aliases' table. The address column is
// indexed but deliberately not unique: the same address may be owned by
// several persons, and lookups resolve the ambiguity by row age.
type EmailAliasModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	PersonID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Address   string    `gorm:"type:varchar(255);not null;index"`
	CreatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (EmailAliasModel) TableName() string {
	return "email_aliases"
}
