package model

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionModel mirrors the 'submissions' table.
type SubmissionModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	ExternalID  string    `gorm:"type:varchar(255);not null;unique"`
	Category    string    `gorm:"type:varchar(100);index"`
	Name        string    `gorm:"type:varchar(255)"`
	Status      string    `gorm:"type:varchar(32)"`
	CompletedAt *time.Time

	Signers []SubmissionSignerModel `gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE"`
	Fields  []SubmissionFieldModel  `gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (SubmissionModel) TableName() string {
	return "submissions"
}

// SubmissionSignerModel mirrors the 'submission_signers' table.
type SubmissionSignerModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	SubmissionID    uuid.UUID `gorm:"type:uuid;not null;index"`
	SignerAccountID uuid.UUID `gorm:"type:uuid;not null;index"`
	Role            string    `gorm:"type:varchar(100)"`
	Status          string    `gorm:"type:varchar(32)"`
}

// TableName explicitly sets the table name for GORM.
func (SubmissionSignerModel) TableName() string {
	return "submission_signers"
}

// SubmissionFieldModel mirrors the 'submission_fields' table. Values are kept
// searchable for the transitive person search.
type SubmissionFieldModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	SubmissionID uuid.UUID `gorm:"type:uuid;not null;index"`
	Field        string    `gorm:"type:varchar(255)"`
	Value        string    `gorm:"type:text"`
}

// TableName explicitly sets the table name for GORM.
func (SubmissionFieldModel) TableName() string {
	return "submission_fields"
}

// SubscriptionModel mirrors the 'subscriptions' table.
type SubscriptionModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	ExternalID        string    `gorm:"type:varchar(255);not null;unique"`
	CustomerAccountID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name              string    `gorm:"type:varchar(255)"`
	Status            string    `gorm:"type:varchar(32);not null"`
	CurrentPeriodEnd  *time.Time
	CreatedAt         time.Time
}

// TableName explicitly sets the table name for GORM.
func (SubscriptionModel) TableName() string {
	return "subscriptions"
}
