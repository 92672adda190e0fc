package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusTaken   = "taken"
	StatusMissed  = "missed"
	StatusPending = "pending"
)

// MedicationLog is one patient's intake record for a calendar day.
// (user_id, log_date) is unique; writes go through an upsert on that pair.
type MedicationLog struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	UserID         uint      `gorm:"not null;uniqueIndex:idx_medication_logs_user_day,priority:1" json:"user_id"`
	MedicationName string    `gorm:"not null" json:"medication_name"`
	LogDate        string    `gorm:"size:10;not null;uniqueIndex:idx_medication_logs_user_day,priority:2" json:"log_date"` // YYYY-MM-DD
	Status         string    `gorm:"size:10;not null" json:"status"`
	ProofURL       *string   `json:"proof_url"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (l *MedicationLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

func (MedicationLog) TableName() string { return "medication_logs" }
