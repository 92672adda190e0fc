package models

import "time"

const (
	DefaultCutoffTime   = "08:00:00"
	DefaultReminderTime = "09:00:00"
	DefaultMedName      = "Daily Medication Set"
)

// MedicationSchedule holds a user's caretaker contact and reminder settings.
// At most one row per user.
type MedicationSchedule struct {
	UserID         uint   `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	CaretakerEmail string `json:"caretaker_email"`
	CutoffTime     string `gorm:"size:8" json:"cutoff_time"`   // HH:MM:SS
	ReminderTime   string `gorm:"size:8" json:"reminder_time"` // HH:MM:SS
	MedName        string `json:"med_name"`
	EmailAlerts    bool   `json:"email_alerts"`
	MissedAlerts   bool   `json:"missed_alerts"`
	GracePeriod    string `json:"grace_period"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (MedicationSchedule) TableName() string { return "medication_schedules" }
