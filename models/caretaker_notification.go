package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationMissedDose = "missed_dose"
	NotificationReminder   = "reminder"
	NotificationSummary    = "summary"

	DeliveryDelivered = "delivered"
	DeliveryFailed    = "failed"
)

type CaretakerNotification struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	UserID           uint      `gorm:"index" json:"user_id"`
	NotificationType string    `gorm:"size:20" json:"notification_type"`
	RecipientEmail   string    `json:"recipient_email"`
	SentAt           time.Time `gorm:"index" json:"sent_at"`
	Status           string    `gorm:"size:12" json:"status"`
}

func (n *CaretakerNotification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

func (CaretakerNotification) TableName() string { return "caretaker_notifications" }
