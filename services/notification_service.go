package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"medicare/models"
	"medicare/utils"

	"gorm.io/gorm"
)

type NotificationService struct {
	db     *gorm.DB
	mailer utils.Mailer
	limit  int
	logger *slog.Logger
	now    func() time.Time
}

func NewNotificationService(db *gorm.DB, mailer utils.Mailer, limit int, logger *slog.Logger) *NotificationService {
	if limit <= 0 {
		limit = 20
	}
	return &NotificationService{db: db, mailer: mailer, limit: limit, logger: logger, now: time.Now}
}

// ListRecent returns the newest notifications for the user.
func (s *NotificationService) ListRecent(ctx context.Context, userID uint) ([]models.CaretakerNotification, error) {
	var rows []models.CaretakerNotification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("sent_at DESC").
		Limit(s.limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return rows, nil
}

// ReminderEmail is the caretaker notification sent after settings change.
type ReminderEmail struct {
	To          string
	PatientName string
	Time        string
}

func reminderBody(r ReminderEmail) (subject, body string) {
	when := utils.DisplayClock(r.Time)
	name := strings.TrimSpace(r.PatientName)
	if name == "" {
		name = "Your patient"
	}
	subject = fmt.Sprintf("Medication reminder set for %s", name)

	var b strings.Builder
	b.WriteString("## MediCare Companion\n\n")
	fmt.Fprintf(&b, "**%s** has a daily medication reminder at **%s**.\n\n", name, when)
	b.WriteString("You will be notified at this address if a dose is missed.\n")
	return subject, b.String()
}

// SendReminder emails the caretaker and records the attempt. The returned
// notification is stored even when delivery failed.
func (s *NotificationService) SendReminder(ctx context.Context, userID uint, r ReminderEmail) (*models.CaretakerNotification, error) {
	subject, body := reminderBody(r)
	return s.deliver(ctx, userID, models.NotificationReminder, r.To, subject, body)
}

// MissedDoseEmail reports a dose the patient marked as missed.
type MissedDoseEmail struct {
	To             string
	PatientName    string
	Date           string
	MedicationName string
}

func missedDoseBody(m MissedDoseEmail) (subject, body string) {
	name := strings.TrimSpace(m.PatientName)
	if name == "" {
		name = "Your patient"
	}
	subject = fmt.Sprintf("Missed dose: %s", name)

	var b strings.Builder
	b.WriteString("## MediCare Companion\n\n")
	fmt.Fprintf(&b, "**%s** marked **%s** as missed on **%s**.\n\n", name, m.MedicationName, m.Date)
	b.WriteString("You may want to check in with them.\n")
	return subject, b.String()
}

func (s *NotificationService) SendMissedDose(ctx context.Context, userID uint, m MissedDoseEmail) (*models.CaretakerNotification, error) {
	subject, body := missedDoseBody(m)
	return s.deliver(ctx, userID, models.NotificationMissedDose, m.To, subject, body)
}

func (s *NotificationService) deliver(ctx context.Context, userID uint, typ, to, subject, body string) (*models.CaretakerNotification, error) {
	sendErr := s.mailer.Send(ctx, to, subject, body)

	n := models.CaretakerNotification{
		UserID:           userID,
		NotificationType: typ,
		RecipientEmail:   to,
		SentAt:           s.now(),
		Status:           models.DeliveryDelivered,
	}
	if sendErr != nil {
		n.Status = models.DeliveryFailed
		s.logger.Error("caretaker email failed",
			slog.Uint64("user_id", uint64(userID)),
			slog.String("type", typ),
			slog.String("to", to),
			slog.Any("error", sendErr),
		)
	}

	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		return nil, errors.Join(sendErr, fmt.Errorf("record notification: %w", err))
	}
	if sendErr != nil {
		return &n, sendErr
	}
	return &n, nil
}
