package services

import (
	"context"
	"log/slog"

	"medicare/models"
)

// AlertBus fans a missed dose out to the caretaker: an email when missed
// alerts are enabled, and a realtime event to the user's open channels.
type AlertBus struct {
	users         *UserService
	schedules     *ScheduleService
	notifications *NotificationService
	rt            *RealtimeHub
	logger        *slog.Logger
}

func NewAlertBus(users *UserService, schedules *ScheduleService, notifications *NotificationService, rt *RealtimeHub, logger *slog.Logger) *AlertBus {
	return &AlertBus{users: users, schedules: schedules, notifications: notifications, rt: rt, logger: logger}
}

// MissedDose is safe to call for any saved entry. It returns the recorded
// notification, or nil when nothing was sent.
func (b *AlertBus) MissedDose(ctx context.Context, entry *models.MedicationLog) *models.CaretakerNotification {
	if entry == nil || entry.Status != models.StatusMissed {
		return nil
	}
	schedule, err := b.schedules.Get(ctx, entry.UserID)
	if err != nil {
		b.logger.Error("missed dose alert: load schedule", slog.Any("error", err))
		return nil
	}
	if schedule == nil || !schedule.MissedAlerts || schedule.CaretakerEmail == "" {
		return nil
	}
	user, err := b.users.GetUser(ctx, entry.UserID)
	if err != nil {
		b.logger.Error("missed dose alert: load user", slog.Any("error", err))
		return nil
	}

	n, err := b.notifications.SendMissedDose(ctx, entry.UserID, MissedDoseEmail{
		To:             schedule.CaretakerEmail,
		PatientName:    user.DisplayName(),
		Date:           entry.LogDate,
		MedicationName: entry.MedicationName,
	})
	if n == nil {
		b.logger.Error("missed dose alert", slog.Any("error", err))
		return nil
	}

	if b.rt != nil {
		b.rt.BroadcastToUser(entry.UserID, map[string]any{
			"kind":         "alert.created",
			"notification": n,
		})
	}
	return n
}
