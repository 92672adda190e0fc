package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"medicare/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestScheduleUpsert(t *testing.T) {
	db := newTestDB(t)
	svc := NewScheduleService(db)
	ctx := context.Background()
	u := createUser(t, db, "jane@example.com", "")

	none, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	view, err := svc.Upsert(ctx, u.ID, ScheduleInput{
		CaretakerEmail: " care@example.com ",
		CutoffTime:     "08:30 PM",
		EmailAlerts:    true,
		MissedAlerts:   false,
		GracePeriod:    "2 hours",
	})
	require.NoError(t, err)
	assert.Equal(t, "care@example.com", view.CaretakerEmail)
	assert.Equal(t, "20:30:00", view.CutoffTime)
	assert.Equal(t, "8:30 PM", view.DisplayTime)
	assert.Equal(t, models.DefaultReminderTime, view.ReminderTime)
	assert.Equal(t, models.DefaultMedName, view.MedName)
	assert.False(t, view.MissedAlerts)

	_, err = svc.Upsert(ctx, u.ID, ScheduleInput{CutoffTime: "07:00", EmailAlerts: false, MissedAlerts: true, GracePeriod: "1 hour"})
	require.NoError(t, err)

	stored, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "07:00:00", stored.CutoffTime)
	assert.False(t, stored.EmailAlerts)
	assert.True(t, stored.MissedAlerts)
	assert.Empty(t, stored.CaretakerEmail)

	var count int64
	require.NoError(t, db.Model(&models.MedicationSchedule{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	_, err = svc.Upsert(ctx, u.ID, ScheduleInput{CutoffTime: "teatime"})
	assert.ErrorIs(t, err, ErrInvalidTime)
}

func TestScheduleUpsertConcurrent(t *testing.T) {
	db := newTestDB(t)
	svc := NewScheduleService(db)
	ctx := context.Background()
	u := createUser(t, db, "jane@example.com", "")

	cutoffs := []string{"07:00", "08:00", "09:00", "10:00"}
	errs := make([]error, len(cutoffs))
	var wg sync.WaitGroup
	for i, cutoff := range cutoffs {
		wg.Add(1)
		go func(i int, cutoff string) {
			defer wg.Done()
			_, errs[i] = svc.Upsert(ctx, u.ID, ScheduleInput{CaretakerEmail: "care@example.com", CutoffTime: cutoff})
		}(i, cutoff)
	}
	wg.Wait()
	for i, err := range errs {
		require.NoError(t, err, "writer %d", i)
	}

	var count int64
	require.NoError(t, db.Model(&models.MedicationSchedule{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	stored, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Contains(t, []string{"07:00:00", "08:00:00", "09:00:00", "10:00:00"}, stored.CutoffTime)
	assert.Equal(t, models.DefaultReminderTime, stored.ReminderTime)
}

func TestDefaultScheduleView(t *testing.T) {
	v := DefaultScheduleView()
	assert.Equal(t, models.DefaultCutoffTime, v.CutoffTime)
	assert.Equal(t, "8:00 AM", v.DisplayTime)
	assert.True(t, v.EmailAlerts)
	assert.True(t, v.MissedAlerts)
}

func TestSendReminderRecordsAttempt(t *testing.T) {
	db := newTestDB(t)
	mailer := new(mockMailer)
	svc := NewNotificationService(db, mailer, 20, discardLogger())
	ctx := context.Background()
	u := createUser(t, db, "jane@example.com", "Jane")

	mailer.On("Send", ctx, "care@example.com", "Medication reminder set for Jane", mock.MatchedBy(func(body string) bool {
		return assert.Contains(t, body, "8:00 AM")
	})).Return(nil).Once()

	n, err := svc.SendReminder(ctx, u.ID, ReminderEmail{To: "care@example.com", PatientName: "Jane", Time: "08:00:00"})
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryDelivered, n.Status)
	assert.Equal(t, models.NotificationReminder, n.NotificationType)

	mailer.On("Send", ctx, "care@example.com", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()
	n, err = svc.SendReminder(ctx, u.ID, ReminderEmail{To: "care@example.com", PatientName: "Jane", Time: "08:00:00"})
	assert.Error(t, err)
	require.NotNil(t, n)
	assert.Equal(t, models.DeliveryFailed, n.Status)

	rows, err := svc.ListRecent(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	mailer.AssertExpectations(t)
}

func TestSendReminderKeepsMailErrorWhenRecordFails(t *testing.T) {
	db := newTestDB(t)
	mailer := new(mockMailer)
	svc := NewNotificationService(db, mailer, 20, discardLogger())
	ctx := context.Background()
	u := createUser(t, db, "jane@example.com", "Jane")

	smtpDown := errors.New("smtp down")
	mailer.On("Send", ctx, "care@example.com", mock.Anything, mock.Anything).Return(smtpDown).Once()

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	n, err := svc.SendReminder(ctx, u.ID, ReminderEmail{To: "care@example.com", PatientName: "Jane", Time: "08:00:00"})
	assert.Nil(t, n)
	assert.ErrorIs(t, err, smtpDown)
	assert.ErrorContains(t, err, "record notification")
	mailer.AssertExpectations(t)
}

func TestListRecentLimit(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db, nil, 3, discardLogger())
	u := createUser(t, db, "jane@example.com", "")
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, db.Create(&models.CaretakerNotification{
			UserID: u.ID, NotificationType: models.NotificationSummary, RecipientEmail: "c@example.com",
			SentAt: base.Add(time.Duration(i) * time.Hour), Status: models.DeliveryDelivered,
		}).Error)
	}

	rows, err := svc.ListRecent(context.Background(), u.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.True(t, rows[0].SentAt.After(rows[1].SentAt), "newest first")
}

func TestAlertBusMissedDose(t *testing.T) {
	db := newTestDB(t)
	mailer := new(mockMailer)
	users := NewUserService(db)
	schedules := NewScheduleService(db)
	notifications := NewNotificationService(db, mailer, 20, discardLogger())
	bus := NewAlertBus(users, schedules, notifications, NewRealtimeHub(), discardLogger())
	ctx := context.Background()
	u := createUser(t, db, "jane@example.com", "Jane")

	missed := &models.MedicationLog{UserID: u.ID, LogDate: "2024-03-15", Status: models.StatusMissed, MedicationName: "Aspirin"}

	assert.Nil(t, bus.MissedDose(ctx, missed), "no schedule, no alert")

	_, err := schedules.Upsert(ctx, u.ID, ScheduleInput{CaretakerEmail: "care@example.com", CutoffTime: "08:00", MissedAlerts: false})
	require.NoError(t, err)
	assert.Nil(t, bus.MissedDose(ctx, missed), "missed alerts disabled")

	_, err = schedules.Upsert(ctx, u.ID, ScheduleInput{CaretakerEmail: "care@example.com", CutoffTime: "08:00", MissedAlerts: true})
	require.NoError(t, err)

	taken := *missed
	taken.Status = models.StatusTaken
	assert.Nil(t, bus.MissedDose(ctx, &taken))

	mailer.On("Send", ctx, "care@example.com", "Missed dose: Jane", mock.Anything).Return(nil).Once()
	n := bus.MissedDose(ctx, missed)
	require.NotNil(t, n)
	assert.Equal(t, models.NotificationMissedDose, n.NotificationType)
	assert.Equal(t, models.DeliveryDelivered, n.Status)
	mailer.AssertExpectations(t)
}
