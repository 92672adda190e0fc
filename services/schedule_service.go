package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"medicare/models"
	"medicare/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ScheduleService struct{ db *gorm.DB }

func NewScheduleService(db *gorm.DB) *ScheduleService { return &ScheduleService{db: db} }

// ScheduleView is a stored schedule with defaults filled in.
type ScheduleView struct {
	CaretakerEmail string `json:"caretaker_email"`
	CutoffTime     string `json:"cutoff_time"`
	ReminderTime   string `json:"reminder_time"`
	MedName        string `json:"med_name"`
	DisplayTime    string `json:"display_time"`
	EmailAlerts    bool   `json:"email_alerts"`
	MissedAlerts   bool   `json:"missed_alerts"`
	GracePeriod    string `json:"grace_period"`
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func NewScheduleView(s *models.MedicationSchedule) *ScheduleView {
	cutoff := orDefault(s.CutoffTime, models.DefaultCutoffTime)
	return &ScheduleView{
		CaretakerEmail: s.CaretakerEmail,
		CutoffTime:     cutoff,
		ReminderTime:   orDefault(s.ReminderTime, models.DefaultReminderTime),
		MedName:        orDefault(s.MedName, models.DefaultMedName),
		DisplayTime:    utils.DisplayClock(cutoff),
		EmailAlerts:    s.EmailAlerts,
		MissedAlerts:   s.MissedAlerts,
		GracePeriod:    s.GracePeriod,
	}
}

// DefaultScheduleView is shown on the settings form before anything is saved.
func DefaultScheduleView() *ScheduleView {
	return NewScheduleView(&models.MedicationSchedule{EmailAlerts: true, MissedAlerts: true})
}

// Get returns the user's schedule, or nil when none has been saved.
func (s *ScheduleService) Get(ctx context.Context, userID uint) (*ScheduleView, error) {
	var row models.MedicationSchedule
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	return NewScheduleView(&row), nil
}

// ScheduleInput is a validated notification-settings submission.
type ScheduleInput struct {
	CaretakerEmail string
	CutoffTime     string // any clock format ParseClock accepts
	EmailAlerts    bool
	MissedAlerts   bool
	GracePeriod    string
}

// Upsert writes the user's single schedule row.
func (s *ScheduleService) Upsert(ctx context.Context, userID uint, in ScheduleInput) (*ScheduleView, error) {
	cutoff, err := utils.ParseClock(in.CutoffTime)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidTime)
	}

	db := s.db.WithContext(ctx)
	row := models.MedicationSchedule{
		UserID:         userID,
		CaretakerEmail: strings.TrimSpace(in.CaretakerEmail),
		CutoffTime:     cutoff,
		ReminderTime:   models.DefaultReminderTime,
		MedName:        models.DefaultMedName,
		EmailAlerts:    in.EmailAlerts,
		MissedAlerts:   in.MissedAlerts,
		GracePeriod:    in.GracePeriod,
	}
	// reminder_time and med_name are only set on the first save.
	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"caretaker_email", "cutoff_time", "email_alerts", "missed_alerts", "grace_period", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("save schedule: %w", err)
	}
	if err := db.Where("user_id = ?", userID).First(&row).Error; err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	return NewScheduleView(&row), nil
}
