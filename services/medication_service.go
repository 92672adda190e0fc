package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"medicare/models"
	"medicare/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MedicationService struct {
	db       *gorm.DB
	uploader utils.Uploader
	now      func() time.Time
}

func NewMedicationService(db *gorm.DB, uploader utils.Uploader) *MedicationService {
	return &MedicationService{db: db, uploader: uploader, now: time.Now}
}

// LogInput is a validated medication-log form submission.
type LogInput struct {
	Date           string // YYYY-MM-DD, empty means today
	MedicationName string
	Status         string
	ProofURL       string
}

// ListLogs returns the user's logs, newest day first.
func (s *MedicationService) ListLogs(ctx context.Context, userID uint) ([]models.MedicationLog, error) {
	var logs []models.MedicationLog
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("log_date DESC").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("list medication logs: %w", err)
	}
	return logs, nil
}

// UpsertLog writes the entry for (user, day), creating it or overwriting the
// existing one. created reports which of the two happened.
func (s *MedicationService) UpsertLog(ctx context.Context, userID uint, in LogInput) (log *models.MedicationLog, created bool, err error) {
	if in.Status != models.StatusTaken && in.Status != models.StatusMissed {
		return nil, false, ErrInvalidStatus
	}

	day := utils.DayKey(s.now())
	if strings.TrimSpace(in.Date) != "" {
		t, err := utils.ParseDay(in.Date, time.Local)
		if err != nil {
			return nil, false, fmt.Errorf("log date %q: %w", in.Date, ErrInvalidTime)
		}
		day = utils.DayKey(t)
	}

	name := strings.TrimSpace(in.MedicationName)
	if name == "" {
		name = models.DefaultMedName
	}

	var proof *string
	if url := strings.TrimSpace(in.ProofURL); url != "" {
		proof = &url
	}

	db := s.db.WithContext(ctx)

	// The stored row keeps entry's new id only if this insert won.
	entry := models.MedicationLog{
		UserID:         userID,
		LogDate:        day,
		MedicationName: name,
		Status:         in.Status,
		ProofURL:       proof,
	}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "log_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"medication_name", "status", "proof_url", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return nil, false, fmt.Errorf("save medication log: %w", err)
	}

	var stored models.MedicationLog
	if err := db.Where("user_id = ? AND log_date = ?", userID, day).First(&stored).Error; err != nil {
		return nil, false, fmt.Errorf("load medication log: %w", err)
	}
	return &stored, stored.ID == entry.ID, nil
}

// UploadProof stores a proof photo under med-proofs/<user>/<unix millis>.<ext>
// and returns its public URL.
func (s *MedicationService) UploadProof(ctx context.Context, userID uint, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty upload: %w", utils.ErrUnsupportedImage)
	}
	ext, err := utils.ImageExtension(contentType)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("med-proofs/%d/%d%s", userID, s.now().UnixMilli(), ext)
	url, err := s.uploader.Upload(ctx, key, contentType, data)
	if err != nil {
		return "", fmt.Errorf("upload proof: %w", err)
	}
	return url, nil
}

// LogForDay returns the entry for one day, or nil.
func (s *MedicationService) LogForDay(ctx context.Context, userID uint, day string) (*models.MedicationLog, error) {
	var entry models.MedicationLog
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND log_date = ?", userID, day).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load medication log: %w", err)
	}
	return &entry, nil
}
