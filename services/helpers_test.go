package services

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"medicare/config"
	"medicare/models"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(config.SQLiteDialector(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func createUser(t *testing.T, db *gorm.DB, email, fullName string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Password: "x", FullName: fullName, Role: models.RolePatient}
	require.NoError(t, db.Create(u).Error)
	return u
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

type mockMailer struct{ mock.Mock }

func (m *mockMailer) Send(ctx context.Context, to, subject, markdown string) error {
	return m.Called(ctx, to, subject, markdown).Error(0)
}

type mockUploader struct{ mock.Mock }

func (m *mockUploader) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, key, contentType, data)
	return args.String(0), args.Error(1)
}
