package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Auth.IdleTimeout)
	assert.Equal(t, 2*time.Second, cfg.Auth.NewAccountWin)
	assert.Equal(t, 20, cfg.NotificationHistoryLimit)
	assert.NotEmpty(t, cfg.Auth.JWTSecret, "dev falls back to a local secret")
	assert.Equal(t, cfg.Auth.JWTSecret, cfg.Auth.CookieSecret)
	assert.Equal(t, "log", cfg.Mail.Transport)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "prod-secret")
	t.Setenv("DB_DRIVER", "mysql")
	_, err = Load()
	assert.ErrorContains(t, err, "DB_DRIVER")

	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("MAIL_TRANSPORT", "pigeon")
	_, err = Load()
	assert.ErrorContains(t, err, "MAIL_TRANSPORT")
}

func TestStorageRegion(t *testing.T) {
	assert.Equal(t, "eu-west-1", StorageConfig{S3Region: "eu-west-1", AWSRegion: "us-east-1"}.Region())
	assert.Equal(t, "us-east-1", StorageConfig{AWSRegion: "us-east-1"}.Region())
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "medicare", SSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=medicare port=5432 sslmode=disable", c.DSN())
}
