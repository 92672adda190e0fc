package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string `env:"ADDR" envDefault:":8080"`
	Environment string `env:"APP_ENV" envDefault:"dev"`
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	Auth     AuthConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Mail     MailConfig

	NotificationHistoryLimit int `env:"NOTIFICATION_HISTORY_LIMIT" envDefault:"20"`
}

type AuthConfig struct {
	JWTSecret     string        `env:"JWT_SECRET"`
	CookieSecret  string        `env:"SESSION_COOKIE_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"72h"`
	IdleTimeout   time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`
	NewAccountWin time.Duration `env:"NEW_ACCOUNT_WINDOW" envDefault:"2s"`
	SecureCookies bool          `env:"SECURE_COOKIES" envDefault:"false"`
}

type DatabaseConfig struct {
	Driver   string `env:"DB_DRIVER" envDefault:"postgres"` // postgres | sqlite
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME" envDefault:"medicare"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	Path     string `env:"DB_PATH" envDefault:"medicare.db"` // sqlite only
}

// DSN returns the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"` // empty keeps client storage in memory
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type StorageConfig struct {
	S3Bucket   string `env:"S3_BUCKET"`
	S3Region   string `env:"S3_REGION"`
	AWSRegion  string `env:"AWS_REGION" envDefault:"us-east-1"`
	PublicURL  string `env:"CLOUDFRONT_URL"` // public base for uploaded objects
	UploadDir  string `env:"UPLOAD_DIR" envDefault:"uploads"`
	MaxUploadB int64  `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
}

// Region prefers the S3-specific region and falls back to AWS_REGION.
func (c StorageConfig) Region() string {
	if c.S3Region != "" {
		return c.S3Region
	}
	return c.AWSRegion
}

type MailConfig struct {
	Transport string `env:"MAIL_TRANSPORT" envDefault:"log"` // ses | smtp | log
	From      string `env:"SES_EMAIL" envDefault:"MediCare Companion <no-reply@medicare.local>"`
	SMTPHost  string `env:"SMTP_HOST"`
	SMTPPort  string `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser  string `env:"SMTP_USER"`
	SMTPPass  string `env:"SMTP_PASS"`
}

// Load reads an optional .env file and parses the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		if c.Environment != "dev" {
			return errors.New("JWT_SECRET not set")
		}
		c.Auth.JWTSecret = "dev-only-jwt-secret"
	}
	if c.Auth.CookieSecret == "" {
		c.Auth.CookieSecret = c.Auth.JWTSecret
	}
	if c.Auth.IdleTimeout <= 0 {
		return errors.New("SESSION_IDLE_TIMEOUT must be positive")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Mail.Transport {
	case "ses", "smtp", "log":
	default:
		return fmt.Errorf("unsupported MAIL_TRANSPORT %q", c.Mail.Transport)
	}
	if c.NotificationHistoryLimit <= 0 {
		c.NotificationHistoryLimit = 20
	}
	return nil
}
