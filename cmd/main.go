package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medicare/config"
	"medicare/controllers"
	"medicare/forms"
	"medicare/middlewares"
	"medicare/routes"
	"medicare/services"
	"medicare/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	logLevel := slog.LevelInfo
	if os.Getenv("DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Environment != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	logger.Info("Starting MediCare Companion",
		slog.String("environment", cfg.Environment),
		slog.String("addr", cfg.Addr),
	)

	ctx := context.Background()

	db, err := config.OpenDB(cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("Database ready", slog.String("driver", cfg.Database.Driver))

	// Client storage
	var (
		rdb     *redis.Client
		storage services.ClientStorage
	)
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		storage = services.NewRedisClientStorage(rdb, cfg.Auth.SessionTTL)
		logger.Info("Client storage on redis", slog.String("addr", cfg.Redis.Addr))
	} else {
		storage = services.NewMemoryClientStorage()
	}

	// Proof photo storage
	var (
		uploader  utils.Uploader
		uploadDir string
	)
	if cfg.Storage.S3Bucket != "" {
		s3u, err := utils.NewS3Uploader(ctx, cfg.Storage.Region(), cfg.Storage.S3Bucket, cfg.Storage.PublicURL)
		if err != nil {
			return err
		}
		uploader = s3u
	} else {
		disk, err := utils.NewDiskUploader(cfg.Storage.UploadDir, cfg.BaseURL)
		if err != nil {
			return err
		}
		uploader, uploadDir = disk, disk.Dir()
	}

	// Mail
	var mailer utils.Mailer
	switch cfg.Mail.Transport {
	case "ses":
		m, err := utils.NewSESMailer(ctx, cfg.Storage.AWSRegion, cfg.Mail.From)
		if err != nil {
			return err
		}
		mailer = m
	case "smtp":
		mailer = utils.NewSMTPMailer(cfg.Mail.SMTPHost, cfg.Mail.SMTPPort, cfg.Mail.SMTPUser, cfg.Mail.SMTPPass, cfg.Mail.From)
	default:
		mailer = utils.LogMailer{Logger: logger}
	}

	// Services
	auth := services.NewAuthService(db, cfg.Auth)
	users := services.NewUserService(db)
	meds := services.NewMedicationService(db, uploader)
	schedules := services.NewScheduleService(db)
	notifications := services.NewNotificationService(db, mailer, cfg.NotificationHistoryLimit, logger)
	dashboard := services.NewDashboardService(users, meds, schedules, notifications, cfg.Auth.SessionTTL, logger)
	hub := services.NewRealtimeHub()
	alerts := services.NewAlertBus(users, schedules, notifications, hub, logger)

	auth.Subscribe(dashboard.HandleAuthChange)
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go dashboard.RunSweeper(sweepCtx, 10*time.Minute)
	auth.Subscribe(func(change services.AuthChange) {
		if change.Event != services.EventSignedOut {
			return
		}
		if change.Reason == services.ReasonExpired {
			middlewares.SessionsExpired.Inc()
			if err := storage.Clear(context.Background(), change.SessionID); err != nil {
				logger.Warn("clear client storage", slog.Any("error", err))
			}
		}
		logger.Info("session ended",
			slog.String("session_id", change.SessionID),
			slog.Uint64("user_id", uint64(change.UserID)),
			slog.String("reason", change.Reason),
		)
	})

	validator := forms.NewValidator()
	resolver := &middlewares.SessionResolver{
		Auth:    auth,
		Cookies: middlewares.NewCookieStore(cfg.Auth.CookieSecret, cfg.Auth.SecureCookies, int(cfg.Auth.SessionTTL.Seconds())),
		Logger:  logger,
	}

	r := routes.SetupRouter(routes.Deps{
		Logger:    logger,
		Resolver:  resolver,
		UploadDir: uploadDir,
		Health:    &controllers.HealthController{DB: db, Redis: rdb},
		Auth: &controllers.AuthController{
			Auth: auth, Resolver: resolver, Forms: validator, Storage: storage, Logger: logger,
		},
		Medication: &controllers.MedicationController{
			Meds: meds, Dashboard: dashboard, Alerts: alerts, Hub: hub, Forms: validator,
			MaxUpload: cfg.Storage.MaxUploadB, Logger: logger,
		},
		Caretaker: &controllers.CaretakerController{
			Dashboard: dashboard, Schedules: schedules, Notifications: notifications,
			Forms: validator, Logger: logger,
		},
		Notify: &controllers.NotificationController{
			Notifications: notifications, Forms: validator, Logger: logger,
		},
		Users: &controllers.UserController{Users: users, Hub: hub, Forms: validator, Logger: logger},
		Realtime: &controllers.RealtimeController{
			RT: hub, Auth: auth, Storage: storage,
			IdleTimeout: cfg.Auth.IdleTimeout, NewAccountWindow: cfg.Auth.NewAccountWin,
			Logger: logger,
		},
		Storage: &controllers.StorageController{Storage: storage, Logger: logger},
		Pages:   &controllers.PageController{Dashboard: dashboard},
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("Server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("Shutting down server", slog.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
