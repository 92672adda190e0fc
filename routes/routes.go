package routes

import (
	"log/slog"

	"medicare/controllers"
	"medicare/middlewares"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Logger    *slog.Logger
	Resolver  *middlewares.SessionResolver
	UploadDir string // served under /uploads when proofs are kept on disk

	Health     *controllers.HealthController
	Auth       *controllers.AuthController
	Medication *controllers.MedicationController
	Caretaker  *controllers.CaretakerController
	Notify     *controllers.NotificationController
	Users      *controllers.UserController
	Realtime   *controllers.RealtimeController
	Storage    *controllers.StorageController
	Pages      *controllers.PageController
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		middlewares.RequestID(),
		middlewares.Logging(d.Logger),
		middlewares.Recovery(d.Logger),
		middlewares.Metrics(),
	)

	r.GET("/health", d.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if d.UploadDir != "" {
		r.Static("/uploads", d.UploadDir)
	}

	// Pages
	pages := r.Group("/")
	pages.Use(middlewares.PageGuard(d.Resolver))
	{
		pages.GET("/", d.Pages.Landing)
		pages.GET("/login", d.Pages.Login)
		pages.GET("/signup", d.Pages.Signup)
		pages.GET("/dashboard", d.Pages.DashboardView)
		pages.GET("/medication", d.Pages.Medication)
		pages.GET("/caretaker", d.Pages.Caretaker)
		pages.GET("/role", d.Pages.Role)
	}

	// Public API
	api := r.Group("/api")
	{
		api.POST("/auth/signup", d.Auth.Signup)
		api.POST("/auth/login", d.Auth.Login)
		api.GET("/forms/:name", controllers.FormConfig)
	}

	// Authenticated API
	authed := api.Group("")
	authed.Use(middlewares.AuthMiddleware(d.Resolver))
	{
		authed.POST("/auth/logout", d.Auth.Logout)
		authed.GET("/auth/session", d.Auth.Session)
		authed.PUT("/auth/role", d.Users.SetRole)
		authed.GET("/user/profile", d.Users.GetProfile)
		authed.PUT("/user/profile", d.Users.UpdateProfile)
		authed.GET("/session/live", d.Realtime.SessionLive)

		authed.GET("/patient", d.Medication.PatientData)
		authed.GET("/medication/logs", d.Medication.ListLogs)
		authed.POST("/medication/logs", d.Medication.SubmitLog)
		authed.POST("/medication/proof", d.Medication.UploadProof)

		authed.GET("/caretaker", d.Caretaker.DashboardView)
		authed.GET("/caretaker/calendar", d.Caretaker.Calendar)
		authed.GET("/caretaker/settings", d.Caretaker.GetSettings)
		authed.PUT("/caretaker/settings", d.Caretaker.UpdateSettings)
		authed.GET("/caretaker/notifications", d.Notify.ListNotifications)
		authed.POST("/send-email", d.Notify.SendEmail)

		authed.GET("/storage", d.Storage.List)
		authed.PUT("/storage", d.Storage.Set)
		authed.DELETE("/storage", d.Storage.Clear)
	}

	return r
}
