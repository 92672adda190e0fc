package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"medicare/forms"
	"medicare/middlewares"
	"medicare/models"
	"medicare/services"

	"github.com/gin-gonic/gin"
)

type CaretakerController struct {
	Dashboard     *services.DashboardService
	Schedules     *services.ScheduleService
	Notifications *services.NotificationService
	Forms         *forms.Validator
	Logger        *slog.Logger
}

// DashboardView is the monitoring overview: patient name, stats, recent activity.
func (cc *CaretakerController) DashboardView(c *gin.Context) {
	snap, err := cc.Dashboard.CaretakerData(c.Request.Context(), middlewares.SessionID(c), middlewares.UserID(c))
	if err != nil {
		alert(c, http.StatusInternalServerError, "Could not load patient data.")
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (cc *CaretakerController) Calendar(c *gin.Context) {
	snap, err := cc.Dashboard.CaretakerData(c.Request.Context(), middlewares.SessionID(c), middlewares.UserID(c))
	if err != nil {
		alert(c, http.StatusInternalServerError, "Could not load patient data.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"patient_name": snap.PatientName,
		"calendar":     snap.Calendar,
		"stale":        snap.Stale,
	})
}

// GetSettings returns the notification settings, with defaults and the
// account email filled in when nothing has been saved yet.
func (cc *CaretakerController) GetSettings(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middlewares.UserID(c)

	view, err := cc.Schedules.Get(ctx, uid)
	if err != nil {
		cc.Logger.Error("load schedule", slog.Any("error", err))
		alert(c, http.StatusInternalServerError, "Could not load settings.")
		return
	}
	if view == nil {
		view = services.DefaultScheduleView()
	}
	if view.CaretakerEmail == "" {
		if sess := middlewares.CurrentSession(c); sess != nil && sess.User != nil {
			view.CaretakerEmail = sess.User.Email
		}
	}
	c.JSON(http.StatusOK, gin.H{"schedule": view})
}

// UpdateSettings saves the schedule, then emails the caretaker when email
// alerts are on and an address is set.
func (cc *CaretakerController) UpdateSettings(c *gin.Context) {
	var input forms.NotificationSettingsForm
	if !bindForm(c, cc.Forms, &input) {
		return
	}

	ctx := c.Request.Context()
	uid := middlewares.UserID(c)

	view, err := cc.Schedules.Upsert(ctx, uid, services.ScheduleInput{
		CaretakerEmail: input.EmailAddress,
		CutoffTime:     input.DailyReminderTime,
		EmailAlerts:    input.EnableEmailNotifications,
		MissedAlerts:   input.EnableMissedAlerts,
		GracePeriod:    input.GracePeriod,
	})
	if errors.Is(err, services.ErrInvalidTime) {
		badForm(c, forms.FieldErrors{"daily_reminder_time": "Invalid time"})
		return
	}
	if err != nil {
		cc.Logger.Error("save schedule", slog.Any("error", err))
		alert(c, http.StatusInternalServerError, err.Error())
		return
	}

	resp := gin.H{"schedule": view, "message": "Settings updated!", "email_sent": false}
	if input.EnableEmailNotifications && input.EmailAddress != "" {
		n, err := cc.Notifications.SendReminder(ctx, uid, services.ReminderEmail{
			To:          input.EmailAddress,
			PatientName: patientName(c),
			Time:        view.CutoffTime,
		})
		if n != nil {
			middlewares.CaretakerEmails.WithLabelValues(n.Status).Inc()
			resp["notification"] = n
		}
		if err == nil {
			resp["email_sent"] = true
			resp["message"] = "Settings saved and email sent to patient!"
		}
	}
	c.JSON(http.StatusOK, resp)
}

func patientName(c *gin.Context) string {
	if sess := middlewares.CurrentSession(c); sess != nil {
		return sess.User.DisplayName()
	}
	return (*models.User)(nil).DisplayName()
}
