package controllers

import (
	"log/slog"
	"net/http"

	"medicare/forms"
	"medicare/middlewares"
	"medicare/models"
	"medicare/services"

	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	Notifications *services.NotificationService
	Forms         *forms.Validator
	Logger        *slog.Logger
}

func (nc *NotificationController) ListNotifications(c *gin.Context) {
	rows, err := nc.Notifications.ListRecent(c.Request.Context(), middlewares.UserID(c))
	if err != nil {
		nc.Logger.Error("list notifications", slog.Any("error", err))
		alert(c, http.StatusInternalServerError, "Could not load notifications.")
		return
	}
	if rows == nil {
		rows = []models.CaretakerNotification{}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": rows})
}

// SendEmail sends the caretaker notification email and records the attempt.
func (nc *NotificationController) SendEmail(c *gin.Context) {
	var input forms.SendEmailForm
	if !bindForm(c, nc.Forms, &input) {
		return
	}

	name := input.PatientName
	if name == "" {
		name = patientName(c)
	}
	n, err := nc.Notifications.SendReminder(c.Request.Context(), middlewares.UserID(c), services.ReminderEmail{
		To:          input.Email,
		PatientName: name,
		Time:        input.Time,
	})
	if n != nil {
		middlewares.CaretakerEmails.WithLabelValues(n.Status).Inc()
	}
	if err != nil && n != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Email could not be sent", "notification": n})
		return
	}
	if err != nil {
		nc.Logger.Error("send email", slog.Any("error", err))
		alert(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email sent", "notification": n})
}
