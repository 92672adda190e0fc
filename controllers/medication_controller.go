package controllers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"medicare/forms"
	"medicare/middlewares"
	"medicare/services"
	"medicare/utils"

	"github.com/gin-gonic/gin"
)

type MedicationController struct {
	Meds      *services.MedicationService
	Dashboard *services.DashboardService
	Alerts    *services.AlertBus
	Hub       *services.RealtimeHub
	Forms     *forms.Validator
	MaxUpload int64
	Logger    *slog.Logger
}

// PatientData is the patient dashboard: logs, schedule, notifications, stats.
func (mc *MedicationController) PatientData(c *gin.Context) {
	snap, err := mc.Dashboard.PatientData(c.Request.Context(), middlewares.SessionID(c), middlewares.UserID(c))
	if err != nil {
		alert(c, http.StatusInternalServerError, "Could not load your medication data.")
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (mc *MedicationController) ListLogs(c *gin.Context) {
	logs, err := mc.Meds.ListLogs(c.Request.Context(), middlewares.UserID(c))
	if err != nil {
		mc.Logger.Error("list logs", slog.Any("error", err))
		alert(c, http.StatusInternalServerError, "Could not load medication logs.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func (mc *MedicationController) SubmitLog(c *gin.Context) {
	var input forms.MedicationLogForm
	if !bindForm(c, mc.Forms, &input) {
		return
	}

	uid := middlewares.UserID(c)
	entry, created, err := mc.Meds.UpsertLog(c.Request.Context(), uid, services.LogInput{
		Date:           input.Date,
		MedicationName: input.MedicationName,
		Status:         input.Status,
		ProofURL:       input.ProofPhoto,
	})
	if errors.Is(err, services.ErrInvalidStatus) {
		badForm(c, forms.FieldErrors{"status": "Invalid enum value. Expected 'taken' | 'missed'"})
		return
	}
	if errors.Is(err, services.ErrInvalidTime) {
		badForm(c, forms.FieldErrors{"date": "Invalid date"})
		return
	}
	if err != nil {
		mc.Logger.Error("save log", slog.Uint64("user_id", uint64(uid)), slog.Any("error", err))
		middlewares.MedicationLogsSaved.WithLabelValues(input.Status, "error").Inc()
		alert(c, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}

	outcome, status, msg := "updated", http.StatusOK, "Updated record for "+entry.LogDate
	if created {
		outcome, status, msg = "created", http.StatusCreated, "Saved new record for "+entry.LogDate
	}
	middlewares.MedicationLogsSaved.WithLabelValues(entry.Status, outcome).Inc()
	mc.Hub.NotifyDataChanged(uid, "medication_logs")

	resp := gin.H{"message": msg, "log": entry, "created": created}
	if n := mc.Alerts.MissedDose(c.Request.Context(), entry); n != nil {
		middlewares.CaretakerEmails.WithLabelValues(n.Status).Inc()
		resp["alert"] = n
	}
	if snap, err := mc.Dashboard.PatientData(c.Request.Context(), middlewares.SessionID(c), uid); err == nil {
		resp["patient"] = snap
	}
	c.JSON(status, resp)
}

type proofUploadRequest struct {
	ImageBase64 string `json:"image_base64"`
}

// UploadProof stores a proof photo and returns its URL for the log form.
// Accepts a multipart "file" field or a JSON data URI.
func (mc *MedicationController) UploadProof(c *gin.Context) {
	if mc.MaxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, mc.MaxUpload)
	}

	contentType, data, err := mc.readProof(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "validation failed", "fields": forms.FieldErrors{"proof_photo": "File is too large"}})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": forms.FieldErrors{"proof_photo": err.Error()}})
		}
		return
	}

	url, err := mc.Meds.UploadProof(c.Request.Context(), middlewares.UserID(c), contentType, data)
	if errors.Is(err, utils.ErrUnsupportedImage) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": forms.FieldErrors{"proof_photo": "Only image files can be uploaded"}})
		return
	}
	if err != nil {
		mc.Logger.Error("upload proof", slog.Any("error", err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Upload failed", "fields": forms.FieldErrors{"proof_photo": err.Error()}})
		return
	}

	middlewares.ProofUploads.Inc()
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (mc *MedicationController) readProof(c *gin.Context) (string, []byte, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return "", nil, fmt.Errorf("no file uploaded: %w", err)
		}
		f, err := fh.Open()
		if err != nil {
			return "", nil, err
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return "", nil, err
		}
		contentType := fh.Header.Get("Content-Type")
		if contentType == "" || contentType == "application/octet-stream" {
			contentType = http.DetectContentType(data)
		}
		return contentType, data, nil
	}

	var req proofUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return "", nil, err
	}
	if req.ImageBase64 == "" {
		return "", nil, errors.New("no file uploaded")
	}
	return utils.DecodeDataURI(req.ImageBase64)
}
