package forms

import "strings"

type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (f *LoginForm) Normalize() { f.Email = strings.TrimSpace(f.Email) }

func (LoginForm) Messages() map[string]string {
	return map[string]string{
		"email.required":    "Invalid email address",
		"email.email":       "Invalid email address",
		"password.required": "Password is required",
	}
}

type SignupForm struct {
	Username        string `json:"username" validate:"required,min=3"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"min=8,has_upper,has_lower,has_digit,has_special"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

func (f *SignupForm) Normalize() {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
}

func (SignupForm) Messages() map[string]string {
	return map[string]string{
		"username.required":         "Username is required",
		"username.min":              "Username must be at least 3 characters",
		"email.required":            "Please enter a valid email address",
		"email.email":               "Please enter a valid email address",
		"password.min":              "Password must be at least 8 characters",
		"password.has_upper":        "Password must contain at least one uppercase letter",
		"password.has_lower":        "Password must contain at least one lowercase letter",
		"password.has_digit":        "Password must contain at least one number",
		"password.has_special":      "Password must contain at least one special character",
		"confirm_password.required": "Confirm password is required",
		"confirm_password.eqfield":  "Passwords do not match",
	}
}

// MedicationLogForm is one day's intake entry. An empty date means today.
type MedicationLogForm struct {
	Date           string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	MedicationName string `json:"medication_name" validate:"required"`
	Status         string `json:"status" validate:"oneof=taken missed"`
	ProofPhoto     string `json:"proof_photo" validate:"omitempty,url"`
}

func (f *MedicationLogForm) Normalize() {
	f.Date = strings.TrimSpace(f.Date)
	f.MedicationName = strings.TrimSpace(f.MedicationName)
	f.ProofPhoto = strings.TrimSpace(f.ProofPhoto)
}

func (MedicationLogForm) Messages() map[string]string {
	return map[string]string{
		"date.datetime":            "Invalid date",
		"medication_name.required": "Required",
		"status.oneof":             "Invalid enum value. Expected 'taken' | 'missed'",
		"proof_photo.url":          "Invalid url",
	}
}

type NotificationSettingsForm struct {
	EnableEmailNotifications bool   `json:"enable_email_notifications"`
	EmailAddress             string `json:"email_address" validate:"omitempty,email"`
	EnableMissedAlerts       bool   `json:"enable_missed_alerts"`
	GracePeriod              string `json:"grace_period" validate:"required"`
	DailyReminderTime        string `json:"daily_reminder_time" validate:"required,clock"`
}

func (f *NotificationSettingsForm) Normalize() {
	f.EmailAddress = strings.TrimSpace(f.EmailAddress)
	f.GracePeriod = strings.TrimSpace(f.GracePeriod)
	f.DailyReminderTime = strings.TrimSpace(f.DailyReminderTime)
}

func (NotificationSettingsForm) Messages() map[string]string {
	return map[string]string{
		"email_address.email":          "Invalid email",
		"grace_period.required":        "Required",
		"daily_reminder_time.required": "Required",
		"daily_reminder_time.clock":    "Invalid time",
	}
}

type RoleForm struct {
	Role string `json:"role" validate:"oneof=patient caretaker"`
}

func (RoleForm) Messages() map[string]string {
	return map[string]string{"role.oneof": "Choose patient or caretaker"}
}

type ProfileForm struct {
	FullName string `json:"full_name" validate:"min=3"`
}

func (f *ProfileForm) Normalize() { f.FullName = strings.TrimSpace(f.FullName) }

func (ProfileForm) Messages() map[string]string {
	return map[string]string{"full_name.min": "Username must be at least 3 characters"}
}

// SendEmailForm is the body of POST /api/send-email.
type SendEmailForm struct {
	Email       string `json:"email" validate:"required,email"`
	PatientName string `json:"patientName"`
	Time        string `json:"time" validate:"required"`
}

func (SendEmailForm) Messages() map[string]string {
	return map[string]string{
		"email.required": "Invalid email",
		"email.email":    "Invalid email",
		"time.required":  "Required",
	}
}
