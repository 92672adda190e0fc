package forms

import (
	"time"

	"medicare/models"
	"medicare/utils"
)

type FieldConfig struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	Placeholder string `json:"placeholder"`
	Required    bool   `json:"is_required"`
}

type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Section struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Fields      []FieldConfig `json:"fields"`
}

// Config describes how the UI renders a form.
type Config struct {
	Name     string         `json:"name"`
	Submit   string         `json:"submit"`
	Fields   []FieldConfig  `json:"fields,omitempty"`
	Sections []Section      `json:"sections,omitempty"`
	Options  []Option       `json:"options,omitempty"`
	Defaults map[string]any `json:"defaults"`
}

var loginFields = []FieldConfig{
	{ID: "email", Label: "Email Address", Type: "INPUT", Placeholder: "your@email.com", Required: true},
	{ID: "password", Label: "Password", Type: "INPUT", Placeholder: "••••••••", Required: true},
}

var signupFields = []FieldConfig{
	{ID: "username", Label: "Full Name", Type: "INPUT", Placeholder: "John Doe", Required: true},
	{ID: "email", Label: "Email Address", Type: "INPUT", Placeholder: "john@example.com", Required: true},
	{ID: "password", Label: "Password", Type: "INPUT", Placeholder: "••••••••", Required: true},
	{ID: "confirm_password", Label: "Confirm Password", Type: "INPUT", Placeholder: "••••••••", Required: true},
}

var medicationFields = []FieldConfig{
	{ID: "date", Label: "Date", Type: "date", Required: true},
	{ID: "medication_name", Label: "Medication", Type: "text", Placeholder: models.DefaultMedName, Required: true},
	{ID: "status", Label: "Status", Type: "radio", Required: true},
	{ID: "proof_photo", Label: "Proof Photo", Type: "file"},
}

var statusOptions = []Option{
	{Label: "Taken", Value: models.StatusTaken},
	{Label: "Missed", Value: models.StatusMissed},
}

var notificationSections = []Section{
	{
		ID:          "enable_email_notifications",
		Title:       "Caretaker Email Alerts",
		Description: "Send an automated report if a dose is marked as missed",
		Fields: []FieldConfig{
			{ID: "email_address", Label: "Caretaker Email", Type: "email", Placeholder: "caretaker@example.com"},
		},
	},
	{
		ID:          "enable_missed_alerts",
		Title:       "Smart Reminders",
		Description: "Define a strict daily schedule for medication logs",
		Fields: []FieldConfig{
			{ID: "daily_reminder_time", Label: "Daily Cutoff Time", Type: "text", Placeholder: "08:00 AM", Required: true},
			{ID: "grace_period", Label: "Grace Period", Type: "text", Placeholder: "e.g., 2 hours", Required: true},
		},
	},
}

var roleOptions = []Option{
	{Label: "I'm a Patient", Value: models.RolePatient},
	{Label: "I'm a Caretaker", Value: models.RoleCaretaker},
}

// Lookup returns the configuration of a named form. Defaults that depend on
// the current day are computed from today.
func Lookup(name string, today time.Time) (Config, bool) {
	switch name {
	case "login":
		return Config{
			Name:     name,
			Submit:   "Log In",
			Fields:   loginFields,
			Defaults: map[string]any{"email": "", "password": ""},
		}, true
	case "signup":
		return Config{
			Name:     name,
			Submit:   "Sign up",
			Fields:   signupFields,
			Defaults: map[string]any{"username": "", "email": "", "password": "", "confirm_password": ""},
		}, true
	case "medication":
		return Config{
			Name:    name,
			Submit:  "Mark as Taken",
			Fields:  medicationFields,
			Options: statusOptions,
			Defaults: map[string]any{
				"date":            utils.DayKey(today),
				"medication_name": models.DefaultMedName,
				"status":          models.StatusTaken,
				"proof_photo":     "",
			},
		}, true
	case "notifications":
		return Config{
			Name:     name,
			Submit:   "Save Settings",
			Sections: notificationSections,
			Defaults: map[string]any{
				"enable_email_notifications": true,
				"email_address":              "",
				"enable_missed_alerts":       true,
				"grace_period":               "2 hours",
				"daily_reminder_time":        "08:00 AM",
			},
		}, true
	case "role":
		return Config{
			Name:     name,
			Submit:   "Continue",
			Options:  roleOptions,
			Defaults: map[string]any{"role": ""},
		}, true
	}
	return Config{}, false
}

// Names lists every form Lookup knows.
func Names() []string {
	return []string{"login", "signup", "medication", "notifications", "role"}
}
