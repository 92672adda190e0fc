package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	RolePatient   = "patient"
	RoleCaretaker = "caretaker"
)

type User struct {
	gorm.Model
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	Password     string     `gorm:"not null" json:"-"`
	FullName     string     `json:"full_name"`
	Role         string     `gorm:"size:16" json:"role"` // empty until chosen on /role
	LastSignInAt *time.Time `json:"last_sign_in_at"`
}

// DisplayName is the name shown to a caretaker: full name, then the local part of the email.
func (u *User) DisplayName() string {
	if u == nil {
		return "Patient"
	}
	if name := strings.TrimSpace(u.FullName); name != "" {
		return name
	}
	if local, _, _ := strings.Cut(u.Email, "@"); local != "" {
		return local
	}
	return "Patient"
}
