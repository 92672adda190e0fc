package models

import "time"

// Session is a signed-in browser or API client. Destroyed on sign-out,
// inactivity timeout or hard expiry.
type Session struct {
	ID           string    `gorm:"primaryKey;size:36"`
	UserID       uint      `gorm:"index;not null"`
	User         User      `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time
	LastActiveAt time.Time
	ExpiresAt    time.Time `gorm:"index"`
}
