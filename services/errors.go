package services

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidStatus      = errors.New("status must be taken or missed")
	ErrInvalidTime        = errors.New("invalid time")
)
