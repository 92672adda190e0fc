package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"medicare/models"

	"gorm.io/gorm"
)

// UserService manages account details outside the session lifecycle.
type UserService struct{ db *gorm.DB }

func NewUserService(db *gorm.DB) *UserService { return &UserService{db: db} }

func (s *UserService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}

// SetRole stores the role picked on the role-selection screen.
func (s *UserService) SetRole(ctx context.Context, userID uint, role string) (*models.User, error) {
	if role != models.RolePatient && role != models.RoleCaretaker {
		return nil, ErrInvalidRole
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("role", role).Error; err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	return s.GetUser(ctx, userID)
}

// UpdateProfile changes the display name shown to the caretaker.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, fullName string) (*models.User, error) {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("full_name", strings.TrimSpace(fullName))
	if res.Error != nil {
		return nil, fmt.Errorf("update profile: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotAuthenticated
	}
	return s.GetUser(ctx, userID)
}
