package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"medicare/config"
	"medicare/models"
	"medicare/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuthEvent string

const (
	EventSignedIn  AuthEvent = "SIGNED_IN"
	EventSignedOut AuthEvent = "SIGNED_OUT"
)

const ReasonExpired = "expired"

// SessionView is what clients see of a session. AccessToken is only set on sign-in.
type SessionView struct {
	ID           string       `json:"id"`
	AccessToken  string       `json:"access_token,omitempty"`
	ExpiresAt    time.Time    `json:"expires_at"`
	LastActiveAt time.Time    `json:"last_active_at"`
	User         *models.User `json:"user"`
}

// AuthChange is delivered to subscribers. Session is nil on sign-out.
type AuthChange struct {
	Event     AuthEvent    `json:"event"`
	SessionID string       `json:"session_id"`
	UserID    uint         `json:"user_id"`
	Session   *SessionView `json:"session"`
	Reason    string       `json:"reason,omitempty"`
}

type AuthListener func(AuthChange)

type listenerEntry struct {
	id uint64
	fn AuthListener
}

// AuthService is the session store: accounts, password sign-in, server-side
// sessions with idle and hard expiry, and a change feed.
type AuthService struct {
	db     *gorm.DB
	secret []byte
	ttl    time.Duration
	idle   time.Duration
	now    func() time.Time

	mu        sync.Mutex
	nextID    uint64
	listeners []listenerEntry
}

func NewAuthService(db *gorm.DB, cfg config.AuthConfig) *AuthService {
	return &AuthService{
		db:     db,
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.SessionTTL,
		idle:   cfg.IdleTimeout,
		now:    time.Now,
	}
}

// Subscribe registers fn for auth changes and returns a func that removes it.
// Listeners run synchronously on the emitting goroutine, in subscription order.
func (s *AuthService) Subscribe(fn AuthListener) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

func (s *AuthService) emit(change AuthChange) {
	s.mu.Lock()
	ls := make([]listenerEntry, len(s.listeners))
	copy(ls, s.listeners)
	s.mu.Unlock()

	for _, l := range ls {
		l.fn(change)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates an account. It never signs the new user in.
func (s *AuthService) SignUp(ctx context.Context, email, password, fullName string) (*models.User, error) {
	email = normalizeEmail(email)

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Email:    email,
		Password: hashed,
		FullName: strings.TrimSpace(fullName),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

func (s *AuthService) SignInWithPassword(ctx context.Context, email, password string) (*SessionView, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_sign_in_at", now).Error; err != nil {
		return nil, fmt.Errorf("record sign-in: %w", err)
	}
	user.LastSignInAt = &now

	sess := models.Session{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    now.Add(s.ttl),
	}
	if err := s.db.WithContext(ctx).Omit("User").Create(&sess).Error; err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	token, err := utils.GenerateJWT(s.secret, sess.ID, user.Email, sess.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	view := &SessionView{
		ID:           sess.ID,
		AccessToken:  token,
		ExpiresAt:    sess.ExpiresAt,
		LastActiveAt: sess.LastActiveAt,
		User:         &user,
	}
	s.emit(AuthChange{Event: EventSignedIn, SessionID: sess.ID, UserID: user.ID, Session: view})
	return view, nil
}

// ParseToken resolves a bearer token to its session id.
func (s *AuthService) ParseToken(token string) (string, error) {
	claims, err := utils.ParseJWT(s.secret, token)
	if err != nil {
		return "", err
	}
	return claims.SessionID, nil
}

// GetSession returns a live session. A session past its hard expiry or idle
// longer than the idle timeout is destroyed and ErrSessionExpired returned.
func (s *AuthService) GetSession(ctx context.Context, id string) (*SessionView, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}

	var sess models.Session
	err := s.db.WithContext(ctx).Preload("User").Where("id = ?", id).First(&sess).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	now := s.now()
	if now.After(sess.ExpiresAt) || (s.idle > 0 && now.Sub(sess.LastActiveAt) > s.idle) {
		if err := s.destroy(ctx, sess.ID); err != nil {
			return nil, err
		}
		s.emit(AuthChange{Event: EventSignedOut, SessionID: sess.ID, UserID: sess.UserID, Reason: ReasonExpired})
		return nil, ErrSessionExpired
	}

	user := sess.User
	return &SessionView{
		ID:           sess.ID,
		ExpiresAt:    sess.ExpiresAt,
		LastActiveAt: sess.LastActiveAt,
		User:         &user,
	}, nil
}

// Touch records activity on a session.
func (s *AuthService) Touch(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Model(&models.Session{}).Where("id = ?", id).Update("last_active_at", s.now())
	if res.Error != nil {
		return fmt.Errorf("touch session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// SignOut destroys the session and notifies subscribers. Signing out an
// already-destroyed session is not an error.
func (s *AuthService) SignOut(ctx context.Context, id string) error {
	var sess models.Session
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if err := s.destroy(ctx, id); err != nil {
		return err
	}
	s.emit(AuthChange{Event: EventSignedOut, SessionID: id, UserID: sess.UserID})
	return nil
}

func (s *AuthService) destroy(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
