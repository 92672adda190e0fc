// Package guard tracks one client's authentication state, decides where the
// client may navigate and signs the session out after a period of inactivity.
package guard

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"medicare/services"
)

// Store is the part of the session store the guard depends on.
type Store interface {
	GetSession(ctx context.Context, id string) (*services.SessionView, error)
	SignOut(ctx context.Context, id string) error
}

type StorageClearer interface {
	Clear(ctx context.Context, sessionID string) error
}

// Output receives the instructions the guard issues to its client.
type Output interface {
	Redirect(to string)
	Alert(message string)
}

type Timer interface {
	Stop() bool
}

type AfterFunc func(d time.Duration, f func()) Timer

func RealAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// ActivityEvents are the client events that count as user activity.
var ActivityEvents = []string{"pointerdown", "pointermove", "keypress", "scroll", "touchstart"}

func IsActivity(event string) bool {
	for _, e := range ActivityEvents {
		if e == event {
			return true
		}
	}
	return false
}

type Config struct {
	SessionID        string
	IdleTimeout      time.Duration
	NewAccountWindow time.Duration
	AfterFunc        AfterFunc
	Logger           *slog.Logger
}

type Guard struct {
	store   Store
	storage StorageClearer
	out     Output
	cfg     Config

	mu         sync.Mutex
	session    *services.SessionView
	loading    bool
	signingOut bool
	closed     bool
	path       string
	timer      Timer
	gen        uint64
}

func New(store Store, storage StorageClearer, out Output, cfg Config) *Guard {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 30 * time.Minute
	}
	if cfg.AfterFunc == nil {
		cfg.AfterFunc = RealAfterFunc
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Guard{store: store, storage: storage, out: out, cfg: cfg, loading: true}
}

// State returns the current session and whether it is still loading.
func (g *Guard) State() (*services.SessionView, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session, g.loading
}

// Mount loads the current session and evaluates the current path.
func (g *Guard) Mount(ctx context.Context) {
	sess, err := g.store.GetSession(ctx, g.cfg.SessionID)
	if err != nil {
		g.cfg.Logger.Debug("guard mount without session", slog.Any("error", err))
		sess = nil
	}
	if g.isNewAccount(sess) {
		g.forceSignOut(ctx)
		sess = nil
	}
	g.adopt(sess)
}

// HandleAuthChange applies a session store event for this guard's session.
// Events that arrive while a forced sign-out is running are dropped.
func (g *Guard) HandleAuthChange(ctx context.Context, change services.AuthChange) {
	if change.SessionID != "" && change.SessionID != g.cfg.SessionID {
		return
	}

	g.mu.Lock()
	if g.signingOut || g.closed {
		g.mu.Unlock()
		return
	}
	g.mu.Unlock()

	sess := change.Session
	if change.Event == services.EventSignedOut {
		sess = nil
	}
	if g.isNewAccount(sess) {
		g.forceSignOut(ctx)
		sess = nil
	}

	if change.Event == services.EventSignedOut && change.Reason == services.ReasonExpired {
		g.clearStorage(ctx)
		g.mu.Lock()
		g.setSessionLocked(nil)
		g.path = LoginPath
		g.mu.Unlock()
		g.out.Redirect(ExpiredPath)
		return
	}
	g.adopt(sess)
}

// Navigate records the client's path and returns the redirect it triggers, if any.
func (g *Guard) Navigate(path string) string {
	g.mu.Lock()
	g.path = path
	g.mu.Unlock()
	return g.evaluate()
}

// Activity resets the inactivity countdown. Unknown events and events
// without a session are ignored.
func (g *Guard) Activity(event string) bool {
	if !IsActivity(event) {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session == nil || g.closed {
		return false
	}
	g.resetTimerLocked()
	return true
}

// Close stops the countdown. The guard ignores everything afterwards.
func (g *Guard) Close() {
	g.mu.Lock()
	g.closed = true
	g.stopTimerLocked()
	g.mu.Unlock()
}

func (g *Guard) isNewAccount(s *services.SessionView) bool {
	if s == nil || s.User == nil || s.User.LastSignInAt == nil || g.cfg.NewAccountWindow <= 0 {
		return false
	}
	d := s.User.LastSignInAt.Sub(s.User.CreatedAt)
	if d < 0 {
		d = -d
	}
	return d < g.cfg.NewAccountWindow
}

// forceSignOut signs the session out with the re-entrancy flag raised, so the
// SIGNED_OUT event it causes is not handled again.
func (g *Guard) forceSignOut(ctx context.Context) {
	g.mu.Lock()
	if g.signingOut {
		g.mu.Unlock()
		return
	}
	g.signingOut = true
	g.mu.Unlock()

	err := g.store.SignOut(ctx, g.cfg.SessionID)

	g.mu.Lock()
	g.signingOut = false
	g.mu.Unlock()

	if err != nil {
		g.cfg.Logger.Error("sign out failed", slog.String("session_id", g.cfg.SessionID), slog.Any("error", err))
		g.out.Alert("Sign out failed: " + err.Error())
	}
}

func (g *Guard) adopt(sess *services.SessionView) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.setSessionLocked(sess)
	g.mu.Unlock()
	g.evaluate()
}

func (g *Guard) setSessionLocked(sess *services.SessionView) {
	g.session = sess
	g.loading = false
	if sess != nil {
		g.resetTimerLocked()
	} else {
		g.stopTimerLocked()
	}
}

func (g *Guard) evaluate() string {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ""
	}
	to := Resolve(g.path, g.session != nil, g.loading)
	if to != "" {
		g.path, _, _ = strings.Cut(to, "?")
	}
	g.mu.Unlock()

	if to != "" {
		g.out.Redirect(to)
	}
	return to
}

func (g *Guard) resetTimerLocked() {
	if g.timer != nil {
		g.timer.Stop()
	}
	g.gen++
	gen := g.gen
	g.timer = g.cfg.AfterFunc(g.cfg.IdleTimeout, func() { g.expire(gen) })
}

func (g *Guard) stopTimerLocked() {
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.gen++
}

// expire ends the session after the idle timeout: sign out, wipe client
// storage, send the client to the login page with reason=expired.
func (g *Guard) expire(gen uint64) {
	g.mu.Lock()
	if gen != g.gen || g.session == nil || g.closed || g.signingOut {
		g.mu.Unlock()
		return
	}
	g.timer = nil
	g.signingOut = true
	g.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := g.store.SignOut(ctx, g.cfg.SessionID); err != nil {
		g.cfg.Logger.Error("sign out on inactivity failed", slog.String("session_id", g.cfg.SessionID), slog.Any("error", err))
		g.out.Alert("Sign out failed: " + err.Error())
	}
	g.clearStorage(ctx)

	g.mu.Lock()
	g.signingOut = false
	g.setSessionLocked(nil)
	g.path = LoginPath
	g.mu.Unlock()

	g.out.Redirect(ExpiredPath)
}

func (g *Guard) clearStorage(ctx context.Context) {
	if g.storage == nil {
		return
	}
	if err := g.storage.Clear(ctx, g.cfg.SessionID); err != nil {
		g.cfg.Logger.Warn("clear client storage", slog.String("session_id", g.cfg.SessionID), slog.Any("error", err))
	}
}
