package guard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"medicare/models"
	"medicare/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu         sync.Mutex
	session    *services.SessionView
	getErr     error
	signOutErr error
	signOuts   int
	onSignOut  func()
}

func (s *fakeStore) GetSession(_ context.Context, _ string) (*services.SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.session == nil {
		return nil, services.ErrSessionNotFound
	}
	return s.session, nil
}

func (s *fakeStore) SignOut(_ context.Context, _ string) error {
	s.mu.Lock()
	s.signOuts++
	hook := s.onSignOut
	err := s.signOutErr
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	return err
}

type fakeStorage struct{ cleared []string }

func (s *fakeStorage) Clear(_ context.Context, id string) error {
	s.cleared = append(s.cleared, id)
	return nil
}

type recorder struct {
	mu        sync.Mutex
	redirects []string
	alerts    []string
}

func (r *recorder) Redirect(to string) {
	r.mu.Lock()
	r.redirects = append(r.redirects, to)
	r.mu.Unlock()
}

func (r *recorder) Alert(msg string) {
	r.mu.Lock()
	r.alerts = append(r.alerts, msg)
	r.mu.Unlock()
}

func (r *recorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.redirects) == 0 {
		return ""
	}
	return r.redirects[len(r.redirects)-1]
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) fire() {
	t.stopped = true
	t.f()
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct{ timers []*fakeTimer }

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) active() []*fakeTimer {
	var out []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped {
			out = append(out, t)
		}
	}
	return out
}

func sessionFor(created, signedIn time.Time) *services.SessionView {
	u := &models.User{Email: "pat@example.com", LastSignInAt: &signedIn}
	u.ID = 7
	u.CreatedAt = created
	return &services.SessionView{ID: "sess-1", User: u}
}

func establishedSession() *services.SessionView {
	now := time.Now()
	return sessionFor(now.Add(-48*time.Hour), now)
}

func newGuard(store *fakeStore, storage *fakeStorage, out *recorder, clock *fakeClock) *Guard {
	return New(store, storage, out, Config{
		SessionID:        "sess-1",
		IdleTimeout:      30 * time.Minute,
		NewAccountWindow: 2 * time.Second,
		AfterFunc:        clock.AfterFunc,
	})
}

func TestGuard_StartsLoading(t *testing.T) {
	g := newGuard(&fakeStore{}, &fakeStorage{}, &recorder{}, &fakeClock{})
	sess, loading := g.State()
	assert.Nil(t, sess)
	assert.True(t, loading)

	// no redirects while loading
	assert.Equal(t, "", g.Navigate("/dashboard"))
}

func TestGuard_MountWithoutSessionRedirectsProtectedPath(t *testing.T) {
	out := &recorder{}
	g := newGuard(&fakeStore{}, &fakeStorage{}, out, &fakeClock{})
	g.Navigate("/dashboard")
	g.Mount(context.Background())

	sess, loading := g.State()
	assert.Nil(t, sess)
	assert.False(t, loading)
	assert.Equal(t, LoginPath, out.last())
}

func TestGuard_MountWithSessionOnLoginGoesToDashboard(t *testing.T) {
	out := &recorder{}
	clock := &fakeClock{}
	g := newGuard(&fakeStore{session: establishedSession()}, &fakeStorage{}, out, clock)
	g.Navigate("/login")
	g.Mount(context.Background())

	sess, _ := g.State()
	require.NotNil(t, sess)
	assert.Equal(t, DashboardPath, out.last())
	require.Len(t, clock.active(), 1)
	assert.Equal(t, 30*time.Minute, clock.active()[0].d)
}

func TestGuard_NewAccountIsSignedOut(t *testing.T) {
	created := time.Now()
	store := &fakeStore{session: sessionFor(created, created.Add(500*time.Millisecond))}
	out := &recorder{}
	g := newGuard(store, &fakeStorage{}, out, &fakeClock{})
	g.Navigate("/medication")
	g.Mount(context.Background())

	sess, loading := g.State()
	assert.Nil(t, sess)
	assert.False(t, loading)
	assert.Equal(t, 1, store.signOuts)
	assert.Equal(t, LoginPath, out.last())
}

func TestGuard_AuthChangeDuringForcedSignOutIsIgnored(t *testing.T) {
	created := time.Now()
	store := &fakeStore{session: sessionFor(created, created.Add(time.Second))}
	out := &recorder{}
	g := newGuard(store, &fakeStorage{}, out, &fakeClock{})

	// the store announces changes synchronously from inside SignOut
	store.onSignOut = func() {
		g.HandleAuthChange(context.Background(), services.AuthChange{
			Event:     services.EventSignedOut,
			SessionID: "sess-1",
		})
		g.HandleAuthChange(context.Background(), services.AuthChange{
			Event:     services.EventSignedIn,
			SessionID: "sess-1",
			Session:   sessionFor(created, created.Add(time.Second)),
		})
	}

	g.Mount(context.Background())

	assert.Equal(t, 1, store.signOuts)
	sess, _ := g.State()
	assert.Nil(t, sess)
}

func TestGuard_AdoptsSessionFromAuthChange(t *testing.T) {
	out := &recorder{}
	g := newGuard(&fakeStore{}, &fakeStorage{}, out, &fakeClock{})
	g.Navigate("/login")
	g.Mount(context.Background())
	assert.Empty(t, out.redirects)

	g.HandleAuthChange(context.Background(), services.AuthChange{
		Event:     services.EventSignedIn,
		SessionID: "sess-1",
		Session:   establishedSession(),
	})
	sess, _ := g.State()
	require.NotNil(t, sess)
	assert.Equal(t, DashboardPath, out.last())
}

func TestGuard_IgnoresOtherSessions(t *testing.T) {
	g := newGuard(&fakeStore{session: establishedSession()}, &fakeStorage{}, &recorder{}, &fakeClock{})
	g.Mount(context.Background())

	g.HandleAuthChange(context.Background(), services.AuthChange{
		Event:     services.EventSignedOut,
		SessionID: "someone-else",
	})
	sess, _ := g.State()
	assert.NotNil(t, sess)
}

func TestGuard_InactivityExpiry(t *testing.T) {
	store := &fakeStore{session: establishedSession()}
	storage := &fakeStorage{}
	out := &recorder{}
	clock := &fakeClock{}
	g := newGuard(store, storage, out, clock)
	g.Navigate("/dashboard")
	g.Mount(context.Background())

	timers := clock.active()
	require.Len(t, timers, 1)
	timers[0].fire()

	sess, _ := g.State()
	assert.Nil(t, sess)
	assert.Equal(t, 1, store.signOuts)
	assert.Equal(t, []string{"sess-1"}, storage.cleared)
	assert.Contains(t, out.last(), "reason=expired")
	assert.Empty(t, clock.active())
}

func TestGuard_ActivityResetsCountdown(t *testing.T) {
	store := &fakeStore{session: establishedSession()}
	out := &recorder{}
	clock := &fakeClock{}
	g := newGuard(store, &fakeStorage{}, out, clock)
	g.Navigate("/dashboard")
	g.Mount(context.Background())

	first := clock.active()[0]
	assert.True(t, g.Activity("keypress"))
	assert.True(t, first.stopped)

	// a countdown that was already replaced does nothing
	first.f()
	sess, _ := g.State()
	assert.NotNil(t, sess)
	assert.Equal(t, 0, store.signOuts)

	require.Len(t, clock.active(), 1)
	clock.active()[0].fire()
	sess, _ = g.State()
	assert.Nil(t, sess)
	assert.Equal(t, ExpiredPath, out.last())
}

func TestGuard_UnknownActivityIgnored(t *testing.T) {
	clock := &fakeClock{}
	g := newGuard(&fakeStore{session: establishedSession()}, &fakeStorage{}, &recorder{}, clock)
	g.Mount(context.Background())

	assert.False(t, g.Activity("mouseover"))
	assert.Len(t, clock.timers, 1)
}

func TestGuard_NoTimerWithoutSession(t *testing.T) {
	clock := &fakeClock{}
	g := newGuard(&fakeStore{}, &fakeStorage{}, &recorder{}, clock)
	g.Mount(context.Background())

	assert.False(t, g.Activity("scroll"))
	assert.Empty(t, clock.active())
}

func TestGuard_SignOutFailureRaisesAlert(t *testing.T) {
	store := &fakeStore{session: establishedSession(), signOutErr: errors.New("network down")}
	out := &recorder{}
	clock := &fakeClock{}
	g := newGuard(store, &fakeStorage{}, out, clock)
	g.Mount(context.Background())

	clock.active()[0].fire()

	require.Len(t, out.alerts, 1)
	assert.Contains(t, out.alerts[0], "network down")
	assert.Equal(t, 1, store.signOuts)
}

func TestGuard_ServerExpiryEvent(t *testing.T) {
	storage := &fakeStorage{}
	out := &recorder{}
	g := newGuard(&fakeStore{session: establishedSession()}, storage, out, &fakeClock{})
	g.Mount(context.Background())

	g.HandleAuthChange(context.Background(), services.AuthChange{
		Event:     services.EventSignedOut,
		SessionID: "sess-1",
		Reason:    services.ReasonExpired,
	})
	assert.Equal(t, ExpiredPath, out.last())
	assert.Equal(t, []string{"sess-1"}, storage.cleared)
}

func TestGuard_CloseStopsTimer(t *testing.T) {
	store := &fakeStore{session: establishedSession()}
	clock := &fakeClock{}
	g := newGuard(store, &fakeStorage{}, &recorder{}, clock)
	g.Mount(context.Background())

	timer := clock.active()[0]
	g.Close()
	assert.True(t, timer.stopped)

	timer.f()
	assert.Equal(t, 0, store.signOuts)
}
