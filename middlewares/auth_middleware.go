package middlewares

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"medicare/guard"
	"medicare/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

const (
	CookieName = "session"

	CtxUserID    = "userID"
	CtxSessionID = "sessionID"
	CtxSession   = "session"
)

// NewCookieStore returns the signed cookie store that carries the session id.
func NewCookieStore(secret string, secure bool, maxAge int) sessions.Store {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// SessionResolver finds the caller's session from a bearer token or the
// session cookie.
type SessionResolver struct {
	Auth    *services.AuthService
	Cookies sessions.Store
	Logger  *slog.Logger
}

func (r *SessionResolver) SessionID(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		sid, err := r.Auth.ParseToken(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			return ""
		}
		return sid
	}
	sess, err := r.Cookies.Get(c.Request, CookieName)
	if err != nil {
		return ""
	}
	sid, _ := sess.Values["sid"].(string)
	return sid
}

// Resolve loads and touches the caller's session and stores it on the context.
func (r *SessionResolver) Resolve(c *gin.Context) (*services.SessionView, error) {
	sid := r.SessionID(c)
	if sid == "" {
		return nil, services.ErrNotAuthenticated
	}
	view, err := r.Auth.GetSession(c.Request.Context(), sid)
	if err != nil {
		return nil, err
	}
	if err := r.Auth.Touch(c.Request.Context(), sid); err != nil {
		return nil, err
	}

	c.Set(CtxSessionID, sid)
	c.Set(CtxSession, view)
	c.Set(CtxUserID, view.User.ID)
	return view, nil
}

// SaveSessionCookie stores sid in the session cookie.
func (r *SessionResolver) SaveSessionCookie(c *gin.Context, sid string) error {
	sess, _ := r.Cookies.Get(c.Request, CookieName)
	sess.Values["sid"] = sid
	return sess.Save(c.Request, c.Writer)
}

func (r *SessionResolver) ClearSessionCookie(c *gin.Context) error {
	sess, _ := r.Cookies.Get(c.Request, CookieName)
	delete(sess.Values, "sid")
	sess.Options.MaxAge = -1
	return sess.Save(c.Request, c.Writer)
}

func isAuthError(err error) bool {
	return errors.Is(err, services.ErrNotAuthenticated) ||
		errors.Is(err, services.ErrSessionNotFound)
}

// AuthMiddleware rejects API requests without a live session.
func AuthMiddleware(r *SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, err := r.Resolve(c)
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, services.ErrSessionExpired):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":    "session expired",
				"reason":   services.ReasonExpired,
				"redirect": guard.ExpiredPath,
			})
		case isAuthError(err):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		default:
			r.Logger.Error("resolve session", slog.Any("error", err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "could not load session"})
		}
	}
}

// PageGuard applies the navigation rule to page requests: protected pages
// need a session, public pages send a signed-in user to the dashboard.
func PageGuard(r *SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		view, err := r.Resolve(c)
		if err != nil && !errors.Is(err, services.ErrSessionExpired) && !isAuthError(err) {
			r.Logger.Error("resolve session", slog.Any("error", err))
		}

		if errors.Is(err, services.ErrSessionExpired) && !guard.IsPublic(path) {
			c.Redirect(http.StatusFound, guard.ExpiredPath)
			c.Abort()
			return
		}
		if to := guard.Resolve(path, view != nil, false); to != "" {
			c.Redirect(http.StatusFound, to)
			c.Abort()
			return
		}
		c.Next()
	}
}

func UserID(c *gin.Context) uint { return c.GetUint(CtxUserID) }

func SessionID(c *gin.Context) string { return c.GetString(CtxSessionID) }

func CurrentSession(c *gin.Context) *services.SessionView {
	v, _ := c.Get(CtxSession)
	s, _ := v.(*services.SessionView)
	return s
}
