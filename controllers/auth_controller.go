package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"medicare/forms"
	"medicare/guard"
	"medicare/middlewares"
	"medicare/services"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	Auth     *services.AuthService
	Resolver *middlewares.SessionResolver
	Forms    *forms.Validator
	Storage  services.ClientStorage
	Logger   *slog.Logger
}

// Signup creates the account only; the user signs in afterwards.
func (ac *AuthController) Signup(c *gin.Context) {
	var input forms.SignupForm
	if !bindForm(c, ac.Forms, &input) {
		return
	}

	user, err := ac.Auth.SignUp(c.Request.Context(), input.Email, input.Password, input.Username)
	if errors.Is(err, services.ErrEmailTaken) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": forms.FieldErrors{"email": "This email is already in use."},
		})
		return
	}
	if err != nil {
		ac.Logger.Error("sign up", slog.Any("error", err))
		alert(c, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Signed up successfully, proceed to login",
		"user":     user,
		"redirect": guard.LoginPath,
	})
}

func (ac *AuthController) Login(c *gin.Context) {
	var input forms.LoginForm
	if !bindForm(c, ac.Forms, &input) {
		return
	}

	sess, err := ac.Auth.SignInWithPassword(c.Request.Context(), input.Email, input.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		alert(c, http.StatusUnauthorized, "Invalid email or password.")
		return
	}
	if err != nil {
		ac.Logger.Error("sign in", slog.Any("error", err))
		alert(c, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		return
	}

	if err := ac.Resolver.SaveSessionCookie(c, sess.ID); err != nil {
		ac.Logger.Error("save session cookie", slog.Any("error", err))
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    sess.AccessToken,
		"session":  sess,
		"redirect": guard.DashboardPath,
	})
}

// Logout ends the session and wipes client storage. A failed sign-out is
// reported to the user and not retried.
func (ac *AuthController) Logout(c *gin.Context) {
	sid := middlewares.SessionID(c)
	if err := ac.Auth.SignOut(c.Request.Context(), sid); err != nil {
		ac.Logger.Error("sign out", slog.String("session_id", sid), slog.Any("error", err))
		alert(c, http.StatusInternalServerError, "Sign out failed: "+err.Error())
		return
	}
	if err := ac.Storage.Clear(c.Request.Context(), sid); err != nil {
		ac.Logger.Warn("clear client storage", slog.Any("error", err))
	}
	if err := ac.Resolver.ClearSessionCookie(c); err != nil {
		ac.Logger.Warn("clear session cookie", slog.Any("error", err))
	}
	c.JSON(http.StatusOK, gin.H{"message": "signed out", "redirect": guard.LoginPath})
}

func (ac *AuthController) Session(c *gin.Context) {
	sess := middlewares.CurrentSession(c)
	c.JSON(http.StatusOK, gin.H{
		"session":    sess,
		"user":       sess.User,
		"needs_role": sess.User.Role == "",
	})
}
