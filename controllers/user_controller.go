package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"medicare/forms"
	"medicare/middlewares"
	"medicare/models"
	"medicare/services"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	Users  *services.UserService
	Hub    *services.RealtimeHub
	Forms  *forms.Validator
	Logger *slog.Logger
}

func (uc *UserController) GetProfile(c *gin.Context) {
	user, err := uc.Users.GetUser(c.Request.Context(), middlewares.UserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "display_name": user.DisplayName()})
}

func (uc *UserController) UpdateProfile(c *gin.Context) {
	var input forms.ProfileForm
	if !bindForm(c, uc.Forms, &input) {
		return
	}

	uid := middlewares.UserID(c)
	user, err := uc.Users.UpdateProfile(c.Request.Context(), uid, input.FullName)
	if err != nil {
		uc.Logger.Error("update profile", slog.Any("error", err))
		alert(c, http.StatusInternalServerError, err.Error())
		return
	}
	uc.Hub.NotifyDataChanged(uid, "profile")
	c.JSON(http.StatusOK, gin.H{"message": "profile updated successfully", "user": user})
}

// SetRole stores the role and points the client at that role's home page.
func (uc *UserController) SetRole(c *gin.Context) {
	var input forms.RoleForm
	if !bindForm(c, uc.Forms, &input) {
		return
	}

	user, err := uc.Users.SetRole(c.Request.Context(), middlewares.UserID(c), input.Role)
	if errors.Is(err, services.ErrInvalidRole) {
		badForm(c, forms.FieldErrors{"role": "Choose patient or caretaker"})
		return
	}
	if err != nil {
		uc.Logger.Error("set role", slog.Any("error", err))
		alert(c, http.StatusInternalServerError, err.Error())
		return
	}

	next := "/medication"
	if user.Role == models.RoleCaretaker {
		next = "/caretaker"
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "redirect": next})
}
