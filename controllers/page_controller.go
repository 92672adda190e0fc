package controllers

import (
	"net/http"
	"time"

	"medicare/forms"
	"medicare/middlewares"
	"medicare/models"
	"medicare/services"

	"github.com/gin-gonic/gin"
)

// PageController serves the JSON view model behind each page route. The
// page guard has already decided whether the caller may see the page.
type PageController struct {
	Dashboard *services.DashboardService
	Now       func() time.Time
}

func (pc *PageController) now() time.Time {
	if pc.Now != nil {
		return pc.Now()
	}
	return time.Now()
}

func (pc *PageController) form(name string) forms.Config {
	cfg, _ := forms.Lookup(name, pc.now())
	return cfg
}

func (pc *PageController) Landing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"page":    "landing",
		"title":   "MediCare Companion",
		"tagline": "Keep track of daily medication and let a caretaker follow along.",
		"actions": []gin.H{
			{"label": "Log In", "href": "/login"},
			{"label": "Sign up", "href": "/signup"},
		},
	})
}

// Login shows the login form. reason=expired adds the inactivity notice.
func (pc *PageController) Login(c *gin.Context) {
	resp := gin.H{"page": "login", "form": pc.form("login")}
	if c.Query("reason") == services.ReasonExpired {
		resp["notice"] = "You were signed out after 30 minutes of inactivity."
	}
	c.JSON(http.StatusOK, resp)
}

func (pc *PageController) Signup(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"page": "signup", "form": pc.form("signup")})
}

// DashboardView picks the view for the signed-in user's role. Users without a
// role are sent to role selection first.
func (pc *PageController) DashboardView(c *gin.Context) {
	sess := middlewares.CurrentSession(c)
	switch sess.User.Role {
	case models.RoleCaretaker:
		pc.Caretaker(c)
	case models.RolePatient:
		pc.Medication(c)
	default:
		c.JSON(http.StatusOK, gin.H{"page": "role", "redirect": "/role", "form": pc.form("role")})
	}
}

func (pc *PageController) Medication(c *gin.Context) {
	ctx := c.Request.Context()
	snap, err := pc.Dashboard.PatientData(ctx, middlewares.SessionID(c), middlewares.UserID(c))
	if err != nil {
		alert(c, http.StatusInternalServerError, "Could not load your medication data.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"page":    "medication",
		"user":    middlewares.CurrentSession(c).User,
		"patient": snap,
		"form":    pc.form("medication"),
	})
}

func (pc *PageController) Caretaker(c *gin.Context) {
	ctx := c.Request.Context()
	snap, err := pc.Dashboard.CaretakerData(ctx, middlewares.SessionID(c), middlewares.UserID(c))
	if err != nil {
		alert(c, http.StatusInternalServerError, "Could not load patient data.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"page":      "caretaker",
		"user":      middlewares.CurrentSession(c).User,
		"caretaker": snap,
		"tabs":      []string{"overview", "activity", "calendar", "notifications"},
		"form":      pc.form("notifications"),
	})
}

func (pc *PageController) Role(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"page": "role",
		"user": middlewares.CurrentSession(c).User,
		"form": pc.form("role"),
	})
}
