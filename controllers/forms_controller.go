package controllers

import (
	"net/http"
	"time"

	"medicare/forms"

	"github.com/gin-gonic/gin"
)

// FormConfig serves the field configuration the UI renders a form from.
func FormConfig(c *gin.Context) {
	cfg, ok := forms.Lookup(c.Param("name"), time.Now())
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown form", "forms": forms.Names()})
		return
	}
	c.JSON(http.StatusOK, cfg)
}
