package controllers

import (
	"errors"
	"net/http"

	"medicare/forms"

	"github.com/gin-gonic/gin"
)

// badForm answers a failed bind or validation. Field errors are rendered
// inline by the client; anything else is a plain 400.
func badForm(c *gin.Context, err error) {
	var fe forms.FieldErrors
	if errors.As(err, &fe) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fe})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
}

// alert answers with an error the client shows in a blocking dialog.
func alert(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg, "alert": true})
}

// bindForm decodes the JSON body into form and validates it.
func bindForm(c *gin.Context, v *forms.Validator, form any) bool {
	if err := c.ShouldBindJSON(form); err != nil {
		badForm(c, err)
		return false
	}
	if err := v.Validate(form); err != nil {
		badForm(c, err)
		return false
	}
	return true
}
