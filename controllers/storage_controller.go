package controllers

import (
	"log/slog"
	"net/http"

	"medicare/middlewares"
	"medicare/services"

	"github.com/gin-gonic/gin"
)

// StorageController exposes the session-scoped client storage.
type StorageController struct {
	Storage services.ClientStorage
	Logger  *slog.Logger
}

type storageSetRequest struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value"`
}

func (sc *StorageController) List(c *gin.Context) {
	items, err := sc.Storage.All(c.Request.Context(), middlewares.SessionID(c))
	if err != nil {
		sc.Logger.Error("read client storage", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
		return
	}
	if items == nil {
		items = map[string]string{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (sc *StorageController) Set(c *gin.Context) {
	var req storageSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if err := sc.Storage.Set(c.Request.Context(), middlewares.SessionID(c), req.Key, req.Value); err != nil {
		sc.Logger.Error("write client storage", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": req.Key, "value": req.Value})
}

func (sc *StorageController) Clear(c *gin.Context) {
	if err := sc.Storage.Clear(c.Request.Context(), middlewares.SessionID(c)); err != nil {
		sc.Logger.Error("clear client storage", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
		return
	}
	c.Status(http.StatusNoContent)
}
