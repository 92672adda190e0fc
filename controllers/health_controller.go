package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// HealthController reports whether the database and, when configured,
// Redis are reachable.
type HealthController struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func (hc *HealthController) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	sqlDB, err := hc.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "component": "database"})
		return
	}

	resp := gin.H{"status": "ok", "database": "connected"}
	if hc.Redis != nil {
		if err := hc.Redis.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "component": "redis"})
			return
		}
		resp["redis"] = "connected"
	}
	c.JSON(http.StatusOK, resp)
}
