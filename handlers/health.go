package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Server is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Readiness reports whether the store answers a ping.
func Readiness(db pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			fail(c, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
		ok(c, http.StatusOK, "Ready", nil)
	}
}

// RazorpayKey exposes the public key id to the checkout page.
func RazorpayKey(keyID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "key": keyID})
	}
}

func NotFound(c *gin.Context) {
	fail(c, http.StatusNotFound, "Route "+c.Request.URL.Path+" not found")
}
