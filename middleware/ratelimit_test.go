package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

type fakeCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (f *fakeCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	if f.counts == nil {
		f.counts = make(map[string]int64)
	}
	f.counts[key]++
	return f.counts[key], nil
}

func setupRateLimitRouter(t *testing.T, counter windowCounter, limit int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	rl := &RateLimiter{
		name:    "payment",
		limit:   limit,
		window:  time.Minute,
		counter: counter,
		logger:  zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel)),
	}
	router := gin.New()
	router.POST("/pay", rl.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func doPay(router *gin.Engine, ip string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, "/pay", nil)
	req.RemoteAddr = ip + ":12345"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiterRejectsOverLimit(t *testing.T) {
	router := setupRateLimitRouter(t, &fakeCounter{}, 2)

	for i := 0; i < 2; i++ {
		if w := doPay(router, "10.0.0.1"); w.Code != http.StatusOK {
			t.Fatalf("Expected status %d on request %d, got %d", http.StatusOK, i, w.Code)
		}
	}

	w := doPay(router, "10.0.0.1")
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected status %d, got %d", http.StatusTooManyRequests, w.Code)
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("Expected remaining 0, got %q", got)
	}

	if w := doPay(router, "10.0.0.2"); w.Code != http.StatusOK {
		t.Errorf("Expected other client to pass, got %d", w.Code)
	}
}

func TestRateLimiterFailsOpen(t *testing.T) {
	router := setupRateLimitRouter(t, &fakeCounter{err: errors.New("redis: connection refused")}, 1)

	for i := 0; i < 3; i++ {
		if w := doPay(router, "10.0.0.1"); w.Code != http.StatusOK {
			t.Errorf("Expected status %d with Redis down, got %d", http.StatusOK, w.Code)
		}
	}
}

func TestRateLimiterWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(nil, "auth", 1, time.Minute, zaptest.NewLogger(t))
	router := gin.New()
	router.POST("/pay", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		if w := doPay(router, "10.0.0.1"); w.Code != http.StatusOK {
			t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
		}
	}
}
