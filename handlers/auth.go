package handlers

import (
	"errors"
	"net/http"
	"time"

	"storefront-svc/middleware"
	"storefront-svc/models"
	"storefront-svc/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	errorResponder
	users     store.UserStore
	jwtSecret string
}

func NewAuthHandler(users store.UserStore, jwtSecret string, logger *zap.Logger, exposeErrors bool) *AuthHandler {
	return &AuthHandler{
		errorResponder: errorResponder{logger: logger, exposeErrors: exposeErrors},
		users:          users,
		jwtSecret:      jwtSecret,
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	user, err := h.users.GetUserByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, store.ErrUserNotFound) {
		fail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		h.respond(c, err, "Error logging in")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		fail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := middleware.GenerateToken(h.jwtSecret, user, time.Now())
	if err != nil {
		h.respond(c, err, "Error logging in")
		return
	}

	traceID := middleware.TraceIDFromContext(c.Request.Context())
	h.logger.Info("User logged in", zap.String("trace_id", traceID), zap.String("email", user.Email))
	ok(c, http.StatusOK, "Login successful", models.LoginResponse{
		Token: token,
		User:  *user,
	})
}

// Profile returns the claims of the authenticated caller.
func (h *AuthHandler) Profile(c *gin.Context) {
	ok(c, http.StatusOK, "", gin.H{
		"id":   c.GetString(middleware.ContextUserID),
		"role": c.GetString(middleware.ContextRole),
	})
}
