package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-svc/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testJWTSecret = "test-secret"

func setupAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	admin := router.Group("/admin", AuthMiddleware(testJWTSecret), AdminOnly())
	admin.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString(ContextUserID)})
	})
	return router
}

func TestAuthMiddleware(t *testing.T) {
	router := setupAuthRouter()
	now := time.Now()

	adminToken, _ := GenerateToken(testJWTSecret, &models.User{ID: "u-1", Role: models.RoleAdmin}, now)
	userToken, _ := GenerateToken(testJWTSecret, &models.User{ID: "u-2", Role: models.RoleUser}, now)
	expiredToken, _ := GenerateToken(testJWTSecret, &models.User{ID: "u-1", Role: models.RoleAdmin}, now.Add(-48*time.Hour))
	foreignToken, _ := GenerateToken("other-secret", &models.User{ID: "u-1", Role: models.RoleAdmin}, now)
	noneToken, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{ID: "u-1", Role: models.RoleAdmin}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"admin token", "Bearer " + adminToken, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"expired", "Bearer " + expiredToken, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + foreignToken, http.StatusUnauthorized},
		{"alg none", "Bearer " + noneToken, http.StatusUnauthorized},
		{"non admin", "Bearer " + userToken, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "/admin/ping", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestGenerateTokenClaims(t *testing.T) {
	now := time.Now()
	token, err := GenerateToken(testJWTSecret, &models.User{ID: "u-1", Role: models.RoleAdmin}, now)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	claims, err := ParseToken(testJWTSecret, token)
	if err != nil {
		t.Fatalf("Failed to parse token: %v", err)
	}
	if claims.ID != "u-1" || claims.Role != models.RoleAdmin {
		t.Errorf("Unexpected claims: %+v", claims)
	}
	if got := claims.ExpiresAt.Sub(now); got < TokenTTL-time.Second || got > TokenTTL+time.Second {
		t.Errorf("Expected expiry in %v, got %v", TokenTTL, got)
	}
}
