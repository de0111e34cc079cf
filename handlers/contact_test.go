package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"storefront-svc/models"
	"storefront-svc/store/storetest"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"
)

type stubContactSender struct {
	sent []models.ContactRequest
	err  error
}

func (s *stubContactSender) SendContact(_ context.Context, msg models.ContactRequest) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, msg)
	return "<msg-1@smtp-relay>", nil
}

func setupContactTest(t *testing.T, sender ContactSender) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterConfig{
		ServiceName: "storefront-test",
		Store:       storetest.NewMemory(),
		Logger:      zaptest.NewLogger(t),
		JWTSecret:   testJWTSecret,
		Contact:     sender,
	})
}

func validContact() gin.H {
	return gin.H{
		"name":    "  Asha Rao ",
		"email":   "Asha@Example.com",
		"phone":   "9876543210",
		"subject": "Bulk order",
		"message": "Do you ship twenty lamps to Pune?",
	}
}

func TestContactHandler_SendContact_Success(t *testing.T) {
	sender := &stubContactSender{}
	router := setupContactTest(t, sender)

	w := doJSON(router, http.MethodPost, "/api/contact", validContact(), "")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	data := decodeResponse(t, w)["data"].(map[string]any)
	if data["messageId"] != "<msg-1@smtp-relay>" {
		t.Errorf("Expected messageId, got %v", data["messageId"])
	}
	if len(sender.sent) != 1 {
		t.Fatalf("Expected 1 email, got %d", len(sender.sent))
	}
	if got := sender.sent[0]; got.Name != "Asha Rao" || got.Email != "asha@example.com" {
		t.Errorf("Expected trimmed name and lowercased email, got %q %q", got.Name, got.Email)
	}
}

func TestContactHandler_SendContact_Validation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(gin.H)
		field string
	}{
		{"short name", func(b gin.H) { b["name"] = "A" }, "name"},
		{"bad email", func(b gin.H) { b["email"] = "asha" }, "email"},
		{"bad phone", func(b gin.H) { b["phone"] = "12345" }, "phone"},
		{"blank subject", func(b gin.H) { b["subject"] = "   " }, "subject"},
		{"short message", func(b gin.H) { b["message"] = "hi" }, "message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &stubContactSender{}
			router := setupContactTest(t, sender)
			body := validContact()
			tt.edit(body)

			w := doJSON(router, http.MethodPost, "/api/contact", body, "")

			if w.Code != http.StatusBadRequest {
				t.Fatalf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
			}
			errs, _ := decodeResponse(t, w)["errors"].([]any)
			if len(errs) != 1 || errs[0].(map[string]any)["field"] != tt.field {
				t.Errorf("Expected one error on %q, got %v", tt.field, errs)
			}
			if len(sender.sent) != 0 {
				t.Error("Expected no email for an invalid form")
			}
		})
	}
}

func TestContactHandler_SendContact_OptionalPhone(t *testing.T) {
	sender := &stubContactSender{}
	router := setupContactTest(t, sender)
	body := validContact()
	delete(body, "phone")

	w := doJSON(router, http.MethodPost, "/api/contact", body, "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
}

func TestContactHandler_SendContact_Failures(t *testing.T) {
	router := setupContactTest(t, &stubContactSender{err: errors.New("brevo returned status 401")})
	w := doJSON(router, http.MethodPost, "/api/contact", validContact(), "")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
	if msg := decodeResponse(t, w)["message"]; msg != "Failed to send email. Please try again later." {
		t.Errorf("Unexpected message %v", msg)
	}

	router = setupContactTest(t, nil)
	w = doJSON(router, http.MethodPost, "/api/contact", validContact(), "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}
}
