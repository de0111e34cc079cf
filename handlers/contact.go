package handlers

import (
	"context"
	"net/http"
	"strings"

	"storefront-svc/models"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

type ContactSender interface {
	SendContact(ctx context.Context, msg models.ContactRequest) (string, error)
}

type ContactHandler struct {
	errorResponder
	sender ContactSender
}

func NewContactHandler(sender ContactSender, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{
		errorResponder: errorResponder{logger: logger},
		sender:         sender,
	}
}

func (h *ContactHandler) SendContact(c *gin.Context) {
	ctx, span := otel.Tracer("storefront").Start(c.Request.Context(), "SendContact")
	defer span.End()

	var req models.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}
	if h.sender == nil {
		fail(c, http.StatusServiceUnavailable, "Contact form is currently unavailable")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)

	messageID, err := h.sender.SendContact(ctx, req)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to send contact email", zap.String("email", req.Email), zap.Error(err))
		fail(c, http.StatusInternalServerError, "Failed to send email. Please try again later.")
		return
	}

	h.logger.Info("Contact enquiry sent", zap.String("email", req.Email), zap.String("message_id", messageID))
	ok(c, http.StatusOK, "Your message has been sent successfully! We will get back to you soon.", gin.H{"messageId": messageID})
}
