package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"storefront-svc/circuitbreaker"
	"storefront-svc/middleware"
	"storefront-svc/models"
	"storefront-svc/orders"
	"storefront-svc/payment"
	"storefront-svc/store"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// errorResponder renders errors in the response envelope. Internal error
// text is only included when exposeErrors is set.
type errorResponder struct {
	logger       *zap.Logger
	exposeErrors bool
}

func ok(c *gin.Context, status int, message string, data any) {
	c.JSON(status, models.Response{Success: true, Message: message, Data: data})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, models.Response{Success: false, Message: message})
}

// bindError renders a request binding failure. Validation failures list
// every offending field.
func (r errorResponder) bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	fields := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, models.FieldError{
			Field:   fieldPath(fe),
			Message: fieldMessage(fe),
		})
	}
	c.JSON(http.StatusBadRequest, models.Response{
		Success: false,
		Message: "Validation failed",
		Errors:  fields,
	})
}

// fieldPath strips the request struct name from the namespace, leaving
// e.g. "customer.phone".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	for i := 0; i < len(ns); i++ {
		if ns[i] == '.' {
			return ns[i+1:]
		}
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fe.Field() + " is required"
	case "email":
		return "Please provide a valid email"
	case "in_phone":
		return "Please provide a valid 10-digit Indian phone number"
	case "pincode":
		return "Please provide a valid 6-digit pincode"
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	}
	return fe.Field() + " is invalid"
}

// respond maps domain errors to status codes. Anything unrecognised is a 500
// with fallback as the message.
func (r errorResponder) respond(c *gin.Context, err error, fallback string) {
	var rejection *payment.RejectionError
	switch {
	case errors.As(err, &rejection):
		r.logger.Warn("Payment rejected",
			zap.String("trace_id", middleware.TraceIDFromContext(c.Request.Context())),
			zap.String("reason", string(rejection.Reason)),
			zap.Error(err),
		)
		fail(c, http.StatusBadRequest, rejection.Message())
	case errors.Is(err, store.ErrProductNotFound):
		fail(c, http.StatusNotFound, "Product not found")
	case errors.Is(err, store.ErrOrderNotFound):
		fail(c, http.StatusNotFound, "Order not found")
	case errors.Is(err, store.ErrInsufficientStock):
		fail(c, http.StatusBadRequest, "Insufficient stock")
	case errors.Is(err, store.ErrInvalidQuantity):
		fail(c, http.StatusBadRequest, "Quantity must be at least 1")
	case errors.Is(err, orders.ErrAlreadyCancelled):
		fail(c, http.StatusBadRequest, "Order is already cancelled")
	case errors.Is(err, orders.ErrNotCancellable):
		fail(c, http.StatusBadRequest, "Cannot cancel order that has been shipped or delivered")
	case errors.Is(err, orders.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, "Invalid order status")
	case errors.Is(err, store.ErrDuplicateEmail):
		fail(c, http.StatusConflict, "User already exists")
	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		fail(c, http.StatusServiceUnavailable, "Service temporarily unavailable")
	default:
		r.logger.Error(fallback,
			zap.String("trace_id", middleware.TraceIDFromContext(c.Request.Context())),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		resp := models.Response{Success: false, Message: fallback}
		if r.exposeErrors {
			resp.Error = err.Error()
		}
		c.JSON(http.StatusInternalServerError, resp)
	}
}
