package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront-svc/models"
	"storefront-svc/orders"
	"storefront-svc/payment"
	"storefront-svc/store"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type OrderHandler struct {
	errorResponder
	service *orders.Service
}

func NewOrderHandler(service *orders.Service, logger *zap.Logger, exposeErrors bool) *OrderHandler {
	return &OrderHandler{
		errorResponder: errorResponder{logger: logger, exposeErrors: exposeErrors},
		service:        service,
	}
}

func (h *OrderHandler) CreateRazorpayOrder(c *gin.Context) {
	ctx, span := otel.Tracer("storefront").Start(c.Request.Context(), "CreateRazorpayOrder")
	defer span.End()

	var req models.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	intent, err := h.service.CreateIntent(ctx, orders.IntentRequest{
		ProductID:      strings.TrimSpace(req.ProductID),
		Quantity:       req.Quantity,
		ShippingCharge: req.ShippingCharge,
	})
	if err != nil {
		span.RecordError(err)
		h.respond(c, err, "Error creating Razorpay order")
		return
	}

	ok(c, http.StatusOK, "", intent)
}

func (h *OrderHandler) VerifyPayment(c *gin.Context) {
	ctx, span := otel.Tracer("storefront").Start(c.Request.Context(), "VerifyPayment")
	defer span.End()

	var req models.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}
	span.SetAttributes(attribute.String("payment_id", req.RazorpayPaymentID))

	order, created, err := h.service.VerifyAndCreateOrder(ctx, orders.VerifyRequest{
		Claim: payment.Claim{
			RazorpayOrderID:   strings.TrimSpace(req.RazorpayOrderID),
			RazorpayPaymentID: strings.TrimSpace(req.RazorpayPaymentID),
			Signature:         strings.TrimSpace(req.RazorpaySignature),
		},
		ProductID:       strings.TrimSpace(req.ProductID),
		Quantity:        req.Quantity,
		ShippingCharge:  req.ShippingCharge,
		Customer:        req.Customer,
		ShippingAddress: req.ShippingAddress,
		CourierName:     strings.TrimSpace(req.CourierName),
	})
	if errors.Is(err, store.ErrInsufficientStock) {
		fail(c, http.StatusBadRequest, "Insufficient stock - product may have been purchased by another customer")
		return
	}
	if err != nil {
		span.RecordError(err)
		h.respond(c, err, "Error creating order")
		return
	}

	if !created {
		ok(c, http.StatusOK, "Order already exists", order)
		return
	}
	ok(c, http.StatusCreated, "Order placed successfully", order)
}

func (h *OrderHandler) TrackOrder(c *gin.Context) {
	tracking, err := h.service.TrackOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		h.respond(c, err, "Error tracking order")
		return
	}
	ok(c, http.StatusOK, "", tracking)
}

// GetOrders lists orders for the admin panel. Query parameters: status,
// paymentStatus, search, startDate, endDate (YYYY-MM-DD), page, limit.
func (h *OrderHandler) GetOrders(c *gin.Context) {
	filter, err := parseOrderFilter(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	list, page, err := h.service.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.respond(c, err, "Error fetching orders")
		return
	}

	c.JSON(http.StatusOK, models.Response{
		Success:    true,
		Data:       list,
		Pagination: &page,
	})
}

const dateLayout = "2006-01-02"

func parseOrderFilter(c *gin.Context) (models.OrderFilter, error) {
	f := models.OrderFilter{
		Status:        models.OrderStatus(c.Query("status")),
		PaymentStatus: models.PaymentStatus(c.Query("paymentStatus")),
		Search:        strings.TrimSpace(c.Query("search")),
	}
	if f.Status != "" && !f.Status.Valid() {
		return f, errors.New("Invalid order status")
	}

	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, errors.New("Invalid page")
		}
		f.Page = n
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, errors.New("Invalid limit")
		}
		f.Limit = n
	}

	if v := c.Query("startDate"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return f, errors.New("Invalid startDate")
		}
		f.StartDate = &t
	}
	if v := c.Query("endDate"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return f, errors.New("Invalid endDate")
		}
		// Inclusive of the whole end day.
		end := t.Add(24*time.Hour - time.Nanosecond)
		f.EndDate = &end
	}
	return f, nil
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.service.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respond(c, err, "Error fetching order")
		return
	}
	ok(c, http.StatusOK, "", order)
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	order, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req.OrderStatus, strings.TrimSpace(req.TrackingNumber))
	if err != nil {
		h.respond(c, err, "Error updating order status")
		return
	}
	ok(c, http.StatusOK, "Order status updated", order)
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	order, err := h.service.CancelOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respond(c, err, "Error cancelling order")
		return
	}
	ok(c, http.StatusOK, "Order cancelled successfully", order)
}

func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	if err := h.service.DeleteOrder(c.Request.Context(), c.Param("id")); err != nil {
		h.respond(c, err, "Error deleting order")
		return
	}
	ok(c, http.StatusOK, "Order deleted successfully", nil)
}
