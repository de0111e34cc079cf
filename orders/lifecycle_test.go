package orders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"storefront-svc/models"
	"storefront-svc/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func seedOrder(f fixture, id string, status models.OrderStatus, qty int) {
	f.store.SeedOrder(models.Order{
		ID:          id,
		OrderID:     "ORD-250101-" + id,
		Product:     models.OrderProduct{ProductID: "prod-1", Name: "Brass Lamp", Price: 449, Quantity: qty},
		Payment:     models.Payment{RazorpayPaymentID: "pay_" + id, Status: models.PaymentStatusCompleted},
		OrderStatus: status,
		CreatedAt:   time.Now().UTC(),
	})
}

func TestCancelOrderRestoresStockOnce(t *testing.T) {
	f := setupServiceTest(t, 5)
	seedOrder(f, "A1", models.OrderStatusConfirmed, 3)

	order, err := f.svc.CancelOrder(context.Background(), "A1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, order.OrderStatus)
	assert.Equal(t, 8, f.store.Stock("prod-1"))

	_, err = f.svc.CancelOrder(context.Background(), "A1")
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
	assert.Equal(t, 8, f.store.Stock("prod-1"))
}

func TestCancelOrderConcurrent(t *testing.T) {
	f := setupServiceTest(t, 5)
	seedOrder(f, "A1", models.OrderStatusProcessing, 2)

	var wg sync.WaitGroup
	results := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CancelOrder(context.Background(), "A1")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyCancelled)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 7, f.store.Stock("prod-1"))
	assert.Equal(t, 1, f.store.ReleaseCalls())
}

func TestCancelOrderBoundaries(t *testing.T) {
	tests := []struct {
		status  models.OrderStatus
		wantErr error
	}{
		{models.OrderStatusShipped, ErrNotCancellable},
		{models.OrderStatusDelivered, ErrNotCancellable},
		{models.OrderStatusCancelled, ErrAlreadyCancelled},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			f := setupServiceTest(t, 5)
			seedOrder(f, "A1", tt.status, 2)

			_, err := f.svc.CancelOrder(context.Background(), "A1")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 5, f.store.Stock("prod-1"))
			assert.Zero(t, f.store.ReleaseCalls())
		})
	}
}

func TestCancelOrderNotFound(t *testing.T) {
	f := setupServiceTest(t, 5)

	_, err := f.svc.CancelOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrOrderNotFound)
}

func TestCancelOrderSurvivesReleaseFailure(t *testing.T) {
	f := setupServiceTest(t, 5)
	seedOrder(f, "A1", models.OrderStatusPending, 1)
	f.store.ReleaseStockErr = errors.New("connection refused")

	order, err := f.svc.CancelOrder(context.Background(), "A1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, order.OrderStatus)
	assert.Equal(t, 5, f.store.Stock("prod-1"))
}

func TestCancelOrderWithDeletedProduct(t *testing.T) {
	f := setupServiceTest(t, 5)
	f.store.SeedOrder(models.Order{
		ID:          "A1",
		OrderID:     "ORD-250101-A1",
		Product:     models.OrderProduct{ProductID: "retired", Quantity: 1},
		Payment:     models.Payment{RazorpayPaymentID: "pay_A1"},
		OrderStatus: models.OrderStatusConfirmed,
	})

	order, err := f.svc.CancelOrder(context.Background(), "A1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, order.OrderStatus)
}

func TestUpdateStatus(t *testing.T) {
	f := setupServiceTest(t, 5)
	delivered := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return delivered }
	seedOrder(f, "A1", models.OrderStatusConfirmed, 1)

	order, err := f.svc.UpdateStatus(context.Background(), "A1", models.OrderStatusShipped, "TRK123")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, order.OrderStatus)
	assert.Equal(t, "TRK123", order.TrackingNumber)
	assert.Nil(t, order.DeliveredAt)

	order, err = f.svc.UpdateStatus(context.Background(), "A1", models.OrderStatusDelivered, "")
	require.NoError(t, err)
	require.NotNil(t, order.DeliveredAt)
	assert.True(t, order.DeliveredAt.Equal(delivered))
	assert.Equal(t, "TRK123", order.TrackingNumber)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	f := setupServiceTest(t, 5)
	seedOrder(f, "A1", models.OrderStatusConfirmed, 1)

	_, err := f.svc.UpdateStatus(context.Background(), "A1", models.OrderStatus("lost"), "")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateStatusCancelledReleasesStock(t *testing.T) {
	f := setupServiceTest(t, 5)
	seedOrder(f, "A1", models.OrderStatusConfirmed, 2)

	order, err := f.svc.UpdateStatus(context.Background(), "A1", models.OrderStatusCancelled, "")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, order.OrderStatus)
	assert.Equal(t, 7, f.store.Stock("prod-1"))
}

func TestUpdateStatusNotFound(t *testing.T) {
	f := setupServiceTest(t, 5)

	_, err := f.svc.UpdateStatus(context.Background(), "missing", models.OrderStatusShipped, "")
	assert.ErrorIs(t, err, store.ErrOrderNotFound)
}

func TestUpdateStatusReopeningCancelledOrderWarns(t *testing.T) {
	f := setupServiceTest(t, 5)
	core, logs := observer.New(zap.WarnLevel)
	f.svc.logger = zap.New(core)
	seedOrder(f, "A1", models.OrderStatusCancelled, 2)

	order, err := f.svc.UpdateStatus(context.Background(), "A1", models.OrderStatusConfirmed, "")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, order.OrderStatus)
	assert.Equal(t, 5, f.store.Stock("prod-1"))

	warned := logs.FilterMessage("Cancelled order reopened without re-reserving stock")
	require.Equal(t, 1, warned.Len())
	assert.Equal(t, "ORD-250101-A1", warned.All()[0].ContextMap()["order_id"])

	_, err = f.svc.UpdateStatus(context.Background(), "A1", models.OrderStatusShipped, "")
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("Cancelled order reopened without re-reserving stock").Len())
}
