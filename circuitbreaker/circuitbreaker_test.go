package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func failing(context.Context) error { return errBoom }
func passing(context.Context) error { return nil }

func TestCircuitBreakerOpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := cb.Execute(ctx, failing); !errors.Is(err, errBoom) {
			t.Fatalf("Expected errBoom on call %d, got %v", i, err)
		}
	}
	if cb.GetState() != StateOpen {
		t.Fatalf("Expected open, got %s", cb.GetState())
	}

	called := false
	err := cb.Execute(ctx, func(context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("Expected fn not to be called while open")
	}
}

func TestCircuitBreakerSuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker(2, time.Minute)
	ctx := context.Background()

	_ = cb.Execute(ctx, failing)
	_ = cb.Execute(ctx, passing)
	_ = cb.Execute(ctx, failing)

	if cb.GetState() != StateClosed {
		t.Errorf("Expected closed, got %s", cb.GetState())
	}
}

func TestCircuitBreakerHalfOpenTrial(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(1, time.Second)
	cb.now = func() time.Time { return now }
	ctx := context.Background()

	_ = cb.Execute(ctx, failing)
	if cb.GetState() != StateOpen {
		t.Fatalf("Expected open, got %s", cb.GetState())
	}

	now = now.Add(2 * time.Second)

	// A failed trial re-opens immediately.
	if err := cb.Execute(ctx, failing); !errors.Is(err, errBoom) {
		t.Fatalf("Expected trial to run, got %v", err)
	}
	if cb.GetState() != StateOpen {
		t.Fatalf("Expected open after failed trial, got %s", cb.GetState())
	}

	now = now.Add(2 * time.Second)
	if err := cb.Execute(ctx, passing); err != nil {
		t.Fatalf("Expected trial to succeed, got %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Errorf("Expected closed after successful trial, got %s", cb.GetState())
	}
}

func TestCircuitBreakerSingleTrial(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(1, time.Second)
	cb.now = func() time.Time { return now }
	ctx := context.Background()

	_ = cb.Execute(ctx, failing)
	now = now.Add(2 * time.Second)

	release := make(chan struct{})
	done := make(chan error)
	started := make(chan struct{})
	go func() {
		done <- cb.Execute(ctx, func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	if err := cb.Execute(ctx, passing); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Expected concurrent caller to be rejected during trial, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Errorf("Unexpected trial error: %v", err)
	}
}
