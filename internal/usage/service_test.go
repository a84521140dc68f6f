package usage

import (
	"context"
	"errors"
	"testing"
)

func TestServiceConsumeUpToLimit(t *testing.T) {
	svc := NewService(2)
	ctx := context.Background()
	sessionID := "sess-1"

	for i := 0; i < 2; i++ {
		u, err := svc.Consume(ctx, sessionID, 1)
		if err != nil {
			t.Fatalf("Consume %d: %v", i, err)
		}
		if u.Used != i+1 {
			t.Fatalf("expected used=%d, got %d", i+1, u.Used)
		}
	}

	if _, err := svc.Consume(ctx, sessionID, 1); !errors.Is(err, ErrLimitReached) {
		t.Fatalf("expected ErrLimitReached, got %v", err)
	}
}

func TestServiceCanConsumeReportsWithoutConsuming(t *testing.T) {
	svc := NewService(1)
	ctx := context.Background()
	sessionID := "sess-1"

	ok, u, err := svc.CanConsume(ctx, sessionID, 1)
	if err != nil || !ok {
		t.Fatalf("expected consumable, ok=%v err=%v", ok, err)
	}
	if u.Used != 0 {
		t.Fatalf("CanConsume should not consume, used=%d", u.Used)
	}

	if _, err := svc.Consume(ctx, sessionID, 1); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	ok, _, err = svc.CanConsume(ctx, sessionID, 1)
	if err != nil {
		t.Fatalf("CanConsume: %v", err)
	}
	if ok {
		t.Fatalf("expected limit reached")
	}
}

func TestServiceSessionsAreIsolated(t *testing.T) {
	svc := NewService(1)
	ctx := context.Background()

	if _, err := svc.Consume(ctx, "sess-1", 1); err != nil {
		t.Fatalf("Consume sess-1: %v", err)
	}
	if _, err := svc.Consume(ctx, "sess-2", 1); err != nil {
		t.Fatalf("expected sess-2 unaffected, got %v", err)
	}
}

func TestServiceResetClearsCounter(t *testing.T) {
	svc := NewService(1)
	ctx := context.Background()
	sessionID := "sess-1"

	if _, err := svc.Consume(ctx, sessionID, 1); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	u, err := svc.Reset(ctx, sessionID)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if u.Used != 0 {
		t.Fatalf("expected used=0 after reset, got %d", u.Used)
	}
	if _, err := svc.Consume(ctx, sessionID, 1); err != nil {
		t.Fatalf("expected consumption allowed after reset, got %v", err)
	}
}
