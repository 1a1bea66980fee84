package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestFixedDelayWait(t *testing.T) {
	var slept []time.Duration
	pacer := NewFixedDelay(3 * time.Second)
	pacer.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	for i := 0; i < 3; i++ {
		if err := pacer.Wait(context.Background()); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}

	if len(slept) != 3 {
		t.Fatalf("Expected 3 sleeps, got %d", len(slept))
	}
	for _, d := range slept {
		if d != 3*time.Second {
			t.Errorf("Expected 3s delay, got %v", d)
		}
	}
}

func TestFixedDelayZeroSkipsSleep(t *testing.T) {
	pacer := NewFixedDelay(0)
	pacer.sleep = func(ctx context.Context, d time.Duration) error {
		t.Error("Zero delay must not sleep")
		return nil
	}

	if err := pacer.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
}

func TestFixedDelayCancellation(t *testing.T) {
	pacer := NewFixedDelay(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := pacer.Wait(ctx); err == nil {
		t.Error("Expected cancellation error")
	}
}
