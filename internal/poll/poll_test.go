package poll

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestUntilStopsWhenDone(t *testing.T) {
	calls := 0
	err := Until(context.Background(), time.Millisecond, 5, func(ctx context.Context, attempt int) (bool, error) {
		calls++
		if attempt != calls {
			t.Fatalf("attempt = %d, want %d", attempt, calls)
		}
		return attempt == 3, nil
	})
	if err != nil {
		t.Fatalf("Until returned error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestUntilExhausts(t *testing.T) {
	calls := 0
	err := Until(context.Background(), time.Millisecond, 4, func(context.Context, int) (bool, error) {
		calls++
		return false, nil
	})
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if calls != 4 {
		t.Fatalf("calls = %d, want 4", calls)
	}
}

func TestUntilPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Until(context.Background(), time.Millisecond, 10, func(context.Context, int) (bool, error) {
		calls++
		return false, boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("err = %v calls = %d", err, calls)
	}
}

func TestUntilSleepsBeforeFirstRead(t *testing.T) {
	start := time.Now()
	var first time.Duration
	_ = Until(context.Background(), 20*time.Millisecond, 1, func(context.Context, int) (bool, error) {
		first = time.Since(start)
		return true, nil
	})
	if first < 20*time.Millisecond {
		t.Fatalf("first read after %s, want at least 20ms", first)
	}
}

func TestUntilHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Until(ctx, time.Hour, 3, func(context.Context, int) (bool, error) {
		calls++
		return false, nil
	})
	if !errors.Is(err, context.Canceled) || calls != 0 {
		t.Fatalf("err = %v calls = %d", err, calls)
	}
}
