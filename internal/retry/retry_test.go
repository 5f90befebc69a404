package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func TestPolicySucceedsMidway(t *testing.T) {
	calls := 0
	p := Policy{MaxAttempts: 5, Interval: time.Minute, Sleeper: noSleep}

	err := p.Do(context.Background(), func(ctx context.Context) (bool, error) {
		calls++
		return calls == 3, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestPolicyExhausts(t *testing.T) {
	calls := 0
	p := Policy{MaxAttempts: 4, Interval: time.Minute, Sleeper: noSleep}

	err := p.Do(context.Background(), func(ctx context.Context) (bool, error) {
		calls++
		return false, nil
	})
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if calls != 4 {
		t.Errorf("expected 4 attempts, got %d", calls)
	}
}

func TestPolicyStopsOnOpError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	p := Policy{MaxAttempts: 10, Interval: time.Minute, Sleeper: noSleep}

	err := p.Do(context.Background(), func(ctx context.Context) (bool, error) {
		calls++
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected op error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
}

func TestPolicyHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 10, Interval: time.Minute, Sleeper: Sleep}

	calls := 0
	errCh := make(chan error, 1)
	go func() {
		errCh <- p.Do(ctx, func(ctx context.Context) (bool, error) {
			calls++
			return false, nil
		})
	}()

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestPolicyZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	p := Policy{Sleeper: noSleep}
	_ = p.Do(context.Background(), func(ctx context.Context) (bool, error) {
		calls++
		return true, nil
	})
	if calls != 1 {
		t.Errorf("expected exactly one attempt, got %d", calls)
	}
}
