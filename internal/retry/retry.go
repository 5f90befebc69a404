// Package retry provides the time-bounded polling primitive used for
// verification-code retrieval and other waits. The sleeper is injectable
// so tests can run the loop against a fake clock.
package retry

import (
	"context"
	"errors"
	"time"
)

// ErrExhausted is returned when every attempt completed without success.
var ErrExhausted = errors.New("retry: attempts exhausted")

// SleepFunc blocks for d or until ctx is cancelled.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Policy bounds a polling loop: at most MaxAttempts tries, Interval apart.
type Policy struct {
	MaxAttempts int
	Interval    time.Duration
	Sleeper     SleepFunc // nil means real time
}

// Do runs op until it reports done, the attempts are exhausted, or the
// context is cancelled. A non-nil error from op stops the loop
// immediately; op returning (false, nil) schedules another attempt.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) (bool, error)) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	sleep := p.Sleeper
	if sleep == nil {
		sleep = Sleep
	}

	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		done, err := op(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if i < attempts-1 {
			if err := sleep(ctx, p.Interval); err != nil {
				return err
			}
		}
	}
	return ErrExhausted
}
