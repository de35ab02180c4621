// Package poll runs bounded polling loops.
package poll

import (
	"context"
	"errors"
	"time"
)

// ErrExhausted is returned by Until when every attempt ran without the
// callback reporting completion.
var ErrExhausted = errors.New("poll: attempts exhausted")

// Until sleeps interval and then calls fn, at most maxAttempts times. It stops
// as soon as fn reports done or returns an error. The attempt number passed to
// fn starts at 1.
func Until(ctx context.Context, interval time.Duration, maxAttempts int, fn func(ctx context.Context, attempt int) (done bool, err error)) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	timer := time.NewTimer(interval)
	defer timer.Stop()
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			timer.Reset(interval)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		done, err := fn(ctx, attempt)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return ErrExhausted
}
