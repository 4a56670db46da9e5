// Package retry holds the bounded, fixed-delay loops used to ride out a flaky UI.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Permanent wraps err so Do stops without using the remaining attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

// Do runs op up to attempts times, sleeping delay between tries. notify, when set, is
// called before each sleep with the 1-based attempt number that just failed. The error
// of the last attempt is returned.
func Do(ctx context.Context, attempts int, delay time.Duration, op func(attempt int) error, notify func(attempt int, err error)) error {
	if attempts < 1 {
		attempts = 1
	}
	attempt := 0
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), uint64(attempts-1)), ctx)
	err := backoff.RetryNotify(func() error {
		attempt++
		return op(attempt)
	}, b, func(err error, _ time.Duration) {
		if notify != nil {
			notify(attempt, err)
		}
	})
	return unwrapPermanent(err)
}

// Poll evaluates cond every interval until it returns nil or timeout elapses, and
// returns the last condition error on timeout.
func Poll(ctx context.Context, timeout, interval time.Duration, cond func() error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var last error
	err := backoff.Retry(func() error {
		last = cond()
		return last
	}, backoff.WithContext(backoff.NewConstantBackOff(interval), ctx))
	if err == nil {
		return nil
	}
	if last != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("condition not met within %s: %w", timeout, unwrapPermanent(last))
		}
		return unwrapPermanent(last)
	}
	return err
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func unwrapPermanent(err error) error {
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	return err
}
