// Package retry wraps transient operations in bounded exponential
// backoff with jitter. Logical errors never retry; only errors the
// classifier marks transient go around again.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/termfx/codehem/core"
)

// Policy bounds a retry loop.
type Policy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxRetries      uint64
	// Deadline caps the whole operation; expiry surfaces as a timeout.
	Deadline time.Duration
}

// DefaultPolicy suits workspace file I/O: a handful of quick attempts.
func DefaultPolicy() Policy {
	return Policy{
		InitialInterval: 25 * time.Millisecond,
		MaxInterval:     500 * time.Millisecond,
		MaxRetries:      4,
		Deadline:        5 * time.Second,
	}
}

// Do runs op, retrying while the classifier reports the error as
// transient. Backoff intervals are randomized by the underlying
// implementation. A deadline expiry returns a timeout error.
func Do(ctx context.Context, policy Policy, name string, transient func(error) bool, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.InitialInterval
	b.MaxInterval = policy.MaxInterval
	b.MaxElapsedTime = policy.Deadline

	if policy.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, policy.Deadline)
		defer cancel()
	}

	var attempts uint64
	wrapped := func() error {
		attempts++
		err := op()
		if err == nil {
			return nil
		}
		if transient != nil && transient(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	err := backoff.Retry(wrapped,
		backoff.WithContext(backoff.WithMaxRetries(b, policy.MaxRetries), ctx))
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return core.TimeoutError(name)
	}
	// A transient error with retries left means the backoff stopped on
	// time: the elapsed limit passed or the next wait would cross the
	// deadline before the context itself expired.
	if policy.Deadline > 0 && transient != nil && transient(err) && attempts <= policy.MaxRetries {
		return core.TimeoutError(name)
	}
	return err
}
