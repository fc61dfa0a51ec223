// Package retry implements the rate-limit retry schedule used by search
// operations: a bounded number of attempts with an exponentially doubling
// delay.
package retry

import (
	"context"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 3
	// DefaultBaseDelay is the delay before the first retry.
	DefaultBaseDelay = time.Second
)

// Policy configures rate-limit retries.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// Default returns the default policy: 3 retries starting at 1s.
func Default() Policy {
	return Policy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
	}
}

// Enabled reports whether the policy allows at least one retry.
func (p Policy) Enabled() bool {
	return p.MaxRetries > 0
}

// Schedule returns a fresh delay schedule for one logical call.
// NextBackOff yields BaseDelay, 2*BaseDelay, 4*BaseDelay, ... and then
// backoff.Stop once MaxRetries delays have been handed out.
func (p Policy) Schedule() backoff.BackOff {
	if !p.Enabled() {
		return &backoff.StopBackOff{}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = time.Duration(math.MaxInt64)
	b.MaxElapsedTime = 0
	b.Reset()

	return backoff.WithMaxRetries(b, uint64(p.MaxRetries))
}

// Wait blocks for d or until ctx is done, whichever comes first.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
