package httpx

import (
	"math/rand"
	"time"
)

// Policy bounds retries for one outbound request. The zero value is not
// usable; call DefaultPolicy for the documented defaults.
type Policy struct {
	// MaxAttempts is the total number of tries for transient failures
	// (connection errors, timeouts, 5xx).
	MaxAttempts int

	// BaseDelay is the first backoff delay; each retry doubles it.
	BaseDelay time.Duration

	// MaxDelay caps a single backoff sleep.
	MaxDelay time.Duration

	// JitterFrac randomizes each delay by ±frac (0.5 = ±50%).
	JitterFrac float64

	// MaxRetryAfterWait caps how long a 429 Retry-After hint is honored
	// before the single 429 retry.
	MaxRetryAfterWait time.Duration
}

// DefaultPolicy returns the documented retry defaults.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:       3,
		BaseDelay:         500 * time.Millisecond,
		MaxDelay:          8 * time.Second,
		JitterFrac:        0.5,
		MaxRetryAfterWait: 30 * time.Second,
	}
}

// delayFor computes the backoff for attempt n (1-based) with jitter.
func (p Policy) delayFor(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			d = p.MaxDelay
			break
		}
	}
	if p.JitterFrac > 0 {
		spread := float64(d) * p.JitterFrac
		d = time.Duration(float64(d) - spread + rand.Float64()*2*spread)
	}
	if d < 0 {
		d = 0
	}
	return d
}

// boundRetryAfter clamps a provider Retry-After hint.
func (p Policy) boundRetryAfter(hint time.Duration) time.Duration {
	if hint <= 0 {
		return p.BaseDelay
	}
	if hint > p.MaxRetryAfterWait {
		return p.MaxRetryAfterWait
	}
	return hint
}
