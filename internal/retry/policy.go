package retry

import "time"

// maxShift caps the exponent so the backoff never overflows.
const maxShift = 10

// Policy is the retry configuration for one run. It is a value type and is
// never mutated after construction.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	// Zero disables retrying.
	MaxRetries int

	// BaseDelay is the wait after the first failed attempt.
	BaseDelay time.Duration

	// MaxDelay caps every computed wait.
	MaxDelay time.Duration

	// Enabled is derived from MaxRetries > 0.
	Enabled bool

	// HonorSuggestedDelay makes Delay use the larger of the exponential
	// backoff and the category's suggested delay.
	HonorSuggestedDelay bool
}

// NewPolicy builds a Policy. Negative retry counts are treated as zero.
func NewPolicy(maxRetries int, baseDelay, maxDelay time.Duration) Policy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return Policy{
		MaxRetries: maxRetries,
		BaseDelay:  baseDelay,
		MaxDelay:   maxDelay,
		Enabled:    maxRetries > 0,
	}
}

// DefaultPolicy returns 3 retries, 1s base and 30s cap.
func DefaultPolicy() Policy {
	return NewPolicy(3, time.Second, 30*time.Second)
}

// Attempts returns the total number of attempts a task may make.
func (p Policy) Attempts() int {
	if !p.Enabled {
		return 1
	}
	return p.MaxRetries + 1
}

// Backoff returns min(BaseDelay * 2^min(attempt, 10), MaxDelay) for the
// 0-based index of the attempt that just failed.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > maxShift {
		attempt = maxShift
	}
	delay := p.BaseDelay * time.Duration(1<<uint(attempt))
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// Delay returns the wait before retrying after attempt failed with cat.
func (p Policy) Delay(attempt int, cat Category) time.Duration {
	delay := p.Backoff(attempt)
	if p.HonorSuggestedDelay {
		if s := cat.SuggestedDelay(); s > delay {
			delay = s
		}
	}
	return delay
}

// ShouldRetry reports whether the attempt (0-based) that failed with cat may
// be followed by another.
func (p Policy) ShouldRetry(attempt int, cat Category) bool {
	return p.Enabled && cat.Retryable() && attempt+1 < p.Attempts()
}
