package service

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/ds124wfegd/hotel-booking/internal/entity"
	"github.com/ds124wfegd/hotel-booking/internal/metrics"
	"github.com/sirupsen/logrus"
)

// maxBackoffShift caps the exponent; past it the delay stops growing.
const maxBackoffShift = 30

// RetryPolicy retries ledger operations that failed with a transient store error.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// NewRetryPolicy creates a policy capped at 16x the base delay.
func NewRetryPolicy(maxRetries int, baseDelay time.Duration) RetryPolicy {
	return RetryPolicy{
		MaxRetries: maxRetries,
		BaseDelay:  baseDelay,
		MaxDelay:   baseDelay * 16,
	}
}

// Do runs fn until it succeeds, fails with a non-transient error, or the retry
// budget is spent. attempt starts at 1.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(attempt int) error) error {
	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		if err == nil || !entity.IsTransient(err) || attempt > p.MaxRetries {
			return err
		}

		delay := p.Backoff(attempt)
		metrics.StoreRetries.WithLabelValues(op).Inc()
		logrus.WithFields(logrus.Fields{
			"operation": op,
			"attempt":   attempt,
			"delay":     delay,
		}).WithError(err).Warn("Transient store error, retrying")

		if delay <= 0 {
			if ctx.Err() != nil {
				return err
			}
			continue
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}

// Backoff calculates exponential backoff delay with jitter
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	if attempt <= 1 {
		return p.BaseDelay
	}

	// Exponential backoff: base * 2^(attempt-1)
	shift := min(attempt-1, maxBackoffShift)
	backoff := p.BaseDelay << shift
	if backoff>>shift != p.BaseDelay {
		// overflowed int64
		backoff = time.Duration(math.MaxInt64 / 2)
	}
	if p.MaxDelay > 0 && backoff > p.MaxDelay {
		backoff = p.MaxDelay
	}

	// Apply jitter (±25%)
	if quarter := int64(backoff / 4); quarter > 0 {
		jitter := time.Duration(rand.Int63n(quarter))
		if rand.Intn(2) == 0 {
			backoff += jitter
		} else {
			backoff -= jitter
		}
	}

	return backoff
}
