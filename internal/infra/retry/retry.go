// Package retry executes remote operations with bounded, exponentially backed-off
// retries of transient failures, plus a deadline race for slow one-shot calls.
package retry

import (
	"context"
	"log/slog"
	"time"

	goretry "github.com/sethvargo/go-retry"

	"github.com/vietddude/campusconnect/internal/metrics"
)

// DefaultMaxAttempts is used when a caller passes a non-positive budget.
const DefaultMaxAttempts = 3

// Operation performs one remote call. forceRefresh is false on the first attempt
// and true on every retry; implementations then bypass local caches and read from
// the authoritative source.
type Operation[T any] func(ctx context.Context, forceRefresh bool) (T, error)

// Policy defines the delay between attempts: BaseDelay doubled per retry, capped at MaxDelay.
type Policy struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultPolicy yields 1s, 2s, 4s, 8s, then 10s between attempts.
var DefaultPolicy = Policy{
	BaseDelay: 1 * time.Second,
	MaxDelay:  10 * time.Second,
}

// Backoff returns a fresh backoff that allows maxAttempts-1 retries.
// A backoff is stateful and must not be shared between calls.
func (p Policy) Backoff(maxAttempts int) goretry.Backoff {
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultPolicy.BaseDelay
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	b := goretry.NewExponential(p.BaseDelay)
	b = goretry.WithCappedDuration(p.MaxDelay, b)
	return goretry.WithMaxRetries(uint64(maxAttempts-1), b)
}

// Do runs op under DefaultPolicy. See DoWithPolicy.
func Do[T any](ctx context.Context, op Operation[T], maxAttempts int, label string) (T, error) {
	return DoWithPolicy(ctx, DefaultPolicy, op, maxAttempts, label)
}

// DoWithPolicy invokes op at most maxAttempts times. Failures classified as
// retryable are retried after the policy's backoff; any other failure, or the
// failure of the last attempt, is returned unchanged. Cancelling ctx stops the
// sequence at the next attempt or backoff and returns ctx.Err().
func DoWithPolicy[T any](
	ctx context.Context,
	p Policy,
	op Operation[T],
	maxAttempts int,
	label string,
) (T, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	log := slog.With("operation", label)

	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}

	var (
		result  T
		attempt int
	)

	next := p.Backoff(maxAttempts)
	backoff := goretry.BackoffFunc(func() (time.Duration, bool) {
		delay, stop := next.Next()
		if !stop {
			log.Warn("Retrying operation",
				"delay", delay,
				"attempt", attempt,
				"max_attempts", maxAttempts,
			)
			metrics.RetriesTotal.WithLabelValues(label).Inc()
			metrics.RetryBackoffSeconds.WithLabelValues(label).Observe(delay.Seconds())
		}
		return delay, stop
	})

	err := goretry.Do(ctx, backoff, func(ctx context.Context) error {
		v, err := op(ctx, attempt > 0)
		if err == nil {
			if attempt > 0 {
				log.Info("Operation succeeded after retries", "retries", attempt)
			}
			result = v
			return nil
		}

		attempt++
		kind := Classify(err)
		metrics.AttemptFailuresTotal.WithLabelValues(label, kind.String()).Inc()
		log.Error("Operation attempt failed",
			"attempt", attempt,
			"kind", kind.String(),
			"error", err,
		)

		if attempt >= maxAttempts || !kind.Retryable() {
			return err
		}
		return goretry.RetryableError(err)
	})
	if err != nil {
		metrics.OperationsTotal.WithLabelValues(label, "failure").Inc()
		var zero T
		return zero, err
	}

	metrics.OperationsTotal.WithLabelValues(label, "success").Inc()
	return result, nil
}
