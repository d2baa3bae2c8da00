package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/campusconnect/internal/metrics"
)

// ErrTimeout matches every *TimeoutError via errors.Is.
var ErrTimeout = errors.New("operation timed out")

// TimeoutError is returned by WithDeadline when the ceiling elapses first.
type TimeoutError struct {
	Label string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Label, e.After)
}

// Is reports whether target is ErrTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// Code classifies the error as transient-timeout.
func (e *TimeoutError) Code() string {
	return "deadline/timeout"
}

// WithDeadline races op against a timer and returns whichever settles first.
// There are no retries. The operation runs on a context detached from ctx's
// cancellation, so it keeps running after the deadline fires and its eventual
// result is dropped. Cancelling ctx returns ctx.Err() immediately, and an
// already cancelled ctx never starts op.
func WithDeadline[T any](
	ctx context.Context,
	op func(ctx context.Context) (T, error),
	timeout time.Duration,
	label string,
) (T, error) {
	type outcome struct {
		val T
		err error
	}

	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	// Buffered: the goroutine must be able to finish after nobody listens.
	done := make(chan outcome, 1)
	opCtx := context.WithoutCancel(ctx)
	go func() {
		v, err := op(opCtx)
		done <- outcome{val: v, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case o := <-done:
		return o.val, o.err
	case <-timer.C:
		metrics.DeadlineTimeoutsTotal.WithLabelValues(label).Inc()
		slog.Warn("Operation exceeded deadline, continuing in background",
			"operation", label,
			"timeout", timeout,
		)
		return zero, &TimeoutError{Label: label, After: timeout}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
