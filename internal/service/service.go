// Package service holds what the data-access services share: input validation
// errors, cache keys and the options every service is built from.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/campusconnect/internal/infra/cache"
	"github.com/vietddude/campusconnect/internal/infra/retry"
)

// ErrUnauthenticated is returned when an operation needs an acting user and has none.
var ErrUnauthenticated = errors.New("user not authenticated")

// ValidationError reports caller input that was rejected before any remote call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Invalid creates a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// RequireUser returns ErrUnauthenticated for an empty user ID.
func RequireUser(userID string) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	return nil
}

// Options carries the ambient dependencies of every service.
type Options struct {
	Cache    cache.Cache // nil disables caching
	CacheTTL time.Duration
	Retry    retry.Policy // zero means retry.DefaultPolicy
	Now      func() time.Time
}

// WithDefaults fills unset fields.
func (o Options) WithDefaults() Options {
	if o.CacheTTL <= 0 {
		o.CacheTTL = 5 * time.Minute
	}
	if o.Retry == (retry.Policy{}) {
		o.Retry = retry.DefaultPolicy
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	return o
}

// UserKey is the cache key of a user document, shared by the services that read profiles.
func UserKey(userID string) string {
	return cache.Key("user", userID)
}

// Exec adapts a write returning only an error to a retry.Operation.
func Exec(fn func(ctx context.Context) error) retry.Operation[struct{}] {
	return func(ctx context.Context, _ bool) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}
}
