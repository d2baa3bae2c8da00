package retry

import (
	"context"
	"errors"
	"net"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind is the classification of a failed attempt.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnavailable
	KindDeadlineExceeded
	KindTimeout
	KindCancelled
	KindPermissionDenied
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "transient-unavailable"
	case KindDeadlineExceeded:
		return "transient-deadline-exceeded"
	case KindTimeout:
		return "transient-timeout"
	case KindCancelled:
		return "transient-cancelled"
	case KindPermissionDenied:
		return "permission-denied"
	case KindNotFound:
		return "not-found"
	default:
		return "unknown"
	}
}

// Retryable reports whether another attempt may succeed.
func (k Kind) Retryable() bool {
	switch k {
	case KindUnavailable, KindDeadlineExceeded, KindTimeout, KindCancelled:
		return true
	case KindPermissionDenied, KindNotFound:
		return false
	case KindUnknown:
		// Uncoded failures are retried too, including permanent ones that
		// merely lack a code.
		return true
	}
	return true
}

// coder is implemented by errors carrying a machine-readable code,
// such as *backend.Error ("postgres/unavailable").
type coder interface {
	Code() string
}

// codeSuffixes is ordered; the first matching suffix wins.
var codeSuffixes = []struct {
	suffix string
	kind   Kind
}{
	{"unavailable", KindUnavailable},
	{"deadline-exceeded", KindDeadlineExceeded},
	{"timeout", KindTimeout},
	{"cancelled", KindCancelled},
	{"permission-denied", KindPermissionDenied},
	{"not-found", KindNotFound},
}

// KindFromCode maps a raw error code to a Kind by suffix.
func KindFromCode(code string) Kind {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return KindUnknown
	}
	for _, s := range codeSuffixes {
		if strings.HasSuffix(code, s.suffix) {
			return s.kind
		}
	}
	return KindUnknown
}

// Classify determines the Kind of err. Coded errors take precedence over
// gRPC status, which takes precedence over context and network errors.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var c coder
	if errors.As(err, &c) {
		return KindFromCode(c.Code())
	}

	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.Unavailable:
			return KindUnavailable
		case codes.DeadlineExceeded:
			return KindDeadlineExceeded
		case codes.Canceled:
			return KindCancelled
		case codes.PermissionDenied, codes.Unauthenticated:
			return KindPermissionDenied
		case codes.NotFound:
			return KindNotFound
		}
		return KindUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindDeadlineExceeded
	}
	if errors.Is(err, context.Canceled) {
		return KindCancelled
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}

	return KindUnknown
}
