package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/campusconnect/internal/infra/backend"
)

type netTimeout struct{ timeout bool }

func (e netTimeout) Error() string   { return "dial tcp 127.0.0.1:6379" }
func (e netTimeout) Timeout() bool   { return e.timeout }
func (e netTimeout) Temporary() bool { return false }

func TestTranslate(t *testing.T) {
	tests := []struct {
		err    error
		reason string
	}{
		{context.DeadlineExceeded, backend.ReasonDeadlineExceeded},
		{fmt.Errorf("read: %w", context.Canceled), backend.ReasonCancelled},
		{netTimeout{timeout: true}, backend.ReasonTimeout},
		{netTimeout{timeout: false}, backend.ReasonUnavailable},
		{redis.ErrClosed, backend.ReasonUnavailable},
		{errors.New("WRONGTYPE"), ""},
	}

	for _, tt := range tests {
		if got := backend.ReasonOf(translate(tt.err)); got != tt.reason {
			t.Errorf("translate(%v) reason = %q, want %q", tt.err, got, tt.reason)
		}
	}
	if translate(nil) != nil {
		t.Error("translate(nil) != nil")
	}
}
