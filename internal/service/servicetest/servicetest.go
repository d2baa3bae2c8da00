// Package servicetest provides fixtures shared by the service tests.
package servicetest

import (
	"sync"
	"time"

	"github.com/vietddude/campusconnect/internal/infra/backend"
	"github.com/vietddude/campusconnect/internal/infra/cache"
	"github.com/vietddude/campusconnect/internal/infra/retry"
	"github.com/vietddude/campusconnect/internal/infra/storage"
	"github.com/vietddude/campusconnect/internal/infra/storage/memory"
	"github.com/vietddude/campusconnect/internal/service"
)

// Now is the fixed clock of service tests.
var Now = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

// FastPolicy keeps retry tests in the millisecond range.
var FastPolicy = retry.Policy{BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}

// Unavailable is a transient store failure.
var Unavailable = backend.New("postgres", backend.ReasonUnavailable, "connection refused")

// Env is a memory store plus service options wired to a memory cache.
type Env struct {
	Mem   *memory.MemoryStorage
	Store *storage.Store
	Cache *cache.Memory
	Opts  service.Options
}

// NewEnv creates a fresh test environment.
func NewEnv() *Env {
	mem := memory.NewMemoryStorage()
	c := cache.NewMemory()
	return &Env{
		Mem:   mem,
		Store: memory.NewStore(mem),
		Cache: c,
		Opts: service.Options{
			Cache:    c,
			CacheTTL: time.Minute,
			Retry:    FastPolicy,
			Now:      func() time.Time { return Now },
		},
	}
}

// Faults makes the next n calls of a named method fail.
type Faults struct {
	mu      sync.Mutex
	pending map[string][]error
	calls   map[string]int
}

// Fail queues errs to be returned, in order, by the next calls of method.
func (f *Faults) Fail(method string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending == nil {
		f.pending = make(map[string][]error)
	}
	f.pending[method] = append(f.pending[method], errs...)
}

// Next records a call of method and returns the queued error, if any.
func (f *Faults) Next(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[method]++
	queue := f.pending[method]
	if len(queue) == 0 {
		return nil
	}
	f.pending[method] = queue[1:]
	return queue[0]
}

// Calls returns how many times method was called.
func (f *Faults) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// Repeat returns err n times.
func Repeat(err error, n int) []error {
	errs := make([]error, n)
	for i := range errs {
		errs[i] = err
	}
	return errs
}
