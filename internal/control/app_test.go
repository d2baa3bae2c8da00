package control

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vietddude/campusconnect/internal/api"
	"github.com/vietddude/campusconnect/internal/core/config"
	"github.com/vietddude/campusconnect/internal/infra/storage"
	"github.com/vietddude/campusconnect/internal/service/servicetest"
)

type flakyProber struct {
	errs  []error
	calls int
}

func (p *flakyProber) Probe(ctx context.Context) error {
	p.calls++
	if len(p.errs) == 0 {
		return nil
	}
	err := p.errs[0]
	p.errs = p.errs[1:]
	return err
}

func TestVerifyWriteAccess_RetriesTransientFailures(t *testing.T) {
	p := &flakyProber{errs: []error{servicetest.Unavailable, servicetest.Unavailable}}

	if err := verifyWriteAccess(context.Background(), p, servicetest.FastPolicy); err != nil {
		t.Fatalf("verifyWriteAccess: %v", err)
	}
	if p.calls != 3 {
		t.Errorf("calls = %d, want 3", p.calls)
	}
}

func TestVerifyWriteAccess_PermissionDeniedFailsFast(t *testing.T) {
	p := &flakyProber{errs: []error{storage.ErrPermissionDenied}}

	err := verifyWriteAccess(context.Background(), p, servicetest.FastPolicy)
	if !errors.Is(err, storage.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if p.calls != 1 {
		t.Errorf("calls = %d, want 1", p.calls)
	}
}

func TestVerifyWriteAccess_GivesUpAfterThreeAttempts(t *testing.T) {
	p := &flakyProber{errs: servicetest.Repeat(servicetest.Unavailable, 5)}

	if err := verifyWriteAccess(context.Background(), p, servicetest.FastPolicy); err != servicetest.Unavailable {
		t.Fatalf("expected the last error unchanged, got %v", err)
	}
	if p.calls != 3 {
		t.Errorf("calls = %d, want 3", p.calls)
	}
}

func newMemoryApp(t *testing.T) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.Dir = t.TempDir()
	cfg.Server.DevRoutes = true

	app, err := NewApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	t.Cleanup(app.Close)
	return app
}

func TestNewApp_MemoryMode(t *testing.T) {
	app := newMemoryApp(t)

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("/health = %d: %s", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/detailed", nil))
	if !strings.Contains(rec.Body.String(), "database") {
		t.Errorf("health report misses the database: %s", rec.Body)
	}

	rec = httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "campusconnect_") {
		t.Error("metrics endpoint does not export application collectors")
	}
}

func TestNewApp_ServicesShareTheStore(t *testing.T) {
	app := newMemoryApp(t)
	ctx := context.Background()

	ids, err := app.Services().Events.SeedTestEvents(ctx, "u1", servicetest.Now)
	if err != nil {
		t.Fatalf("SeedTestEvents: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/events/"+ids[0], nil)
	req.Header.Set(api.UserHeader, "u1")
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("seeded event not served: %d", rec.Code)
	}
}
