// Package api exposes the services as an HTTP JSON API under /v1.
// The acting user is taken from the X-User-ID header.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/vietddude/campusconnect/internal/health"
	"github.com/vietddude/campusconnect/internal/service/event"
	"github.com/vietddude/campusconnect/internal/service/gamification"
	"github.com/vietddude/campusconnect/internal/service/group"
	"github.com/vietddude/campusconnect/internal/service/matching"
	"github.com/vietddude/campusconnect/internal/service/notification"
	"github.com/vietddude/campusconnect/internal/service/profile"
)

// UserHeader carries the authenticated user ID.
const UserHeader = "X-User-ID"

// Services are the handlers' collaborators.
type Services struct {
	Events        *event.Service
	Groups        *group.Service
	Gamification  *gamification.Service
	Notifications *notification.Service
	Matching      *matching.Service
	Profiles      *profile.Service
}

// Options configures optional routes.
type Options struct {
	// FilesDir, when set, is served read-only under /files/.
	FilesDir string

	// Health, when set, mounts /health, /health/detailed and /metrics.
	Health *health.Server

	// DevRoutes enables the test event endpoints.
	DevRoutes bool
}

// Server is the HTTP API server.
type Server struct {
	svc    Services
	mux    *http.ServeMux
	server *http.Server
	log    *slog.Logger
}

// NewServer creates a new API server listening on port.
func NewServer(svc Services, port int, opts Options) *Server {
	s := &Server{
		svc: svc,
		mux: http.NewServeMux(),
		log: slog.With("component", "api"),
	}
	s.routes(opts)
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes(opts Options) {
	s.eventRoutes(opts.DevRoutes)
	s.groupRoutes()
	s.gamificationRoutes()
	s.notificationRoutes()
	s.matchingRoutes()
	s.profileRoutes()

	if opts.FilesDir != "" {
		s.mux.Handle("GET /files/", http.StripPrefix("/files/", http.FileServer(http.Dir(opts.FilesDir))))
	}
	if opts.Health != nil {
		opts.Health.Register(s.mux)
	}
}

// ServeHTTP logs and dispatches a request.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	s.log.Debug("Request served",
		"method", r.Method,
		"path", r.URL.Path,
		"status", rec.status,
		"duration", time.Since(start),
	)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info("API listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
