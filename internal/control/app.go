// Package control assembles the application from its configuration.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/vietddude/campusconnect/internal/api"
	"github.com/vietddude/campusconnect/internal/core/config"
	"github.com/vietddude/campusconnect/internal/core/worker"
	"github.com/vietddude/campusconnect/internal/health"
	"github.com/vietddude/campusconnect/internal/infra/blob"
	"github.com/vietddude/campusconnect/internal/infra/cache"
	"github.com/vietddude/campusconnect/internal/infra/functions"
	redisclient "github.com/vietddude/campusconnect/internal/infra/redis"
	"github.com/vietddude/campusconnect/internal/infra/retry"
	"github.com/vietddude/campusconnect/internal/infra/storage"
	"github.com/vietddude/campusconnect/internal/infra/storage/memory"
	"github.com/vietddude/campusconnect/internal/infra/storage/postgres"
	"github.com/vietddude/campusconnect/internal/metrics"
	"github.com/vietddude/campusconnect/internal/service"
	"github.com/vietddude/campusconnect/internal/service/event"
	"github.com/vietddude/campusconnect/internal/service/gamification"
	"github.com/vietddude/campusconnect/internal/service/group"
	"github.com/vietddude/campusconnect/internal/service/matching"
	"github.com/vietddude/campusconnect/internal/service/notification"
	"github.com/vietddude/campusconnect/internal/service/profile"
)

// App owns every long-lived component and their lifecycle.
type App struct {
	cfg         *config.AppConfig
	store       *storage.Store
	db          *postgres.DB
	redisClient *redisclient.Client
	services    api.Services
	healthMon   *health.Monitor
	server      *api.Server
	pruner      *worker.Pruner
	log         *slog.Logger
}

// NewApp connects the backends, verifies the store accepts writes and builds
// the services. Without a database URL the app runs on the memory store.
func NewApp(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	store, db, err := openStore(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := verifyWriteAccess(ctx, store.Prober, retry.DefaultPolicy); err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("store is not writable: %w", err)
	}

	var readCache cache.Cache = cache.NewMemory()
	var pusher notification.Pusher
	var redisClient *redisclient.Client
	if cfg.Redis.URL != "" {
		rc, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("Failed to connect to Redis, using in-process cache", "error", err)
		} else {
			readCache, pusher, redisClient = rc, rc, rc
			slog.Info("Using Redis cache and push outbox")
		}
	}

	blobs, err := blob.New(ctx, cfg.Storage)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("failed to init blob storage: %w", err)
	}

	if cfg.Functions.URL == "" {
		slog.Warn("Matching functions URL not configured, matching calls will fail")
	}
	matcher := functions.NewClient(cfg.Functions)

	opts := service.Options{Cache: readCache, CacheTTL: cfg.Cache.TTL}
	notifs := notification.New(store, pusher, opts)
	services := api.Services{
		Events:        event.New(store, opts, cfg.Events.CreateTimeout),
		Groups:        group.New(store, blobs, opts),
		Gamification:  gamification.New(store, notifs, opts),
		Notifications: notifs,
		Matching:      matching.New(store, matcher, opts),
		Profiles:      profile.New(store, blobs, opts),
	}

	healthMon := health.NewMonitor(healthComponents(store, db, redisClient)...)

	var filesDir string
	if local, ok := blobs.(*blob.LocalStore); ok {
		filesDir = local.Dir()
	}
	server := api.NewServer(services, cfg.Server.Port, api.Options{
		FilesDir:  filesDir,
		Health:    health.NewServer(healthMon),
		DevRoutes: cfg.Server.DevRoutes,
	})

	return &App{
		cfg:         cfg,
		store:       store,
		db:          db,
		redisClient: redisClient,
		services:    services,
		healthMon:   healthMon,
		server:      server,
		pruner:      worker.NewPruner(cfg.Notifications.Retention, store.Notifications),
		log:         slog.With("component", "app"),
	}, nil
}

func openStore(ctx context.Context, cfg postgres.Config) (*storage.Store, *postgres.DB, error) {
	if cfg.URL == "" {
		slog.Info("Using memory storage")
		return memory.NewStore(memory.NewMemoryStorage()), nil, nil
	}

	db, err := retry.Do(ctx, func(ctx context.Context, _ bool) (*postgres.DB, error) {
		return postgres.NewDB(ctx, cfg)
	}, 3, "connectDatabase")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init db: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	slog.Info("Using PostgreSQL storage", "driver", cfg.Driver)
	return postgres.NewStore(db), db, nil
}

// verifyWriteAccess writes and deletes a probe record, retrying transient failures.
func verifyWriteAccess(ctx context.Context, prober storage.Prober, policy retry.Policy) error {
	_, err := retry.DoWithPolicy(ctx, policy, service.Exec(prober.Probe), 3, "verifyWriteAccess")
	return err
}

func healthComponents(store *storage.Store, db *postgres.DB, rc *redisclient.Client) []health.Component {
	dbCheck := store.Prober.Probe
	if db != nil {
		dbCheck = db.Health
	}
	components := []health.Component{{Name: "database", Check: dbCheck, Critical: true}}
	if rc != nil {
		components = append(components, health.Component{Name: "redis", Check: rc.Health})
	}
	return components
}

// Services exposes the assembled services to the CLI.
func (a *App) Services() api.Services {
	return a.services
}

// CheckHealth reports the status of every backend.
func (a *App) CheckHealth(ctx context.Context) map[string]health.ComponentHealth {
	return a.healthMon.CheckHealth(ctx)
}

// Handler is the HTTP handler of the API server.
func (a *App) Handler() http.Handler {
	return a.server
}

// Start launches the API server and background workers. It returns immediately.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("API server failed", "error", err)
		}
	}()

	if a.db != nil {
		a.db.StartMetricsCollector(ctx)
	}

	a.log.Info("Starting notification pruner", "retention", a.cfg.Notifications.Retention)
	go a.pruner.Start(ctx)

	if a.redisClient != nil {
		go a.runMetricsUpdater(ctx)
	}
	return nil
}

// Stop shuts the API server down and closes the backends.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping Campus Connect...")
	err := a.server.Stop(ctx)
	a.Close()
	return err
}

// Close releases the backend connections without touching the server.
func (a *App) Close() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	}
}

func (a *App) runMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.redisClient.PendingPushes(ctx)
			if err != nil {
				slog.Debug("Failed to read push outbox length", "error", err)
				continue
			}
			metrics.PushOutboxPending.Set(float64(n))
		}
	}
}
