package config

import (
	"time"

	"github.com/vietddude/campusconnect/internal/infra/blob"
	"github.com/vietddude/campusconnect/internal/infra/functions"
	redisclient "github.com/vietddude/campusconnect/internal/infra/redis"
	"github.com/vietddude/campusconnect/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server        ServerConfig       `yaml:"server"`
	Logging       LoggingConfig      `yaml:"logging"`
	Database      postgres.Config    `yaml:"database"`      // empty URL selects the memory store
	Redis         redisclient.Config `yaml:"redis"`         // empty URL selects the in-process cache
	Storage       blob.Config        `yaml:"storage"`
	Functions     functions.Config   `yaml:"functions"`
	Cache         CacheConfig        `yaml:"cache"`
	Events        EventsConfig       `yaml:"events"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port      int  `yaml:"port"`
	DevRoutes bool `yaml:"dev_routes"` // exposes the test event seeding endpoints
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// CacheConfig controls the local read cache.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// EventsConfig holds event service settings.
type EventsConfig struct {
	CreateTimeout time.Duration `yaml:"create_timeout"`
}

// NotificationConfig holds notification retention settings.
type NotificationConfig struct {
	Retention time.Duration `yaml:"retention"` // read notifications older than this are pruned; 0 disables
}
