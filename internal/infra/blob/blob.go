// Package blob uploads user files (profile photos, group covers) and returns their public URL.
package blob

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/vietddude/campusconnect/internal/infra/backend"
)

// MaxUploadSize bounds a single upload.
const MaxUploadSize = 10 << 20

// Store persists uploaded files.
type Store interface {
	// Put stores body under key and returns the public URL
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// Config selects and configures the blob backend.
type Config struct {
	Driver  string `yaml:"driver"` // "s3" or "local"
	Bucket  string `yaml:"bucket"`
	Region  string `yaml:"region"`
	Dir     string `yaml:"dir"`
	BaseURL string `yaml:"base_url"`
}

// New creates the store selected by cfg.Driver.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3Store(ctx, cfg)
	case "", "local":
		return NewLocalStore(cfg.Dir, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported blob driver %q", cfg.Driver)
	}
}

// ObjectKey builds a key such as "groups/<id>/cover.jpg".
func ObjectKey(parts ...string) string {
	return path.Join(parts...)
}

// cleanKey rejects keys escaping the store root.
func cleanKey(key string) (string, error) {
	k := path.Clean("/" + key)[1:]
	if k == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return "", backend.New("blob", backend.ReasonInvalidArgument, "invalid object key "+key)
	}
	return k, nil
}

// readLimited reads body fully, failing when it exceeds MaxUploadSize.
func readLimited(body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, backend.New("blob", backend.ReasonInvalidArgument, "upload too large")
	}
	return data, nil
}
