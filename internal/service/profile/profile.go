// Package profile reads and edits student profiles.
package profile

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/vietddude/campusconnect/internal/core/domain"
	"github.com/vietddude/campusconnect/internal/infra/blob"
	"github.com/vietddude/campusconnect/internal/infra/cache"
	"github.com/vietddude/campusconnect/internal/infra/retry"
	"github.com/vietddude/campusconnect/internal/infra/storage"
	"github.com/vietddude/campusconnect/internal/service"
)

// Service implements the profile operations.
type Service struct {
	users storage.UserRepository
	blobs blob.Store
	opts  service.Options
	log   *slog.Logger
}

// New creates a profile service.
func New(store *storage.Store, blobs blob.Store, opts service.Options) *Service {
	return &Service{
		users: store.Users,
		blobs: blobs,
		opts:  opts.WithDefaults(),
		log:   slog.With("component", "profile"),
	}
}

// Input holds the editable profile fields.
type Input struct {
	Email       string   `json:"email"`
	DisplayName string   `json:"displayName"`
	Branch      string   `json:"branch"`
	Year        string   `json:"year"`
	Bio         string   `json:"bio"`
	Skills      []string `json:"skills"`
	Interests   []string `json:"interests"`
}

// Get returns the profile of userID.
func (s *Service) Get(ctx context.Context, userID string) (*domain.User, error) {
	if err := service.RequireUser(userID); err != nil {
		return nil, err
	}
	return retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, forceRefresh bool) (*domain.User, error) {
		return cache.Fetch(ctx, s.opts.Cache, service.UserKey(userID), s.opts.CacheTTL, forceRefresh,
			func(ctx context.Context) (*domain.User, error) {
				return s.users.Get(ctx, userID)
			})
	}, 3, "getUserProfile")
}

// Save creates or updates the profile of userID. XP and badges are never
// touched. Skills and interests are trimmed and deduplicated.
func (s *Service) Save(ctx context.Context, userID string, in Input) (*domain.User, error) {
	if err := service.RequireUser(userID); err != nil {
		return nil, err
	}
	u := &domain.User{
		ID:          userID,
		Email:       strings.TrimSpace(in.Email),
		DisplayName: strings.TrimSpace(in.DisplayName),
		Branch:      strings.TrimSpace(in.Branch),
		Year:        strings.TrimSpace(in.Year),
		Bio:         strings.TrimSpace(in.Bio),
		Skills:      uniqueTrimmed(in.Skills),
		Interests:   uniqueTrimmed(in.Interests),
		CreatedAt:   s.opts.Now(),
	}
	if u.DisplayName == "" {
		return nil, service.Invalid("displayName", "required")
	}

	return retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, _ bool) (*domain.User, error) {
		if existing, err := s.users.Get(ctx, userID); err == nil {
			u.PhotoURL = existing.PhotoURL
		}
		if err := s.users.SaveProfile(ctx, u); err != nil {
			return nil, err
		}
		cache.Invalidate(ctx, s.opts.Cache, service.UserKey(userID))
		return s.users.Get(ctx, userID)
	}, 3, "saveUserProfile")
}

func uniqueTrimmed(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// UploadPhoto stores a profile photo and records its URL.
func (s *Service) UploadPhoto(ctx context.Context, userID, contentType string, body io.Reader) (string, error) {
	if err := service.RequireUser(userID); err != nil {
		return "", err
	}
	data, err := io.ReadAll(io.LimitReader(body, blob.MaxUploadSize+1))
	if err != nil {
		return "", err
	}
	if len(data) > blob.MaxUploadSize {
		return "", service.Invalid("file", "too large")
	}
	if len(data) == 0 {
		return "", service.Invalid("file", "empty")
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	return retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, _ bool) (string, error) {
		url, err := s.blobs.Put(ctx, blob.ObjectKey("users", userID, "profile.jpg"), contentType, bytes.NewReader(data))
		if err != nil {
			return "", err
		}
		if err := s.users.Ensure(ctx, userID); err != nil {
			return "", err
		}
		if err := s.users.SetPhotoURL(ctx, userID, url); err != nil {
			return "", err
		}
		cache.Invalidate(ctx, s.opts.Cache, service.UserKey(userID))
		s.log.Info("Profile photo updated", "user_id", userID)
		return url, nil
	}, 3, "uploadProfilePhoto")
}
