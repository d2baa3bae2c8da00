// Package event reads and writes campus events.
package event

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/campusconnect/internal/core/domain"
	"github.com/vietddude/campusconnect/internal/infra/cache"
	"github.com/vietddude/campusconnect/internal/infra/retry"
	"github.com/vietddude/campusconnect/internal/infra/storage"
	"github.com/vietddude/campusconnect/internal/service"
)

const (
	// ListLimit caps every event listing.
	ListLimit = 50

	// DefaultCreateTimeout bounds CreateEvent when no timeout is configured.
	DefaultCreateTimeout = 30 * time.Second
)

// CreateInput holds the caller-supplied fields of a new event.
type CreateInput struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Location        string    `json:"location"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	Tags            []string  `json:"tags"`
	IsPublic        bool      `json:"isPublic"`
	MaxParticipants int       `json:"maxParticipants"`
}

// Validate rejects input that could never be stored.
func (in CreateInput) Validate() error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return service.Invalid("title", "required")
	case in.StartTime.IsZero():
		return service.Invalid("startTime", "required")
	case !in.EndTime.IsZero() && in.EndTime.Before(in.StartTime):
		return service.Invalid("endTime", "before startTime")
	case in.MaxParticipants < 0:
		return service.Invalid("maxParticipants", "negative")
	}
	return nil
}

// Service implements the event operations.
type Service struct {
	events        storage.EventRepository
	opts          service.Options
	createTimeout time.Duration
	log           *slog.Logger
}

// New creates an event service. A non-positive createTimeout means DefaultCreateTimeout.
func New(store *storage.Store, opts service.Options, createTimeout time.Duration) *Service {
	if createTimeout <= 0 {
		createTimeout = DefaultCreateTimeout
	}
	return &Service{
		events:        store.Events,
		opts:          opts.WithDefaults(),
		createTimeout: createTimeout,
		log:           slog.With("component", "events"),
	}
}

func eventKey(id string) string {
	return cache.Key("event", id)
}

func listKey(tf domain.Timeframe) string {
	return cache.Key("events", string(tf))
}

var listKeys = []string{
	listKey(domain.TimeframeAll),
	listKey(domain.TimeframeUpcoming),
	listKey(domain.TimeframePast),
}

// Get returns an event by ID.
func (s *Service) Get(ctx context.Context, id string) (*domain.Event, error) {
	if id == "" {
		return nil, service.Invalid("eventId", "required")
	}
	return retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, forceRefresh bool) (*domain.Event, error) {
		return cache.Fetch(ctx, s.opts.Cache, eventKey(id), s.opts.CacheTTL, forceRefresh,
			func(ctx context.Context) (*domain.Event, error) {
				return s.events.Get(ctx, id)
			})
	}, 3, "getEventById")
}

// List returns up to ListLimit events. Upcoming events are ordered by start
// time ascending, past events descending. Only untagged listings are cached.
func (s *Service) List(ctx context.Context, tags []string, tf domain.Timeframe) ([]*domain.Event, error) {
	if tf == "" {
		tf = domain.TimeframeAll
	}
	switch tf {
	case domain.TimeframeAll, domain.TimeframeUpcoming, domain.TimeframePast:
	default:
		return nil, service.Invalid("timeframe", string(tf))
	}

	return retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, forceRefresh bool) ([]*domain.Event, error) {
		load := func(ctx context.Context) ([]*domain.Event, error) {
			events, err := s.events.List(ctx, domain.EventFilter{
				Tags:      tags,
				Timeframe: tf,
				Now:       s.opts.Now(),
				Limit:     ListLimit,
			})
			if events == nil && err == nil {
				events = []*domain.Event{}
			}
			return events, err
		}
		if len(tags) > 0 {
			return load(ctx)
		}
		return cache.Fetch(ctx, s.opts.Cache, listKey(tf), s.opts.CacheTTL, forceRefresh, load)
	}, 3, "getEvents")
}

// CreateEvent stores a new event organized by userID, who is recorded as
// attending. The insert and its read-back run under a single deadline and are
// not retried; on timeout the error matches retry.ErrTimeout and the insert may
// still complete in the background.
func (s *Service) CreateEvent(ctx context.Context, userID string, in CreateInput) (string, error) {
	if err := service.RequireUser(userID); err != nil {
		return "", err
	}
	if err := in.Validate(); err != nil {
		return "", err
	}

	ev := &domain.Event{
		ID:              uuid.NewString(),
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		Location:        in.Location,
		StartTime:       in.StartTime.UTC(),
		EndTime:         in.EndTime.UTC(),
		Tags:            in.Tags,
		IsPublic:        in.IsPublic,
		MaxParticipants: in.MaxParticipants,
		Organizer:       userID,
		Attendees:       []domain.Attendee{{UserID: userID, Status: domain.AttendanceYes}},
		CreatedAt:       s.opts.Now(),
	}
	if ev.EndTime.IsZero() {
		ev.EndTime = ev.StartTime
	}

	id, err := retry.WithDeadline(ctx, func(ctx context.Context) (string, error) {
		if err := s.events.Create(ctx, ev); err != nil {
			return "", err
		}
		if _, err := s.events.Get(ctx, ev.ID); err != nil {
			return "", err
		}
		cache.Invalidate(ctx, s.opts.Cache, listKeys...)
		return ev.ID, nil
	}, s.createTimeout, "createEvent")
	if err != nil {
		return "", err
	}

	s.log.Info("Event created", "event_id", id, "title", ev.Title, "organizer", userID)
	return id, nil
}

// SetAttendance records the user's RSVP for an event.
func (s *Service) SetAttendance(ctx context.Context, eventID, userID string, status domain.AttendanceStatus) error {
	if err := service.RequireUser(userID); err != nil {
		return err
	}
	if eventID == "" {
		return service.Invalid("eventId", "required")
	}
	if !status.Valid() {
		return service.Invalid("status", string(status))
	}

	_, err := retry.DoWithPolicy(ctx, s.opts.Retry, service.Exec(func(ctx context.Context) error {
		if err := s.events.SetAttendance(ctx, eventID, userID, status); err != nil {
			return err
		}
		cache.Invalidate(ctx, s.opts.Cache, append([]string{eventKey(eventID)}, listKeys...)...)
		return nil
	}), 3, "updateAttendance")
	return err
}
