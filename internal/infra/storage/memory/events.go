package memory

import (
	"context"
	"slices"
	"sort"

	"github.com/vietddude/campusconnect/internal/core/domain"
)

// -----------------------------------------------------------------------------
// Event Repository
// -----------------------------------------------------------------------------

type EventRepo struct {
	store *MemoryStorage
}

func NewEventRepo(store *MemoryStorage) *EventRepo {
	return &EventRepo{store: store}
}

func cloneEvent(e *domain.Event) *domain.Event {
	c := *e
	c.Tags = slices.Clone(e.Tags)
	c.Attendees = slices.Clone(e.Attendees)
	return &c
}

func (r *EventRepo) Create(ctx context.Context, event *domain.Event) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.events[event.ID] = cloneEvent(event)
	return nil
}

func (r *EventRepo) Get(ctx context.Context, id string) (*domain.Event, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	e, ok := r.store.events[id]
	if !ok {
		return nil, notFound("event", id)
	}
	return cloneEvent(e), nil
}

func hasAnyTag(tags, wanted []string) bool {
	for _, w := range wanted {
		if slices.Contains(tags, w) {
			return true
		}
	}
	return false
}

func (r *EventRepo) List(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var events []*domain.Event
	for _, e := range r.store.events {
		if len(filter.Tags) > 0 && !hasAnyTag(e.Tags, filter.Tags) {
			continue
		}
		switch filter.Timeframe {
		case domain.TimeframeUpcoming:
			if e.StartTime.Before(filter.Now) {
				continue
			}
		case domain.TimeframePast:
			if !e.StartTime.Before(filter.Now) {
				continue
			}
		}
		events = append(events, cloneEvent(e))
	}

	desc := filter.Timeframe == domain.TimeframePast
	sort.Slice(events, func(i, j int) bool {
		if desc {
			return events[i].StartTime.After(events[j].StartTime)
		}
		return events[i].StartTime.Before(events[j].StartTime)
	})
	if filter.Limit > 0 && len(events) > filter.Limit {
		events = events[:filter.Limit]
	}
	return events, nil
}

func (r *EventRepo) SetAttendance(
	ctx context.Context,
	eventID, userID string,
	status domain.AttendanceStatus,
) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e, ok := r.store.events[eventID]
	if !ok {
		return notFound("event", eventID)
	}
	for i := range e.Attendees {
		if e.Attendees[i].UserID == userID {
			e.Attendees[i].Status = status
			return nil
		}
	}
	e.Attendees = append(e.Attendees, domain.Attendee{UserID: userID, Status: status})
	return nil
}

func (r *EventRepo) DeleteByTitles(ctx context.Context, titles []string) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	n := 0
	for id, e := range r.store.events {
		if slices.Contains(titles, e.Title) {
			delete(r.store.events, id)
			n++
		}
	}
	return n, nil
}
