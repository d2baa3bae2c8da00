package event

import (
	"context"
	"time"

	"github.com/vietddude/campusconnect/internal/infra/cache"
	"github.com/vietddude/campusconnect/internal/infra/retry"
	"github.com/vietddude/campusconnect/internal/service"
)

type testEvent struct {
	title       string
	description string
	location    string
	offsetDays  int
	duration    time.Duration
	tags        []string
	public      bool
	capacity    int
}

const day = 24 * time.Hour

// testCatalog is the fixed set of development events.
var testCatalog = []testEvent{
	{"Campus Tech Meetup", "Join us for an exciting tech meetup where students can share their projects and network with peers",
		"Engineering Building Room 101", 3, 2 * time.Hour, []string{"Tech", "Networking"}, true, 50},
	{"Career Development Workshop", "Learn essential skills for your career journey including resume writing and interview preparation",
		"Business School Auditorium", 7, 3 * time.Hour, []string{"Career", "Workshop"}, true, 100},
	{"AI Research Symposium", "Research presentations and discussions on the latest developments in Artificial Intelligence",
		"Virtual Event", 10, 4 * time.Hour, []string{"AI", "Research", "Academic"}, true, 200},
	{"Sports Tournament", "Inter-department sports tournament featuring basketball, volleyball, and badminton",
		"University Sports Complex", 14, 8 * time.Hour, []string{"Sports", "Competition"}, true, 150},
	{"Cultural Night 2025", "Annual cultural celebration featuring performances, food, and cultural exhibitions",
		"Main Campus Amphitheater", 21, 5 * time.Hour, []string{"Cultural", "Entertainment"}, true, 500},
	{"Hackathon 2025", "24-hour coding challenge to build innovative solutions for campus problems",
		"Computer Science Building", 25, day, []string{"Tech", "Hackathon", "Competition"}, true, 100},
	{"Study Group - Machine Learning", "Weekly study group for machine learning concepts and practice",
		"Library Study Room 3", 5, 2 * time.Hour, []string{"Academic", "Study Group", "AI"}, false, 10},
	{"Photography Workshop", "Learn photography basics and techniques with professional equipment",
		"Arts Center Studio", 18, 3 * time.Hour, []string{"Arts", "Workshop", "Photography"}, true, 20},
}

// TestEventTitles lists the titles created by SeedTestEvents.
func TestEventTitles() []string {
	titles := make([]string, len(testCatalog))
	for i, e := range testCatalog {
		titles[i] = e.title
	}
	return titles
}

// SeedTestEvents creates the development catalog relative to base, organized
// by userID. Events that fail are logged and skipped; the IDs created are returned.
func (s *Service) SeedTestEvents(ctx context.Context, userID string, base time.Time) ([]string, error) {
	if err := service.RequireUser(userID); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(testCatalog))
	for _, e := range testCatalog {
		start := base.Add(time.Duration(e.offsetDays) * day)
		id, err := s.CreateEvent(ctx, userID, CreateInput{
			Title:           e.title,
			Description:     e.description,
			Location:        e.location,
			StartTime:       start,
			EndTime:         start.Add(e.duration),
			Tags:            e.tags,
			IsPublic:        e.public,
			MaxParticipants: e.capacity,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ids, ctx.Err()
			}
			s.log.Error("Failed to create test event", "title", e.title, "error", err)
			continue
		}
		ids = append(ids, id)
	}
	s.log.Info("Test events created", "count", len(ids))
	return ids, nil
}

// DeleteTestEvents removes every event carrying a catalog title in one batch.
func (s *Service) DeleteTestEvents(ctx context.Context) (int, error) {
	n, err := retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, _ bool) (int, error) {
		return s.events.DeleteByTitles(ctx, TestEventTitles())
	}, 3, "deleteTestEvents")
	if err != nil {
		return 0, err
	}
	cache.Invalidate(ctx, s.opts.Cache, listKeys...)
	s.log.Info("Test events deleted", "count", n)
	return n, nil
}
