package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vietddude/campusconnect/internal/core/domain"
	"github.com/vietddude/campusconnect/internal/infra/retry"
	"github.com/vietddude/campusconnect/internal/infra/storage"
	"github.com/vietddude/campusconnect/internal/service"
	"github.com/vietddude/campusconnect/internal/service/servicetest"
)

type flakyEvents struct {
	storage.EventRepository
	faults *servicetest.Faults
	block  chan struct{} // when set, Create waits for it to close
}

func (f *flakyEvents) Create(ctx context.Context, e *domain.Event) error {
	if f.block != nil {
		<-f.block
	}
	if err := f.faults.Next("Create"); err != nil {
		return err
	}
	return f.EventRepository.Create(ctx, e)
}

func (f *flakyEvents) Get(ctx context.Context, id string) (*domain.Event, error) {
	if err := f.faults.Next("Get"); err != nil {
		return nil, err
	}
	return f.EventRepository.Get(ctx, id)
}

func newTestService(t *testing.T, timeout time.Duration) (*Service, *flakyEvents) {
	t.Helper()
	env := servicetest.NewEnv()
	flaky := &flakyEvents{EventRepository: env.Store.Events, faults: &servicetest.Faults{}}
	env.Store.Events = flaky
	return New(env.Store, env.Opts, timeout), flaky
}

func meetup(offset time.Duration, tags ...string) CreateInput {
	start := servicetest.Now.Add(offset)
	return CreateInput{
		Title:     "Meetup",
		Location:  "Library",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Tags:      tags,
		IsPublic:  true,
	}
}

func TestCreateEvent_OrganizerAttends(t *testing.T) {
	svc, _ := newTestService(t, time.Second)
	ctx := context.Background()

	id, err := svc.CreateEvent(ctx, "u1", meetup(24*time.Hour, "Tech"))
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	ev, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ev.Organizer != "u1" {
		t.Errorf("organizer = %q", ev.Organizer)
	}
	if len(ev.Attendees) != 1 || ev.Attendees[0] != (domain.Attendee{UserID: "u1", Status: domain.AttendanceYes}) {
		t.Errorf("attendees = %+v", ev.Attendees)
	}
}

func TestCreateEvent_Validation(t *testing.T) {
	svc, flaky := newTestService(t, time.Second)
	ctx := context.Background()

	cases := map[string]CreateInput{
		"no title":   {StartTime: servicetest.Now},
		"no start":   {Title: "x"},
		"end before": {Title: "x", StartTime: servicetest.Now, EndTime: servicetest.Now.Add(-time.Hour)},
		"capacity":   {Title: "x", StartTime: servicetest.Now, MaxParticipants: -1},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.CreateEvent(ctx, "u1", in); !service.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
	if _, err := svc.CreateEvent(ctx, "", meetup(time.Hour)); !errors.Is(err, service.ErrUnauthenticated) {
		t.Errorf("expected unauthenticated, got %v", err)
	}
	if flaky.faults.Calls("Create") != 0 {
		t.Error("store was called for rejected input")
	}
}

func TestCreateEvent_NotRetried(t *testing.T) {
	svc, flaky := newTestService(t, time.Second)
	flaky.faults.Fail("Create", servicetest.Unavailable)

	_, err := svc.CreateEvent(context.Background(), "u1", meetup(time.Hour))
	if !errors.Is(err, servicetest.Unavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if n := flaky.faults.Calls("Create"); n != 1 {
		t.Errorf("create calls = %d, want 1", n)
	}
}

func TestCreateEvent_DeadlineCompletesInBackground(t *testing.T) {
	svc, flaky := newTestService(t, 20*time.Millisecond)
	flaky.block = make(chan struct{})

	start := time.Now()
	_, err := svc.CreateEvent(context.Background(), "u1", meetup(time.Hour))
	if !errors.Is(err, retry.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("deadline took %s", elapsed)
	}

	close(flaky.block)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		events, err := flaky.EventRepository.List(context.Background(), domain.EventFilter{})
		if err == nil && len(events) == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("event was not stored after the deadline fired")
}

func TestGet_RetriesBypassCache(t *testing.T) {
	svc, flaky := newTestService(t, time.Second)
	ctx := context.Background()

	id, err := svc.CreateEvent(ctx, "u1", meetup(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	getsAfterCreate := flaky.faults.Calls("Get")

	flaky.faults.Fail("Get", servicetest.Unavailable)
	if _, err := svc.Get(ctx, id); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if n := flaky.faults.Calls("Get") - getsAfterCreate; n != 2 {
		t.Errorf("store reads = %d, want 2", n)
	}

	// served from the cache now
	if _, err := svc.Get(ctx, id); err != nil {
		t.Fatal(err)
	}
	if n := flaky.faults.Calls("Get") - getsAfterCreate; n != 2 {
		t.Errorf("store reads after cached get = %d, want 2", n)
	}
}

func TestGet_NotFoundNotRetried(t *testing.T) {
	svc, flaky := newTestService(t, time.Second)
	_, err := svc.Get(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if n := flaky.faults.Calls("Get"); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestList_Timeframes(t *testing.T) {
	svc, _ := newTestService(t, time.Second)
	ctx := context.Background()

	titles := map[time.Duration]string{
		48 * time.Hour:  "later",
		24 * time.Hour:  "soon",
		-24 * time.Hour: "yesterday",
		-48 * time.Hour: "last week",
	}
	for offset, title := range titles {
		in := meetup(offset)
		in.Title = title
		if offset < 0 {
			in.Tags = []string{"Past"}
		}
		if _, err := svc.CreateEvent(ctx, "u1", in); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		tf   domain.Timeframe
		tags []string
		want []string
	}{
		{domain.TimeframeUpcoming, nil, []string{"soon", "later"}},
		{domain.TimeframePast, nil, []string{"yesterday", "last week"}},
		{domain.TimeframeAll, nil, []string{"last week", "yesterday", "soon", "later"}},
		{domain.TimeframeAll, []string{"Past"}, []string{"last week", "yesterday"}},
	}
	for _, tt := range tests {
		events, err := svc.List(ctx, tt.tags, tt.tf)
		if err != nil {
			t.Fatalf("List(%s): %v", tt.tf, err)
		}
		var got []string
		for _, e := range events {
			got = append(got, e.Title)
		}
		if len(got) != len(tt.want) {
			t.Errorf("List(%s, %v) = %v, want %v", tt.tf, tt.tags, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("List(%s, %v) = %v, want %v", tt.tf, tt.tags, got, tt.want)
				break
			}
		}
	}

	if _, err := svc.List(ctx, nil, "tomorrow"); !service.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestList_InvalidatedByCreate(t *testing.T) {
	svc, _ := newTestService(t, time.Second)
	ctx := context.Background()

	events, err := svc.List(ctx, nil, domain.TimeframeUpcoming)
	if err != nil || len(events) != 0 {
		t.Fatalf("List = %v, %v", events, err)
	}
	if _, err := svc.CreateEvent(ctx, "u1", meetup(time.Hour)); err != nil {
		t.Fatal(err)
	}
	events, err = svc.List(ctx, nil, domain.TimeframeUpcoming)
	if err != nil || len(events) != 1 {
		t.Errorf("List after create = %d events, %v", len(events), err)
	}
}

func TestSeedAndDeleteTestEvents(t *testing.T) {
	svc, flaky := newTestService(t, time.Second)
	ctx := context.Background()

	if _, err := svc.CreateEvent(ctx, "u1", meetup(time.Hour)); err != nil {
		t.Fatal(err)
	}

	flaky.faults.Fail("Create", servicetest.Unavailable, servicetest.Unavailable)
	ids, err := svc.SeedTestEvents(ctx, "u1", servicetest.Now)
	if err != nil {
		t.Fatalf("SeedTestEvents: %v", err)
	}
	if len(ids) != len(testCatalog)-2 {
		t.Errorf("created %d events, want %d", len(ids), len(testCatalog)-2)
	}

	first, err := svc.Get(ctx, ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if first.Title != "AI Research Symposium" || !first.StartTime.Equal(servicetest.Now.Add(10*day)) {
		t.Errorf("unexpected seeded event %q at %s", first.Title, first.StartTime)
	}

	n, err := svc.DeleteTestEvents(ctx)
	if err != nil {
		t.Fatalf("DeleteTestEvents: %v", err)
	}
	if n != len(ids) {
		t.Errorf("deleted %d, want %d", n, len(ids))
	}
	rest, _ := svc.List(ctx, nil, domain.TimeframeAll)
	if len(rest) != 1 || rest[0].Title != "Meetup" {
		t.Errorf("remaining events = %+v", rest)
	}
}

func TestSetAttendance(t *testing.T) {
	svc, _ := newTestService(t, time.Second)
	ctx := context.Background()

	id, err := svc.CreateEvent(ctx, "u1", meetup(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get(ctx, id); err != nil {
		t.Fatal(err)
	}
	if err := svc.SetAttendance(ctx, id, "u2", domain.AttendanceMaybe); err != nil {
		t.Fatalf("SetAttendance: %v", err)
	}
	ev, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(ev.Attendees) != 2 || ev.Attendees[1].Status != domain.AttendanceMaybe {
		t.Errorf("attendees = %+v", ev.Attendees)
	}

	if err := svc.SetAttendance(ctx, id, "u2", "perhaps"); !service.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
	if err := svc.SetAttendance(ctx, "missing", "u2", domain.AttendanceYes); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
