package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vietddude/campusconnect/internal/core/domain"
	"github.com/vietddude/campusconnect/internal/infra/cache"
	"github.com/vietddude/campusconnect/internal/infra/redis"
	"github.com/vietddude/campusconnect/internal/infra/storage"
	"github.com/vietddude/campusconnect/internal/service"
	"github.com/vietddude/campusconnect/internal/service/servicetest"
)

type flakyNotifs struct {
	storage.NotificationRepository
	faults *servicetest.Faults
}

func (f *flakyNotifs) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Notification, error) {
	if err := f.faults.Next("ListByUser"); err != nil {
		return nil, err
	}
	return f.NotificationRepository.ListByUser(ctx, userID, limit)
}

func (f *flakyNotifs) Create(ctx context.Context, n *domain.Notification) error {
	if err := f.faults.Next("Create"); err != nil {
		return err
	}
	return f.NotificationRepository.Create(ctx, n)
}

func (f *flakyNotifs) MarkRead(ctx context.Context, id string, at time.Time) error {
	if err := f.faults.Next("MarkRead"); err != nil {
		return err
	}
	return f.NotificationRepository.MarkRead(ctx, id, at)
}

type countingCache struct {
	cache.Cache
	gets int
}

func (c *countingCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.gets++
	return c.Cache.Get(ctx, key, dst)
}

type recordingPusher struct {
	sent []redis.PushMessage
	err  error
}

func (p *recordingPusher) EnqueuePush(ctx context.Context, msg redis.PushMessage) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.sent = append(p.sent, msg)
	return "1-0", nil
}

func newTestService(t *testing.T) (*Service, *servicetest.Env, *servicetest.Faults, *recordingPusher) {
	t.Helper()
	env := servicetest.NewEnv()
	faults := &servicetest.Faults{}
	env.Store.Notifications = &flakyNotifs{NotificationRepository: env.Store.Notifications, faults: faults}
	pusher := &recordingPusher{}
	return New(env.Store, pusher, env.Opts), env, faults, pusher
}

func TestList_NewestFirst(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	for i, title := range []string{"old", "new"} {
		n := &domain.Notification{
			Type:      domain.NotificationEvent,
			Title:     title,
			CreatedAt: servicetest.Now.Add(time.Duration(i) * time.Minute),
		}
		if err := svc.Send(ctx, "u1", n); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	list := svc.List(ctx, "u1")
	if len(list) != 2 || list[0].Title != "new" {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestList_RetriesTransientFailures(t *testing.T) {
	svc, _, faults, _ := newTestService(t)
	faults.Fail("ListByUser", servicetest.Unavailable, servicetest.Unavailable)

	list := svc.List(context.Background(), "u1")
	if len(list) != 0 {
		t.Fatalf("expected real empty list, got %d items", len(list))
	}
	if got := faults.Calls("ListByUser"); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestList_FallsBackToPlaceholders(t *testing.T) {
	svc, _, faults, _ := newTestService(t)
	faults.Fail("ListByUser", servicetest.Repeat(servicetest.Unavailable, 3)...)

	list := svc.List(context.Background(), "u1")
	if len(list) != 4 {
		t.Fatalf("expected 4 placeholders, got %d", len(list))
	}
	if list[0].Title != "New Match!" || list[3].Type != domain.NotificationAchievement {
		t.Errorf("unexpected placeholders %+v", list)
	}
	if faults.Calls("ListByUser") != 3 {
		t.Errorf("calls = %d, want 3", faults.Calls("ListByUser"))
	}
}

func TestList_NoUser(t *testing.T) {
	svc, _, faults, _ := newTestService(t)
	if list := svc.List(context.Background(), ""); len(list) != 0 {
		t.Errorf("expected empty list, got %d", len(list))
	}
	if faults.Calls("ListByUser") != 0 {
		t.Error("store queried without a user")
	}
}

func TestList_RetrySkipsCache(t *testing.T) {
	env := servicetest.NewEnv()
	faults := &servicetest.Faults{}
	env.Store.Notifications = &flakyNotifs{NotificationRepository: env.Store.Notifications, faults: faults}
	counting := &countingCache{Cache: env.Cache}
	env.Opts.Cache = counting
	svc := New(env.Store, nil, env.Opts)

	faults.Fail("ListByUser", servicetest.Unavailable)
	_ = svc.List(context.Background(), "u1")

	if counting.gets != 1 {
		t.Errorf("cache reads = %d, want 1 (first attempt only)", counting.gets)
	}
	if faults.Calls("ListByUser") != 2 {
		t.Errorf("store reads = %d, want 2", faults.Calls("ListByUser"))
	}
}

func TestMarkRead_SwallowsErrors(t *testing.T) {
	svc, _, faults, _ := newTestService(t)
	faults.Fail("MarkRead", servicetest.Repeat(servicetest.Unavailable, 3)...)

	svc.MarkRead(context.Background(), "u1", "n1")

	if faults.Calls("MarkRead") != 3 {
		t.Errorf("calls = %d, want 3", faults.Calls("MarkRead"))
	}
}

func TestMarkRead_NotFoundIsNotRetried(t *testing.T) {
	svc, _, faults, _ := newTestService(t)

	svc.MarkRead(context.Background(), "u1", "missing")

	if faults.Calls("MarkRead") != 1 {
		t.Errorf("calls = %d, want 1", faults.Calls("MarkRead"))
	}
}

func TestMarkRead_InvalidatesList(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	n := &domain.Notification{Title: "x"}
	_ = svc.Send(ctx, "u1", n)
	_ = svc.List(ctx, "u1")

	svc.MarkRead(ctx, "u1", n.ID)

	list := svc.List(ctx, "u1")
	if len(list) != 1 || !list[0].Read {
		t.Errorf("expected read notification, got %+v", list)
	}
}

func TestSend_QueuesPushForRegisteredDevice(t *testing.T) {
	svc, env, _, pusher := newTestService(t)
	ctx := context.Background()
	_ = env.Store.Users.Ensure(ctx, "u1")

	if err := svc.RegisterPushToken(ctx, "u1", "device-token"); err != nil {
		t.Fatalf("RegisterPushToken: %v", err)
	}
	n := &domain.Notification{Type: domain.NotificationMatch, Title: "New Match!"}
	if err := svc.Send(ctx, "u1", n); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if len(pusher.sent) != 1 || pusher.sent[0].Token != "device-token" || pusher.sent[0].Notif.ID == "" {
		t.Errorf("unexpected pushes %+v", pusher.sent)
	}
}

func TestSend_PushFailureDoesNotFail(t *testing.T) {
	svc, env, _, pusher := newTestService(t)
	ctx := context.Background()
	_ = env.Store.Users.Ensure(ctx, "u1")
	_ = svc.RegisterPushToken(ctx, "u1", "tok")
	pusher.err = errors.New("redis down")

	if err := svc.Send(ctx, "u1", &domain.Notification{Title: "x"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got := svc.List(ctx, "u1"); len(got) != 1 {
		t.Errorf("notification not stored: %d", len(got))
	}
}

func TestRegisterPushToken_Validation(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	if err := svc.RegisterPushToken(context.Background(), "u1", ""); err == nil {
		t.Error("empty token accepted")
	}
	if err := svc.RegisterPushToken(context.Background(), "missing", "tok"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestSend_RetriesButDeliverDoesNot(t *testing.T) {
	svc, _, faults, _ := newTestService(t)
	ctx := context.Background()

	faults.Fail("Create", servicetest.Unavailable)
	if err := svc.Send(ctx, "u1", &domain.Notification{Title: "x"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if faults.Calls("Create") != 2 {
		t.Errorf("Send calls = %d, want 2", faults.Calls("Create"))
	}

	faults.Fail("Create", servicetest.Unavailable)
	if err := svc.Deliver(ctx, "u1", &domain.Notification{Title: "y"}); err != servicetest.Unavailable {
		t.Fatalf("expected the store error, got %v", err)
	}
	if faults.Calls("Create") != 3 {
		t.Errorf("Deliver retried: calls = %d, want 3", faults.Calls("Create"))
	}
}

func TestSend_Validation(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	if err := svc.Send(context.Background(), "", &domain.Notification{Title: "x"}); !errors.Is(err, service.ErrUnauthenticated) {
		t.Errorf("expected unauthenticated, got %v", err)
	}
	if err := svc.Send(context.Background(), "u1", &domain.Notification{}); !service.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}
