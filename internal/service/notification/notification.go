// Package notification stores in-app notifications and queues push delivery.
package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/campusconnect/internal/core/domain"
	"github.com/vietddude/campusconnect/internal/infra/cache"
	"github.com/vietddude/campusconnect/internal/infra/redis"
	"github.com/vietddude/campusconnect/internal/infra/retry"
	"github.com/vietddude/campusconnect/internal/infra/storage"
	"github.com/vietddude/campusconnect/internal/service"
)

// ListLimit is the number of notifications returned by List.
const ListLimit = 50

// Pusher queues push notifications for delivery.
type Pusher interface {
	EnqueuePush(ctx context.Context, msg redis.PushMessage) (string, error)
}

// Service manages notifications for users.
type Service struct {
	notifs storage.NotificationRepository
	users  storage.UserRepository
	pusher Pusher
	opts   service.Options
	log    *slog.Logger
}

// New creates a notification service. pusher may be nil.
func New(store *storage.Store, pusher Pusher, opts service.Options) *Service {
	return &Service{
		notifs: store.Notifications,
		users:  store.Users,
		pusher: pusher,
		opts:   opts.WithDefaults(),
		log:    slog.With("component", "notifications"),
	}
}

func listKey(userID string) string {
	return cache.Key("notifications", userID)
}

// List returns the newest notifications of userID. When the store stays
// unreachable after all retries the placeholder list is returned instead.
func (s *Service) List(ctx context.Context, userID string) []*domain.Notification {
	if userID == "" {
		return []*domain.Notification{}
	}

	list, err := retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, forceRefresh bool) ([]*domain.Notification, error) {
		return cache.Fetch(ctx, s.opts.Cache, listKey(userID), s.opts.CacheTTL, forceRefresh,
			func(ctx context.Context) ([]*domain.Notification, error) {
				return s.notifs.ListByUser(ctx, userID, ListLimit)
			})
	}, 3, "getNotifications")
	if err != nil {
		s.log.Error("Error fetching notifications, serving placeholders", "user_id", userID, "error", err)
		return Placeholders(s.opts.Now())
	}
	if list == nil {
		list = []*domain.Notification{}
	}
	return list
}

// MarkRead marks a notification of userID as read. Failures are logged, not returned.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) {
	_, err := retry.DoWithPolicy(ctx, s.opts.Retry, service.Exec(func(ctx context.Context) error {
		return s.notifs.MarkRead(ctx, notificationID, s.opts.Now())
	}), 3, "markAsRead")
	if err != nil {
		s.log.Error("Error marking notification as read", "notification_id", notificationID, "error", err)
		return
	}
	cache.Invalidate(ctx, s.opts.Cache, listKey(userID))
}

// RegisterPushToken records the device token used for push delivery.
func (s *Service) RegisterPushToken(ctx context.Context, userID, token string) error {
	if err := service.RequireUser(userID); err != nil {
		return err
	}
	if token == "" {
		return service.Invalid("token", "required")
	}
	_, err := retry.DoWithPolicy(ctx, s.opts.Retry, service.Exec(func(ctx context.Context) error {
		return s.users.SetPushToken(ctx, userID, token, s.opts.Now())
	}), 3, "updateUserToken")
	if err != nil {
		return err
	}
	cache.Invalidate(ctx, s.opts.Cache, service.UserKey(userID))
	return nil
}

// Send persists n for userID and queues a push if the user registered a device.
// Push failures are logged; the notification is still stored.
func (s *Service) Send(ctx context.Context, userID string, n *domain.Notification) error {
	if err := s.prepare(userID, n); err != nil {
		return err
	}
	_, err := retry.DoWithPolicy(ctx, s.opts.Retry, service.Exec(func(ctx context.Context) error {
		return s.notifs.Create(ctx, n)
	}), 3, "sendNotification")
	if err != nil {
		return err
	}
	s.delivered(ctx, userID, n)
	return nil
}

// Deliver is Send without its own retry, for callers that already run inside
// a retried operation.
func (s *Service) Deliver(ctx context.Context, userID string, n *domain.Notification) error {
	if err := s.prepare(userID, n); err != nil {
		return err
	}
	if err := s.notifs.Create(ctx, n); err != nil {
		return err
	}
	s.delivered(ctx, userID, n)
	return nil
}

func (s *Service) prepare(userID string, n *domain.Notification) error {
	if err := service.RequireUser(userID); err != nil {
		return err
	}
	if n.Title == "" {
		return service.Invalid("title", "required")
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.UserID = userID
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.opts.Now()
	}
	return nil
}

func (s *Service) delivered(ctx context.Context, userID string, n *domain.Notification) {
	cache.Invalidate(ctx, s.opts.Cache, listKey(userID))
	s.push(ctx, userID, n)
}

func (s *Service) push(ctx context.Context, userID string, n *domain.Notification) {
	if s.pusher == nil {
		return
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		s.log.Warn("Skipping push, user lookup failed", "user_id", userID, "error", err)
		return
	}
	if u.FCMToken == "" {
		return
	}
	if _, err := s.pusher.EnqueuePush(ctx, redis.PushMessage{UserID: userID, Token: u.FCMToken, Notif: n}); err != nil {
		s.log.Warn("Failed to enqueue push", "user_id", userID, "notification_id", n.ID, "error", err)
	}
}

// Placeholders is the fixed list shown while notifications cannot be loaded.
func Placeholders(now time.Time) []*domain.Notification {
	return []*domain.Notification{
		{
			ID:        "1",
			Type:      domain.NotificationMatch,
			Title:     "New Match!",
			Body:      "You have a new study buddy match",
			CreatedAt: now.Add(-30 * time.Minute),
			Data:      map[string]string{"matchId": "match1"},
		},
		{
			ID:        "2",
			Type:      domain.NotificationGroupInvite,
			Title:     "Group Invitation",
			Body:      `You have been invited to join "CS Study Group"`,
			CreatedAt: now.Add(-2 * time.Hour),
			Data:      map[string]string{"groupId": "group1"},
		},
		{
			ID:        "3",
			Type:      domain.NotificationEvent,
			Title:     "Upcoming Event",
			Body:      "Don't forget about the study session tomorrow",
			Read:      true,
			CreatedAt: now.Add(-24 * time.Hour),
			Data:      map[string]string{"eventId": "event1"},
		},
		{
			ID:        "4",
			Type:      domain.NotificationAchievement,
			Title:     "Achievement Unlocked!",
			Body:      `You earned the "Study Streak" badge`,
			Read:      true,
			CreatedAt: now.Add(-48 * time.Hour),
			Data:      map[string]string{"badgeId": "badge1"},
		},
	}
}
