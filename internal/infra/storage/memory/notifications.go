package memory

import (
	"context"
	"maps"
	"sort"
	"time"

	"github.com/vietddude/campusconnect/internal/core/domain"
)

// -----------------------------------------------------------------------------
// Notification Repository
// -----------------------------------------------------------------------------

type NotificationRepo struct {
	store *MemoryStorage
}

func NewNotificationRepo(store *MemoryStorage) *NotificationRepo {
	return &NotificationRepo{store: store}
}

func cloneNotification(n *domain.Notification) *domain.Notification {
	c := *n
	c.Data = maps.Clone(n.Data)
	if n.ReadAt != nil {
		t := *n.ReadAt
		c.ReadAt = &t
	}
	return &c
}

func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.notifications[n.ID] = cloneNotification(n)
	return nil
}

func (r *NotificationRepo) ListByUser(
	ctx context.Context,
	userID string,
	limit int,
) ([]*domain.Notification, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []*domain.Notification
	for _, n := range r.store.notifications {
		if n.UserID == userID {
			out = append(out, cloneNotification(n))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	n, ok := r.store.notifications[id]
	if !ok {
		return notFound("notification", id)
	}
	n.Read = true
	n.ReadAt = &at
	return nil
}

func (r *NotificationRepo) DeleteReadBefore(ctx context.Context, t time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for id, notif := range r.store.notifications {
		if notif.Read && notif.CreatedAt.Before(t) {
			delete(r.store.notifications, id)
			n++
		}
	}
	return n, nil
}
