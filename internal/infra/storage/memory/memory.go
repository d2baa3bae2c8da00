package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/vietddude/campusconnect/internal/core/domain"
	"github.com/vietddude/campusconnect/internal/infra/storage"
)

// MemoryStorage keeps every collection in process. Values are copied on the
// way in and out so callers never share state with the store.
type MemoryStorage struct {
	users         map[string]*domain.User
	friends       map[string]map[string]struct{}
	events        map[string]*domain.Event
	groups        map[string]*domain.Group
	chats         map[string]*domain.Chat
	matches       map[string]*domain.Match
	notifications map[string]*domain.Notification
	challenges    map[string]*domain.Challenge
	completed     map[string]*domain.CompletedChallenge
	mu            sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users:         make(map[string]*domain.User),
		friends:       make(map[string]map[string]struct{}),
		events:        make(map[string]*domain.Event),
		groups:        make(map[string]*domain.Group),
		chats:         make(map[string]*domain.Chat),
		matches:       make(map[string]*domain.Match),
		notifications: make(map[string]*domain.Notification),
		challenges:    make(map[string]*domain.Challenge),
		completed:     make(map[string]*domain.CompletedChallenge),
	}
}

// NewStore returns every repository backed by s.
func NewStore(s *MemoryStorage) *storage.Store {
	return &storage.Store{
		Users:         NewUserRepo(s),
		Events:        NewEventRepo(s),
		Groups:        NewGroupRepo(s),
		Chats:         NewChatRepo(s),
		Matches:       NewMatchRepo(s),
		Notifications: NewNotificationRepo(s),
		Challenges:    NewChallengeRepo(s),
		Prober:        s,
	}
}

// Probe always succeeds for the memory store.
func (s *MemoryStorage) Probe(ctx context.Context) error {
	return ctx.Err()
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
}

// -----------------------------------------------------------------------------
// User Repository
// -----------------------------------------------------------------------------

type UserRepo struct {
	store *MemoryStorage
}

func NewUserRepo(store *MemoryStorage) *UserRepo {
	return &UserRepo{store: store}
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.Skills = slices.Clone(u.Skills)
	c.Interests = slices.Clone(u.Interests)
	c.Badges = slices.Clone(u.Badges)
	if u.TokenUpdatedAt != nil {
		t := *u.TokenUpdatedAt
		c.TokenUpdatedAt = &t
	}
	return &c
}

func (r *UserRepo) Get(ctx context.Context, id string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	u, ok := r.store.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	return cloneUser(u), nil
}

func (r *UserRepo) GetMany(ctx context.Context, ids []string) ([]*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var users []*domain.User
	for _, id := range ids {
		if u, ok := r.store.users[id]; ok {
			users = append(users, cloneUser(u))
		}
	}
	return users, nil
}

func (r *UserRepo) Ensure(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.users[id]; !ok {
		r.store.users[id] = &domain.User{ID: id, CreatedAt: time.Now().UTC()}
	}
	return nil
}

func (r *UserRepo) SaveProfile(ctx context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	existing, ok := r.store.users[user.ID]
	if !ok {
		u := cloneUser(user)
		u.XPPoints = 0
		u.Badges = nil
		if u.CreatedAt.IsZero() {
			u.CreatedAt = time.Now().UTC()
		}
		r.store.users[user.ID] = u
		return nil
	}
	existing.Email = user.Email
	existing.DisplayName = user.DisplayName
	existing.PhotoURL = user.PhotoURL
	existing.Branch = user.Branch
	existing.Year = user.Year
	existing.Bio = user.Bio
	existing.Skills = slices.Clone(user.Skills)
	existing.Interests = slices.Clone(user.Interests)
	return nil
}

func (r *UserRepo) SetPhotoURL(ctx context.Context, id, url string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[id]
	if !ok {
		return notFound("user", id)
	}
	u.PhotoURL = url
	return nil
}

func (r *UserRepo) AddXP(ctx context.Context, id string, amount int) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[id]
	if !ok {
		return 0, notFound("user", id)
	}
	u.XPPoints += amount
	return u.XPPoints, nil
}

func (r *UserRepo) AddBadge(ctx context.Context, id, badgeID string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[id]
	if !ok {
		return false, notFound("user", id)
	}
	if u.HasBadge(badgeID) {
		return false, nil
	}
	u.Badges = append(u.Badges, badgeID)
	return true, nil
}

func (r *UserRepo) SetPushToken(ctx context.Context, id, token string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[id]
	if !ok {
		return notFound("user", id)
	}
	u.FCMToken = token
	u.TokenUpdatedAt = &at
	return nil
}

func (r *UserRepo) matching(q domain.LeaderboardQuery) []*domain.User {
	var allowed map[string]bool
	if q.UserIDs != nil {
		allowed = make(map[string]bool, len(q.UserIDs))
		for _, id := range q.UserIDs {
			allowed[id] = true
		}
	}
	var users []*domain.User
	for _, u := range r.store.users {
		if allowed != nil && !allowed[u.ID] {
			continue
		}
		if !q.Since.IsZero() && u.CreatedAt.Before(q.Since) {
			continue
		}
		users = append(users, u)
	}
	return users
}

func (r *UserRepo) Ranked(ctx context.Context, q domain.LeaderboardQuery) ([]*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	users := r.matching(q)
	sort.Slice(users, func(i, j int) bool {
		if users[i].XPPoints != users[j].XPPoints {
			return users[i].XPPoints > users[j].XPPoints
		}
		return users[i].ID < users[j].ID
	})
	if q.Limit > 0 && len(users) > q.Limit {
		users = users[:q.Limit]
	}
	out := make([]*domain.User, len(users))
	for i, u := range users {
		out[i] = cloneUser(u)
	}
	return out, nil
}

func (r *UserRepo) CountAbove(ctx context.Context, q domain.LeaderboardQuery, xp int) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	n := 0
	for _, u := range r.matching(q) {
		if u.XPPoints > xp {
			n++
		}
	}
	return n, nil
}

func (r *UserRepo) Friends(ctx context.Context, id string) ([]string, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	ids := make([]string, 0, len(r.store.friends[id]))
	for f := range r.store.friends[id] {
		ids = append(ids, f)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *UserRepo) AddFriendship(ctx context.Context, a, b string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		if r.store.friends[pair[0]] == nil {
			r.store.friends[pair[0]] = make(map[string]struct{})
		}
		r.store.friends[pair[0]][pair[1]] = struct{}{}
	}
	return nil
}
