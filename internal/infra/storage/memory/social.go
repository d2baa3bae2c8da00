package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/vietddude/campusconnect/internal/core/domain"
)

// -----------------------------------------------------------------------------
// Chat Repository
// -----------------------------------------------------------------------------

type ChatRepo struct {
	store *MemoryStorage
}

func NewChatRepo(store *MemoryStorage) *ChatRepo {
	return &ChatRepo{store: store}
}

func (r *ChatRepo) Create(ctx context.Context, chat *domain.Chat) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c := *chat
	c.Participants = slices.Clone(chat.Participants)
	r.store.chats[chat.ID] = &c
	return nil
}

func (r *ChatRepo) Get(ctx context.Context, id string) (*domain.Chat, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	chat, ok := r.store.chats[id]
	if !ok {
		return nil, notFound("chat", id)
	}
	c := *chat
	c.Participants = slices.Clone(chat.Participants)
	return &c, nil
}

// -----------------------------------------------------------------------------
// Match Repository
// -----------------------------------------------------------------------------

type MatchRepo struct {
	store *MemoryStorage
}

func NewMatchRepo(store *MemoryStorage) *MatchRepo {
	return &MatchRepo{store: store}
}

func cloneMatch(m *domain.Match) *domain.Match {
	c := *m
	c.Users = slices.Clone(m.Users)
	return &c
}

func (r *MatchRepo) Create(ctx context.Context, match *domain.Match) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.matches[match.ID] = cloneMatch(match)
	return nil
}

func (r *MatchRepo) Get(ctx context.Context, id string) (*domain.Match, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	m, ok := r.store.matches[id]
	if !ok {
		return nil, notFound("match", id)
	}
	return cloneMatch(m), nil
}

func (r *MatchRepo) UpdateStatus(
	ctx context.Context,
	id string,
	status domain.MatchStatus,
	at time.Time,
) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	m, ok := r.store.matches[id]
	if !ok {
		return notFound("match", id)
	}
	m.Status = status
	m.LastInteraction = at
	return nil
}

func (r *MatchRepo) filter(keep func(*domain.Match) bool) []*domain.Match {
	var out []*domain.Match
	for _, m := range r.store.matches {
		if keep(m) {
			out = append(out, cloneMatch(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastInteraction.After(out[j].LastInteraction)
	})
	return out
}

func (r *MatchRepo) ListByUser(
	ctx context.Context,
	userID string,
	status domain.MatchStatus,
) ([]*domain.Match, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.filter(func(m *domain.Match) bool {
		return m.Status == status && slices.Contains(m.Users, userID)
	}), nil
}

func (r *MatchRepo) ListPendingFor(ctx context.Context, userID string) ([]*domain.Match, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.filter(func(m *domain.Match) bool {
		return m.Status == domain.MatchPending &&
			m.InitiatedBy != userID &&
			slices.Contains(m.Users, userID)
	}), nil
}

func (r *MatchRepo) CountAccepted(ctx context.Context, userID string) (int, error) {
	matches, err := r.ListByUser(ctx, userID, domain.MatchAccepted)
	return len(matches), err
}
