package memory

import (
	"context"
	"sort"

	"github.com/vietddude/campusconnect/internal/core/domain"
)

// -----------------------------------------------------------------------------
// Challenge Repository
// -----------------------------------------------------------------------------

type ChallengeRepo struct {
	store *MemoryStorage
}

func NewChallengeRepo(store *MemoryStorage) *ChallengeRepo {
	return &ChallengeRepo{store: store}
}

func completionKey(userID, challengeID string) string {
	return userID + "/" + challengeID
}

func (r *ChallengeRepo) ListActive(ctx context.Context) ([]*domain.Challenge, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []*domain.Challenge
	for _, c := range r.store.challenges {
		if c.IsActive {
			cc := *c
			out = append(out, &cc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ChallengeRepo) Get(ctx context.Context, id string) (*domain.Challenge, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	c, ok := r.store.challenges[id]
	if !ok {
		return nil, notFound("challenge", id)
	}
	cc := *c
	return &cc, nil
}

func (r *ChallengeRepo) Save(ctx context.Context, c *domain.Challenge) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cc := *c
	r.store.challenges[c.ID] = &cc
	return nil
}

func (r *ChallengeRepo) IsCompleted(ctx context.Context, userID, challengeID string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	_, ok := r.store.completed[completionKey(userID, challengeID)]
	return ok, nil
}

func (r *ChallengeRepo) RecordCompletion(ctx context.Context, c *domain.CompletedChallenge) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cc := *c
	r.store.completed[completionKey(c.UserID, c.ChallengeID)] = &cc
	return nil
}
