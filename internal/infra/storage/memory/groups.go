package memory

import (
	"context"
	"slices"
	"sort"
	"strings"

	"github.com/vietddude/campusconnect/internal/core/domain"
	"github.com/vietddude/campusconnect/internal/infra/storage"
)

// -----------------------------------------------------------------------------
// Group Repository
// -----------------------------------------------------------------------------

type GroupRepo struct {
	store *MemoryStorage
}

func NewGroupRepo(store *MemoryStorage) *GroupRepo {
	return &GroupRepo{store: store}
}

func cloneGroup(g *domain.Group) *domain.Group {
	c := *g
	c.Tags = slices.Clone(g.Tags)
	c.Members = slices.Clone(g.Members)
	return &c
}

func newestFirst(groups []*domain.Group) {
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].CreatedAt.After(groups[j].CreatedAt)
	})
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

func (r *GroupRepo) Create(ctx context.Context, group *domain.Group) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.groups[group.ID] = cloneGroup(group)
	return nil
}

func (r *GroupRepo) Get(ctx context.Context, id string) (*domain.Group, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	g, ok := r.store.groups[id]
	if !ok {
		return nil, notFound("group", id)
	}
	return cloneGroup(g), nil
}

func (r *GroupRepo) List(ctx context.Context, filter domain.GroupFilter) ([]*domain.Group, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var groups []*domain.Group
	for _, g := range r.store.groups {
		if filter.Type != "" && g.Type != filter.Type {
			continue
		}
		if len(filter.Tags) > 0 && !hasAnyTag(g.Tags, filter.Tags) {
			continue
		}
		groups = append(groups, cloneGroup(g))
	}
	newestFirst(groups)
	return limit(groups, filter.Limit), nil
}

func hasRole(g *domain.Group, userID string, role domain.MemberRole) bool {
	return slices.Contains(g.Members, domain.Member{UserID: userID, Role: role})
}

func (r *GroupRepo) ListByMember(
	ctx context.Context,
	userID string,
	role domain.MemberRole,
) ([]*domain.Group, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var groups []*domain.Group
	for _, g := range r.store.groups {
		if hasRole(g, userID, role) {
			groups = append(groups, cloneGroup(g))
		}
	}
	newestFirst(groups)
	return groups, nil
}

func (r *GroupRepo) CountByMember(ctx context.Context, userID string, role domain.MemberRole) (int, error) {
	groups, err := r.ListByMember(ctx, userID, role)
	return len(groups), err
}

func (r *GroupRepo) AddMember(ctx context.Context, groupID string, member domain.Member) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	g, ok := r.store.groups[groupID]
	if !ok {
		return notFound("group", groupID)
	}
	if !g.HasMember(member.UserID) {
		g.Members = append(g.Members, member)
	}
	return nil
}

func (r *GroupRepo) RemoveMember(ctx context.Context, groupID, userID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	g, ok := r.store.groups[groupID]
	if !ok {
		return notFound("group", groupID)
	}
	g.Members = slices.DeleteFunc(g.Members, func(m domain.Member) bool {
		return m.UserID == userID
	})
	return nil
}

func (r *GroupRepo) Update(ctx context.Context, id string, update storage.GroupUpdate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	g, ok := r.store.groups[id]
	if !ok {
		return notFound("group", id)
	}
	if update.Name != nil {
		g.Name = *update.Name
	}
	if update.Description != nil {
		g.Description = *update.Description
	}
	if update.Type != nil {
		g.Type = *update.Type
	}
	if update.Tags != nil {
		g.Tags = slices.Clone(update.Tags)
	}
	return nil
}

func (r *GroupRepo) SetCoverURL(ctx context.Context, id, url string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	g, ok := r.store.groups[id]
	if !ok {
		return notFound("group", id)
	}
	g.CoverURL = url
	return nil
}

func (r *GroupRepo) SetChatID(ctx context.Context, id, chatID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	g, ok := r.store.groups[id]
	if !ok {
		return notFound("group", id)
	}
	g.ChatID = chatID
	return nil
}

func (r *GroupRepo) SearchByName(ctx context.Context, prefix string, n int) ([]*domain.Group, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var groups []*domain.Group
	for _, g := range r.store.groups {
		if strings.HasPrefix(g.Name, prefix) {
			groups = append(groups, cloneGroup(g))
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return limit(groups, n), nil
}
