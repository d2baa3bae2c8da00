// Package group manages study groups, their members, cover images and chats.
package group

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/vietddude/campusconnect/internal/core/domain"
	"github.com/vietddude/campusconnect/internal/infra/blob"
	"github.com/vietddude/campusconnect/internal/infra/cache"
	"github.com/vietddude/campusconnect/internal/infra/retry"
	"github.com/vietddude/campusconnect/internal/infra/storage"
	"github.com/vietddude/campusconnect/internal/service"
)

const (
	// ListLimit caps List and Search.
	ListLimit = 20

	unknownUser  = "Unknown User"
	notSpecified = "Not specified"
	notAvailable = "Not available"
)

// Service implements the group operations.
type Service struct {
	groups storage.GroupRepository
	users  storage.UserRepository
	chats  storage.ChatRepository
	blobs  blob.Store
	opts   service.Options
	log    *slog.Logger
}

// New creates a group service.
func New(store *storage.Store, blobs blob.Store, opts service.Options) *Service {
	return &Service{
		groups: store.Groups,
		users:  store.Users,
		chats:  store.Chats,
		blobs:  blobs,
		opts:   opts.WithDefaults(),
		log:    slog.With("component", "groups"),
	}
}

func groupKey(id string) string {
	return cache.Key("group", id)
}

func userGroupsKey(userID string) string {
	return cache.Key("groups", "user", userID)
}

// CreateInput holds the caller-supplied fields of a new group.
type CreateInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Tags        []string `json:"tags"`
}

// Create stores a new group with userID as its admin and returns its ID.
// Retries first check whether the previous attempt already landed.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (string, error) {
	if err := service.RequireUser(userID); err != nil {
		return "", err
	}
	if strings.TrimSpace(in.Name) == "" {
		return "", service.Invalid("name", "required")
	}

	g := &domain.Group{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Type:        in.Type,
		Tags:        in.Tags,
		Members:     []domain.Member{{UserID: userID, Role: domain.RoleAdmin}},
		CreatedBy:   userID,
		CreatedAt:   s.opts.Now(),
	}

	id, err := retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, forceRefresh bool) (string, error) {
		if forceRefresh {
			if _, err := s.groups.Get(ctx, g.ID); err == nil {
				return g.ID, nil
			}
		}
		if err := s.groups.Create(ctx, g); err != nil {
			return "", err
		}
		return g.ID, nil
	}, 3, "createGroup")
	if err != nil {
		return "", err
	}
	// The row may have landed on an attempt whose ack was lost.
	cache.Invalidate(ctx, s.opts.Cache, userGroupsKey(userID))
	return id, nil
}

// List returns up to ListLimit groups, newest first.
func (s *Service) List(ctx context.Context, filter domain.GroupFilter) ([]*domain.Group, error) {
	filter.Limit = ListLimit
	return retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, _ bool) ([]*domain.Group, error) {
		groups, err := s.groups.List(ctx, filter)
		if groups == nil && err == nil {
			groups = []*domain.Group{}
		}
		return groups, err
	}, 3, "getGroups")
}

// UserGroups returns every group userID belongs to, newest first.
func (s *Service) UserGroups(ctx context.Context, userID string) ([]*domain.Group, error) {
	if err := service.RequireUser(userID); err != nil {
		return nil, err
	}
	return retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, forceRefresh bool) ([]*domain.Group, error) {
		return cache.Fetch(ctx, s.opts.Cache, userGroupsKey(userID), s.opts.CacheTTL, forceRefresh,
			func(ctx context.Context) ([]*domain.Group, error) {
				admin, err := s.groups.ListByMember(ctx, userID, domain.RoleAdmin)
				if err != nil {
					return nil, err
				}
				member, err := s.groups.ListByMember(ctx, userID, domain.RoleMember)
				if err != nil {
					return nil, err
				}
				return mergeNewestFirst(admin, member), nil
			})
	}, 3, "getUserGroups")
}

// mergeNewestFirst merges two newest-first lists.
func mergeNewestFirst(a, b []*domain.Group) []*domain.Group {
	out := make([]*domain.Group, 0, len(a)+len(b))
	for len(a) > 0 && len(b) > 0 {
		if b[0].CreatedAt.After(a[0].CreatedAt) {
			out, b = append(out, b[0]), b[1:]
		} else {
			out, a = append(out, a[0]), a[1:]
		}
	}
	out = append(out, a...)
	return append(out, b...)
}

// Get returns a group by ID.
func (s *Service) Get(ctx context.Context, id string) (*domain.Group, error) {
	if id == "" {
		return nil, service.Invalid("groupId", "required")
	}
	return retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, forceRefresh bool) (*domain.Group, error) {
		return s.get(ctx, id, forceRefresh)
	}, 3, "getGroupById")
}

func (s *Service) get(ctx context.Context, id string, forceRefresh bool) (*domain.Group, error) {
	return cache.Fetch(ctx, s.opts.Cache, groupKey(id), s.opts.CacheTTL, forceRefresh,
		func(ctx context.Context) (*domain.Group, error) {
			return s.groups.Get(ctx, id)
		})
}

func (s *Service) invalidate(ctx context.Context, groupID string, userIDs ...string) {
	keys := []string{groupKey(groupID)}
	for _, u := range userIDs {
		keys = append(keys, userGroupsKey(u))
	}
	cache.Invalidate(ctx, s.opts.Cache, keys...)
}

// Join adds userID as a member. Joining twice is a no-op.
func (s *Service) Join(ctx context.Context, groupID, userID string) error {
	if err := service.RequireUser(userID); err != nil {
		return err
	}
	_, err := retry.DoWithPolicy(ctx, s.opts.Retry, service.Exec(func(ctx context.Context) error {
		if err := s.groups.AddMember(ctx, groupID, domain.Member{UserID: userID, Role: domain.RoleMember}); err != nil {
			return err
		}
		s.invalidate(ctx, groupID, userID)
		return nil
	}), 3, "joinGroup")
	return err
}

// Leave removes userID from the group. Leaving a group one is not in is a no-op.
func (s *Service) Leave(ctx context.Context, groupID, userID string) error {
	if err := service.RequireUser(userID); err != nil {
		return err
	}
	_, err := retry.DoWithPolicy(ctx, s.opts.Retry, service.Exec(func(ctx context.Context) error {
		if err := s.groups.RemoveMember(ctx, groupID, userID); err != nil {
			return err
		}
		s.invalidate(ctx, groupID, userID)
		return nil
	}), 3, "leaveGroup")
	return err
}

// Update changes the mutable fields of a group. Only admins may update.
func (s *Service) Update(ctx context.Context, groupID, userID string, update storage.GroupUpdate) error {
	if err := service.RequireUser(userID); err != nil {
		return err
	}
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return service.Invalid("name", "empty")
	}
	_, err := retry.DoWithPolicy(ctx, s.opts.Retry, service.Exec(func(ctx context.Context) error {
		g, err := s.groups.Get(ctx, groupID)
		if err != nil {
			return err
		}
		if !isAdmin(g, userID) {
			return storage.ErrPermissionDenied
		}
		if err := s.groups.Update(ctx, groupID, update); err != nil {
			return err
		}
		s.invalidate(ctx, groupID, memberIDs(g)...)
		return nil
	}), 3, "updateGroup")
	return err
}

func isAdmin(g *domain.Group, userID string) bool {
	for _, m := range g.Members {
		if m.UserID == userID && m.Role == domain.RoleAdmin {
			return true
		}
	}
	return false
}

func memberIDs(g *domain.Group) []string {
	ids := make([]string, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.UserID
	}
	return ids
}

// Members returns the group's members joined with their profiles.
func (s *Service) Members(ctx context.Context, groupID string) ([]domain.MemberProfile, error) {
	if groupID == "" {
		return nil, service.Invalid("groupId", "required")
	}
	return retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, forceRefresh bool) ([]domain.MemberProfile, error) {
		g, err := s.get(ctx, groupID, forceRefresh)
		if err != nil {
			return nil, err
		}
		users, err := s.users.GetMany(ctx, memberIDs(g))
		if err != nil {
			return nil, err
		}
		byID := make(map[string]*domain.User, len(users))
		for _, u := range users {
			byID[u.ID] = u
		}

		out := make([]domain.MemberProfile, 0, len(g.Members))
		for _, m := range g.Members {
			out = append(out, memberProfile(m, byID[m.UserID]))
		}
		return out, nil
	}, 3, "getGroupMembers")
}

func memberProfile(m domain.Member, u *domain.User) domain.MemberProfile {
	p := domain.MemberProfile{
		UserID:      m.UserID,
		Role:        m.Role,
		DisplayName: unknownUser,
		Branch:      notAvailable,
		Year:        notAvailable,
	}
	if u == nil {
		return p
	}
	p.PhotoURL = u.PhotoURL
	p.Branch, p.Year = notSpecified, notSpecified
	if u.DisplayName != "" {
		p.DisplayName = u.DisplayName
	}
	if u.Branch != "" {
		p.Branch = u.Branch
	}
	if u.Year != "" {
		p.Year = u.Year
	}
	return p
}

// UploadCover stores a cover image for the group and records its URL.
// The body is buffered so every attempt uploads the same bytes.
func (s *Service) UploadCover(ctx context.Context, groupID, contentType string, body io.Reader) (string, error) {
	if groupID == "" {
		return "", service.Invalid("groupId", "required")
	}
	data, err := io.ReadAll(io.LimitReader(body, blob.MaxUploadSize+1))
	if err != nil {
		return "", err
	}
	if len(data) > blob.MaxUploadSize {
		return "", service.Invalid("file", "too large")
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	return retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, _ bool) (string, error) {
		url, err := s.blobs.Put(ctx, blob.ObjectKey("groups", groupID, "cover.jpg"), contentType, bytes.NewReader(data))
		if err != nil {
			return "", err
		}
		if err := s.groups.SetCoverURL(ctx, groupID, url); err != nil {
			return "", err
		}
		s.invalidate(ctx, groupID)
		return url, nil
	}, 3, "uploadGroupImage")
}

// CreateGroupChat creates the chat of a group with all current members and
// returns its ID. A retry reuses a chat recorded by an earlier attempt.
func (s *Service) CreateGroupChat(ctx context.Context, groupID string) (string, error) {
	if groupID == "" {
		return "", service.Invalid("groupId", "required")
	}
	return retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, forceRefresh bool) (string, error) {
		g, err := s.groups.Get(ctx, groupID)
		if err != nil {
			return "", err
		}
		if forceRefresh && g.ChatID != "" {
			return g.ChatID, nil
		}
		return s.createChat(ctx, g)
	}, 3, "createGroupChat")
}

func (s *Service) createChat(ctx context.Context, g *domain.Group) (string, error) {
	now := s.opts.Now()
	chat := &domain.Chat{
		ID:           uuid.NewString(),
		Participants: memberIDs(g),
		GroupID:      g.ID,
		IsGroupChat:  true,
		LastMessage: domain.Message{
			Text:   "Group chat created",
			SentBy: domain.SystemSender,
			SentAt: now,
		},
		CreatedAt: now,
	}
	if err := s.chats.Create(ctx, chat); err != nil {
		return "", err
	}
	if err := s.groups.SetChatID(ctx, g.ID, chat.ID); err != nil {
		return "", err
	}
	s.invalidate(ctx, g.ID)
	s.log.Info("Group chat created", "group_id", g.ID, "chat_id", chat.ID)
	return chat.ID, nil
}

// GroupChat returns the group's chat ID, creating the chat on first use.
func (s *Service) GroupChat(ctx context.Context, groupID string) (string, error) {
	if groupID == "" {
		return "", service.Invalid("groupId", "required")
	}
	return retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, _ bool) (string, error) {
		g, err := s.groups.Get(ctx, groupID)
		if err != nil {
			return "", err
		}
		if g.ChatID != "" {
			return g.ChatID, nil
		}
		return s.createChat(ctx, g)
	}, 3, "getGroupChat")
}

// Search returns up to ListLimit groups whose name starts with prefix, ordered by name.
func (s *Service) Search(ctx context.Context, prefix string) ([]*domain.Group, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return []*domain.Group{}, nil
	}
	return retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, _ bool) ([]*domain.Group, error) {
		groups, err := s.groups.SearchByName(ctx, prefix, ListLimit)
		if groups == nil && err == nil {
			groups = []*domain.Group{}
		}
		return groups, err
	}, 3, "searchGroups")
}
