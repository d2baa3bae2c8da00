package storage

import (
	"context"
	"time"

	"github.com/vietddude/campusconnect/internal/core/domain"
	"github.com/vietddude/campusconnect/internal/infra/backend"
)

var (
	// ErrNotFound is returned when a document doesn't exist
	ErrNotFound = backend.New("storage", backend.ReasonNotFound, "document not found")

	// ErrPermissionDenied is returned when the caller may not touch a document
	ErrPermissionDenied = backend.New("storage", backend.ReasonPermissionDenied, "permission denied")
)

// UserRepository handles profiles and gamification counters
type UserRepository interface {
	// Get retrieves a user by ID
	Get(ctx context.Context, id string) (*domain.User, error)

	// GetMany retrieves the users that exist among ids, in no particular order
	GetMany(ctx context.Context, ids []string) ([]*domain.User, error)

	// Ensure creates an empty user with zero XP if none exists
	Ensure(ctx context.Context, id string) error

	// SaveProfile creates or updates the profile fields of a user
	SaveProfile(ctx context.Context, user *domain.User) error

	// SetPhotoURL updates the profile photo
	SetPhotoURL(ctx context.Context, id, url string) error

	// AddXP atomically increments XP and returns the new total
	AddXP(ctx context.Context, id string, amount int) (int, error)

	// AddBadge adds a badge; added is false if it was already present
	AddBadge(ctx context.Context, id, badgeID string) (added bool, err error)

	// SetPushToken records the device push token
	SetPushToken(ctx context.Context, id, token string, at time.Time) error

	// Ranked returns users ordered by XP descending
	Ranked(ctx context.Context, q domain.LeaderboardQuery) ([]*domain.User, error)

	// CountAbove counts users matching q with strictly more XP than xp
	CountAbove(ctx context.Context, q domain.LeaderboardQuery, xp int) (int, error)

	// Friends returns the friend IDs of a user
	Friends(ctx context.Context, id string) ([]string, error)

	// AddFriendship links two users both ways
	AddFriendship(ctx context.Context, a, b string) error
}

// EventRepository handles event storage operations
type EventRepository interface {
	// Create stores a new event; the ID must be set
	Create(ctx context.Context, event *domain.Event) error

	// Get retrieves an event by ID
	Get(ctx context.Context, id string) (*domain.Event, error)

	// List returns events matching the filter
	List(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error)

	// SetAttendance upserts a user's RSVP
	SetAttendance(ctx context.Context, eventID, userID string, status domain.AttendanceStatus) error

	// DeleteByTitles deletes every event whose title is in titles (batch)
	DeleteByTitles(ctx context.Context, titles []string) (int, error)
}

// GroupUpdate holds the mutable group fields; nil means unchanged
type GroupUpdate struct {
	Name        *string
	Description *string
	Type        *string
	Tags        []string
}

// GroupRepository handles group storage operations
type GroupRepository interface {
	Create(ctx context.Context, group *domain.Group) error
	Get(ctx context.Context, id string) (*domain.Group, error)

	// List returns groups matching the filter, newest first
	List(ctx context.Context, filter domain.GroupFilter) ([]*domain.Group, error)

	// ListByMember returns groups where userID has the given role, newest first
	ListByMember(ctx context.Context, userID string, role domain.MemberRole) ([]*domain.Group, error)

	// CountByMember counts groups where userID has the given role
	CountByMember(ctx context.Context, userID string, role domain.MemberRole) (int, error)

	AddMember(ctx context.Context, groupID string, member domain.Member) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	Update(ctx context.Context, id string, update GroupUpdate) error
	SetCoverURL(ctx context.Context, id, url string) error
	SetChatID(ctx context.Context, id, chatID string) error

	// SearchByName returns groups whose name starts with prefix, ordered by name
	SearchByName(ctx context.Context, prefix string, limit int) ([]*domain.Group, error)
}

// ChatRepository handles chat storage operations
type ChatRepository interface {
	Create(ctx context.Context, chat *domain.Chat) error
	Get(ctx context.Context, id string) (*domain.Chat, error)
}

// MatchRepository handles match storage operations
type MatchRepository interface {
	Create(ctx context.Context, match *domain.Match) error
	Get(ctx context.Context, id string) (*domain.Match, error)
	UpdateStatus(ctx context.Context, id string, status domain.MatchStatus, at time.Time) error

	// ListByUser returns matches of userID in status, most recent interaction first
	ListByUser(ctx context.Context, userID string, status domain.MatchStatus) ([]*domain.Match, error)

	// ListPendingFor returns pending matches of userID initiated by someone else
	ListPendingFor(ctx context.Context, userID string) ([]*domain.Match, error)

	// CountAccepted counts accepted matches of userID
	CountAccepted(ctx context.Context, userID string) (int, error)
}

// NotificationRepository handles notification storage operations
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error

	// ListByUser returns the newest notifications of a user
	ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Notification, error)

	MarkRead(ctx context.Context, id string, at time.Time) error

	// DeleteReadBefore deletes read notifications created before t
	DeleteReadBefore(ctx context.Context, t time.Time) (int64, error)
}

// ChallengeRepository handles challenges and their completions
type ChallengeRepository interface {
	ListActive(ctx context.Context) ([]*domain.Challenge, error)
	Get(ctx context.Context, id string) (*domain.Challenge, error)
	Save(ctx context.Context, c *domain.Challenge) error
	IsCompleted(ctx context.Context, userID, challengeID string) (bool, error)
	RecordCompletion(ctx context.Context, c *domain.CompletedChallenge) error
}

// Prober verifies that the store accepts writes
type Prober interface {
	// Probe writes and deletes a scratch record
	Probe(ctx context.Context) error
}

// Store bundles all repositories of one backend.
type Store struct {
	Users         UserRepository
	Events        EventRepository
	Groups        GroupRepository
	Chats         ChatRepository
	Matches       MatchRepository
	Notifications NotificationRepository
	Challenges    ChallengeRepository
	Prober        Prober
}
