// Package matching recommends study partners and manages match state.
// Recommendation and match creation run in the callable functions backend;
// swipes, responses and listings are served from the store.
package matching

import (
	"context"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/vietddude/campusconnect/internal/core/domain"
	"github.com/vietddude/campusconnect/internal/infra/functions"
	"github.com/vietddude/campusconnect/internal/infra/retry"
	"github.com/vietddude/campusconnect/internal/infra/storage"
	"github.com/vietddude/campusconnect/internal/service"
)

// Matcher is the callable functions backend.
type Matcher interface {
	GenerateMatches(ctx context.Context, userID string, filter domain.MatchFilter) ([]domain.Candidate, error)
	CreateMatch(ctx context.Context, userID, target string) (functions.MatchResult, error)
	CreateSuperMatch(ctx context.Context, userID, target string) (functions.MatchResult, error)
	CompatibilityScore(ctx context.Context, userID, target string) (float64, error)
	FilterMatches(ctx context.Context, userID string, filter domain.MatchFilter) ([]domain.Candidate, error)
}

// Service implements the matching operations.
type Service struct {
	matcher Matcher
	matches storage.MatchRepository
	users   storage.UserRepository
	chats   storage.ChatRepository
	opts    service.Options
	log     *slog.Logger
}

// New creates a matching service.
func New(store *storage.Store, matcher Matcher, opts service.Options) *Service {
	return &Service{
		matcher: matcher,
		matches: store.Matches,
		users:   store.Users,
		chats:   store.Chats,
		opts:    opts.WithDefaults(),
		log:     slog.With("component", "matching"),
	}
}

// ResponseResult is the outcome of RespondToMatch. ChatID is set when the
// match was accepted.
type ResponseResult struct {
	Status string `json:"status"`
	ChatID string `json:"chatId,omitempty"`
}

// StatusMatched is reported when a match is accepted.
const StatusMatched = "matched"

func nonNil(c []domain.Candidate) []domain.Candidate {
	if c == nil {
		return []domain.Candidate{}
	}
	return c
}

func requireTarget(userID, target string) error {
	if err := service.RequireUser(userID); err != nil {
		return err
	}
	if target == "" {
		return service.Invalid("targetUserId", "required")
	}
	if target == userID {
		return service.Invalid("targetUserId", "cannot match yourself")
	}
	return nil
}

// Recommended returns candidates produced by the matching backend.
func (s *Service) Recommended(ctx context.Context, userID string, filter domain.MatchFilter) ([]domain.Candidate, error) {
	if err := service.RequireUser(userID); err != nil {
		return nil, err
	}
	return retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, _ bool) ([]domain.Candidate, error) {
		c, err := s.matcher.GenerateMatches(ctx, userID, filter)
		return nonNil(c), err
	}, 3, "getRecommendedUsers")
}

// SwipeRight records interest in target.
func (s *Service) SwipeRight(ctx context.Context, userID, target string) (functions.MatchResult, error) {
	if err := requireTarget(userID, target); err != nil {
		return functions.MatchResult{}, err
	}
	return retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, _ bool) (functions.MatchResult, error) {
		return s.matcher.CreateMatch(ctx, userID, target)
	}, 3, "swipeRight")
}

// SuperMatch records high-priority interest in target.
func (s *Service) SuperMatch(ctx context.Context, userID, target string) (functions.MatchResult, error) {
	if err := requireTarget(userID, target); err != nil {
		return functions.MatchResult{}, err
	}
	return retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, _ bool) (functions.MatchResult, error) {
		return s.matcher.CreateSuperMatch(ctx, userID, target)
	}, 3, "superMatch")
}

// SwipeLeft stores a rejected match so target is not recommended again.
func (s *Service) SwipeLeft(ctx context.Context, userID, target string) (ResponseResult, error) {
	if err := requireTarget(userID, target); err != nil {
		return ResponseResult{}, err
	}
	now := s.opts.Now()
	m := &domain.Match{
		ID:              uuid.NewString(),
		Users:           []string{userID, target},
		Status:          domain.MatchRejected,
		InitiatedBy:     userID,
		CreatedAt:       now,
		LastInteraction: now,
	}
	_, err := retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, forceRefresh bool) (struct{}, error) {
		if forceRefresh {
			if _, err := s.matches.Get(ctx, m.ID); err == nil {
				return struct{}{}, nil
			}
		}
		return struct{}{}, s.matches.Create(ctx, m)
	}, 3, "swipeLeft")
	if err != nil {
		return ResponseResult{}, err
	}
	return ResponseResult{Status: string(domain.MatchRejected)}, nil
}

// Matches returns the user's accepted matches, most recent interaction first.
func (s *Service) Matches(ctx context.Context, userID string) ([]domain.MatchSummary, error) {
	if err := service.RequireUser(userID); err != nil {
		return nil, err
	}
	return retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, _ bool) ([]domain.MatchSummary, error) {
		matches, err := s.matches.ListByUser(ctx, userID, domain.MatchAccepted)
		if err != nil {
			return nil, err
		}
		return s.summaries(ctx, matches, func(m *domain.Match) string { return m.Other(userID) }, true)
	}, 3, "getMatches")
}

// PendingMatches returns pending matches initiated by other users.
func (s *Service) PendingMatches(ctx context.Context, userID string) ([]domain.MatchSummary, error) {
	if err := service.RequireUser(userID); err != nil {
		return nil, err
	}
	return retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, _ bool) ([]domain.MatchSummary, error) {
		matches, err := s.matches.ListPendingFor(ctx, userID)
		if err != nil {
			return nil, err
		}
		return s.summaries(ctx, matches, func(m *domain.Match) string { return m.InitiatedBy }, false)
	}, 3, "getPendingMatches")
}

// summaries joins matches with the profile of the user chosen by who.
func (s *Service) summaries(
	ctx context.Context,
	matches []*domain.Match,
	who func(*domain.Match) string,
	withInteraction bool,
) ([]domain.MatchSummary, error) {
	out := make([]domain.MatchSummary, 0, len(matches))
	if len(matches) == 0 {
		return out, nil
	}

	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = who(m)
	}
	users, err := s.users.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	for _, m := range matches {
		sum := domain.MatchSummary{
			MatchID:   m.ID,
			UserID:    who(m),
			CreatedAt: m.CreatedAt,
		}
		if withInteraction {
			sum.LastInteraction = m.LastInteraction
		}
		if u := byID[sum.UserID]; u != nil {
			sum.DisplayName = u.DisplayName
			sum.PhotoURL = u.PhotoURL
			sum.Branch = u.Branch
			sum.Year = u.Year
		}
		out = append(out, sum)
	}
	return out, nil
}

// RespondToMatch accepts or rejects a match. Accepting creates a chat between
// both users, seeded with a system message.
func (s *Service) RespondToMatch(
	ctx context.Context,
	userID, matchID string,
	response domain.MatchStatus,
) (ResponseResult, error) {
	if err := service.RequireUser(userID); err != nil {
		return ResponseResult{}, err
	}
	if matchID == "" {
		return ResponseResult{}, service.Invalid("matchId", "required")
	}
	if response != domain.MatchAccepted && response != domain.MatchRejected {
		return ResponseResult{}, service.Invalid("response", string(response))
	}

	chatID := uuid.NewString()
	return retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, forceRefresh bool) (ResponseResult, error) {
		m, err := s.matches.Get(ctx, matchID)
		if err != nil {
			return ResponseResult{}, err
		}
		if !slices.Contains(m.Users, userID) {
			return ResponseResult{}, storage.ErrPermissionDenied
		}

		now := s.opts.Now()
		if err := s.matches.UpdateStatus(ctx, matchID, response, now); err != nil {
			return ResponseResult{}, err
		}
		if response != domain.MatchAccepted {
			return ResponseResult{Status: string(response)}, nil
		}

		if forceRefresh {
			if _, err := s.chats.Get(ctx, chatID); err == nil {
				return ResponseResult{Status: StatusMatched, ChatID: chatID}, nil
			}
		}
		err = s.chats.Create(ctx, &domain.Chat{
			ID:           chatID,
			Participants: m.Users,
			LastMessage: domain.Message{
				Text:   "You are now connected!",
				SentBy: domain.SystemSender,
				SentAt: now,
			},
			CreatedAt: now,
		})
		if err != nil {
			return ResponseResult{}, err
		}
		s.log.Info("Match accepted", "match_id", matchID, "chat_id", chatID)
		return ResponseResult{Status: StatusMatched, ChatID: chatID}, nil
	}, 3, "respondToMatch")
}

// CompatibilityScore returns the compatibility between userID and target.
func (s *Service) CompatibilityScore(ctx context.Context, userID, target string) (float64, error) {
	if err := requireTarget(userID, target); err != nil {
		return 0, err
	}
	return retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, _ bool) (float64, error) {
		return s.matcher.CompatibilityScore(ctx, userID, target)
	}, 3, "getCompatibilityScore")
}

// FilterMatches returns candidates matching filter.
func (s *Service) FilterMatches(ctx context.Context, userID string, filter domain.MatchFilter) ([]domain.Candidate, error) {
	if err := service.RequireUser(userID); err != nil {
		return nil, err
	}
	return retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, _ bool) ([]domain.Candidate, error) {
		c, err := s.matcher.FilterMatches(ctx, userID, filter)
		return nonNil(c), err
	}, 3, "filterMatches")
}
