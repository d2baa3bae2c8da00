package gamification

import (
	"context"

	"github.com/vietddude/campusconnect/internal/core/domain"
	"github.com/vietddude/campusconnect/internal/infra/retry"
	"github.com/vietddude/campusconnect/internal/service"
)

// Leaderboard ranks users by XP. The caller's rank is their position in the
// list, or one more than the number of users with more XP when they fall
// outside it. Scope friends restricts ranking to the caller's friends.
func (s *Service) Leaderboard(
	ctx context.Context,
	userID string,
	timeframe domain.LeaderboardTimeframe,
	scope domain.LeaderboardScope,
) (*domain.Leaderboard, error) {
	if err := service.RequireUser(userID); err != nil {
		return nil, err
	}
	if timeframe == "" {
		timeframe = domain.LeaderboardWeekly
	}
	if scope == "" {
		scope = domain.ScopeCollege
	}
	switch timeframe {
	case domain.LeaderboardWeekly, domain.LeaderboardMonthly, domain.LeaderboardAll:
	default:
		return nil, service.Invalid("timeframe", string(timeframe))
	}
	switch scope {
	case domain.ScopeCollege, domain.ScopeFriends:
	default:
		return nil, service.Invalid("scope", string(scope))
	}

	return retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, _ bool) (*domain.Leaderboard, error) {
		return s.leaderboard(ctx, userID, timeframe, scope)
	}, 3, "getLeaderboard")
}

func (s *Service) leaderboard(
	ctx context.Context,
	userID string,
	timeframe domain.LeaderboardTimeframe,
	scope domain.LeaderboardScope,
) (*domain.Leaderboard, error) {
	empty := &domain.Leaderboard{Entries: []domain.LeaderboardEntry{}}

	if err := s.users.Ensure(ctx, userID); err != nil {
		return nil, err
	}

	q := domain.LeaderboardQuery{
		Since: timeframe.Since(s.opts.Now()),
		Limit: LeaderboardSize,
	}
	if scope == domain.ScopeFriends {
		friends, err := s.users.Friends(ctx, userID)
		if err != nil {
			return nil, err
		}
		if len(friends) == 0 {
			return empty, nil
		}
		q.UserIDs = friends
	}

	ranked, err := s.users.Ranked(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return empty, nil
	}

	board := &domain.Leaderboard{Entries: make([]domain.LeaderboardEntry, 0, len(ranked))}
	for i, u := range ranked {
		name := u.DisplayName
		if name == "" {
			name = "Anonymous"
		}
		board.Entries = append(board.Entries, domain.LeaderboardEntry{
			UserID:      u.ID,
			DisplayName: name,
			PhotoURL:    u.PhotoURL,
			XPPoints:    u.XPPoints,
			Branch:      u.Branch,
		})
		if u.ID == userID {
			board.UserRank = i + 1
		}
	}

	if board.UserRank == 0 {
		me, err := s.users.Get(ctx, userID)
		if err != nil {
			return nil, err
		}
		above, err := s.users.CountAbove(ctx, q, me.XPPoints)
		if err != nil {
			return nil, err
		}
		board.UserRank = above + 1
	}
	return board, nil
}
