// Package gamification awards XP and badges, ranks users and tracks challenges.
package gamification

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/vietddude/campusconnect/internal/core/domain"
	"github.com/vietddude/campusconnect/internal/infra/cache"
	"github.com/vietddude/campusconnect/internal/infra/retry"
	"github.com/vietddude/campusconnect/internal/infra/storage"
	"github.com/vietddude/campusconnect/internal/service"
)

// LeaderboardSize is the number of ranked entries returned.
const LeaderboardSize = 100

// Notifier delivers achievement notifications. Deliver is called inside the
// awarding operation and must not retry on its own.
type Notifier interface {
	Deliver(ctx context.Context, userID string, n *domain.Notification) error
}

// Service implements the gamification operations.
type Service struct {
	users      storage.UserRepository
	groups     storage.GroupRepository
	matches    storage.MatchRepository
	challenges storage.ChallengeRepository
	notifier   Notifier
	opts       service.Options
	log        *slog.Logger
}

// New creates a gamification service.
func New(store *storage.Store, notifier Notifier, opts service.Options) *Service {
	return &Service{
		users:      store.Users,
		groups:     store.Groups,
		matches:    store.Matches,
		challenges: store.Challenges,
		notifier:   notifier,
		opts:       opts.WithDefaults(),
		log:        slog.With("component", "gamification"),
	}
}

// AwardResult is the outcome of AwardXP.
type AwardResult struct {
	NewXP     int  `json:"newXP"`
	Level     int  `json:"level"`
	LeveledUp bool `json:"leveledUp"`
}

// BadgeResult is the outcome of AwardBadge.
type BadgeResult struct {
	AlreadyAwarded bool `json:"alreadyAwarded"`
}

// user loads a profile, creating an empty one first.
func (s *Service) user(ctx context.Context, userID string, forceRefresh bool) (*domain.User, error) {
	return cache.Fetch(ctx, s.opts.Cache, service.UserKey(userID), s.opts.CacheTTL, forceRefresh,
		func(ctx context.Context) (*domain.User, error) {
			if err := s.users.Ensure(ctx, userID); err != nil {
				return nil, err
			}
			return s.users.Get(ctx, userID)
		})
}

// XP returns the user's XP total.
func (s *Service) XP(ctx context.Context, userID string) (int, error) {
	if err := service.RequireUser(userID); err != nil {
		return 0, err
	}
	return retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, forceRefresh bool) (int, error) {
		u, err := s.user(ctx, userID, forceRefresh)
		if err != nil {
			return 0, err
		}
		return u.XPPoints, nil
	}, 3, "getUserXP")
}

// Badges returns the badges awarded to the user.
func (s *Service) Badges(ctx context.Context, userID string) ([]string, error) {
	if err := service.RequireUser(userID); err != nil {
		return nil, err
	}
	return retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, forceRefresh bool) ([]string, error) {
		u, err := s.user(ctx, userID, forceRefresh)
		if err != nil {
			return nil, err
		}
		if u.Badges == nil {
			return []string{}, nil
		}
		return u.Badges, nil
	}, 3, "getBadges")
}

// AwardXP adds amount to the user's XP, notifies them, and awards the
// level badge when a level boundary is crossed.
func (s *Service) AwardXP(ctx context.Context, userID string, amount int, reason string) (AwardResult, error) {
	if err := service.RequireUser(userID); err != nil {
		return AwardResult{}, err
	}
	if amount <= 0 {
		return AwardResult{}, service.Invalid("amount", "must be positive")
	}
	return retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, _ bool) (AwardResult, error) {
		return s.awardXP(ctx, userID, amount, reason)
	}, 3, "awardXP")
}

func (s *Service) awardXP(ctx context.Context, userID string, amount int, reason string) (AwardResult, error) {
	if err := s.users.Ensure(ctx, userID); err != nil {
		return AwardResult{}, err
	}
	total, err := s.users.AddXP(ctx, userID, amount)
	if err != nil {
		return AwardResult{}, err
	}
	cache.Invalidate(ctx, s.opts.Cache, service.UserKey(userID))

	err = s.notifier.Deliver(ctx, userID, &domain.Notification{
		Type:  domain.NotificationAchievement,
		Title: "XP Earned",
		Body:  fmt.Sprintf("You earned %d XP for: %s", amount, reason),
		Data:  map[string]string{"xp": strconv.Itoa(amount), "reason": reason},
	})
	if err != nil {
		return AwardResult{}, err
	}

	res := AwardResult{NewXP: total, Level: domain.LevelForXP(total)}
	if res.Level > domain.LevelForXP(total-amount) {
		res.LeveledUp = true
		badge := fmt.Sprintf("level_%d", res.Level)
		if _, err := s.awardBadge(ctx, userID, badge, fmt.Sprintf("Reached Level %d", res.Level)); err != nil {
			return res, err
		}
		s.log.Info("User leveled up", "user_id", userID, "level", res.Level)
	}
	return res, nil
}

// AwardBadge adds a badge once; awarding it again reports AlreadyAwarded.
func (s *Service) AwardBadge(ctx context.Context, userID, badgeID, badgeName string) (BadgeResult, error) {
	if err := service.RequireUser(userID); err != nil {
		return BadgeResult{}, err
	}
	if badgeID == "" {
		return BadgeResult{}, service.Invalid("badgeId", "required")
	}
	return retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, _ bool) (BadgeResult, error) {
		return s.awardBadge(ctx, userID, badgeID, badgeName)
	}, 3, "awardBadge")
}

func (s *Service) awardBadge(ctx context.Context, userID, badgeID, badgeName string) (BadgeResult, error) {
	if err := s.users.Ensure(ctx, userID); err != nil {
		return BadgeResult{}, err
	}
	added, err := s.users.AddBadge(ctx, userID, badgeID)
	if err != nil {
		return BadgeResult{}, err
	}
	if !added {
		return BadgeResult{AlreadyAwarded: true}, nil
	}
	cache.Invalidate(ctx, s.opts.Cache, service.UserKey(userID))

	err = s.notifier.Deliver(ctx, userID, &domain.Notification{
		Type:  domain.NotificationAchievement,
		Title: "New Badge!",
		Body:  fmt.Sprintf("You earned the %s badge!", badgeName),
		Data:  map[string]string{"badge": badgeID},
	})
	if err != nil {
		return BadgeResult{}, err
	}
	return BadgeResult{}, nil
}
