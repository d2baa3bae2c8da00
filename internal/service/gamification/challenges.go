package gamification

import (
	"context"
	"fmt"

	"github.com/vietddude/campusconnect/internal/core/domain"
	"github.com/vietddude/campusconnect/internal/infra/retry"
	"github.com/vietddude/campusconnect/internal/service"
)

// Challenges returns every active challenge with the user's progress.
func (s *Service) Challenges(ctx context.Context, userID string) ([]domain.ChallengeProgress, error) {
	if err := service.RequireUser(userID); err != nil {
		return nil, err
	}
	return retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, forceRefresh bool) ([]domain.ChallengeProgress, error) {
		return s.progress(ctx, userID, forceRefresh)
	}, 5, "getChallenges")
}

func (s *Service) progress(ctx context.Context, userID string, forceRefresh bool) ([]domain.ChallengeProgress, error) {
	u, err := s.user(ctx, userID, forceRefresh)
	if err != nil {
		return nil, err
	}
	active, err := s.challenges.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ChallengeProgress, 0, len(active))
	for _, c := range active {
		var progress int
		switch c.Type {
		case domain.ChallengeMatches:
			progress, err = s.matches.CountAccepted(ctx, userID)
		case domain.ChallengeGroups:
			progress, err = s.groups.CountByMember(ctx, userID, domain.RoleMember)
		case domain.ChallengeProfile:
			progress = u.ProfileCompletion()
		}
		if err != nil {
			return nil, err
		}
		out = append(out, domain.ChallengeProgress{
			ID:          c.ID,
			Title:       c.Title,
			Description: c.Description,
			Reward:      domain.RewardLabel(c.XPReward),
			Progress:    progress,
			Total:       c.Target,
		})
	}
	return out, nil
}

// CompleteChallenge grants a challenge's XP and badge and records the completion.
func (s *Service) CompleteChallenge(ctx context.Context, userID, challengeID string) error {
	if err := service.RequireUser(userID); err != nil {
		return err
	}
	steps := &rewardSteps{}
	_, err := retry.DoWithPolicy(ctx, s.opts.Retry, service.Exec(func(ctx context.Context) error {
		return s.complete(ctx, userID, challengeID, steps)
	}), 3, "completeChallenge")
	return err
}

// rewardSteps records which parts of a completion already succeeded, so a
// retried attempt does not grant them again.
type rewardSteps struct {
	xp, badge bool
}

func (s *Service) complete(ctx context.Context, userID, challengeID string, steps *rewardSteps) error {
	c, err := s.challenges.Get(ctx, challengeID)
	if err != nil {
		return err
	}
	if !steps.xp {
		if _, err := s.awardXP(ctx, userID, c.XPReward, fmt.Sprintf("Completed challenge: %s", c.Title)); err != nil {
			return err
		}
		steps.xp = true
	}
	if c.BadgeReward != "" && !steps.badge {
		if _, err := s.awardBadge(ctx, userID, c.BadgeReward, c.BadgeName); err != nil {
			return err
		}
		steps.badge = true
	}
	return s.challenges.RecordCompletion(ctx, &domain.CompletedChallenge{
		UserID:       userID,
		ChallengeID:  c.ID,
		XPAwarded:    c.XPReward,
		BadgeAwarded: c.BadgeReward,
		CompletedAt:  s.opts.Now(),
	})
}

// CheckChallengeCompletion completes every reached challenge not yet rewarded
// and returns the newly completed ones, including those completed by an
// earlier attempt of the same call.
func (s *Service) CheckChallengeCompletion(ctx context.Context, userID string) ([]domain.ChallengeProgress, error) {
	if err := service.RequireUser(userID); err != nil {
		return nil, err
	}
	var completed []domain.ChallengeProgress
	recorded := make(map[string]bool)
	steps := make(map[string]*rewardSteps)
	_, err := retry.DoWithPolicy(ctx, s.opts.Retry, func(ctx context.Context, forceRefresh bool) (struct{}, error) {
		all, err := s.progress(ctx, userID, forceRefresh)
		if err != nil {
			return struct{}{}, err
		}
		for _, c := range all {
			if !c.Done() || recorded[c.ID] {
				continue
			}
			done, err := s.challenges.IsCompleted(ctx, userID, c.ID)
			if err != nil {
				return struct{}{}, err
			}
			if done {
				continue
			}
			if steps[c.ID] == nil {
				steps[c.ID] = &rewardSteps{}
			}
			if err := s.complete(ctx, userID, c.ID, steps[c.ID]); err != nil {
				return struct{}{}, err
			}
			recorded[c.ID] = true
			completed = append(completed, c)
		}
		return struct{}{}, nil
	}, 5, "checkChallengeCompletion")
	if err != nil {
		return nil, err
	}
	if completed == nil {
		completed = []domain.ChallengeProgress{}
	}
	return completed, nil
}
