package domain

import (
	"fmt"
	"time"
)

// Challenge is a goal that awards XP (and optionally a badge) when reached
type Challenge struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Type        ChallengeType `json:"type"`
	Target      int           `json:"target"`
	XPReward    int           `json:"xpReward"`
	BadgeReward string        `json:"badgeReward,omitempty"`
	BadgeName   string        `json:"badgeName,omitempty"`
	IsActive    bool          `json:"isActive"`
}

type ChallengeType string

const (
	ChallengeMatches ChallengeType = "matches"
	ChallengeGroups  ChallengeType = "groups"
	ChallengeProfile ChallengeType = "profile"
)

// ChallengeProgress is a challenge with the user's current progress
type ChallengeProgress struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Reward      string `json:"reward"`
	Progress    int    `json:"progress"`
	Total       int    `json:"total"`
}

// Done reports whether the target is reached.
func (p ChallengeProgress) Done() bool {
	return p.Progress >= p.Total
}

// RewardLabel formats the XP reward shown to users.
func RewardLabel(xp int) string {
	return fmt.Sprintf("%d XP", xp)
}

// CompletedChallenge records a challenge reward already granted
type CompletedChallenge struct {
	UserID       string    `json:"userId"`
	ChallengeID  string    `json:"challengeId"`
	XPAwarded    int       `json:"xpAwarded"`
	BadgeAwarded string    `json:"badgeAwarded,omitempty"`
	CompletedAt  time.Time `json:"completedAt"`
}

// LeaderboardEntry is one ranked user
type LeaderboardEntry struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL,omitempty"`
	XPPoints    int    `json:"xpPoints"`
	Branch      string `json:"branch,omitempty"`
}

// Leaderboard is the ranked list plus the caller's rank (0 when unranked)
type Leaderboard struct {
	Entries  []LeaderboardEntry `json:"leaderboard"`
	UserRank int                `json:"userRank"`
}

type LeaderboardTimeframe string

const (
	LeaderboardWeekly  LeaderboardTimeframe = "weekly"
	LeaderboardMonthly LeaderboardTimeframe = "monthly"
	LeaderboardAll     LeaderboardTimeframe = "all"
)

type LeaderboardScope string

const (
	ScopeCollege LeaderboardScope = "college"
	ScopeFriends LeaderboardScope = "friends"
)

// Since returns the lower bound on account creation for the timeframe, or zero for all.
func (tf LeaderboardTimeframe) Since(now time.Time) time.Time {
	switch tf {
	case LeaderboardWeekly:
		return now.AddDate(0, 0, -7)
	case LeaderboardMonthly:
		return now.AddDate(0, -1, 0)
	}
	return time.Time{}
}

// LeaderboardQuery selects users for ranking
type LeaderboardQuery struct {
	Since   time.Time // zero means no lower bound on CreatedAt
	UserIDs []string  // nil means everyone
	Limit   int
}
