package domain

import "time"

// Match links two users who expressed interest in each other
type Match struct {
	ID              string      `json:"id"`
	Users           []string    `json:"users"`
	Status          MatchStatus `json:"status"`
	InitiatedBy     string      `json:"initiatedBy"`
	CreatedAt       time.Time   `json:"createdAt"`
	LastInteraction time.Time   `json:"lastInteraction"`
}

type MatchStatus string

const (
	MatchPending  MatchStatus = "pending"
	MatchAccepted MatchStatus = "accepted"
	MatchRejected MatchStatus = "rejected"
)

// Other returns the participant that is not userID.
func (m *Match) Other(userID string) string {
	for _, u := range m.Users {
		if u != userID {
			return u
		}
	}
	return ""
}

// MatchSummary is a match as shown to one of its participants
type MatchSummary struct {
	MatchID         string    `json:"matchId"`
	UserID          string    `json:"userId"`
	DisplayName     string    `json:"displayName"`
	PhotoURL        string    `json:"photoURL,omitempty"`
	Branch          string    `json:"branch,omitempty"`
	Year            string    `json:"year,omitempty"`
	LastInteraction time.Time `json:"lastInteraction,omitzero"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Candidate is a recommended user returned by the matching functions
type Candidate struct {
	UserID      string   `json:"userId"`
	DisplayName string   `json:"displayName"`
	PhotoURL    string   `json:"photoURL,omitempty"`
	Branch      string   `json:"branch,omitempty"`
	Year        string   `json:"year,omitempty"`
	Skills      []string `json:"skills,omitempty"`
	Interests   []string `json:"interests,omitempty"`
	Score       float64  `json:"score"`
}

// MatchFilter is passed through to the matching functions
type MatchFilter struct {
	Branch    string   `json:"branch,omitempty"`
	Year      string   `json:"year,omitempty"`
	Skills    []string `json:"skills,omitempty"`
	Interests []string `json:"interests,omitempty"`
	Limit     int      `json:"limit,omitempty"`
}
