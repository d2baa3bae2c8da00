package domain

import "time"

// Group is a study or interest group
type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Tags        []string  `json:"tags"`
	Members     []Member  `json:"members"`
	CreatedBy   string    `json:"createdBy"`
	CoverURL    string    `json:"coverURL,omitempty"`
	ChatID      string    `json:"chatId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Member is a user's membership in a group
type Member struct {
	UserID string     `json:"userId"`
	Role   MemberRole `json:"role"`
}

type MemberRole string

const (
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
)

// HasMember reports whether userID belongs to the group.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// GroupFilter narrows a group listing
type GroupFilter struct {
	Type  string
	Tags  []string
	Limit int
}

// MemberProfile is a member joined with the public part of their profile
type MemberProfile struct {
	UserID      string     `json:"userId"`
	Role        MemberRole `json:"role"`
	DisplayName string     `json:"displayName"`
	PhotoURL    string     `json:"photoURL,omitempty"`
	Branch      string     `json:"branch"`
	Year        string     `json:"year"`
}
