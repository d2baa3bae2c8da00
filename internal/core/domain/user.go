package domain

import "time"

// XPPerLevel is the amount of XP between two levels.
const XPPerLevel = 100

// User is a student profile plus gamification state
type User struct {
	ID             string     `json:"id"`
	Email          string     `json:"email,omitempty"`
	DisplayName    string     `json:"displayName"`
	PhotoURL       string     `json:"photoURL,omitempty"`
	Branch         string     `json:"branch,omitempty"`
	Year           string     `json:"year,omitempty"`
	Bio            string     `json:"bio,omitempty"`
	Skills         []string   `json:"skills,omitempty"`
	Interests      []string   `json:"interests,omitempty"`
	XPPoints       int        `json:"xpPoints"`
	Badges         []string   `json:"badges"`
	FCMToken       string     `json:"-"`
	TokenUpdatedAt *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Level returns the user's level derived from XP.
func (u *User) Level() int {
	return LevelForXP(u.XPPoints)
}

// HasBadge reports whether the badge was already awarded.
func (u *User) HasBadge(badgeID string) bool {
	for _, b := range u.Badges {
		if b == badgeID {
			return true
		}
	}
	return false
}

// ProfileCompletion counts the filled profile fields.
func (u *User) ProfileCompletion() int {
	n := 0
	for _, s := range []string{u.DisplayName, u.PhotoURL, u.Branch, u.Year, u.Bio} {
		if s != "" {
			n++
		}
	}
	if len(u.Skills) > 0 {
		n++
	}
	if len(u.Interests) > 0 {
		n++
	}
	return n
}

// ProfileFieldCount is the number of fields counted by ProfileCompletion.
const ProfileFieldCount = 7

// LevelForXP returns floor(xp/100)+1.
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerLevel + 1
}
