package domain

import "time"

// Event is a campus event
type Event struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Location        string     `json:"location"`
	StartTime       time.Time  `json:"startTime"`
	EndTime         time.Time  `json:"endTime"`
	Tags            []string   `json:"tags"`
	IsPublic        bool       `json:"isPublic"`
	MaxParticipants int        `json:"maxParticipants"`
	Organizer       string     `json:"organizer"`
	Attendees       []Attendee `json:"attendees"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// Attendee is a user's RSVP to an event
type Attendee struct {
	UserID string           `json:"userId"`
	Status AttendanceStatus `json:"status"`
}

type AttendanceStatus string

const (
	AttendanceYes   AttendanceStatus = "yes"
	AttendanceMaybe AttendanceStatus = "maybe"
	AttendanceNo    AttendanceStatus = "no"
)

// Valid reports whether s is a known status.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceYes, AttendanceMaybe, AttendanceNo:
		return true
	}
	return false
}

type Timeframe string

const (
	TimeframeAll      Timeframe = "all"
	TimeframeUpcoming Timeframe = "upcoming"
	TimeframePast     Timeframe = "past"
)

// EventFilter narrows an event listing
type EventFilter struct {
	Tags      []string
	Timeframe Timeframe
	Now       time.Time // reference time for upcoming/past
	Limit     int
}
