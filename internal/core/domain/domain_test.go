package domain

import (
	"testing"
	"time"
)

func TestLevelForXP(t *testing.T) {
	tests := []struct {
		xp    int
		level int
	}{
		{-5, 1},
		{0, 1},
		{99, 1},
		{100, 2},
		{110, 2},
		{250, 3},
	}
	for _, tt := range tests {
		if got := LevelForXP(tt.xp); got != tt.level {
			t.Errorf("LevelForXP(%d) = %d, want %d", tt.xp, got, tt.level)
		}
	}
}

func TestLeaderboardTimeframe_Since(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	if got := LeaderboardWeekly.Since(now); !got.Equal(now.AddDate(0, 0, -7)) {
		t.Errorf("weekly since = %v", got)
	}
	if got := LeaderboardMonthly.Since(now); !got.Equal(time.Date(2025, 5, 2, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("monthly since = %v", got)
	}
	if got := LeaderboardAll.Since(now); !got.IsZero() {
		t.Errorf("all since = %v, want zero", got)
	}
}

func TestUser_ProfileCompletion(t *testing.T) {
	u := &User{DisplayName: "Ada", Branch: "CSE", Skills: []string{"go"}}
	if got := u.ProfileCompletion(); got != 3 {
		t.Errorf("completion = %d, want 3", got)
	}

	full := &User{
		DisplayName: "Ada", PhotoURL: "p", Branch: "CSE", Year: "3", Bio: "hi",
		Skills: []string{"go"}, Interests: []string{"chess"},
	}
	if got := full.ProfileCompletion(); got != ProfileFieldCount {
		t.Errorf("completion = %d, want %d", got, ProfileFieldCount)
	}
}

func TestAttendanceStatus_Valid(t *testing.T) {
	for _, s := range []AttendanceStatus{AttendanceYes, AttendanceMaybe, AttendanceNo} {
		if !s.Valid() {
			t.Errorf("%q rejected", s)
		}
	}
	if AttendanceStatus("going").Valid() {
		t.Error("unknown status accepted")
	}
}

func TestMatch_Other(t *testing.T) {
	m := &Match{Users: []string{"u1", "u2"}}
	if m.Other("u1") != "u2" || m.Other("u2") != "u1" {
		t.Errorf("Other = %q / %q", m.Other("u1"), m.Other("u2"))
	}
}
