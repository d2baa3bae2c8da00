package api

import (
	"net/http"

	"github.com/vietddude/campusconnect/internal/core/domain"
)

func (s *Server) gamificationRoutes() {
	s.mux.HandleFunc("GET /v1/me/xp", s.getXP)
	s.mux.HandleFunc("POST /v1/me/xp", s.awardXP)
	s.mux.HandleFunc("GET /v1/me/badges", s.getBadges)
	s.mux.HandleFunc("POST /v1/me/badges", s.awardBadge)
	s.mux.HandleFunc("GET /v1/leaderboard", s.leaderboard)
	s.mux.HandleFunc("GET /v1/me/challenges", s.challenges)
	s.mux.HandleFunc("POST /v1/me/challenges/check", s.checkChallenges)
	s.mux.HandleFunc("POST /v1/me/challenges/{id}/complete", s.completeChallenge)
}

func (s *Server) getXP(w http.ResponseWriter, r *http.Request) {
	xp, err := s.svc.Gamification.XP(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, map[string]int{"xpPoints": xp, "level": domain.LevelForXP(xp)})
}

func (s *Server) awardXP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount int    `json:"amount"`
		Reason string `json:"reason"`
	}
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Gamification.AwardXP(r.Context(), userID(r), body.Amount, body.Reason)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, res)
}

func (s *Server) getBadges(w http.ResponseWriter, r *http.Request) {
	badges, err := s.svc.Gamification.Badges(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, badges)
}

func (s *Server) awardBadge(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BadgeID   string `json:"badgeId"`
		BadgeName string `json:"badgeName"`
	}
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Gamification.AwardBadge(r.Context(), userID(r), body.BadgeID, body.BadgeName)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, res)
}

func (s *Server) leaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	board, err := s.svc.Gamification.Leaderboard(r.Context(), userID(r),
		domain.LeaderboardTimeframe(q.Get("timeframe")),
		domain.LeaderboardScope(q.Get("scope")),
	)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, board)
}

func (s *Server) challenges(w http.ResponseWriter, r *http.Request) {
	challenges, err := s.svc.Gamification.Challenges(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, challenges)
}

func (s *Server) checkChallenges(w http.ResponseWriter, r *http.Request) {
	completed, err := s.svc.Gamification.CheckChallengeCompletion(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, map[string]any{"completedChallenges": completed})
}

func (s *Server) completeChallenge(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Gamification.CompleteChallenge(r.Context(), userID(r), r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	success(w)
}
