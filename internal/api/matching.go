package api

import (
	"net/http"
	"strconv"

	"github.com/vietddude/campusconnect/internal/core/domain"
)

func (s *Server) matchingRoutes() {
	s.mux.HandleFunc("GET /v1/me/recommendations", s.recommended)
	s.mux.HandleFunc("POST /v1/me/recommendations/filter", s.filterMatches)
	s.mux.HandleFunc("GET /v1/me/matches", s.matches)
	s.mux.HandleFunc("GET /v1/me/matches/pending", s.pendingMatches)
	s.mux.HandleFunc("POST /v1/users/{id}/swipe-right", s.swipeRight)
	s.mux.HandleFunc("POST /v1/users/{id}/swipe-left", s.swipeLeft)
	s.mux.HandleFunc("POST /v1/users/{id}/super-match", s.superMatch)
	s.mux.HandleFunc("GET /v1/users/{id}/compatibility", s.compatibility)
	s.mux.HandleFunc("POST /v1/matches/{id}/respond", s.respondToMatch)
}

func matchFilter(r *http.Request) domain.MatchFilter {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	return domain.MatchFilter{
		Branch:    q.Get("branch"),
		Year:      q.Get("year"),
		Skills:    list(r, "skills"),
		Interests: list(r, "interests"),
		Limit:     limit,
	}
}

func (s *Server) recommended(w http.ResponseWriter, r *http.Request) {
	candidates, err := s.svc.Matching.Recommended(r.Context(), userID(r), matchFilter(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, candidates)
}

func (s *Server) filterMatches(w http.ResponseWriter, r *http.Request) {
	var filter domain.MatchFilter
	if err := decode(r, &filter); err != nil {
		s.fail(w, r, err)
		return
	}
	candidates, err := s.svc.Matching.FilterMatches(r.Context(), userID(r), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, candidates)
}

func (s *Server) matches(w http.ResponseWriter, r *http.Request) {
	matches, err := s.svc.Matching.Matches(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, matches)
}

func (s *Server) pendingMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := s.svc.Matching.PendingMatches(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, matches)
}

func (s *Server) swipeRight(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Matching.SwipeRight(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, res)
}

func (s *Server) swipeLeft(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Matching.SwipeLeft(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, res)
}

func (s *Server) superMatch(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Matching.SuperMatch(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, res)
}

func (s *Server) compatibility(w http.ResponseWriter, r *http.Request) {
	score, err := s.svc.Matching.CompatibilityScore(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, map[string]float64{"compatibilityScore": score})
}

func (s *Server) respondToMatch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Response domain.MatchStatus `json:"response"`
	}
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Matching.RespondToMatch(r.Context(), userID(r), r.PathValue("id"), body.Response)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, res)
}
