package api

import (
	"net/http"
	"time"

	"github.com/vietddude/campusconnect/internal/core/domain"
	"github.com/vietddude/campusconnect/internal/service"
	"github.com/vietddude/campusconnect/internal/service/event"
)

func (s *Server) eventRoutes(dev bool) {
	s.mux.HandleFunc("GET /v1/events", s.listEvents)
	s.mux.HandleFunc("POST /v1/events", s.createEvent)
	s.mux.HandleFunc("GET /v1/events/{id}", s.getEvent)
	s.mux.HandleFunc("PUT /v1/events/{id}/attendance", s.setAttendance)
	if dev {
		s.mux.HandleFunc("POST /v1/dev/test-events", s.seedTestEvents)
		s.mux.HandleFunc("DELETE /v1/dev/test-events", s.deleteTestEvents)
	}
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.svc.Events.List(r.Context(), list(r, "tags"), domain.Timeframe(r.URL.Query().Get("timeframe")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, events)
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := s.svc.Events.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, ev)
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	var in event.CreateInput
	if err := decode(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	id, err := s.svc.Events.CreateEvent(r.Context(), userID(r), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"eventId": id})
}

func (s *Server) setAttendance(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status domain.AttendanceStatus `json:"status"`
	}
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.Events.SetAttendance(r.Context(), r.PathValue("id"), userID(r), body.Status); err != nil {
		s.fail(w, r, err)
		return
	}
	success(w)
}

func (s *Server) seedTestEvents(w http.ResponseWriter, r *http.Request) {
	base := time.Now().UTC()
	if raw := r.URL.Query().Get("base"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			s.fail(w, r, service.Invalid("base", "not RFC3339"))
			return
		}
		base = t
	}
	ids, err := s.svc.Events.SeedTestEvents(r.Context(), userID(r), base)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string][]string{"eventIds": ids})
}

func (s *Server) deleteTestEvents(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Events.DeleteTestEvents(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, map[string]int{"deletedCount": n})
}
