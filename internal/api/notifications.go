package api

import (
	"net/http"

	"github.com/vietddude/campusconnect/internal/core/domain"
	"github.com/vietddude/campusconnect/internal/service"
)

func (s *Server) notificationRoutes() {
	s.mux.HandleFunc("GET /v1/me/notifications", s.listNotifications)
	s.mux.HandleFunc("POST /v1/me/notifications/{id}/read", s.markRead)
	s.mux.HandleFunc("PUT /v1/me/push-token", s.registerPushToken)
	s.mux.HandleFunc("POST /v1/users/{id}/notifications", s.sendNotification)
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	ok(w, s.svc.Notifications.List(r.Context(), userID(r)))
}

// markRead always succeeds; failures are logged by the service.
func (s *Server) markRead(w http.ResponseWriter, r *http.Request) {
	s.svc.Notifications.MarkRead(r.Context(), userID(r), r.PathValue("id"))
	success(w)
}

func (s *Server) registerPushToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.Notifications.RegisterPushToken(r.Context(), userID(r), body.Token); err != nil {
		s.fail(w, r, err)
		return
	}
	success(w)
}

func (s *Server) sendNotification(w http.ResponseWriter, r *http.Request) {
	if err := service.RequireUser(userID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	var n domain.Notification
	if err := decode(r, &n); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.Notifications.Send(r.Context(), r.PathValue("id"), &n); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"notificationId": n.ID})
}
