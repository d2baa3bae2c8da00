package api

import (
	"net/http"

	"github.com/vietddude/campusconnect/internal/service/profile"
)

func (s *Server) profileRoutes() {
	s.mux.HandleFunc("GET /v1/me/profile", s.myProfile)
	s.mux.HandleFunc("PUT /v1/me/profile", s.saveProfile)
	s.mux.HandleFunc("PUT /v1/me/photo", s.uploadPhoto)
	s.mux.HandleFunc("GET /v1/users/{id}/profile", s.userProfile)
}

func (s *Server) myProfile(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.Profiles.Get(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, u)
}

func (s *Server) userProfile(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.Profiles.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, u)
}

func (s *Server) saveProfile(w http.ResponseWriter, r *http.Request) {
	var in profile.Input
	if err := decode(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.svc.Profiles.Save(r.Context(), userID(r), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, u)
}

func (s *Server) uploadPhoto(w http.ResponseWriter, r *http.Request) {
	url, err := s.svc.Profiles.UploadPhoto(r.Context(), userID(r), r.Header.Get("Content-Type"), r.Body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, map[string]string{"photoURL": url})
}
