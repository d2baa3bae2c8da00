package api

import (
	"net/http"

	"github.com/vietddude/campusconnect/internal/core/domain"
	"github.com/vietddude/campusconnect/internal/infra/storage"
	"github.com/vietddude/campusconnect/internal/service/group"
)

func (s *Server) groupRoutes() {
	s.mux.HandleFunc("GET /v1/groups", s.listGroups)
	s.mux.HandleFunc("POST /v1/groups", s.createGroup)
	s.mux.HandleFunc("GET /v1/groups/search", s.searchGroups)
	s.mux.HandleFunc("GET /v1/me/groups", s.userGroups)
	s.mux.HandleFunc("GET /v1/groups/{id}", s.getGroup)
	s.mux.HandleFunc("PATCH /v1/groups/{id}", s.updateGroup)
	s.mux.HandleFunc("POST /v1/groups/{id}/join", s.joinGroup)
	s.mux.HandleFunc("POST /v1/groups/{id}/leave", s.leaveGroup)
	s.mux.HandleFunc("GET /v1/groups/{id}/members", s.groupMembers)
	s.mux.HandleFunc("PUT /v1/groups/{id}/cover", s.uploadCover)
	s.mux.HandleFunc("GET /v1/groups/{id}/chat", s.groupChat)
	s.mux.HandleFunc("POST /v1/groups/{id}/chat", s.createGroupChat)
}

func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.svc.Groups.List(r.Context(), domain.GroupFilter{
		Type: r.URL.Query().Get("type"),
		Tags: list(r, "tags"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, groups)
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	var in group.CreateInput
	if err := decode(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	id, err := s.svc.Groups.Create(r.Context(), userID(r), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"groupId": id})
}

func (s *Server) searchGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.svc.Groups.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, groups)
}

func (s *Server) userGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.svc.Groups.UserGroups(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, groups)
}

func (s *Server) getGroup(w http.ResponseWriter, r *http.Request) {
	g, err := s.svc.Groups.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, g)
}

func (s *Server) updateGroup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        *string  `json:"name"`
		Description *string  `json:"description"`
		Type        *string  `json:"type"`
		Tags        []string `json:"tags"`
	}
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	err := s.svc.Groups.Update(r.Context(), r.PathValue("id"), userID(r), storage.GroupUpdate{
		Name:        body.Name,
		Description: body.Description,
		Type:        body.Type,
		Tags:        body.Tags,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	success(w)
}

func (s *Server) joinGroup(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Groups.Join(r.Context(), r.PathValue("id"), userID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	success(w)
}

func (s *Server) leaveGroup(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Groups.Leave(r.Context(), r.PathValue("id"), userID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	success(w)
}

func (s *Server) groupMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.svc.Groups.Members(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, members)
}

func (s *Server) uploadCover(w http.ResponseWriter, r *http.Request) {
	url, err := s.svc.Groups.UploadCover(r.Context(), r.PathValue("id"), r.Header.Get("Content-Type"), r.Body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, map[string]string{"coverURL": url})
}

func (s *Server) groupChat(w http.ResponseWriter, r *http.Request) {
	id, err := s.svc.Groups.GroupChat(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, map[string]string{"chatId": id})
}

func (s *Server) createGroupChat(w http.ResponseWriter, r *http.Request) {
	id, err := s.svc.Groups.CreateGroupChat(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"chatId": id})
}
