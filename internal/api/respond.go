package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/vietddude/campusconnect/internal/infra/backend"
	"github.com/vietddude/campusconnect/internal/infra/retry"
	"github.com/vietddude/campusconnect/internal/service"
)

// User-facing messages for failures that survived the retry layer.
const (
	msgTimeout     = "The operation timed out. It may still complete in the background."
	msgUnavailable = "Connection failed. Please check your network and retry."
	msgNotFound    = "The requested item was not found."
	msgPermission  = "You don't have permission to do that."
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// statusFor maps a service error to an HTTP status and user-facing message.
func statusFor(err error) (int, errorBody) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, errorBody{Error: ve.Error(), Code: "invalid-argument"}
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, errorBody{Error: err.Error(), Code: "unauthenticated"}
	case errors.Is(err, retry.ErrTimeout):
		return http.StatusGatewayTimeout, errorBody{Error: msgTimeout, Code: "timeout"}
	case errors.Is(err, context.Canceled):
		// client went away; the status is never seen
		return 499, errorBody{Error: "request cancelled", Code: "cancelled"}
	}

	switch retry.Classify(err) {
	case retry.KindNotFound:
		return http.StatusNotFound, errorBody{Error: msgNotFound, Code: "not-found"}
	case retry.KindPermissionDenied:
		return http.StatusForbidden, errorBody{Error: msgPermission, Code: "permission-denied"}
	}
	if backend.ReasonOf(err) == backend.ReasonInvalidArgument {
		return http.StatusBadRequest, errorBody{Error: err.Error(), Code: "invalid-argument"}
	}
	return http.StatusServiceUnavailable, errorBody{Error: msgUnavailable, Code: "unavailable"}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, body := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("Request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	} else {
		s.log.Debug("Request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, v any) {
	writeJSON(w, http.StatusOK, v)
}

func success(w http.ResponseWriter) {
	ok(w, map[string]bool{"success": true})
}

// decode reads a JSON body into dst.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return service.Invalid("body", err.Error())
	}
	return nil
}

func userID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(UserHeader))
}

// list splits a comma-separated query parameter.
func list(r *http.Request, key string) []string {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
