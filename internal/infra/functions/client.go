// Package functions calls the matching functions deployed as HTTPS callables.
//
// A call POSTs {"data": <payload>} to <base>/<name> and expects either
// {"result": <value>} or {"error": {"status": "UNAVAILABLE", "message": "..."}}.
package functions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/vietddude/campusconnect/internal/core/domain"
	"github.com/vietddude/campusconnect/internal/infra/backend"
)

const source = "functions"

// Config holds the callable endpoint configuration.
type Config struct {
	URL     string        `yaml:"url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// Client invokes callable functions on behalf of a user.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a callable functions client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type callError struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type callResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *callError      `json:"error"`
}

// invoke calls the named function with data and decodes the result into out.
func (c *Client) invoke(ctx context.Context, userID, name string, data, out any) error {
	reqBody, err := json.Marshal(map[string]any{"data": data})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+name, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", userID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(err)
	}

	var parsed callResponse
	_ = json.Unmarshal(body, &parsed)

	if parsed.Error != nil {
		return &backend.Error{
			Source:  source,
			Reason:  reasonForStatus(parsed.Error.Status, resp.StatusCode),
			Message: fmt.Sprintf("%s: %s", name, parsed.Error.Message),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return &backend.Error{
			Source:  source,
			Reason:  reasonForStatus("", resp.StatusCode),
			Message: fmt.Sprintf("%s: http %d: %s", name, resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	if out == nil || len(parsed.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(parsed.Result, out); err != nil {
		return backend.Wrap(source, backend.ReasonInternal, fmt.Errorf("%s: parse result: %w", name, err))
	}
	return nil
}

var statusReasons = map[string]string{
	"UNAVAILABLE":        backend.ReasonUnavailable,
	"DEADLINE_EXCEEDED":  backend.ReasonDeadlineExceeded,
	"CANCELLED":          backend.ReasonCancelled,
	"PERMISSION_DENIED":  backend.ReasonPermissionDenied,
	"UNAUTHENTICATED":    backend.ReasonPermissionDenied,
	"NOT_FOUND":          backend.ReasonNotFound,
	"ALREADY_EXISTS":     backend.ReasonAlreadyExists,
	"INVALID_ARGUMENT":   backend.ReasonInvalidArgument,
	"RESOURCE_EXHAUSTED": backend.ReasonResourceExhausted,
}

// reasonForStatus prefers the callable status, falling back to the HTTP code.
func reasonForStatus(status string, httpStatus int) string {
	if r, ok := statusReasons[strings.ToUpper(status)]; ok {
		return r
	}
	switch httpStatus {
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		return backend.ReasonUnavailable
	case http.StatusGatewayTimeout:
		return backend.ReasonDeadlineExceeded
	case http.StatusRequestTimeout:
		return backend.ReasonTimeout
	case http.StatusUnauthorized, http.StatusForbidden:
		return backend.ReasonPermissionDenied
	case http.StatusNotFound:
		return backend.ReasonNotFound
	case http.StatusBadRequest:
		return backend.ReasonInvalidArgument
	case http.StatusTooManyRequests:
		return backend.ReasonResourceExhausted
	}
	return backend.ReasonInternal
}

func transportError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return backend.Wrap(source, backend.ReasonDeadlineExceeded, err)
	case errors.Is(err, context.Canceled):
		return backend.Wrap(source, backend.ReasonCancelled, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return backend.Wrap(source, backend.ReasonTimeout, err)
	}
	// connection refused, DNS failure and similar
	return backend.Wrap(source, backend.ReasonUnavailable, err)
}

// MatchResult is returned by createMatch and createSuperMatch.
type MatchResult struct {
	Status  string `json:"status"`
	MatchID string `json:"matchId,omitempty"`
	ChatID  string `json:"chatId,omitempty"`
}

type targetRequest struct {
	TargetUserID string `json:"targetUserId"`
}

// GenerateMatches returns recommended users for userID.
func (c *Client) GenerateMatches(ctx context.Context, userID string, filter domain.MatchFilter) ([]domain.Candidate, error) {
	var res struct {
		Matches []domain.Candidate `json:"matches"`
	}
	if err := c.invoke(ctx, userID, "generateMatches", filter, &res); err != nil {
		return nil, err
	}
	return res.Matches, nil
}

// CreateMatch records interest in target (swipe right).
func (c *Client) CreateMatch(ctx context.Context, userID, target string) (MatchResult, error) {
	var res MatchResult
	err := c.invoke(ctx, userID, "createMatch", targetRequest{TargetUserID: target}, &res)
	return res, err
}

// CreateSuperMatch records high-priority interest in target.
func (c *Client) CreateSuperMatch(ctx context.Context, userID, target string) (MatchResult, error) {
	var res MatchResult
	err := c.invoke(ctx, userID, "createSuperMatch", targetRequest{TargetUserID: target}, &res)
	return res, err
}

// CompatibilityScore returns the score between userID and target.
func (c *Client) CompatibilityScore(ctx context.Context, userID, target string) (float64, error) {
	var res struct {
		Score float64 `json:"compatibilityScore"`
	}
	if err := c.invoke(ctx, userID, "getCompatibilityScore", targetRequest{TargetUserID: target}, &res); err != nil {
		return 0, err
	}
	return res.Score, nil
}

// FilterMatches returns candidates matching filter.
func (c *Client) FilterMatches(ctx context.Context, userID string, filter domain.MatchFilter) ([]domain.Candidate, error) {
	var res struct {
		Matches []domain.Candidate `json:"matches"`
	}
	if err := c.invoke(ctx, userID, "filterMatches", filter, &res); err != nil {
		return nil, err
	}
	return res.Matches, nil
}
