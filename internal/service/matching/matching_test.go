package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vietddude/campusconnect/internal/core/domain"
	"github.com/vietddude/campusconnect/internal/infra/backend"
	"github.com/vietddude/campusconnect/internal/infra/functions"
	"github.com/vietddude/campusconnect/internal/infra/storage"
	"github.com/vietddude/campusconnect/internal/service"
	"github.com/vietddude/campusconnect/internal/service/servicetest"
)

type stubMatcher struct {
	faults     *servicetest.Faults
	candidates []domain.Candidate
	targets    []string
}

func (m *stubMatcher) GenerateMatches(ctx context.Context, userID string, filter domain.MatchFilter) ([]domain.Candidate, error) {
	if err := m.faults.Next("GenerateMatches"); err != nil {
		return nil, err
	}
	return m.candidates, nil
}

func (m *stubMatcher) CreateMatch(ctx context.Context, userID, target string) (functions.MatchResult, error) {
	if err := m.faults.Next("CreateMatch"); err != nil {
		return functions.MatchResult{}, err
	}
	m.targets = append(m.targets, target)
	return functions.MatchResult{Status: "pending", MatchID: "m-" + target}, nil
}

func (m *stubMatcher) CreateSuperMatch(ctx context.Context, userID, target string) (functions.MatchResult, error) {
	if err := m.faults.Next("CreateSuperMatch"); err != nil {
		return functions.MatchResult{}, err
	}
	return functions.MatchResult{Status: "matched", MatchID: "m-" + target, ChatID: "c-" + target}, nil
}

func (m *stubMatcher) CompatibilityScore(ctx context.Context, userID, target string) (float64, error) {
	if err := m.faults.Next("CompatibilityScore"); err != nil {
		return 0, err
	}
	return 0.8, nil
}

func (m *stubMatcher) FilterMatches(ctx context.Context, userID string, filter domain.MatchFilter) ([]domain.Candidate, error) {
	if err := m.faults.Next("FilterMatches"); err != nil {
		return nil, err
	}
	var out []domain.Candidate
	for _, c := range m.candidates {
		if filter.Branch == "" || c.Branch == filter.Branch {
			out = append(out, c)
		}
	}
	return out, nil
}

func newTestService(t *testing.T) (*Service, *servicetest.Env, *stubMatcher) {
	t.Helper()
	env := servicetest.NewEnv()
	m := &stubMatcher{faults: &servicetest.Faults{}}
	return New(env.Store, m, env.Opts), env, m
}

func functionsErr(reason string) error {
	return backend.New("functions", reason, "call failed")
}

func TestRecommended_RetriesUnavailable(t *testing.T) {
	svc, _, m := newTestService(t)
	m.candidates = []domain.Candidate{{UserID: "u2", Score: 0.9}}
	m.faults.Fail("GenerateMatches", functionsErr(backend.ReasonUnavailable), functionsErr(backend.ReasonDeadlineExceeded))

	got, err := svc.Recommended(context.Background(), "u1", domain.MatchFilter{})
	if err != nil {
		t.Fatalf("Recommended: %v", err)
	}
	if len(got) != 1 || m.faults.Calls("GenerateMatches") != 3 {
		t.Errorf("got %v after %d calls", got, m.faults.Calls("GenerateMatches"))
	}
}

func TestRecommended_EmptyIsNotNil(t *testing.T) {
	svc, _, _ := newTestService(t)
	got, err := svc.Recommended(context.Background(), "u1", domain.MatchFilter{})
	if err != nil || got == nil {
		t.Errorf("Recommended = %v, %v", got, err)
	}
}

func TestSwipeRight_PermissionDeniedNotRetried(t *testing.T) {
	svc, _, m := newTestService(t)
	m.faults.Fail("CreateMatch", functionsErr(backend.ReasonPermissionDenied))

	_, err := svc.SwipeRight(context.Background(), "u1", "u2")
	if backend.ReasonOf(err) != backend.ReasonPermissionDenied {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if n := m.faults.Calls("CreateMatch"); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestSwipeRight_Validation(t *testing.T) {
	svc, _, m := newTestService(t)
	ctx := context.Background()
	if _, err := svc.SwipeRight(ctx, "u1", "u1"); !service.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := svc.SwipeRight(ctx, "u1", ""); !service.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := svc.SuperMatch(ctx, "", "u2"); !errors.Is(err, service.ErrUnauthenticated) {
		t.Errorf("expected unauthenticated, got %v", err)
	}
	if len(m.targets) != 0 {
		t.Error("matcher called for invalid input")
	}
}

func TestSwipeLeft_StoresRejection(t *testing.T) {
	svc, env, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.SwipeLeft(ctx, "u1", "u2")
	if err != nil || res.Status != "rejected" {
		t.Fatalf("SwipeLeft = %+v, %v", res, err)
	}
	rejected, _ := env.Store.Matches.ListByUser(ctx, "u2", domain.MatchRejected)
	if len(rejected) != 1 || rejected[0].InitiatedBy != "u1" {
		t.Errorf("rejected = %+v", rejected)
	}
}

func seedMatch(t *testing.T, env *servicetest.Env, id, from, to string, status domain.MatchStatus, age time.Duration) {
	t.Helper()
	at := servicetest.Now.Add(-age)
	err := env.Store.Matches.Create(context.Background(), &domain.Match{
		ID:              id,
		Users:           []string{from, to},
		Status:          status,
		InitiatedBy:     from,
		CreatedAt:       at,
		LastInteraction: at,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestMatchesAndPending(t *testing.T) {
	svc, env, _ := newTestService(t)
	ctx := context.Background()
	_ = env.Store.Users.SaveProfile(ctx, &domain.User{ID: "u2", DisplayName: "Bea", Branch: "ECE", Year: "2"})
	_ = env.Store.Users.SaveProfile(ctx, &domain.User{ID: "u3", DisplayName: "Cy"})

	seedMatch(t, env, "old", "u1", "u2", domain.MatchAccepted, 2*time.Hour)
	seedMatch(t, env, "new", "u3", "u1", domain.MatchAccepted, time.Hour)
	seedMatch(t, env, "incoming", "u2", "u1", domain.MatchPending, time.Minute)
	seedMatch(t, env, "outgoing", "u1", "u3", domain.MatchPending, time.Minute)

	matches, err := svc.Matches(ctx, "u1")
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	if len(matches) != 2 || matches[0].MatchID != "new" || matches[0].DisplayName != "Cy" {
		t.Fatalf("matches = %+v", matches)
	}
	if matches[1].UserID != "u2" || matches[1].Branch != "ECE" || matches[1].LastInteraction.IsZero() {
		t.Errorf("second match = %+v", matches[1])
	}

	pending, err := svc.PendingMatches(ctx, "u1")
	if err != nil {
		t.Fatalf("PendingMatches: %v", err)
	}
	if len(pending) != 1 || pending[0].MatchID != "incoming" || pending[0].UserID != "u2" {
		t.Errorf("pending = %+v", pending)
	}
}

func TestRespondToMatch_AcceptCreatesChat(t *testing.T) {
	svc, env, _ := newTestService(t)
	ctx := context.Background()
	seedMatch(t, env, "m1", "u2", "u1", domain.MatchPending, time.Hour)

	res, err := svc.RespondToMatch(ctx, "u1", "m1", domain.MatchAccepted)
	if err != nil {
		t.Fatalf("RespondToMatch: %v", err)
	}
	if res.Status != StatusMatched || res.ChatID == "" {
		t.Fatalf("result = %+v", res)
	}

	chat, err := env.Store.Chats.Get(ctx, res.ChatID)
	if err != nil {
		t.Fatal(err)
	}
	if chat.IsGroupChat || len(chat.Participants) != 2 || chat.LastMessage.Text != "You are now connected!" {
		t.Errorf("unexpected chat %+v", chat)
	}
	m, _ := env.Store.Matches.Get(ctx, "m1")
	if m.Status != domain.MatchAccepted || !m.LastInteraction.Equal(servicetest.Now) {
		t.Errorf("match = %+v", m)
	}
}

func TestRespondToMatch_Reject(t *testing.T) {
	svc, env, _ := newTestService(t)
	seedMatch(t, env, "m1", "u2", "u1", domain.MatchPending, time.Hour)

	res, err := svc.RespondToMatch(context.Background(), "u1", "m1", domain.MatchRejected)
	if err != nil || res.Status != "rejected" || res.ChatID != "" {
		t.Errorf("RespondToMatch = %+v, %v", res, err)
	}
}

func TestRespondToMatch_Errors(t *testing.T) {
	svc, env, _ := newTestService(t)
	ctx := context.Background()
	seedMatch(t, env, "m1", "u2", "u3", domain.MatchPending, time.Hour)

	if _, err := svc.RespondToMatch(ctx, "u1", "m1", domain.MatchAccepted); !errors.Is(err, storage.ErrPermissionDenied) {
		t.Errorf("expected permission denied, got %v", err)
	}
	if _, err := svc.RespondToMatch(ctx, "u1", "missing", domain.MatchAccepted); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if _, err := svc.RespondToMatch(ctx, "u2", "m1", domain.MatchPending); !service.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCompatibilityAndFilter(t *testing.T) {
	svc, _, m := newTestService(t)
	ctx := context.Background()
	m.candidates = []domain.Candidate{{UserID: "u2", Branch: "CSE"}, {UserID: "u3", Branch: "ECE"}}

	score, err := svc.CompatibilityScore(ctx, "u1", "u2")
	if err != nil || score != 0.8 {
		t.Errorf("CompatibilityScore = %v, %v", score, err)
	}

	got, err := svc.FilterMatches(ctx, "u1", domain.MatchFilter{Branch: "ECE"})
	if err != nil || len(got) != 1 || got[0].UserID != "u3" {
		t.Errorf("FilterMatches = %+v, %v", got, err)
	}

	m.faults.Fail("FilterMatches", servicetest.Repeat(functionsErr(backend.ReasonUnavailable), 3)...)
	if _, err := svc.FilterMatches(ctx, "u1", domain.MatchFilter{}); backend.ReasonOf(err) != backend.ReasonUnavailable {
		t.Errorf("expected exhaustion with unavailable, got %v", err)
	}
}
