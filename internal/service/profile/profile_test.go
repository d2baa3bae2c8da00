package profile

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/vietddude/campusconnect/internal/core/domain"
	"github.com/vietddude/campusconnect/internal/infra/backend"
	"github.com/vietddude/campusconnect/internal/infra/blob"
	"github.com/vietddude/campusconnect/internal/infra/storage"
	"github.com/vietddude/campusconnect/internal/service"
	"github.com/vietddude/campusconnect/internal/service/servicetest"
)

type recordingBlobs struct {
	faults *servicetest.Faults
	puts   map[string]string
}

func (b *recordingBlobs) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if err := b.faults.Next("Put"); err != nil {
		return "", err
	}
	b.puts[key] = string(data)
	return "https://cdn.example/" + key, nil
}

var _ blob.Store = (*recordingBlobs)(nil)

func newTestService(t *testing.T) (*Service, *servicetest.Env, *recordingBlobs) {
	t.Helper()
	env := servicetest.NewEnv()
	b := &recordingBlobs{faults: &servicetest.Faults{}, puts: map[string]string{}}
	return New(env.Store, b, env.Opts), env, b
}

func TestSave_KeepsGamificationState(t *testing.T) {
	svc, env, _ := newTestService(t)
	ctx := context.Background()
	_ = env.Store.Users.Ensure(ctx, "u1")
	_, _ = env.Store.Users.AddXP(ctx, "u1", 120)
	_, _ = env.Store.Users.AddBadge(ctx, "u1", "level_2")

	u, err := svc.Save(ctx, "u1", Input{
		DisplayName: " Ada ",
		Branch:      "CSE",
		Skills:      []string{"go", " go", "", "sql"},
		Interests:   []string{"chess"},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if u.DisplayName != "Ada" || u.XPPoints != 120 || !u.HasBadge("level_2") {
		t.Errorf("unexpected profile %+v", u)
	}
	if len(u.Skills) != 2 || u.Skills[0] != "go" || u.Skills[1] != "sql" {
		t.Errorf("skills = %v", u.Skills)
	}
}

func TestSave_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.Save(context.Background(), "u1", Input{}); !service.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := svc.Save(context.Background(), "", Input{DisplayName: "x"}); !errors.Is(err, service.ErrUnauthenticated) {
		t.Errorf("expected unauthenticated, got %v", err)
	}
}

func TestGet(t *testing.T) {
	svc, env, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Get(ctx, "u1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	_ = env.Store.Users.SaveProfile(ctx, &domain.User{ID: "u1", DisplayName: "Ada"})
	u, err := svc.Get(ctx, "u1")
	if err != nil || u.DisplayName != "Ada" {
		t.Errorf("Get = %+v, %v", u, err)
	}
}

func TestUploadPhoto(t *testing.T) {
	svc, _, b := newTestService(t)
	ctx := context.Background()
	b.faults.Fail("Put", backend.New("s3", backend.ReasonUnavailable, "slow down"))

	url, err := svc.UploadPhoto(ctx, "u1", "", strings.NewReader("png"))
	if err != nil {
		t.Fatalf("UploadPhoto: %v", err)
	}
	if url != "https://cdn.example/users/u1/profile.jpg" || b.puts["users/u1/profile.jpg"] != "png" {
		t.Errorf("url = %q, puts = %v", url, b.puts)
	}

	u, err := svc.Get(ctx, "u1")
	if err != nil || u.PhotoURL != url {
		t.Errorf("profile after upload = %+v, %v", u, err)
	}

	// saving the profile afterwards keeps the photo
	u, err = svc.Save(ctx, "u1", Input{DisplayName: "Ada"})
	if err != nil || u.PhotoURL != url {
		t.Errorf("profile after save = %+v, %v", u, err)
	}

	if _, err := svc.UploadPhoto(ctx, "u1", "", strings.NewReader("")); !service.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}
