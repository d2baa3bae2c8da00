//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/vietddude/campusconnect/internal/core/domain"
	"github.com/vietddude/campusconnect/internal/infra/storage"
)

func startPostgres(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "campus",
			"POSTGRES_USER":     "campus",
			"POSTGRES_PASSWORD": "campus",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(time.Minute),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatal(err)
	}

	url := fmt.Sprintf("postgres://campus:campus@%s:%s/campus?sslmode=disable", host, port.Port())
	db, err := NewDB(ctx, Config{URL: url})
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func TestIntegration_Store(t *testing.T) {
	db := startPostgres(t)
	store := NewStore(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	if err := store.Prober.Probe(ctx); err != nil {
		t.Fatalf("Probe: %v", err)
	}

	t.Run("users", func(t *testing.T) {
		if err := store.Users.SaveProfile(ctx, &domain.User{ID: "u1", DisplayName: "Ada", Skills: []string{"go"}}); err != nil {
			t.Fatal(err)
		}
		if err := store.Users.Ensure(ctx, "u2"); err != nil {
			t.Fatal(err)
		}
		total, err := store.Users.AddXP(ctx, "u1", 150)
		if err != nil || total != 150 {
			t.Fatalf("AddXP = %d, %v", total, err)
		}
		added, err := store.Users.AddBadge(ctx, "u1", "level_2")
		if err != nil || !added {
			t.Fatalf("AddBadge = %v, %v", added, err)
		}
		added, _ = store.Users.AddBadge(ctx, "u1", "level_2")
		if added {
			t.Error("badge added twice")
		}
		if _, err := store.Users.AddBadge(ctx, "ghost", "x"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("AddBadge on missing user: %v", err)
		}

		u, err := store.Users.Get(ctx, "u1")
		if err != nil {
			t.Fatal(err)
		}
		if u.DisplayName != "Ada" || len(u.Skills) != 1 || !u.HasBadge("level_2") {
			t.Errorf("unexpected user %+v", u)
		}

		ranked, err := store.Users.Ranked(ctx, domain.LeaderboardQuery{Limit: 10})
		if err != nil || len(ranked) != 2 || ranked[0].ID != "u1" {
			t.Fatalf("Ranked = %v, %v", ranked, err)
		}
		above, err := store.Users.CountAbove(ctx, domain.LeaderboardQuery{UserIDs: []string{"u1", "u2"}}, 0)
		if err != nil || above != 1 {
			t.Errorf("CountAbove = %d, %v", above, err)
		}
	})

	t.Run("events", func(t *testing.T) {
		e := &domain.Event{
			ID:        "e1",
			Title:     "Hackathon",
			StartTime: now.Add(time.Hour),
			EndTime:   now.Add(2 * time.Hour),
			Tags:      []string{"tech"},
			Organizer: "u1",
			Attendees: []domain.Attendee{{UserID: "u1", Status: domain.AttendanceYes}},
			CreatedAt: now,
		}
		if err := store.Events.Create(ctx, e); err != nil {
			t.Fatal(err)
		}
		if err := store.Events.SetAttendance(ctx, "e1", "u2", domain.AttendanceMaybe); err != nil {
			t.Fatal(err)
		}
		if err := store.Events.SetAttendance(ctx, "missing", "u2", domain.AttendanceYes); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("SetAttendance on missing event: %v", err)
		}

		events, err := store.Events.List(ctx, domain.EventFilter{
			Tags:      []string{"tech", "sports"},
			Timeframe: domain.TimeframeUpcoming,
			Now:       now,
		})
		if err != nil || len(events) != 1 || len(events[0].Attendees) != 2 {
			t.Fatalf("List = %v, %v", events, err)
		}

		n, err := store.Events.DeleteByTitles(ctx, []string{"Hackathon"})
		if err != nil || n != 1 {
			t.Errorf("DeleteByTitles = %d, %v", n, err)
		}
	})

	t.Run("groups", func(t *testing.T) {
		g := &domain.Group{
			ID:        "g1",
			Name:      "Go Study",
			Type:      "study",
			Tags:      []string{"go"},
			CreatedBy: "u1",
			Members:   []domain.Member{{UserID: "u1", Role: domain.RoleAdmin}},
			CreatedAt: now,
		}
		if err := store.Groups.Create(ctx, g); err != nil {
			t.Fatal(err)
		}
		if err := store.Groups.AddMember(ctx, "g1", domain.Member{UserID: "u2", Role: domain.RoleMember}); err != nil {
			t.Fatal(err)
		}
		name := "Go Reading"
		if err := store.Groups.Update(ctx, "g1", storage.GroupUpdate{Name: &name, Tags: []string{"go", "books"}}); err != nil {
			t.Fatal(err)
		}
		if err := store.Groups.Update(ctx, "nope", storage.GroupUpdate{}); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Update missing group: %v", err)
		}

		found, err := store.Groups.SearchByName(ctx, "Go R", 5)
		if err != nil || len(found) != 1 || len(found[0].Members) != 2 || len(found[0].Tags) != 2 {
			t.Fatalf("SearchByName = %v, %v", found, err)
		}
		n, err := store.Groups.CountByMember(ctx, "u1", domain.RoleAdmin)
		if err != nil || n != 1 {
			t.Errorf("CountByMember = %d, %v", n, err)
		}
	})

	t.Run("notifications", func(t *testing.T) {
		old := &domain.Notification{ID: "n1", UserID: "u1", Type: domain.NotificationEvent, Title: "t", CreatedAt: now.Add(-48 * time.Hour)}
		if err := store.Notifications.Create(ctx, old); err != nil {
			t.Fatal(err)
		}
		if err := store.Notifications.MarkRead(ctx, "n1", now); err != nil {
			t.Fatal(err)
		}
		n, err := store.Notifications.DeleteReadBefore(ctx, now.Add(-24*time.Hour))
		if err != nil || n != 1 {
			t.Errorf("DeleteReadBefore = %d, %v", n, err)
		}
	})
}
