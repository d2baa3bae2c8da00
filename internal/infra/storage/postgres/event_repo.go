package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vietddude/campusconnect/internal/core/domain"
	"github.com/vietddude/campusconnect/internal/infra/backend"
	"github.com/vietddude/campusconnect/internal/infra/storage"
)

const eventColumns = `
	e.id, e.title, e.description, e.location, e.start_time, e.end_time,
	e.is_public, e.max_participants, e.organizer, e.created_at,
	COALESCE((SELECT json_agg(t.tag ORDER BY t.tag)
		FROM event_tags t WHERE t.event_id = e.id), '[]'::json) AS tags,
	COALESCE((SELECT json_agg(json_build_object('userId', a.user_id, 'status', a.status) ORDER BY a.user_id)
		FROM event_attendees a WHERE a.event_id = e.id), '[]'::json) AS attendees`

type eventRow struct {
	ID              string    `db:"id"`
	Title           string    `db:"title"`
	Description     string    `db:"description"`
	Location        string    `db:"location"`
	StartTime       time.Time `db:"start_time"`
	EndTime         time.Time `db:"end_time"`
	IsPublic        bool      `db:"is_public"`
	MaxParticipants int       `db:"max_participants"`
	Organizer       string    `db:"organizer"`
	CreatedAt       time.Time `db:"created_at"`
	Tags            []byte    `db:"tags"`
	Attendees       []byte    `db:"attendees"`
}

func (r eventRow) toDomain() *domain.Event {
	e := &domain.Event{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		Location:        r.Location,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		IsPublic:        r.IsPublic,
		MaxParticipants: r.MaxParticipants,
		Organizer:       r.Organizer,
		CreatedAt:       r.CreatedAt,
	}
	decodeJSON(r.Tags, &e.Tags)
	decodeJSON(r.Attendees, &e.Attendees)
	return e
}

// EventRepo implements storage.EventRepository using PostgreSQL.
type EventRepo struct {
	db *DB
}

// NewEventRepo creates a new PostgreSQL event repository.
func NewEventRepo(db *DB) *EventRepo {
	return &EventRepo{db: db}
}

// Create inserts the event with its tags and initial attendees in one transaction.
func (r *EventRepo) Create(ctx context.Context, event *domain.Event) error {
	return r.db.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO events (id, title, description, location, start_time, end_time,
				is_public, max_participants, organizer, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`
		_, err := tx.ExecContext(ctx, query,
			event.ID,
			event.Title,
			event.Description,
			event.Location,
			event.StartTime,
			event.EndTime,
			event.IsPublic,
			event.MaxParticipants,
			event.Organizer,
			event.CreatedAt,
		)
		if err != nil {
			return translate(err)
		}

		for _, tag := range event.Tags {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO event_tags (event_id, tag) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				event.ID, tag)
			if err != nil {
				return translate(err)
			}
		}
		for _, a := range event.Attendees {
			if err := upsertAttendee(ctx, tx, event.ID, a.UserID, a.Status); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertAttendee(
	ctx context.Context,
	ex sqlx.ExecerContext,
	eventID, userID string,
	status domain.AttendanceStatus,
) error {
	query := `
		INSERT INTO event_attendees (event_id, user_id, status) VALUES ($1, $2, $3)
		ON CONFLICT (event_id, user_id) DO UPDATE SET status = EXCLUDED.status
	`
	_, err := ex.ExecContext(ctx, query, eventID, userID, string(status))
	return translate(err)
}

func (r *EventRepo) Get(ctx context.Context, id string) (*domain.Event, error) {
	var row eventRow
	err := r.db.GetContext(ctx, &row, `SELECT `+eventColumns+` FROM events e WHERE e.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("event", id)
	}
	if err != nil {
		return nil, translate(err)
	}
	return row.toDomain(), nil
}

// List returns upcoming events ascending and past events descending by start time.
func (r *EventRepo) List(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events e WHERE TRUE`
	var args []any

	if len(filter.Tags) > 0 {
		query += ` AND EXISTS (SELECT 1 FROM event_tags t WHERE t.event_id = e.id AND t.tag IN (?))`
		args = append(args, filter.Tags)
	}

	order := ` ORDER BY e.start_time ASC`
	switch filter.Timeframe {
	case domain.TimeframeUpcoming:
		query += ` AND e.start_time >= ?`
		args = append(args, filter.Now)
	case domain.TimeframePast:
		query += ` AND e.start_time < ?`
		args = append(args, filter.Now)
		order = ` ORDER BY e.start_time DESC`
	}
	query += order + `, e.id`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, err
	}
	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, translate(err)
	}
	events := make([]*domain.Event, len(rows))
	for i, row := range rows {
		events[i] = row.toDomain()
	}
	return events, nil
}

func (r *EventRepo) SetAttendance(
	ctx context.Context,
	eventID, userID string,
	status domain.AttendanceStatus,
) error {
	err := upsertAttendee(ctx, r.db, eventID, userID, status)
	if backend.ReasonOf(err) == backend.ReasonNotFound {
		// foreign key violation on event_id
		return notFound("event", eventID)
	}
	return err
}

func (r *EventRepo) DeleteByTitles(ctx context.Context, titles []string) (int, error) {
	if len(titles) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM events WHERE title IN (?)`, titles)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return 0, translate(err)
	}
	n, err := res.RowsAffected()
	return int(n), translate(err)
}

var _ storage.EventRepository = (*EventRepo)(nil)
