package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/vietddude/campusconnect/internal/core/domain"
	"github.com/vietddude/campusconnect/internal/infra/storage"
)

type notificationRow struct {
	ID        string       `db:"id"`
	UserID    string       `db:"user_id"`
	Type      string       `db:"type"`
	Title     string       `db:"title"`
	Body      string       `db:"body"`
	Data      []byte       `db:"data"`
	Read      bool         `db:"read"`
	ReadAt    sql.NullTime `db:"read_at"`
	CreatedAt time.Time    `db:"created_at"`
}

func (r notificationRow) toDomain() *domain.Notification {
	n := &domain.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		Type:      domain.NotificationType(r.Type),
		Title:     r.Title,
		Body:      r.Body,
		Read:      r.Read,
		CreatedAt: r.CreatedAt,
	}
	decodeJSON(r.Data, &n.Data)
	if len(n.Data) == 0 {
		n.Data = nil
	}
	if r.ReadAt.Valid {
		t := r.ReadAt.Time
		n.ReadAt = &t
	}
	return n
}

// NotificationRepo implements storage.NotificationRepository using PostgreSQL.
type NotificationRepo struct {
	db *DB
}

// NewNotificationRepo creates a new PostgreSQL notification repository.
func NewNotificationRepo(db *DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	data := n.Data
	if data == nil {
		data = map[string]string{}
	}
	query := `
		INSERT INTO notifications (id, user_id, type, title, body, data, read, read_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.UserID,
		string(n.Type),
		n.Title,
		n.Body,
		jsonText(data),
		n.Read,
		n.ReadAt,
		n.CreatedAt,
	)
	return translate(err)
}

func (r *NotificationRepo) ListByUser(
	ctx context.Context,
	userID string,
	limit int,
) ([]*domain.Notification, error) {
	query := `SELECT * FROM notifications WHERE user_id = $1 ORDER BY created_at DESC, id`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	var rows []notificationRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, translate(err)
	}
	out := make([]*domain.Notification, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE, read_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return translate(err)
	}
	return expectRows(res, "notification", id)
}

func (r *NotificationRepo) DeleteReadBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE read AND created_at < $1`, t)
	if err != nil {
		return 0, translate(err)
	}
	n, err := res.RowsAffected()
	return n, translate(err)
}

var _ storage.NotificationRepository = (*NotificationRepo)(nil)
