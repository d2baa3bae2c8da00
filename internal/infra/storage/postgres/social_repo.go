package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vietddude/campusconnect/internal/core/domain"
	"github.com/vietddude/campusconnect/internal/infra/storage"
)

type chatRow struct {
	ID                string    `db:"id"`
	GroupID           string    `db:"group_id"`
	IsGroupChat       bool      `db:"is_group_chat"`
	Participants      []byte    `db:"participants"`
	LastMessageText   string    `db:"last_message_text"`
	LastMessageSender string    `db:"last_message_sender"`
	LastMessageAt     time.Time `db:"last_message_at"`
	CreatedAt         time.Time `db:"created_at"`
}

// ChatRepo implements storage.ChatRepository using PostgreSQL.
type ChatRepo struct {
	db *DB
}

// NewChatRepo creates a new PostgreSQL chat repository.
func NewChatRepo(db *DB) *ChatRepo {
	return &ChatRepo{db: db}
}

func (r *ChatRepo) Create(ctx context.Context, chat *domain.Chat) error {
	query := `
		INSERT INTO chats (id, group_id, is_group_chat, participants,
			last_message_text, last_message_sender, last_message_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		chat.ID,
		chat.GroupID,
		chat.IsGroupChat,
		jsonText(stringsOrEmpty(chat.Participants)),
		chat.LastMessage.Text,
		chat.LastMessage.SentBy,
		chat.LastMessage.SentAt,
		chat.CreatedAt,
	)
	return translate(err)
}

func (r *ChatRepo) Get(ctx context.Context, id string) (*domain.Chat, error) {
	var row chatRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM chats WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("chat", id)
	}
	if err != nil {
		return nil, translate(err)
	}
	chat := &domain.Chat{
		ID:          row.ID,
		GroupID:     row.GroupID,
		IsGroupChat: row.IsGroupChat,
		LastMessage: domain.Message{
			Text:   row.LastMessageText,
			SentBy: row.LastMessageSender,
			SentAt: row.LastMessageAt,
		},
		CreatedAt: row.CreatedAt,
	}
	decodeJSON(row.Participants, &chat.Participants)
	return chat, nil
}

type matchRow struct {
	ID              string    `db:"id"`
	UserA           string    `db:"user_a"`
	UserB           string    `db:"user_b"`
	Status          string    `db:"status"`
	InitiatedBy     string    `db:"initiated_by"`
	CreatedAt       time.Time `db:"created_at"`
	LastInteraction time.Time `db:"last_interaction"`
}

func (r matchRow) toDomain() *domain.Match {
	return &domain.Match{
		ID:              r.ID,
		Users:           []string{r.UserA, r.UserB},
		Status:          domain.MatchStatus(r.Status),
		InitiatedBy:     r.InitiatedBy,
		CreatedAt:       r.CreatedAt,
		LastInteraction: r.LastInteraction,
	}
}

// MatchRepo implements storage.MatchRepository using PostgreSQL.
type MatchRepo struct {
	db *DB
}

// NewMatchRepo creates a new PostgreSQL match repository.
func NewMatchRepo(db *DB) *MatchRepo {
	return &MatchRepo{db: db}
}

func (r *MatchRepo) Create(ctx context.Context, match *domain.Match) error {
	if len(match.Users) != 2 {
		return errors.New("match must have exactly two users")
	}
	query := `
		INSERT INTO matches (id, user_a, user_b, status, initiated_by, created_at, last_interaction)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		match.ID,
		match.Users[0],
		match.Users[1],
		string(match.Status),
		match.InitiatedBy,
		match.CreatedAt,
		match.LastInteraction,
	)
	return translate(err)
}

func (r *MatchRepo) Get(ctx context.Context, id string) (*domain.Match, error) {
	var row matchRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM matches WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("match", id)
	}
	if err != nil {
		return nil, translate(err)
	}
	return row.toDomain(), nil
}

func (r *MatchRepo) UpdateStatus(
	ctx context.Context,
	id string,
	status domain.MatchStatus,
	at time.Time,
) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE matches SET status = $2, last_interaction = $3 WHERE id = $1`, id, string(status), at)
	if err != nil {
		return translate(err)
	}
	return expectRows(res, "match", id)
}

func (r *MatchRepo) selectMatches(ctx context.Context, query string, args ...any) ([]*domain.Match, error) {
	var rows []matchRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, translate(err)
	}
	matches := make([]*domain.Match, len(rows))
	for i, row := range rows {
		matches[i] = row.toDomain()
	}
	return matches, nil
}

func (r *MatchRepo) ListByUser(
	ctx context.Context,
	userID string,
	status domain.MatchStatus,
) ([]*domain.Match, error) {
	return r.selectMatches(ctx, `
		SELECT * FROM matches
		WHERE (user_a = $1 OR user_b = $1) AND status = $2
		ORDER BY last_interaction DESC, id`, userID, string(status))
}

func (r *MatchRepo) ListPendingFor(ctx context.Context, userID string) ([]*domain.Match, error) {
	return r.selectMatches(ctx, `
		SELECT * FROM matches
		WHERE (user_a = $1 OR user_b = $1) AND status = $2 AND initiated_by <> $1
		ORDER BY last_interaction DESC, id`, userID, string(domain.MatchPending))
}

func (r *MatchRepo) CountAccepted(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM matches WHERE (user_a = $1 OR user_b = $1) AND status = $2`,
		userID, string(domain.MatchAccepted))
	return n, translate(err)
}

var (
	_ storage.ChatRepository  = (*ChatRepo)(nil)
	_ storage.MatchRepository = (*MatchRepo)(nil)
)
