package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vietddude/campusconnect/internal/core/domain"
	"github.com/vietddude/campusconnect/internal/infra/storage"
)

type challengeRow struct {
	ID          string `db:"id"`
	Title       string `db:"title"`
	Description string `db:"description"`
	Type        string `db:"type"`
	Target      int    `db:"target"`
	XPReward    int    `db:"xp_reward"`
	BadgeReward string `db:"badge_reward"`
	BadgeName   string `db:"badge_name"`
	IsActive    bool   `db:"is_active"`
}

func (r challengeRow) toDomain() *domain.Challenge {
	return &domain.Challenge{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Type:        domain.ChallengeType(r.Type),
		Target:      r.Target,
		XPReward:    r.XPReward,
		BadgeReward: r.BadgeReward,
		BadgeName:   r.BadgeName,
		IsActive:    r.IsActive,
	}
}

// ChallengeRepo implements storage.ChallengeRepository using PostgreSQL.
type ChallengeRepo struct {
	db *DB
}

// NewChallengeRepo creates a new PostgreSQL challenge repository.
func NewChallengeRepo(db *DB) *ChallengeRepo {
	return &ChallengeRepo{db: db}
}

func (r *ChallengeRepo) ListActive(ctx context.Context) ([]*domain.Challenge, error) {
	var rows []challengeRow
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT * FROM challenges WHERE is_active ORDER BY id`); err != nil {
		return nil, translate(err)
	}
	out := make([]*domain.Challenge, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

func (r *ChallengeRepo) Get(ctx context.Context, id string) (*domain.Challenge, error) {
	var row challengeRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM challenges WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("challenge", id)
	}
	if err != nil {
		return nil, translate(err)
	}
	return row.toDomain(), nil
}

func (r *ChallengeRepo) Save(ctx context.Context, c *domain.Challenge) error {
	query := `
		INSERT INTO challenges (id, title, description, type, target, xp_reward, badge_reward, badge_name, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			type = EXCLUDED.type,
			target = EXCLUDED.target,
			xp_reward = EXCLUDED.xp_reward,
			badge_reward = EXCLUDED.badge_reward,
			badge_name = EXCLUDED.badge_name,
			is_active = EXCLUDED.is_active
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.Title,
		c.Description,
		string(c.Type),
		c.Target,
		c.XPReward,
		c.BadgeReward,
		c.BadgeName,
		c.IsActive,
	)
	return translate(err)
}

func (r *ChallengeRepo) IsCompleted(ctx context.Context, userID, challengeID string) (bool, error) {
	var done bool
	err := r.db.GetContext(ctx, &done, `
		SELECT EXISTS (SELECT 1 FROM completed_challenges WHERE user_id = $1 AND challenge_id = $2)`,
		userID, challengeID)
	return done, translate(err)
}

func (r *ChallengeRepo) RecordCompletion(ctx context.Context, c *domain.CompletedChallenge) error {
	query := `
		INSERT INTO completed_challenges (user_id, challenge_id, xp_awarded, badge_awarded, completed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, challenge_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, c.UserID, c.ChallengeID, c.XPAwarded, c.BadgeAwarded, c.CompletedAt)
	return translate(err)
}

var _ storage.ChallengeRepository = (*ChallengeRepo)(nil)
