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

const userColumns = `
	u.id, u.email, u.display_name, u.photo_url, u.branch, u.year, u.bio,
	u.skills, u.interests, u.xp_points, u.fcm_token, u.token_updated_at, u.created_at,
	COALESCE((SELECT json_agg(b.badge_id ORDER BY b.awarded_at, b.badge_id)
		FROM user_badges b WHERE b.user_id = u.id), '[]'::json) AS badges`

type userRow struct {
	ID             string       `db:"id"`
	Email          string       `db:"email"`
	DisplayName    string       `db:"display_name"`
	PhotoURL       string       `db:"photo_url"`
	Branch         string       `db:"branch"`
	Year           string       `db:"year"`
	Bio            string       `db:"bio"`
	Skills         []byte       `db:"skills"`
	Interests      []byte       `db:"interests"`
	XPPoints       int          `db:"xp_points"`
	FCMToken       string       `db:"fcm_token"`
	TokenUpdatedAt sql.NullTime `db:"token_updated_at"`
	CreatedAt      time.Time    `db:"created_at"`
	Badges         []byte       `db:"badges"`
}

func (r userRow) toDomain() *domain.User {
	u := &domain.User{
		ID:          r.ID,
		Email:       r.Email,
		DisplayName: r.DisplayName,
		PhotoURL:    r.PhotoURL,
		Branch:      r.Branch,
		Year:        r.Year,
		Bio:         r.Bio,
		XPPoints:    r.XPPoints,
		FCMToken:    r.FCMToken,
		CreatedAt:   r.CreatedAt,
	}
	decodeJSON(r.Skills, &u.Skills)
	decodeJSON(r.Interests, &u.Interests)
	decodeJSON(r.Badges, &u.Badges)
	if r.TokenUpdatedAt.Valid {
		t := r.TokenUpdatedAt.Time
		u.TokenUpdatedAt = &t
	}
	return u
}

func usersFromRows(rows []userRow) []*domain.User {
	users := make([]*domain.User, len(rows))
	for i, row := range rows {
		users[i] = row.toDomain()
	}
	return users
}

// UserRepo implements storage.UserRepository using PostgreSQL.
type UserRepo struct {
	db *DB
}

// NewUserRepo creates a new PostgreSQL user repository.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Get(ctx context.Context, id string) (*domain.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user", id)
	}
	if err != nil {
		return nil, translate(err)
	}
	return row.toDomain(), nil
}

func (r *UserRepo) GetMany(ctx context.Context, ids []string) ([]*domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+userColumns+` FROM users u WHERE u.id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, translate(err)
	}
	return usersFromRows(rows), nil
}

func (r *UserRepo) Ensure(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, id)
	return translate(err)
}

// SaveProfile upserts profile fields; XP and badges are never touched.
func (r *UserRepo) SaveProfile(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, display_name, photo_url, branch, year, bio, skills, interests)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			display_name = EXCLUDED.display_name,
			photo_url = EXCLUDED.photo_url,
			branch = EXCLUDED.branch,
			year = EXCLUDED.year,
			bio = EXCLUDED.bio,
			skills = EXCLUDED.skills,
			interests = EXCLUDED.interests
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.PhotoURL,
		user.Branch,
		user.Year,
		user.Bio,
		jsonText(stringsOrEmpty(user.Skills)),
		jsonText(stringsOrEmpty(user.Interests)),
	)
	return translate(err)
}

func (r *UserRepo) SetPhotoURL(ctx context.Context, id, url string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET photo_url = $2 WHERE id = $1`, id, url)
	if err != nil {
		return translate(err)
	}
	return expectRows(res, "user", id)
}

func (r *UserRepo) AddXP(ctx context.Context, id string, amount int) (int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		`UPDATE users SET xp_points = xp_points + $2 WHERE id = $1 RETURNING xp_points`, id, amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, notFound("user", id)
	}
	return total, translate(err)
}

func (r *UserRepo) AddBadge(ctx context.Context, id, badgeID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO user_badges (user_id, badge_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, id, badgeID)
	if err != nil {
		err = translate(err)
		if backend.ReasonOf(err) == backend.ReasonNotFound {
			// foreign key violation
			return false, notFound("user", id)
		}
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, translate(err)
	}
	return n > 0, nil
}

func (r *UserRepo) SetPushToken(ctx context.Context, id, token string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET fcm_token = $2, token_updated_at = $3 WHERE id = $1`, id, token, at)
	if err != nil {
		return translate(err)
	}
	return expectRows(res, "user", id)
}

// leaderboardWhere builds the filter shared by Ranked and CountAbove.
// ok is false when the query can match nobody.
func leaderboardWhere(q domain.LeaderboardQuery) (where string, args []any, ok bool) {
	where = ` WHERE TRUE`
	if !q.Since.IsZero() {
		where += ` AND u.created_at >= ?`
		args = append(args, q.Since)
	}
	if q.UserIDs != nil {
		if len(q.UserIDs) == 0 {
			return "", nil, false
		}
		where += ` AND u.id IN (?)`
		args = append(args, q.UserIDs)
	}
	return where, args, true
}

func (r *UserRepo) Ranked(ctx context.Context, q domain.LeaderboardQuery) ([]*domain.User, error) {
	where, args, ok := leaderboardWhere(q)
	if !ok {
		return nil, nil
	}
	query := `SELECT ` + userColumns + ` FROM users u` + where + ` ORDER BY u.xp_points DESC, u.id`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, err
	}
	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, translate(err)
	}
	return usersFromRows(rows), nil
}

func (r *UserRepo) CountAbove(ctx context.Context, q domain.LeaderboardQuery, xp int) (int, error) {
	where, args, ok := leaderboardWhere(q)
	if !ok {
		return 0, nil
	}
	query, args, err := sqlx.In(`SELECT COUNT(*) FROM users u`+where+` AND u.xp_points > ?`,
		append(args, xp)...)
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(query), args...); err != nil {
		return 0, translate(err)
	}
	return n, nil
}

func (r *UserRepo) Friends(ctx context.Context, id string) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids,
		`SELECT friend_id FROM friendships WHERE user_id = $1 ORDER BY friend_id`, id)
	return ids, translate(err)
}

func (r *UserRepo) AddFriendship(ctx context.Context, a, b string) error {
	return r.db.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `INSERT INTO friendships (user_id, friend_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
		if _, err := tx.ExecContext(ctx, query, a, b); err != nil {
			return translate(err)
		}
		_, err := tx.ExecContext(ctx, query, b, a)
		return translate(err)
	})
}

var _ storage.UserRepository = (*UserRepo)(nil)
