package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vietddude/campusconnect/internal/core/domain"
	"github.com/vietddude/campusconnect/internal/infra/backend"
	"github.com/vietddude/campusconnect/internal/infra/storage"
)

const groupColumns = `
	g.id, g.name, g.description, g.type, g.created_by, g.cover_url, g.chat_id, g.created_at,
	COALESCE((SELECT json_agg(t.tag ORDER BY t.tag)
		FROM group_tags t WHERE t.group_id = g.id), '[]'::json) AS tags,
	COALESCE((SELECT json_agg(json_build_object('userId', m.user_id, 'role', m.role) ORDER BY m.joined_at, m.user_id)
		FROM group_members m WHERE m.group_id = g.id), '[]'::json) AS members`

type groupRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Type        string    `db:"type"`
	CreatedBy   string    `db:"created_by"`
	CoverURL    string    `db:"cover_url"`
	ChatID      string    `db:"chat_id"`
	CreatedAt   time.Time `db:"created_at"`
	Tags        []byte    `db:"tags"`
	Members     []byte    `db:"members"`
}

func (r groupRow) toDomain() *domain.Group {
	g := &domain.Group{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Type:        r.Type,
		CreatedBy:   r.CreatedBy,
		CoverURL:    r.CoverURL,
		ChatID:      r.ChatID,
		CreatedAt:   r.CreatedAt,
	}
	decodeJSON(r.Tags, &g.Tags)
	decodeJSON(r.Members, &g.Members)
	return g
}

// GroupRepo implements storage.GroupRepository using PostgreSQL.
type GroupRepo struct {
	db *DB
}

// NewGroupRepo creates a new PostgreSQL group repository.
func NewGroupRepo(db *DB) *GroupRepo {
	return &GroupRepo{db: db}
}

func (r *GroupRepo) selectGroups(ctx context.Context, query string, args ...any) ([]*domain.Group, error) {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, err
	}
	var rows []groupRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, translate(err)
	}
	groups := make([]*domain.Group, len(rows))
	for i, row := range rows {
		groups[i] = row.toDomain()
	}
	return groups, nil
}

func replaceGroupTags(ctx context.Context, tx *sqlx.Tx, groupID string, tags []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM group_tags WHERE group_id = $1`, groupID); err != nil {
		return translate(err)
	}
	for _, tag := range tags {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO group_tags (group_id, tag) VALUES ($1, $2) ON CONFLICT DO NOTHING`, groupID, tag)
		if err != nil {
			return translate(err)
		}
	}
	return nil
}

func (r *GroupRepo) Create(ctx context.Context, group *domain.Group) error {
	return r.db.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO study_groups (id, name, description, type, created_by, cover_url, chat_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		_, err := tx.ExecContext(ctx, query,
			group.ID,
			group.Name,
			group.Description,
			group.Type,
			group.CreatedBy,
			group.CoverURL,
			group.ChatID,
			group.CreatedAt,
		)
		if err != nil {
			return translate(err)
		}
		if err := replaceGroupTags(ctx, tx, group.ID, group.Tags); err != nil {
			return err
		}
		for _, m := range group.Members {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO group_members (group_id, user_id, role, joined_at) VALUES ($1, $2, $3, $4)
				ON CONFLICT DO NOTHING`,
				group.ID, m.UserID, string(m.Role), group.CreatedAt)
			if err != nil {
				return translate(err)
			}
		}
		return nil
	})
}

func (r *GroupRepo) Get(ctx context.Context, id string) (*domain.Group, error) {
	var row groupRow
	err := r.db.GetContext(ctx, &row, `SELECT `+groupColumns+` FROM study_groups g WHERE g.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("group", id)
	}
	if err != nil {
		return nil, translate(err)
	}
	return row.toDomain(), nil
}

func (r *GroupRepo) List(ctx context.Context, filter domain.GroupFilter) ([]*domain.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM study_groups g WHERE TRUE`
	var args []any
	if filter.Type != "" {
		query += ` AND g.type = ?`
		args = append(args, filter.Type)
	}
	if len(filter.Tags) > 0 {
		query += ` AND EXISTS (SELECT 1 FROM group_tags t WHERE t.group_id = g.id AND t.tag IN (?))`
		args = append(args, filter.Tags)
	}
	query += ` ORDER BY g.created_at DESC, g.id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	return r.selectGroups(ctx, query, args...)
}

func (r *GroupRepo) ListByMember(
	ctx context.Context,
	userID string,
	role domain.MemberRole,
) ([]*domain.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM study_groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = ? AND m.role = ?
		ORDER BY g.created_at DESC, g.id`
	return r.selectGroups(ctx, query, userID, string(role))
}

func (r *GroupRepo) CountByMember(ctx context.Context, userID string, role domain.MemberRole) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM group_members WHERE user_id = $1 AND role = $2`, userID, string(role))
	return n, translate(err)
}

func (r *GroupRepo) AddMember(ctx context.Context, groupID string, member domain.Member) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id, role) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
		groupID, member.UserID, string(member.Role))
	err = translate(err)
	if backend.ReasonOf(err) == backend.ReasonNotFound {
		return notFound("group", groupID)
	}
	return err
}

func (r *GroupRepo) RemoveMember(ctx context.Context, groupID, userID string) error {
	if err := r.exists(ctx, groupID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	return translate(err)
}

func (r *GroupRepo) exists(ctx context.Context, id string) error {
	var found bool
	err := r.db.GetContext(ctx, &found, `SELECT EXISTS (SELECT 1 FROM study_groups WHERE id = $1)`, id)
	if err != nil {
		return translate(err)
	}
	if !found {
		return notFound("group", id)
	}
	return nil
}

func (r *GroupRepo) Update(ctx context.Context, id string, update storage.GroupUpdate) error {
	return r.db.withTx(ctx, func(tx *sqlx.Tx) error {
		var (
			sets []string
			args []any
		)
		if update.Name != nil {
			sets = append(sets, "name = ?")
			args = append(args, *update.Name)
		}
		if update.Description != nil {
			sets = append(sets, "description = ?")
			args = append(args, *update.Description)
		}
		if update.Type != nil {
			sets = append(sets, "type = ?")
			args = append(args, *update.Type)
		}

		// touch the row even without field changes so a missing group is reported
		query := `UPDATE study_groups SET id = id`
		if len(sets) > 0 {
			query = `UPDATE study_groups SET ` + strings.Join(sets, ", ")
		}
		query += ` WHERE id = ?`
		args = append(args, id)

		res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
		if err != nil {
			return translate(err)
		}
		if err := expectRows(res, "group", id); err != nil {
			return err
		}
		if update.Tags != nil {
			return replaceGroupTags(ctx, tx, id, update.Tags)
		}
		return nil
	})
}

func (r *GroupRepo) setColumn(ctx context.Context, id, column, value string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE study_groups SET `+column+` = $2 WHERE id = $1`, id, value)
	if err != nil {
		return translate(err)
	}
	return expectRows(res, "group", id)
}

func (r *GroupRepo) SetCoverURL(ctx context.Context, id, url string) error {
	return r.setColumn(ctx, id, "cover_url", url)
}

func (r *GroupRepo) SetChatID(ctx context.Context, id, chatID string) error {
	return r.setColumn(ctx, id, "chat_id", chatID)
}

func (r *GroupRepo) SearchByName(ctx context.Context, prefix string, limit int) ([]*domain.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM study_groups g WHERE g.name LIKE ? ORDER BY g.name, g.id`
	args := []any{escapeLike(prefix) + "%"}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return r.selectGroups(ctx, query, args...)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

var _ storage.GroupRepository = (*GroupRepo)(nil)
