package postgres

import (
	"context"

	"github.com/google/uuid"
)

// Probe inserts and deletes a scratch row to prove the database accepts writes.
func (db *DB) Probe(ctx context.Context) error {
	id := uuid.NewString()
	if _, err := db.ExecContext(ctx, `INSERT INTO write_probes (id) VALUES ($1)`, id); err != nil {
		return translate(err)
	}
	_, err := db.ExecContext(ctx, `DELETE FROM write_probes WHERE id = $1`, id)
	return translate(err)
}
