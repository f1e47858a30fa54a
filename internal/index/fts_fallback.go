//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"

	"github.com/starford/lauf/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses a LIKE fallback on the entries.body column.
	return nil
}

func ftsUpsert(_ *sql.Tx, _ int, _ string) error {
	// Body is already stored in the entries table; nothing extra to do.
	return nil
}

func ftsDelete(_ *sql.Tx, _ int) {}

// Search performs a case-insensitive substring search over published entries
// (fallback when FTS5 is not compiled in) and returns matching ids, newest
// first. limit <= 0 returns every match.
func (db *DB) Search(query string, limit int) ([]int, error) {
	if limit <= 0 {
		limit = -1 // SQLite: LIMIT -1 means no limit
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT id FROM entries
		WHERE visibility != ? AND body LIKE ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, string(models.VisibilityDraft), like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
