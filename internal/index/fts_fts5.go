//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"

	"github.com/starford/lauf/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
			id UNINDEXED,
			body,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, id int, body string) error {
	_, _ = tx.Exec(`DELETE FROM entries_fts WHERE id = ?`, id)
	_, err := tx.Exec(`INSERT INTO entries_fts (id, body) VALUES (?, ?)`, id, body)
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, id int) {
	_, _ = tx.Exec(`DELETE FROM entries_fts WHERE id = ?`, id)
}

// Search performs an FTS5 full-text search over published entries and returns
// matching entry ids, newest first. limit <= 0 returns every match.
func (db *DB) Search(query string, limit int) ([]int, error) {
	if limit <= 0 {
		limit = -1 // SQLite: LIMIT -1 means no limit
	}
	rows, err := db.conn.Query(`
		SELECT e.id
		FROM entries_fts f
		JOIN entries e ON e.id = f.id
		WHERE entries_fts MATCH ? AND e.visibility != ?
		ORDER BY e.created_at DESC, e.id DESC
		LIMIT ?
	`, query, string(models.VisibilityDraft), limit)
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
