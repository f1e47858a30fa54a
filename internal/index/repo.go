package index

import (
	"fmt"
	"time"

	"github.com/starford/lauf/internal/content"
	"github.com/starford/lauf/internal/models"
)

// EntryRow represents a row in the entries table.
type EntryRow struct {
	ID         int
	CreatedAt  time.Time
	Visibility models.Visibility
	Body       string
	Day        string
	Words      int
}

// rowFor projects an entry into its indexed form. The body is the plain text
// of the content tree; the day is the UTC calendar date it was created on.
func rowFor(e *models.Entry) EntryRow {
	return EntryRow{
		ID:         e.ID,
		CreatedAt:  e.CreatedAt,
		Visibility: e.Visibility,
		Body:       content.PlainText(e.Content),
		Day:        e.CreatedAt.UTC().Format("2006-01-02"),
		Words:      content.Words(e.Content),
	}
}

// UpsertEntry inserts or replaces an entry row and its FTS entry within a transaction.
func (db *DB) UpsertEntry(e *models.Entry) error {
	row := rowFor(e)

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO entries (id, created_at, visibility, body, day, words)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			created_at = excluded.created_at,
			visibility = excluded.visibility,
			body       = excluded.body,
			day        = excluded.day,
			words      = excluded.words
	`, row.ID, row.CreatedAt, string(row.Visibility), row.Body, row.Day, row.Words)
	if err != nil {
		return fmt.Errorf("index: upsert entry: %w", err)
	}

	// FTS upsert (no-op when the FTS5 tag is absent).
	if err := ftsUpsert(tx, row.ID, row.Body); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteEntry removes an entry row and its FTS entry.
func (db *DB) DeleteEntry(id int) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, id)
	_, _ = tx.Exec(`DELETE FROM entries WHERE id = ?`, id)

	return tx.Commit()
}

// WordsCount returns the total word count across all published entries.
func (db *DB) WordsCount() (int, error) {
	var n int
	err := db.conn.QueryRow(
		`SELECT COALESCE(SUM(words), 0) FROM entries WHERE visibility != ?`,
		string(models.VisibilityDraft),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("index: words count: %w", err)
	}
	return n, nil
}

// Days returns the distinct UTC calendar dates of published entries, newest first.
func (db *DB) Days() ([]string, error) {
	rows, err := db.conn.Query(`
		SELECT DISTINCT day FROM entries
		WHERE visibility != ?
		ORDER BY day DESC
	`, string(models.VisibilityDraft))
	if err != nil {
		return nil, fmt.Errorf("index: days: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// AllIDs returns every indexed entry id.
func (db *DB) AllIDs() (map[int]struct{}, error) {
	rows, err := db.conn.Query(`SELECT id FROM entries`)
	if err != nil {
		return nil, fmt.Errorf("index: all ids: %w", err)
	}
	defer rows.Close()
	out := make(map[int]struct{})
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}
