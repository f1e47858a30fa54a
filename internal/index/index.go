package index

import "github.com/starford/lauf/internal/models"

// EntryIndex defines the interface for entry indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type EntryIndex interface {
	UpsertEntry(e *models.Entry) error
	DeleteEntry(id int) error
	Search(query string, limit int) ([]int, error)
	WordsCount() (int, error)
	Days() ([]string, error)
	Close() error
}

// Verify *DB satisfies EntryIndex at compile time.
var _ EntryIndex = (*DB)(nil)
