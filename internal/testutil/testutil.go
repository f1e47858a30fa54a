// Package testutil provides shared test helpers for setting up stores and databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/lauf/internal/entrystore"
	"github.com/starford/lauf/internal/index"
	"github.com/starford/lauf/internal/media"
)

// TestDB creates a temporary SQLite index database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "lauf-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestEntryStore creates an entry store backed by a temporary snapshot file.
func TestEntryStore(t *testing.T) *entrystore.Store {
	t.Helper()
	store, err := entrystore.Open(filepath.Join(t.TempDir(), "entries.json"))
	if err != nil {
		t.Fatal(err)
	}
	return store
}

// TestMediaStore creates a media store rooted at a temporary uploads directory.
func TestMediaStore(t *testing.T) *media.Store {
	t.Helper()
	store, err := media.NewStore(filepath.Join(t.TempDir(), "uploads"), nil)
	if err != nil {
		t.Fatal(err)
	}
	return store
}
