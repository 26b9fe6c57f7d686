package sqlite

import (
	"fmt"
	"path/filepath"

	"github.com/goodtune/onlinetime/internal/database"
	"github.com/goodtune/onlinetime/internal/storage"
)

// Store implements storage.Store on top of a SQLite database.
type Store struct {
	db *database.DB
}

// Open opens (or creates) the SQLite database at path and applies migrations.
func Open(path string) (*Store, error) {
	if err := storage.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	db, err := database.New(path)
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Logs returns the activity log store.
func (s *Store) Logs() storage.LogStore { return &logStore{db: s.db} }

// Subjects returns the subject directory store.
func (s *Store) Subjects() storage.SubjectStore { return &subjectStore{db: s.db} }
