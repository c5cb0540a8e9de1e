package dataset

import (
	"context"
	"errors"
	"fmt"

	"mechdash/internal"
	"mechdash/internal/storage"
)

// Store serves the latest import held in SQLite.
type Store struct {
	db *storage.DB
}

func NewStore(db *storage.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Name() string { return KindSQLite }

func (s *Store) Load(ctx context.Context) ([]internal.RawRecord, error) {
	_, rows, err := s.db.LoadLatest(ctx)
	if errors.Is(err, storage.ErrNoImports) {
		return nil, unavailable("no import in database, run `mechdash import` first")
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return rows, nil
}
