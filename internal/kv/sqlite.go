package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/spendtrail/spendtraild/internal/store"
)

// SQLiteStore persists slots in the profile database's kv table.
type SQLiteStore struct {
	db *store.DB
}

// NewSQLiteStore creates a Store backed by the profile database.
func NewSQLiteStore(db *store.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Get(_ context.Context, key string) (string, error) {
	value, err := s.db.GetSlot(key)
	if errors.Is(err, store.ErrSlotNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get slot %q: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) Set(_ context.Context, key, value string) error {
	if err := s.db.SetSlot(key, value); err != nil {
		return fmt.Errorf("set slot %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(_ context.Context, key string) error {
	if err := s.db.DeleteSlot(key); err != nil {
		return fmt.Errorf("delete slot %q: %w", key, err)
	}
	return nil
}
