package kv

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store for tests.
type MemoryStore struct {
	slots sync.Map
}

// NewMemoryStore creates an empty in-memory Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	val, ok := s.slots.Load(key)
	if !ok {
		return "", ErrNotFound
	}
	return val.(string), nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.slots.Store(key, value)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.slots.Delete(key)
	return nil
}
