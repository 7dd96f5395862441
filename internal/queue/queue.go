// Package queue is the durable store of pending ingestion items. The whole
// queue lives in one kv slot as a JSON array; every mutation rewrites the
// full list, so all writers are funneled through one mutex and the badge
// count is recomputed inside the same critical section.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spendtrail/spendtraild/internal/badge"
	"github.com/spendtrail/spendtraild/internal/kv"
	"github.com/spendtrail/spendtraild/internal/webhook"
	"go.uber.org/zap"
)

// Slot is the kv key holding the serialized queue.
const Slot = "transaction_queue"

// StatusPending is the only item status; items leave the queue instead of
// changing state.
const StatusPending = "pending"

// Item is one durably queued submission awaiting sync.
type Item struct {
	ID       string             `json:"id"`
	Payload  webhook.Submission `json:"smsData"`
	QueuedAt time.Time          `json:"queuedAt"`
	Status   string             `json:"status"`
}

// Stats summarizes the queue for status surfaces.
type Stats struct {
	Total  int        `json:"total"`
	Oldest *time.Time `json:"oldest,omitempty"`
}

// Store owns the queue slot. The badge counter is updated as a coupled pair
// with every mutation so UI surfaces never observe drift.
type Store struct {
	mu     sync.Mutex
	store  kv.Store
	badge  *badge.Counter
	logger *zap.Logger
}

// NewStore creates a queue Store.
func NewStore(store kv.Store, badgeCounter *badge.Counter, logger *zap.Logger) *Store {
	return &Store{
		store:  store,
		badge:  badgeCounter,
		logger: logger,
	}
}

// ReadAll returns the queued items in enqueue order. An absent or corrupt
// slot reads as empty: losing unsynced items to corruption is an accepted
// risk, crashing the pipeline is not. Backend I/O failures are returned.
func (s *Store) ReadAll(ctx context.Context) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked(ctx)
}

func (s *Store) readLocked(ctx context.Context) ([]Item, error) {
	raw, err := s.store.Get(ctx, Slot)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read queue slot: %w", err)
	}

	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logger.Warn("queue slot corrupt, treating as empty", zap.Error(err))
		return nil, nil
	}
	return items, nil
}

// Append assigns a new item id, persists the extended list, and updates the
// badge to the new length. Returns the created item.
func (s *Store) Append(ctx context.Context, payload webhook.Submission) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.readLocked(ctx)
	if err != nil {
		return Item{}, err
	}

	item := Item{
		ID:       uuid.NewString(),
		Payload:  payload,
		QueuedAt: time.Now().UTC(),
		Status:   StatusPending,
	}
	items = append(items, item)

	if err := s.writeLocked(ctx, items); err != nil {
		return Item{}, err
	}
	s.logger.Info("transaction queued",
		zap.String("item_id", item.ID),
		zap.String("sender", payload.Sender),
		zap.Int("queue_length", len(items)),
	)
	return item, nil
}

// ReplaceWith atomically overwrites the stored list, preserving the given
// order.
func (s *Store) ReplaceWith(ctx context.Context, items []Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(ctx, items)
}

// Remove drops the items with the given ids and returns the resulting queue
// length. The current list is re-read inside the critical section, so items
// appended after a caller's earlier snapshot survive. Unknown ids are
// ignored.
func (s *Store) Remove(ctx context.Context, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.readLocked(ctx)
	if err != nil {
		return 0, err
	}

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := items[:0]
	for _, item := range items {
		if !drop[item.ID] {
			kept = append(kept, item)
		}
	}

	if err := s.writeLocked(ctx, kept); err != nil {
		return 0, err
	}
	return len(kept), nil
}

// Clear removes every queued item.
func (s *Store) Clear(ctx context.Context) error {
	return s.ReplaceWith(ctx, nil)
}

// Stats returns the queue length and oldest enqueue time.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	items, err := s.ReadAll(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Total: len(items)}
	if len(items) > 0 {
		oldest := items[0].QueuedAt
		stats.Oldest = &oldest
	}
	return stats, nil
}

// writeLocked persists items and recomputes the badge from the new length.
// Callers must hold s.mu.
func (s *Store) writeLocked(ctx context.Context, items []Item) error {
	if items == nil {
		items = []Item{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal queue: %w", err)
	}
	if err := s.store.Set(ctx, Slot, string(raw)); err != nil {
		return fmt.Errorf("write queue slot: %w", err)
	}
	if err := s.badge.Set(ctx, len(items)); err != nil {
		// Queue state is authoritative; a stale badge heals on the next write.
		s.logger.Warn("badge update failed", zap.Error(err))
	}
	return nil
}
