// Package badge maintains the pending-transaction count shown by UI
// surfaces. The count is a cached projection of the queue length, stored in
// the pendingTransactionCount slot and recomputed on every queue mutation.
package badge

import (
	"context"
	"errors"
	"strconv"

	"github.com/spendtrail/spendtraild/internal/kv"
	"go.uber.org/zap"
)

// Slot is the kv key holding the badge count.
const Slot = "pendingTransactionCount"

// Counter reads and writes the durable badge count.
type Counter struct {
	store  kv.Store
	logger *zap.Logger
}

// NewCounter creates a Counter over the given store.
func NewCounter(store kv.Store, logger *zap.Logger) *Counter {
	return &Counter{store: store, logger: logger}
}

// Get returns the current badge count. An absent or unparsable slot reads
// as zero.
func (c *Counter) Get(ctx context.Context) int {
	raw, err := c.store.Get(ctx, Slot)
	if errors.Is(err, kv.ErrNotFound) {
		return 0
	}
	if err != nil {
		c.logger.Warn("badge read failed", zap.Error(err))
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Set stores the badge count.
func (c *Counter) Set(ctx context.Context, n int) error {
	if n < 0 {
		n = 0
	}
	return c.store.Set(ctx, Slot, strconv.Itoa(n))
}

// Clear resets the badge count to zero.
func (c *Counter) Clear(ctx context.Context) error {
	return c.Set(ctx, 0)
}
