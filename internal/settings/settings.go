// Package settings exposes the persisted auto-sync toggle as an injected
// dependency instead of an ad hoc storage read.
package settings

import (
	"context"
	"errors"
	"strconv"

	"github.com/spendtrail/spendtraild/internal/kv"
	"go.uber.org/zap"
)

// AutoSyncSlot is the kv key holding the toggle ("true"/"false").
const AutoSyncSlot = "smsAutoSyncEnabled"

// Settings reads and writes daemon runtime toggles.
type Settings struct {
	store        kv.Store
	autoSyncDflt bool
	logger       *zap.Logger
}

// New creates Settings. autoSyncDefault applies until the toggle has been
// written once; the persisted value always wins afterwards.
func New(store kv.Store, autoSyncDefault bool, logger *zap.Logger) *Settings {
	return &Settings{
		store:        store,
		autoSyncDflt: autoSyncDefault,
		logger:       logger,
	}
}

// AutoSyncEnabled reports whether SMS auto-sync is on. Storage failures
// degrade to the configured default rather than blocking ingestion.
func (s *Settings) AutoSyncEnabled(ctx context.Context) bool {
	raw, err := s.store.Get(ctx, AutoSyncSlot)
	if errors.Is(err, kv.ErrNotFound) {
		return s.autoSyncDflt
	}
	if err != nil {
		s.logger.Warn("auto-sync flag read failed", zap.Error(err))
		return s.autoSyncDflt
	}
	return raw == "true"
}

// SetAutoSync persists the toggle.
func (s *Settings) SetAutoSync(ctx context.Context, enabled bool) error {
	return s.store.Set(ctx, AutoSyncSlot, strconv.FormatBool(enabled))
}
