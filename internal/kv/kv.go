// Package kv abstracts the durable key-value slots that hold queue state.
// Keys map to string blobs; the slot layout is shared by all backends:
//
//	transaction_queue       JSON array of queued items
//	pendingTransactionCount string-encoded integer
//	smsAutoSyncEnabled      "true" / "false"
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key has never been written.
var ErrNotFound = errors.New("kv: key not found")

// Store is a persistent key to string-blob store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
