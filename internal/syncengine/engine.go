// Package syncengine drains the pending transaction queue against the
// remote API. A pass submits every item in enqueue order, keeps only the
// failures queued, and reports the split to the caller.
package syncengine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spendtrail/spendtraild/internal/bus"
	"github.com/spendtrail/spendtraild/internal/classify"
	"github.com/spendtrail/spendtraild/internal/metrics"
	"github.com/spendtrail/spendtraild/internal/queue"
	"github.com/spendtrail/spendtraild/internal/status"
	"github.com/spendtrail/spendtraild/internal/store"
	"github.com/spendtrail/spendtraild/internal/webhook"
	"go.uber.org/zap"
)

// Journal records accepted submissions. Implemented by *store.DB.
type Journal interface {
	RecordSubmission(s *store.Submission) error
}

// Failure describes one item that could not be submitted.
type Failure struct {
	Item   queue.Item `json:"item"`
	Reason string     `json:"reason"`
}

// Report aggregates one sync pass.
type Report struct {
	Processed int       `json:"processed"`
	Failed    int       `json:"failed"`
	Failures  []Failure `json:"failures,omitempty"`
}

// Engine drains the queue. Passes are serialized: a manual sync and the
// background ticker must not double-submit the same items.
type Engine struct {
	mu      sync.Mutex
	queue   *queue.Store
	client  webhook.Submitter
	journal Journal
	machine *status.Machine
	bus     *bus.Bus
	logger  *zap.Logger

	interval time.Duration
	cancel   context.CancelFunc
}

// NewEngine creates a sync engine. journal and machine may be nil.
// interval > 0 enables the background drain started by Start.
func NewEngine(q *queue.Store, client webhook.Submitter, journal Journal, machine *status.Machine, b *bus.Bus, interval time.Duration, logger *zap.Logger) *Engine {
	return &Engine{
		queue:    q,
		client:   client,
		journal:  journal,
		machine:  machine,
		bus:      b,
		logger:   logger,
		interval: interval,
	}
}

// Start begins the background drain when an interval is configured.
func (e *Engine) Start(ctx context.Context) {
	if e.interval <= 0 {
		return
	}
	ctx, e.cancel = context.WithCancel(ctx)
	go e.loop(ctx)
}

// Stop stops the background drain.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
}

func (e *Engine) loop(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := e.ProcessQueue(ctx); err != nil {
				e.logger.Error("background sync pass failed", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

// ProcessQueue runs one sync pass. An empty queue returns a zero report
// without any network calls. Items are submitted independently in enqueue
// order; a failed item never aborts the pass and stays queued for the next
// invocation. Only successfully submitted items are removed, so messages
// enqueued while the pass is in flight survive to the next one.
func (e *Engine) ProcessQueue(ctx context.Context) (*Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	items, err := e.queue.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read queue: %w", err)
	}
	if len(items) == 0 {
		metrics.SetQueueDepth(0)
		return &Report{}, nil
	}

	e.transition(status.Syncing)
	e.publish(bus.KindSyncStarted, len(items))
	e.logger.Info("sync pass started", zap.Int("pending", len(items)))

	report := &Report{}
	succeeded := make([]string, 0, len(items))
	for _, item := range items {
		txn, err := e.client.Submit(ctx, item.Payload)
		if err != nil {
			e.logger.Warn("item submission failed",
				zap.String("item_id", item.ID),
				zap.Error(err),
			)
			report.Failures = append(report.Failures, Failure{Item: item, Reason: err.Error()})
			continue
		}
		succeeded = append(succeeded, item.ID)
		report.Processed++
		e.record(item, txn)
	}
	report.Failed = len(report.Failures)

	// Remove only what was submitted. Items appended while submissions were
	// in flight are not in the snapshot and must stay queued; the badge is
	// recomputed from the resulting length inside.
	remaining, err := e.queue.Remove(ctx, succeeded)
	if err != nil {
		return nil, fmt.Errorf("remove submitted items: %w", err)
	}

	metrics.AddSyncProcessed(report.Processed)
	metrics.AddSyncFailed(report.Failed)
	metrics.SetQueueDepth(remaining)

	if report.Failed > 0 {
		e.transition(status.Degraded)
	} else {
		e.transition(status.Ready)
	}
	e.publish(bus.KindSyncCompleted, *report)
	e.logger.Info("sync pass completed",
		zap.Int("processed", report.Processed),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// record journals an accepted submission; journal failures are logged, not
// propagated, because the remote API already owns the transaction.
func (e *Engine) record(item queue.Item, txn *webhook.Transaction) {
	if e.journal == nil {
		return
	}
	var amount string
	if amt, ok := classify.ExtractAmount(item.Payload.Message); ok {
		amount = amt.String()
	}
	sub := &store.Submission{
		ItemID:      item.ID,
		Sender:      item.Payload.Sender,
		Amount:      amount,
		ServerTxnID: txn.ID,
	}
	if err := e.journal.RecordSubmission(sub); err != nil {
		e.logger.Warn("journal write failed", zap.String("item_id", item.ID), zap.Error(err))
	}
}

func (e *Engine) transition(to status.State) {
	if e.machine == nil {
		return
	}
	if err := e.machine.Transition(to); err != nil {
		e.logger.Debug("state transition skipped", zap.Error(err))
	}
}

func (e *Engine) publish(kind string, payload any) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(bus.Event{
		Kind:      kind,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
