// Package ingest is the callable surface for incoming SMS events. It gates
// messages through the classifier, enriches them with a best-effort
// position, and tries direct submission before falling back to the durable
// queue.
package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spendtrail/spendtraild/internal/bus"
	"github.com/spendtrail/spendtraild/internal/classify"
	"github.com/spendtrail/spendtraild/internal/location"
	"github.com/spendtrail/spendtraild/internal/metrics"
	"github.com/spendtrail/spendtraild/internal/queue"
	"github.com/spendtrail/spendtraild/internal/settings"
	"github.com/spendtrail/spendtraild/internal/store"
	"github.com/spendtrail/spendtraild/internal/webhook"
	"go.uber.org/zap"
)

// RawMessage is one SMS event as delivered by the platform listener or the
// manual test harness.
type RawMessage struct {
	Sender     string    `json:"sender"`
	Body       string    `json:"message"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// Rejection reasons and acceptance outcomes surfaced in Result.Reason.
const (
	ReasonAutoSyncDisabled = "auto-sync disabled"
	ReasonNotBankSender    = "not a bank sender"
	ReasonNotTransaction   = "not a transaction message"
	ReasonQueueUnavailable = "queue unavailable"
	ReasonQueued           = "queued"
	ReasonSubmitted        = "submitted"
)

// Result is the outcome of one ingestion attempt. Classification rejections
// are normal negative outcomes, not errors.
type Result struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason"`
}

// Journal records accepted direct submissions. Implemented by *store.DB.
type Journal interface {
	RecordSubmission(s *store.Submission) error
}

// Handler orchestrates classifier, enrichment, submission and queueing.
type Handler struct {
	classifier *classify.Classifier
	enricher   *location.Enricher
	client     webhook.Submitter
	queue      *queue.Store
	settings   *settings.Settings
	journal    Journal
	bus        *bus.Bus
	logger     *zap.Logger
}

// NewHandler creates an ingestion handler. journal and bus may be nil.
func NewHandler(
	classifier *classify.Classifier,
	enricher *location.Enricher,
	client webhook.Submitter,
	q *queue.Store,
	st *settings.Settings,
	journal Journal,
	b *bus.Bus,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		classifier: classifier,
		enricher:   enricher,
		client:     client,
		queue:      q,
		settings:   st,
		journal:    journal,
		bus:        b,
		logger:     logger,
	}
}

// HandleIncoming processes one raw message. It never panics and never
// returns an error: every outcome, including transport failure, maps to an
// accepted/rejected Result. Direct submission is attempted first to keep
// the server fresh; the queue is the durability fallback.
func (h *Handler) HandleIncoming(ctx context.Context, raw RawMessage) Result {
	if !h.settings.AutoSyncEnabled(ctx) {
		return h.reject(ReasonAutoSyncDisabled)
	}
	if !h.classifier.IsBankSender(raw.Sender) {
		return h.reject(ReasonNotBankSender)
	}
	if !h.classifier.IsTransactionMessage(raw.Body) {
		return h.reject(ReasonNotTransaction)
	}

	receivedAt := raw.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}

	// Bounded by the enricher's own deadline; a hung provider degrades to
	// null coordinates instead of stalling ingestion.
	pos := h.enricher.BestEffort(ctx)

	sub := webhook.Submission{
		Message:    strings.TrimSpace(raw.Body),
		Sender:     strings.TrimSpace(raw.Sender),
		ReceivedAt: receivedAt,
	}.WithCoordinates(pos)

	txn, err := h.client.Submit(ctx, sub)
	if err != nil {
		h.logger.Info("direct submission failed, queueing",
			zap.String("sender", sub.Sender),
			zap.Error(err),
		)
		item, qErr := h.queue.Append(ctx, sub)
		if qErr != nil {
			// Both the network and the local store are down; surface the
			// only failure this handler cannot absorb.
			h.logger.Error("queue append failed", zap.Error(qErr))
			metrics.IncIngested("dropped")
			return Result{Accepted: false, Reason: ReasonQueueUnavailable}
		}
		metrics.IncIngested("queued")
		h.publish(bus.KindQueueAppended, item)
		return Result{Accepted: true, Reason: ReasonQueued}
	}

	metrics.IncIngested("submitted")
	h.record(sub, txn)
	h.publish(bus.KindIngestSubmitted, txn)
	h.logger.Info("transaction submitted",
		zap.String("sender", sub.Sender),
		zap.String("txn_id", txn.ID),
	)
	return Result{Accepted: true, Reason: ReasonSubmitted}
}

func (h *Handler) reject(reason string) Result {
	metrics.IncIngested("rejected")
	h.publish(bus.KindIngestRejected, reason)
	return Result{Accepted: false, Reason: reason}
}

func (h *Handler) record(sub webhook.Submission, txn *webhook.Transaction) {
	if h.journal == nil {
		return
	}
	var amount string
	if amt, ok := classify.ExtractAmount(sub.Message); ok {
		amount = amt.String()
	}
	rec := &store.Submission{
		ItemID:      uuid.NewString(),
		Sender:      sub.Sender,
		Amount:      amount,
		ServerTxnID: txn.ID,
	}
	if err := h.journal.RecordSubmission(rec); err != nil {
		h.logger.Warn("journal write failed", zap.Error(err))
	}
}

func (h *Handler) publish(kind string, payload any) {
	if h.bus == nil {
		return
	}
	h.bus.Publish(bus.Event{
		Kind:      kind,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
