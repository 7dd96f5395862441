package bus

import "time"

// Event kinds published by the ingestion pipeline.
const (
	KindIngestSubmitted = "ingest.submitted"
	KindIngestRejected  = "ingest.rejected"
	KindQueueAppended   = "queue.appended"
	KindQueueCleared    = "queue.cleared"
	KindSyncStarted     = "sync.started"
	KindSyncCompleted   = "sync.completed"
	KindStatusChanged   = "daemon.status_changed"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
