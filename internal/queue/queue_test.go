package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spendtrail/spendtraild/internal/badge"
	"github.com/spendtrail/spendtraild/internal/kv"
	"github.com/spendtrail/spendtraild/internal/webhook"
	"go.uber.org/zap"
)

func testStore(t *testing.T) (*Store, *badge.Counter, kv.Store) {
	t.Helper()
	blobs := kv.NewMemoryStore()
	logger, _ := zap.NewDevelopment()
	counter := badge.NewCounter(blobs, logger)
	return NewStore(blobs, counter, logger), counter, blobs
}

func submission(sender, message string) webhook.Submission {
	return webhook.Submission{
		Message:    message,
		Sender:     sender,
		ReceivedAt: time.Now().UTC(),
	}
}

func TestAppendExtendsQueue(t *testing.T) {
	s, counter, _ := testStore(t)
	ctx := context.Background()

	before, err := s.ReadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}

	item, err := s.Append(ctx, submission("VM-HDFC", "Rs 450.00 debited"))
	if err != nil {
		t.Fatal(err)
	}
	if item.ID == "" {
		t.Error("appended item must carry an id")
	}
	if item.Status != StatusPending {
		t.Errorf("status = %q, want %q", item.Status, StatusPending)
	}
	if item.QueuedAt.IsZero() {
		t.Error("queuedAt must be set")
	}

	after, err := s.ReadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != len(before)+1 {
		t.Fatalf("queue length = %d, want %d", len(after), len(before)+1)
	}
	last := after[len(after)-1]
	if last.Payload.Sender != "VM-HDFC" || last.Payload.Message != "Rs 450.00 debited" {
		t.Errorf("last payload = %+v, want the appended payload", last.Payload)
	}

	// Badge equals queue length after any successful append.
	if got := counter.Get(ctx); got != len(after) {
		t.Errorf("badge = %d, want queue length %d", got, len(after))
	}
}

func TestAppendAssignsUniqueIDs(t *testing.T) {
	s, _, _ := testStore(t)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		item, err := s.Append(ctx, submission("VM-SBI", "INR 385 spent"))
		if err != nil {
			t.Fatal(err)
		}
		if seen[item.ID] {
			t.Fatalf("duplicate item id %q", item.ID)
		}
		seen[item.ID] = true
	}
}

func TestReplaceWithKeepsExactOrder(t *testing.T) {
	s, counter, _ := testStore(t)
	ctx := context.Background()

	var items []Item
	for _, msg := range []string{"first", "second", "third"} {
		item, err := s.Append(ctx, submission("VM-HDFC", msg))
		if err != nil {
			t.Fatal(err)
		}
		items = append(items, item)
	}

	// Keep only the middle item, as a sync pass with one failure would.
	failed := []Item{items[1]}
	if err := s.ReplaceWith(ctx, failed); err != nil {
		t.Fatal(err)
	}

	got, err := s.ReadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("queue length = %d, want 1", len(got))
	}
	if got[0].ID != items[1].ID {
		t.Errorf("remaining item = %q, want %q", got[0].ID, items[1].ID)
	}
	if badgeCount := counter.Get(ctx); badgeCount != 1 {
		t.Errorf("badge = %d, want 1", badgeCount)
	}
}

func TestRemoveDropsOnlyGivenIDs(t *testing.T) {
	s, counter, _ := testStore(t)
	ctx := context.Background()

	var items []Item
	for _, msg := range []string{"first", "second", "third"} {
		item, err := s.Append(ctx, submission("VM-HDFC", msg))
		if err != nil {
			t.Fatal(err)
		}
		items = append(items, item)
	}

	remaining, err := s.Remove(ctx, []string{items[0].ID, items[2].ID})
	if err != nil {
		t.Fatal(err)
	}
	if remaining != 1 {
		t.Errorf("remaining = %d, want 1", remaining)
	}

	got, err := s.ReadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != items[1].ID {
		t.Errorf("queue = %+v, want only the middle item", got)
	}
	if badgeCount := counter.Get(ctx); badgeCount != 1 {
		t.Errorf("badge = %d, want 1", badgeCount)
	}
}

func TestRemoveSparesConcurrentlyAppendedItems(t *testing.T) {
	s, _, _ := testStore(t)
	ctx := context.Background()

	processed, err := s.Append(ctx, submission("VM-HDFC", "Rs 100 debited"))
	if err != nil {
		t.Fatal(err)
	}

	// An item lands after a caller snapshotted the queue but before it
	// removed what it processed.
	late, err := s.Append(ctx, submission("VM-ICICI", "Rs 200 debited"))
	if err != nil {
		t.Fatal(err)
	}

	remaining, err := s.Remove(ctx, []string{processed.ID})
	if err != nil {
		t.Fatal(err)
	}
	if remaining != 1 {
		t.Errorf("remaining = %d, want 1", remaining)
	}

	got, _ := s.ReadAll(ctx)
	if len(got) != 1 || got[0].ID != late.ID {
		t.Errorf("queue = %+v, want the late item to survive", got)
	}
}

func TestRemoveIgnoresUnknownIDs(t *testing.T) {
	s, _, _ := testStore(t)
	ctx := context.Background()

	item, err := s.Append(ctx, submission("VM-HDFC", "Rs 1 debited"))
	if err != nil {
		t.Fatal(err)
	}

	remaining, err := s.Remove(ctx, []string{"no-such-id"})
	if err != nil {
		t.Fatal(err)
	}
	if remaining != 1 {
		t.Errorf("remaining = %d, want 1", remaining)
	}
	got, _ := s.ReadAll(ctx)
	if len(got) != 1 || got[0].ID != item.ID {
		t.Errorf("queue = %+v, want the original item untouched", got)
	}
}

func TestClearEmptiesQueueAndBadge(t *testing.T) {
	s, counter, blobs := testStore(t)
	ctx := context.Background()

	_, _ = s.Append(ctx, submission("VM-HDFC", "Rs 100 debited"))
	_, _ = s.Append(ctx, submission("VM-ICICI", "Rs 200 credited"))

	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}

	got, err := s.ReadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("queue length after Clear = %d, want 0", len(got))
	}
	if badgeCount := counter.Get(ctx); badgeCount != 0 {
		t.Errorf("badge after Clear = %d, want 0", badgeCount)
	}

	// The slot holds an empty array, not an absent key.
	raw, err := blobs.Get(ctx, Slot)
	if err != nil {
		t.Fatal(err)
	}
	if raw != "[]" {
		t.Errorf("slot after Clear = %q, want []", raw)
	}
}

func TestCorruptSlotReadsAsEmpty(t *testing.T) {
	s, _, blobs := testStore(t)
	ctx := context.Background()

	_ = blobs.Set(ctx, Slot, "{not json")

	got, err := s.ReadAll(ctx)
	if err != nil {
		t.Fatalf("corrupt slot must not error, got %v", err)
	}
	if len(got) != 0 {
		t.Errorf("corrupt slot read %d items, want 0", len(got))
	}

	// The queue recovers: the next append starts a fresh list.
	if _, err := s.Append(ctx, submission("VM-HDFC", "Rs 50 debited")); err != nil {
		t.Fatal(err)
	}
	got, _ = s.ReadAll(ctx)
	if len(got) != 1 {
		t.Errorf("queue length after recovery append = %d, want 1", len(got))
	}
}

func TestConcurrentAppendsLoseNothing(t *testing.T) {
	s, counter, _ := testStore(t)
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Append(ctx, submission("VM-HDFC", "Rs 10 debited")); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	got, err := s.ReadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != n {
		t.Errorf("queue length = %d, want %d (interleaved writes lost items)", len(got), n)
	}
	if badgeCount := counter.Get(ctx); badgeCount != n {
		t.Errorf("badge = %d, want %d", badgeCount, n)
	}
}

func TestStats(t *testing.T) {
	s, _, _ := testStore(t)
	ctx := context.Background()

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 0 || stats.Oldest != nil {
		t.Errorf("empty stats = %+v", stats)
	}

	first, _ := s.Append(ctx, submission("VM-HDFC", "Rs 1 debited"))
	_, _ = s.Append(ctx, submission("VM-HDFC", "Rs 2 debited"))

	stats, err = s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 2 {
		t.Errorf("total = %d, want 2", stats.Total)
	}
	if stats.Oldest == nil || !stats.Oldest.Equal(first.QueuedAt) {
		t.Errorf("oldest = %v, want %v", stats.Oldest, first.QueuedAt)
	}
}
