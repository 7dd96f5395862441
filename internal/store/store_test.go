package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateIdempotent(t *testing.T) {
	db := testDB(t)

	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate should report no change")
	}
	if result.Dirty {
		t.Error("migrations left database dirty")
	}
}

func TestKVSlots(t *testing.T) {
	db := testDB(t)

	if _, err := db.GetSlot("transaction_queue"); !errors.Is(err, ErrSlotNotFound) {
		t.Errorf("GetSlot on absent key: err = %v, want ErrSlotNotFound", err)
	}

	if err := db.SetSlot("pendingTransactionCount", "3"); err != nil {
		t.Fatal(err)
	}
	got, err := db.GetSlot("pendingTransactionCount")
	if err != nil {
		t.Fatal(err)
	}
	if got != "3" {
		t.Errorf("GetSlot = %q, want 3", got)
	}

	// Upsert overwrites.
	if err := db.SetSlot("pendingTransactionCount", "0"); err != nil {
		t.Fatal(err)
	}
	got, _ = db.GetSlot("pendingTransactionCount")
	if got != "0" {
		t.Errorf("GetSlot after upsert = %q, want 0", got)
	}

	if err := db.DeleteSlot("pendingTransactionCount"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.GetSlot("pendingTransactionCount"); !errors.Is(err, ErrSlotNotFound) {
		t.Errorf("GetSlot after delete: err = %v, want ErrSlotNotFound", err)
	}
}

func TestSubmissionJournal(t *testing.T) {
	db := testDB(t)

	first := &Submission{ItemID: "item-1", Sender: "VM-HDFC", Amount: "450", ServerTxnID: "txn-1", SubmittedAt: 100}
	second := &Submission{ItemID: "item-2", Sender: "VM-ICICI", Amount: "1250.5", ServerTxnID: "txn-2", SubmittedAt: 200}
	for _, s := range []*Submission{first, second} {
		if err := db.RecordSubmission(s); err != nil {
			t.Fatal(err)
		}
		if s.ID == 0 {
			t.Error("RecordSubmission should backfill the row id")
		}
	}

	subs, err := db.RecentSubmissions(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 2 {
		t.Fatalf("got %d submissions, want 2", len(subs))
	}
	if subs[0].ItemID != "item-2" || subs[1].ItemID != "item-1" {
		t.Errorf("submissions not newest first: %q then %q", subs[0].ItemID, subs[1].ItemID)
	}
	if subs[1].Amount != "450" {
		t.Errorf("amount = %q, want 450", subs[1].Amount)
	}
}

func TestRecordSubmissionDefaultsTimestamp(t *testing.T) {
	db := testDB(t)

	s := &Submission{ItemID: "item-1", Sender: "VM-SBI"}
	if err := db.RecordSubmission(s); err != nil {
		t.Fatal(err)
	}
	if s.SubmittedAt == 0 {
		t.Error("SubmittedAt should default to now")
	}
}
