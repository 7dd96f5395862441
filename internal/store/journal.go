package store

import "time"

// Submission is a journal row recording one accepted remote submission.
type Submission struct {
	ID          int64
	ItemID      string
	Sender      string
	Amount      string // decimal string, empty when no amount was extracted
	ServerTxnID string
	SubmittedAt int64
}

// RecordSubmission appends a row to the submissions journal.
func (db *DB) RecordSubmission(s *Submission) error {
	now := time.Now().UnixMilli()
	if s.SubmittedAt == 0 {
		s.SubmittedAt = now
	}
	res, err := db.Exec(`
		INSERT INTO submissions (item_id, sender, amount, server_txn_id, submitted_at)
		VALUES (?, ?, ?, ?, ?)`,
		s.ItemID, s.Sender, s.Amount, s.ServerTxnID, s.SubmittedAt)
	if err != nil {
		return err
	}
	s.ID, _ = res.LastInsertId()
	return nil
}

// RecentSubmissions returns the most recent journal rows, newest first.
func (db *DB) RecentSubmissions(limit int) ([]Submission, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT id, item_id, sender, amount, server_txn_id, submitted_at
		FROM submissions
		ORDER BY submitted_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var subs []Submission
	for rows.Next() {
		var s Submission
		if err := rows.Scan(&s.ID, &s.ItemID, &s.Sender, &s.Amount, &s.ServerTxnID, &s.SubmittedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}
