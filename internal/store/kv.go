package store

import (
	"database/sql"
	"errors"
	"time"
)

// ErrSlotNotFound is returned when a kv slot has never been written.
var ErrSlotNotFound = errors.New("kv slot not found")

// GetSlot returns the string blob stored under key.
func (db *DB) GetSlot(key string) (string, error) {
	var value string
	err := db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrSlotNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetSlot stores a string blob under key (idempotent upsert).
func (db *DB) SetSlot(key, value string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now)
	return err
}

// DeleteSlot removes a slot. Deleting an absent slot is not an error.
func (db *DB) DeleteSlot(key string) error {
	_, err := db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return err
}
