package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/xbridge/internal/ir"
)

// AppendSent stores msg at the next outbound id for chain and advances the
// chain's counter. Ids start at 1 and never skip.
func (t *Tx) AppendSent(chain string, msg ir.Message) (uint64, error) {
	count, err := t.SentCount(chain)
	if err != nil {
		return 0, err
	}
	id := count + 1

	msgJSON, err := marshalMessage(msg)
	if err != nil {
		return 0, fmt.Errorf("append sent: %w", err)
	}

	if _, err := t.exec(`
		INSERT INTO sent_messages (chain, id, message) VALUES (?, ?, ?)
	`, chain, int64(id), msgJSON); err != nil {
		return 0, fmt.Errorf("append sent: insert: %w", err)
	}

	if _, err := t.exec(`
		INSERT INTO sent_counters (chain, count) VALUES (?, ?)
		ON CONFLICT(chain) DO UPDATE SET count = excluded.count
	`, chain, int64(id)); err != nil {
		return 0, fmt.Errorf("append sent: counter: %w", err)
	}

	return id, nil
}

// SentCount returns the outbound counter for chain (0 if never sent).
func (t *Tx) SentCount(chain string) (uint64, error) {
	count, err := t.scanUint(`SELECT count FROM sent_counters WHERE chain = ?`, chain)
	if err != nil {
		return 0, fmt.Errorf("sent count: %w", err)
	}
	return count, nil
}

// SentMessage returns the outbound message at (chain, id).
// Returns ErrNotFound if absent.
func (t *Tx) SentMessage(chain string, id uint64) (ir.Message, error) {
	var msgJSON string
	err := t.queryRow(`
		SELECT message FROM sent_messages WHERE chain = ? AND id = ?
	`, chain, int64(id)).Scan(&msgJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Message{}, ErrNotFound
	}
	if err != nil {
		return ir.Message{}, fmt.Errorf("read sent message: %w", err)
	}
	return unmarshalMessage(msgJSON)
}

// SentMessages returns the outbound log of one destination chain ordered by id.
func (t *Tx) SentMessages(chain string) ([]ir.SentEntry, error) {
	return t.readSent(`
		SELECT chain, id, message FROM sent_messages
		WHERE chain = ?
		ORDER BY id ASC
	`, chain)
}

// AllSentMessages returns every outbound entry ordered by (chain, id).
func (t *Tx) AllSentMessages() ([]ir.SentEntry, error) {
	return t.readSent(`
		SELECT chain, id, message FROM sent_messages
		ORDER BY chain COLLATE BINARY ASC, id ASC
	`)
}

func (t *Tx) readSent(query string, args ...any) ([]ir.SentEntry, error) {
	rows, err := t.query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sent messages: %w", err)
	}
	defer rows.Close()

	entries := []ir.SentEntry{}
	for rows.Next() {
		var entry ir.SentEntry
		var id int64
		var msgJSON string
		if err := rows.Scan(&entry.Key.Chain, &id, &msgJSON); err != nil {
			return nil, fmt.Errorf("scan sent message: %w", err)
		}
		entry.Key.ID = uint64(id)
		if entry.Message, err = unmarshalMessage(msgJSON); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sent messages: %w", err)
	}
	return entries, nil
}
