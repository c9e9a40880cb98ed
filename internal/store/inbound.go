package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/xbridge/internal/ir"
)

// LatestMessageID returns the global watermark of chain (0 if unset).
func (t *Tx) LatestMessageID(chain string) (uint64, error) {
	id, err := t.scanUint(`SELECT id FROM latest_message_ids WHERE chain = ?`, chain)
	if err != nil {
		return 0, fmt.Errorf("latest message id: %w", err)
	}
	return id, nil
}

// SetLatestMessageID sets the global watermark of chain.
func (t *Tx) SetLatestMessageID(chain string, id uint64) error {
	_, err := t.exec(`
		INSERT INTO latest_message_ids (chain, id) VALUES (?, ?)
		ON CONFLICT(chain) DO UPDATE SET id = excluded.id
	`, chain, int64(id))
	if err != nil {
		return fmt.Errorf("set latest message id: %w", err)
	}
	return nil
}

// FinalReceivedID returns the watermark of validator on chain (0 if unset).
func (t *Tx) FinalReceivedID(chain, validator string) (uint64, error) {
	id, err := t.scanUint(`
		SELECT id FROM final_received_ids WHERE chain = ? AND validator = ?
	`, chain, validator)
	if err != nil {
		return 0, fmt.Errorf("final received id: %w", err)
	}
	return id, nil
}

// SetFinalReceivedID sets the watermark of validator on chain.
func (t *Tx) SetFinalReceivedID(chain, validator string, id uint64) error {
	_, err := t.exec(`
		INSERT INTO final_received_ids (chain, validator, id) VALUES (?, ?, ?)
		ON CONFLICT(chain, validator) DO UPDATE SET id = excluded.id
	`, chain, validator, int64(id))
	if err != nil {
		return fmt.Errorf("set final received id: %w", err)
	}
	return nil
}

// HasPendingSlot reports whether any hash group is open at (chain, id).
func (t *Tx) HasPendingSlot(chain string, id uint64) (bool, error) {
	var count int
	err := t.queryRow(`
		SELECT COUNT(*) FROM pending_groups WHERE chain = ? AND id = ?
	`, chain, int64(id)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check pending slot: %w", err)
	}
	return count > 0, nil
}

// NextPendingID returns the lowest open slot id of chain strictly above
// after. found is false when no such slot exists.
func (t *Tx) NextPendingID(chain string, after uint64) (id uint64, found bool, err error) {
	var next sql.NullInt64
	err = t.queryRow(`
		SELECT MIN(id) FROM pending_groups WHERE chain = ? AND id > ?
	`, chain, int64(after)).Scan(&next)
	if err != nil {
		return 0, false, fmt.Errorf("next pending id: %w", err)
	}
	if !next.Valid {
		return 0, false, nil
	}
	return uint64(next.Int64), true, nil
}

// GroupAttesters returns the ordered attesters of one hash group.
// found is false when the group does not exist.
func (t *Tx) GroupAttesters(chain string, id uint64, hash string) (validators []string, found bool, err error) {
	var count int
	err = t.queryRow(`
		SELECT COUNT(*) FROM pending_groups WHERE chain = ? AND id = ? AND hash = ?
	`, chain, int64(id), hash).Scan(&count)
	if err != nil {
		return nil, false, fmt.Errorf("check pending group: %w", err)
	}
	if count == 0 {
		return nil, false, nil
	}

	rows, err := t.query(`
		SELECT validator FROM pending_attesters
		WHERE chain = ? AND id = ? AND hash = ?
		ORDER BY position ASC
	`, chain, int64(id), hash)
	if err != nil {
		return nil, false, fmt.Errorf("query attesters: %w", err)
	}
	defer rows.Close()

	validators = []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, false, fmt.Errorf("scan attester: %w", err)
		}
		validators = append(validators, v)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate attesters: %w", err)
	}
	return validators, true, nil
}

// OpenGroup creates a hash group at (chain, id) holding msg.
// The caller must add at least one attester in the same transaction.
func (t *Tx) OpenGroup(chain string, id uint64, hash string, msg ir.Message) error {
	msgJSON, err := marshalMessage(msg)
	if err != nil {
		return fmt.Errorf("open group: %w", err)
	}
	if _, err := t.exec(`
		INSERT INTO pending_groups (chain, id, hash, message) VALUES (?, ?, ?, ?)
	`, chain, int64(id), hash, msgJSON); err != nil {
		return fmt.Errorf("open group: %w", err)
	}
	return nil
}

// AddAttester appends validator to a hash group and returns the group's
// attester count afterwards. A repeated validator violates the primary key.
func (t *Tx) AddAttester(chain string, id uint64, hash, validator string) (int, error) {
	var count int
	err := t.queryRow(`
		SELECT COUNT(*) FROM pending_attesters WHERE chain = ? AND id = ? AND hash = ?
	`, chain, int64(id), hash).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("add attester: count: %w", err)
	}

	if _, err := t.exec(`
		INSERT INTO pending_attesters (chain, id, hash, validator, position)
		VALUES (?, ?, ?, ?, ?)
	`, chain, int64(id), hash, validator, count+1); err != nil {
		return 0, fmt.Errorf("add attester: insert: %w", err)
	}
	return count + 1, nil
}

// DeletePendingSlot drops every hash group of (chain, id) with its attesters.
func (t *Tx) DeletePendingSlot(chain string, id uint64) error {
	if _, err := t.exec(`
		DELETE FROM pending_attesters WHERE chain = ? AND id = ?
	`, chain, int64(id)); err != nil {
		return fmt.Errorf("delete pending attesters: %w", err)
	}
	if _, err := t.exec(`
		DELETE FROM pending_groups WHERE chain = ? AND id = ?
	`, chain, int64(id)); err != nil {
		return fmt.Errorf("delete pending groups: %w", err)
	}
	return nil
}

// ListPending returns every open slot ordered by (chain, id), with groups
// ordered by hash and attesters in attestation order.
func (t *Tx) ListPending() ([]ir.PendingSlot, error) {
	rows, err := t.query(`
		SELECT chain, id, hash, message FROM pending_groups
		ORDER BY chain COLLATE BINARY ASC, id ASC, hash COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query pending groups: %w", err)
	}

	slots := []ir.PendingSlot{}
	for rows.Next() {
		var key ir.SlotKey
		var id int64
		var group ir.PendingGroup
		var msgJSON string
		if err := rows.Scan(&key.Chain, &id, &group.Hash, &msgJSON); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan pending group: %w", err)
		}
		key.ID = uint64(id)
		if group.Message, err = unmarshalMessage(msgJSON); err != nil {
			rows.Close()
			return nil, err
		}

		if n := len(slots); n == 0 || slots[n-1].Key != key {
			slots = append(slots, ir.PendingSlot{Key: key})
		}
		last := &slots[len(slots)-1]
		last.Groups = append(last.Groups, group)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate pending groups: %w", err)
	}
	rows.Close()

	// Attesters are loaded after the cursor is closed.
	for i := range slots {
		for j := range slots[i].Groups {
			g := &slots[i].Groups[j]
			validators, _, err := t.GroupAttesters(slots[i].Key.Chain, slots[i].Key.ID, g.Hash)
			if err != nil {
				return nil, err
			}
			g.Validators = validators
		}
	}

	return slots, nil
}

// PutExecutable promotes msg to the executable set at (chain, id).
// An entry already waiting at the key is kept: the first message to reach
// quorum wins.
func (t *Tx) PutExecutable(chain string, id uint64, msg ir.Message) (bool, error) {
	msgJSON, err := marshalMessage(msg)
	if err != nil {
		return false, fmt.Errorf("put executable: %w", err)
	}
	result, err := t.exec(`
		INSERT INTO executable_messages (chain, id, message) VALUES (?, ?, ?)
		ON CONFLICT(chain, id) DO NOTHING
	`, chain, int64(id), msgJSON)
	if err != nil {
		return false, fmt.Errorf("put executable: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("put executable: rows affected: %w", err)
	}
	return n > 0, nil
}

// Executable returns the executable entry at (chain, id).
// Returns ErrNotFound if absent.
func (t *Tx) Executable(chain string, id uint64) (ir.ExecutableEntry, error) {
	entry := ir.ExecutableEntry{Key: ir.SlotKey{Chain: chain, ID: id}}
	var msgJSON string
	err := t.queryRow(`
		SELECT message, claimed_by FROM executable_messages WHERE chain = ? AND id = ?
	`, chain, int64(id)).Scan(&msgJSON, &entry.ClaimedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.ExecutableEntry{}, ErrNotFound
	}
	if err != nil {
		return ir.ExecutableEntry{}, fmt.Errorf("read executable: %w", err)
	}
	if entry.Message, err = unmarshalMessage(msgJSON); err != nil {
		return ir.ExecutableEntry{}, err
	}
	return entry, nil
}

// ClaimExecutable marks the unclaimed entry at (chain, id) as owned by token.
// Returns ErrNotFound if the entry is absent or already claimed.
func (t *Tx) ClaimExecutable(chain string, id uint64, token string) (ir.ExecutableEntry, error) {
	entry, err := t.Executable(chain, id)
	if err != nil {
		return ir.ExecutableEntry{}, err
	}
	if entry.ClaimedBy != "" {
		return ir.ExecutableEntry{}, ErrNotFound
	}

	if _, err := t.exec(`
		UPDATE executable_messages SET claimed_by = ? WHERE chain = ? AND id = ?
	`, token, chain, int64(id)); err != nil {
		return ir.ExecutableEntry{}, fmt.Errorf("claim executable: %w", err)
	}
	entry.ClaimedBy = token
	return entry, nil
}

// DeleteExecutable removes the entry at (chain, id) if it is still owned by
// token.
func (t *Tx) DeleteExecutable(chain string, id uint64, token string) error {
	if _, err := t.exec(`
		DELETE FROM executable_messages WHERE chain = ? AND id = ? AND claimed_by = ?
	`, chain, int64(id), token); err != nil {
		return fmt.Errorf("delete executable: %w", err)
	}
	return nil
}

// ListExecutable returns every executable entry ordered by (chain, id).
func (t *Tx) ListExecutable() ([]ir.ExecutableEntry, error) {
	rows, err := t.query(`
		SELECT chain, id, message, claimed_by FROM executable_messages
		ORDER BY chain COLLATE BINARY ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query executable: %w", err)
	}
	defer rows.Close()

	entries := []ir.ExecutableEntry{}
	for rows.Next() {
		var entry ir.ExecutableEntry
		var id int64
		var msgJSON string
		if err := rows.Scan(&entry.Key.Chain, &id, &msgJSON, &entry.ClaimedBy); err != nil {
			return nil, fmt.Errorf("scan executable: %w", err)
		}
		entry.Key.ID = uint64(id)
		if entry.Message, err = unmarshalMessage(msgJSON); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate executable: %w", err)
	}
	return entries, nil
}
