package store

import (
	"fmt"

	"github.com/roach88/xbridge/internal/ir"
)

// RecordDispatch inserts or updates one dispatch attempt, keyed by token.
func (t *Tx) RecordDispatch(rec ir.DispatchRecord) error {
	_, err := t.exec(`
		INSERT INTO dispatch_log (token, chain, id, outcome, error)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(token) DO UPDATE SET outcome = excluded.outcome, error = excluded.error
	`, rec.Token, rec.Chain, int64(rec.ID), string(rec.Outcome), rec.Error)
	if err != nil {
		return fmt.Errorf("record dispatch: %w", err)
	}
	return nil
}

// DispatchLog returns the attempts made on (chain, id) in attempt order.
func (t *Tx) DispatchLog(chain string, id uint64) ([]ir.DispatchRecord, error) {
	rows, err := t.query(`
		SELECT token, chain, id, outcome, error FROM dispatch_log
		WHERE chain = ? AND id = ?
		ORDER BY seq ASC
	`, chain, int64(id))
	if err != nil {
		return nil, fmt.Errorf("query dispatch log: %w", err)
	}
	defer rows.Close()

	records := []ir.DispatchRecord{}
	for rows.Next() {
		var rec ir.DispatchRecord
		var recID int64
		var outcome string
		if err := rows.Scan(&rec.Token, &rec.Chain, &recID, &outcome, &rec.Error); err != nil {
			return nil, fmt.Errorf("scan dispatch log: %w", err)
		}
		rec.ID = uint64(recID)
		rec.Outcome = ir.DispatchOutcome(outcome)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dispatch log: %w", err)
	}
	return records, nil
}
