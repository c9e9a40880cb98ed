package bridge

import (
	"fmt"
	"log/slog"

	"github.com/roach88/xbridge/internal/store"
)

// admit decides whether validator may attest slot (chain, id) and advances
// the watermarks it is allowed to advance.
//
// Accepted ids are:
//   - gw+1, a new head, which moves the global watermark
//   - ids at or below gw that still have a pending slot, when the validator
//     is catching up from below its own watermark or has no watermark yet
//   - ids between the validator's watermark and gw, helping finish a slot
//
// The caller's transaction is rolled back on any returned error, so writes
// made here before a later rejection never persist.
func admit(tx *store.Tx, chain string, id uint64, validator string) error {
	gw, err := tx.LatestMessageID(chain)
	if err != nil {
		return fmt.Errorf("admit: %w", err)
	}

	if id > gw+1 {
		return slotError(ErrCodeFatalSequenceGap, chain, id, validator,
			fmt.Sprintf("id exceeds latest message id + 1 (%d)", gw+1))
	}
	if id == gw+1 {
		if err := tx.SetLatestMessageID(chain, id); err != nil {
			return fmt.Errorf("admit: %w", err)
		}
	}

	fv, err := tx.FinalReceivedID(chain, validator)
	if err != nil {
		return fmt.Errorf("admit: %w", err)
	}
	if fv == id {
		return slotError(ErrCodeAlreadyReceived, chain, id, validator, "validator already received this id")
	}

	if id < fv || (id < gw+1 && fv == 0) {
		live, err := tx.HasPendingSlot(chain, id)
		if err != nil {
			return fmt.Errorf("admit: %w", err)
		}
		if !live {
			return slotError(ErrCodeAlreadyCompleted, chain, id, validator, "message has already completed")
		}
	}

	if id > fv {
		if err := tx.SetFinalReceivedID(chain, validator, id); err != nil {
			return fmt.Errorf("admit: %w", err)
		}
	}

	slog.Debug("attestation admitted",
		"chain", chain,
		"id", id,
		"validator", validator,
		"latest", max(gw, id),
	)
	return nil
}
