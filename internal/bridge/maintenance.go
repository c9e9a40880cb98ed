package bridge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/xbridge/internal/ir"
	"github.com/roach88/xbridge/internal/store"
)

// ClearReceivedMessage purges inbound state. Custodian-only.
//
// Every pending slot and executable entry is dropped, on every chain. For
// each listed chain the global watermark and the watermarks of the current
// validators are reset, so sequencing restarts at id 1.
func (b *Bridge) ClearReceivedMessage(ctx context.Context, caller string, chains []string) (bool, error) {
	err := b.update(ctx, func(tx *store.Tx) error {
		if err := requireRole(tx, ir.RoleCustodian, caller); err != nil {
			return err
		}
		validators, err := tx.ListRole(ir.RoleValidator)
		if err != nil {
			return fmt.Errorf("clear received: %w", err)
		}
		return tx.ClearReceived(chains, validators)
	})
	if err != nil {
		return false, err
	}
	slog.Warn("received messages cleared", "chains", chains, "by", caller)
	return true, nil
}

// ClearSentMessage purges the outbound log and counters of each listed
// chain. Custodian-only.
func (b *Bridge) ClearSentMessage(ctx context.Context, caller string, chains []string) (bool, error) {
	err := b.update(ctx, func(tx *store.Tx) error {
		if err := requireRole(tx, ir.RoleCustodian, caller); err != nil {
			return err
		}
		return tx.ClearSent(chains)
	})
	if err != nil {
		return false, err
	}
	slog.Warn("sent messages cleared", "chains", chains, "by", caller)
	return true, nil
}
