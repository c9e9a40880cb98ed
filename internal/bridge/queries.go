package bridge

import (
	"context"
	"errors"

	"github.com/roach88/xbridge/internal/ir"
	"github.com/roach88/xbridge/internal/store"
)

// PendingMessages lists every open slot with its competing hash groups.
func (b *Bridge) PendingMessages(ctx context.Context) ([]ir.PendingSlot, error) {
	var slots []ir.PendingSlot
	err := b.view(ctx, func(tx *store.Tx) error {
		var err error
		slots, err = tx.ListPending()
		return err
	})
	return slots, err
}

// ExecutableMessages lists quorum-approved messages awaiting dispatch,
// including entries claimed by an in-flight dispatch.
func (b *Bridge) ExecutableMessages(ctx context.Context) ([]ir.ExecutableEntry, error) {
	var entries []ir.ExecutableEntry
	err := b.view(ctx, func(tx *store.Tx) error {
		var err error
		entries, err = tx.ListExecutable()
		return err
	})
	return entries, err
}

// SentMessages lists the outbound log of every destination.
func (b *Bridge) SentMessages(ctx context.Context) ([]ir.SentEntry, error) {
	var entries []ir.SentEntry
	err := b.view(ctx, func(tx *store.Tx) error {
		var err error
		entries, err = tx.AllSentMessages()
		return err
	})
	return entries, err
}

// SentMessagesTo lists the outbound log of one destination.
func (b *Bridge) SentMessagesTo(ctx context.Context, chain string) ([]ir.SentEntry, error) {
	var entries []ir.SentEntry
	err := b.view(ctx, func(tx *store.Tx) error {
		var err error
		entries, err = tx.SentMessages(chain)
		return err
	})
	return entries, err
}

// SentMessageByID returns outbound message id for chain, or NOT_FOUND.
func (b *Bridge) SentMessageByID(ctx context.Context, chain string, id uint64) (ir.Message, error) {
	var msg ir.Message
	err := b.view(ctx, func(tx *store.Tx) error {
		var err error
		msg, err = tx.SentMessage(chain, id)
		if errors.Is(err, store.ErrNotFound) {
			return slotError(ErrCodeNotFound, chain, id, "", "no sent message")
		}
		return err
	})
	return msg, err
}

// SentMessageCount returns the number of messages sent to chain.
func (b *Bridge) SentMessageCount(ctx context.Context, chain string) (uint64, error) {
	var count uint64
	err := b.view(ctx, func(tx *store.Tx) error {
		var err error
		count, err = tx.SentCount(chain)
		return err
	})
	return count, err
}

// FinalReceivedMessageID returns validator's watermark on chain.
func (b *Bridge) FinalReceivedMessageID(ctx context.Context, chain, validator string) (uint64, error) {
	var id uint64
	err := b.view(ctx, func(tx *store.Tx) error {
		var err error
		id, err = tx.FinalReceivedID(chain, validator)
		return err
	})
	return id, err
}

// LatestMessageID returns the global watermark of chain.
func (b *Bridge) LatestMessageID(ctx context.Context, chain string) (uint64, error) {
	var id uint64
	err := b.view(ctx, func(tx *store.Tx) error {
		var err error
		id, err = tx.LatestMessageID(chain)
		return err
	})
	return id, err
}

// MsgPortingTask returns the next id validator should attest for chain: the
// lowest pending slot above its own watermark, else the global watermark + 1.
func (b *Bridge) MsgPortingTask(ctx context.Context, chain, validator string) (uint64, error) {
	var task uint64
	err := b.view(ctx, func(tx *store.Tx) error {
		fv, err := tx.FinalReceivedID(chain, validator)
		if err != nil {
			return err
		}
		next, found, err := tx.NextPendingID(chain, fv)
		if err != nil {
			return err
		}
		if found {
			task = next
			return nil
		}
		gw, err := tx.LatestMessageID(chain)
		if err != nil {
			return err
		}
		task = gw + 1
		return nil
	})
	return task, err
}

// Lockers lists the locker identities.
func (b *Bridge) Lockers(ctx context.Context) ([]string, error) {
	return b.listRole(ctx, ir.RoleLocker)
}

// Custodians lists the custodian identities.
func (b *Bridge) Custodians(ctx context.Context) ([]string, error) {
	return b.listRole(ctx, ir.RoleCustodian)
}

// Validators lists the validator identities.
func (b *Bridge) Validators(ctx context.Context) ([]string, error) {
	return b.listRole(ctx, ir.RoleValidator)
}

func (b *Bridge) listRole(ctx context.Context, role ir.Role) ([]string, error) {
	var members []string
	err := b.view(ctx, func(tx *store.Tx) error {
		var err error
		members, err = tx.ListRole(role)
		return err
	})
	return members, err
}

// DispatchLog returns every dispatch attempt made on (chain, id).
func (b *Bridge) DispatchLog(ctx context.Context, chain string, id uint64) ([]ir.DispatchRecord, error) {
	var records []ir.DispatchRecord
	err := b.view(ctx, func(tx *store.Tx) error {
		var err error
		records, err = tx.DispatchLog(chain, id)
		return err
	})
	return records, err
}
