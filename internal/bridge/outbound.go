package bridge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/xbridge/internal/ir"
	"github.com/roach88/xbridge/internal/store"
)

// SendMessage appends a message for toChain to the outbound log.
// Locker-only. The message is stamped with the bridge's own chain as
// from_chain, caller as sender and signer, and the default QoS. Ids are
// assigned per destination starting at 1.
func (b *Bridge) SendMessage(ctx context.Context, caller, toChain string, content ir.Content, session ir.Session) (ir.SentEntry, error) {
	if toChain == "" {
		return ir.SentEntry{}, newError(ErrCodeInvalidArgument, "destination chain is empty")
	}
	if session.ID > MaxID {
		return ir.SentEntry{}, newError(ErrCodeInvalidArgument, "session id must not exceed %d", uint64(MaxID))
	}

	msg := ir.Message{
		FromChain: b.chain,
		ToChain:   toChain,
		Sender:    caller,
		Signer:    caller,
		QoS:       ir.DefaultQoS,
		Content:   content,
		Session:   session,
	}

	var id uint64
	err := b.update(ctx, func(tx *store.Tx) error {
		if err := requireRole(tx, ir.RoleLocker, caller); err != nil {
			return err
		}
		var err error
		if id, err = tx.AppendSent(toChain, msg); err != nil {
			return fmt.Errorf("send message: %w", err)
		}
		return nil
	})
	if err != nil {
		return ir.SentEntry{}, err
	}

	b.metrics.outbound.Inc()
	slog.Info("outbound message queued",
		"chain", toChain,
		"id", id,
		"sender", caller,
		"contract", content.Contract,
		"action", content.Action,
	)
	return ir.SentEntry{Key: ir.SlotKey{Chain: toChain, ID: id}, Message: msg}, nil
}
