package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/xbridge/internal/ir"
	"github.com/roach88/xbridge/internal/store"
)

// ExecuteMessage dispatches the executable message at (chain, id): exactly
// one call of content.action on content.contract with the payload arguments
// followed by the execution context.
//
// The entry is claimed and the claim committed before the call, so a
// concurrent ExecuteMessage on the same slot returns NOT_FOUND. After the
// call the entry is removed whatever the outcome; a failed call returns
// EXECUTE_MESSAGE_FAILED and the message is not retried.
//
// A payload that does not decode to a JSON array is rejected with
// INVALID_PAYLOAD before the claim and leaves the entry in place.
func (b *Bridge) ExecuteMessage(ctx context.Context, chain string, id uint64) (ir.DispatchRecord, error) {
	token := b.tokens.Generate()
	rec := ir.DispatchRecord{Token: token, Chain: chain, ID: id, Outcome: ir.OutcomeClaimed}

	var entry ir.ExecutableEntry
	var args ir.Array
	err := b.update(ctx, func(tx *store.Tx) error {
		current, err := tx.Executable(chain, id)
		if errors.Is(err, store.ErrNotFound) || (err == nil && current.ClaimedBy != "") {
			return slotError(ErrCodeNotFound, chain, id, "", "no executable message")
		}
		if err != nil {
			return fmt.Errorf("execute message: %w", err)
		}

		if args, err = buildArgs(id, current.Message); err != nil {
			return err
		}

		if entry, err = tx.ClaimExecutable(chain, id, token); err != nil {
			return fmt.Errorf("execute message: claim: %w", err)
		}
		return tx.RecordDispatch(rec)
	})
	if err != nil {
		return ir.DispatchRecord{}, err
	}

	slog.Debug("executable message claimed",
		"chain", chain,
		"id", id,
		"token", token,
	)

	msg := entry.Message
	callErr := b.invoker.Invoke(ctx, msg.Content.Contract, msg.Content.Action, args)

	rec.Outcome = ir.OutcomeExecuted
	if callErr != nil {
		rec.Outcome = ir.OutcomeFailed
		rec.Error = callErr.Error()
	}

	// The claim already committed; cancellation of ctx must not keep the
	// entry around.
	err = b.update(context.WithoutCancel(ctx), func(tx *store.Tx) error {
		if err := tx.DeleteExecutable(chain, id, token); err != nil {
			return err
		}
		return tx.RecordDispatch(rec)
	})
	if err != nil {
		return rec, fmt.Errorf("execute message: release: %w", err)
	}

	b.metrics.dispatches.WithLabelValues(string(rec.Outcome)).Inc()
	if callErr != nil {
		slog.Error("dispatch failed, message dropped",
			"chain", chain,
			"id", id,
			"token", token,
			"contract", msg.Content.Contract,
			"action", msg.Content.Action,
			"error", callErr,
		)
		return rec, &Error{
			Code:    ErrCodeExecuteMessageFailed,
			Message: "outbound call failed",
			Chain:   chain,
			ID:      id,
			Cause:   callErr,
		}
	}

	slog.Info("message executed",
		"chain", chain,
		"id", id,
		"token", token,
		"contract", msg.Content.Contract,
		"action", msg.Content.Action,
	)
	return rec, nil
}

// buildArgs decodes the payload and appends the execution context.
func buildArgs(id uint64, msg ir.Message) (ir.Array, error) {
	payload, err := ir.ParseArgs(msg.Content.Data)
	if err != nil {
		return nil, &Error{
			Code:    ErrCodeInvalidPayload,
			Message: err.Error(),
			Chain:   msg.FromChain,
			ID:      id,
		}
	}
	args := make(ir.Array, 0, len(payload)+1)
	args = append(args, payload...)
	args = append(args, ir.NewExecutionContext(id, msg).ToValue())
	return args, nil
}
