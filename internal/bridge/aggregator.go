package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/xbridge/internal/ir"
	"github.com/roach88/xbridge/internal/store"
)

// Receipt describes the effect of one accepted attestation.
type Receipt struct {
	Chain string `json:"chain_name"`
	ID    uint64 `json:"id"`
	Hash  string `json:"hash"`

	// Attesters is the attester count of the hash group after this
	// attestation.
	Attesters int `json:"attesters"`

	// Quorum is the validator-set size the count was compared against.
	Quorum int `json:"quorum"`

	// Promoted is true when this attestation moved the message to the
	// executable set.
	Promoted bool `json:"promoted"`
}

// ReceiveMessage records caller's attestation that msg is message id of
// msg.FromChain. Validator-only.
//
// The whole call is one transaction: a rejection by sequencing or by the
// aggregator leaves no trace in the ledger.
func (b *Bridge) ReceiveMessage(ctx context.Context, caller string, id uint64, msg ir.Message) (Receipt, error) {
	chain := msg.FromChain
	if chain == "" {
		return Receipt{}, newError(ErrCodeInvalidArgument, "message from_chain is empty")
	}
	if id == 0 {
		return Receipt{}, slotError(ErrCodeInvalidArgument, chain, id, caller, "sequence ids start at 1")
	}
	if id > MaxID || msg.Session.ID > MaxID {
		return Receipt{}, slotError(ErrCodeInvalidArgument, chain, id, caller, fmt.Sprintf("ids must not exceed %d", uint64(MaxID)))
	}

	hash, err := ir.MessageHash(msg)
	if err != nil {
		return Receipt{}, newError(ErrCodeInvalidArgument, "hash message: %v", err)
	}

	var receipt Receipt
	err = b.update(ctx, func(tx *store.Tx) error {
		isValidator, err := tx.HasRole(ir.RoleValidator, caller)
		if err != nil {
			return fmt.Errorf("check validator role: %w", err)
		}
		if !isValidator {
			return newError(ErrCodeNotValidator, "caller %q is not a validator", caller)
		}

		if err := admit(tx, chain, id, caller); err != nil {
			return err
		}

		receipt, err = b.recordAttestation(tx, chain, id, caller, hash, msg)
		return err
	})
	if err != nil {
		if CodeOf(err) != "" {
			b.metrics.attestations.WithLabelValues(outcomeRejected).Inc()
			slog.Warn("attestation rejected",
				"chain", chain,
				"id", id,
				"validator", caller,
				"error", err,
			)
		}
		return Receipt{}, err
	}

	if receipt.Promoted {
		b.metrics.attestations.WithLabelValues(outcomePromoted).Inc()
		b.metrics.promotions.Inc()
		slog.Info("message promoted to executable",
			"chain", chain,
			"id", id,
			"hash", hash,
			"quorum", receipt.Quorum,
		)
	} else {
		b.metrics.attestations.WithLabelValues(outcomePending).Inc()
		slog.Debug("attestation recorded",
			"chain", chain,
			"id", id,
			"validator", caller,
			"hash", hash,
			"attesters", receipt.Attesters,
			"quorum", receipt.Quorum,
		)
	}
	return receipt, nil
}

// recordAttestation adds validator to the hash group of slot (chain, id),
// opening the group if needed, and promotes the group once its attester
// count reaches the current validator-set size.
//
// Groups of different hashes never merge; promotion deletes the whole slot,
// losing any competing group.
func (b *Bridge) recordAttestation(tx *store.Tx, chain string, id uint64, validator, hash string, msg ir.Message) (Receipt, error) {
	attesters, found, err := tx.GroupAttesters(chain, id, hash)
	if err != nil {
		return Receipt{}, fmt.Errorf("record attestation: %w", err)
	}
	if found && slices.Contains(attesters, validator) {
		return Receipt{}, slotError(ErrCodeDuplicateAttestation, chain, id, validator,
			fmt.Sprintf("validator already attested hash %s", hash))
	}
	if !found {
		if err := tx.OpenGroup(chain, id, hash, msg); err != nil {
			return Receipt{}, fmt.Errorf("record attestation: %w", err)
		}
	}

	count, err := tx.AddAttester(chain, id, hash, validator)
	if err != nil {
		return Receipt{}, fmt.Errorf("record attestation: %w", err)
	}

	// Quorum is read live: set changes apply to slots already in flight.
	quorum, err := tx.CountRole(ir.RoleValidator)
	if err != nil {
		return Receipt{}, fmt.Errorf("record attestation: quorum: %w", err)
	}

	receipt := Receipt{
		Chain:     chain,
		ID:        id,
		Hash:      hash,
		Attesters: count,
		Quorum:    quorum,
	}
	if count < quorum {
		return receipt, nil
	}

	if _, err := tx.PutExecutable(chain, id, msg); err != nil {
		return Receipt{}, fmt.Errorf("promote: %w", err)
	}
	if err := tx.DeletePendingSlot(chain, id); err != nil {
		return Receipt{}, fmt.Errorf("promote: %w", err)
	}
	receipt.Promoted = true
	return receipt, nil
}
