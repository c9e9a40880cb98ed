package bridge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/xbridge/internal/ir"
	"github.com/roach88/xbridge/internal/store"
)

// RegisterLocker grants the locker role to identity. Custodian-only.
func (b *Bridge) RegisterLocker(ctx context.Context, caller, identity string) (bool, error) {
	return b.register(ctx, caller, ir.RoleLocker, identity)
}

// RegisterValidator adds identity to the validator set. Custodian-only.
// The new set size applies to every pending slot from the next attestation.
func (b *Bridge) RegisterValidator(ctx context.Context, caller, identity string) (bool, error) {
	return b.register(ctx, caller, ir.RoleValidator, identity)
}

// UnregisterValidator removes identity from the validator set.
// Custodian-only. Returns false if identity was not a validator.
func (b *Bridge) UnregisterValidator(ctx context.Context, caller, identity string) (bool, error) {
	var removed bool
	err := b.updateRoles(ctx, func(tx *store.Tx) error {
		if err := requireRole(tx, ir.RoleCustodian, caller); err != nil {
			return err
		}
		var err error
		if removed, err = tx.RemoveRole(ir.RoleValidator, identity); err != nil {
			return fmt.Errorf("unregister validator: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if removed {
		slog.Info("validator unregistered", "identity", identity, "by", caller)
	}
	return removed, nil
}

func (b *Bridge) register(ctx context.Context, caller string, role ir.Role, identity string) (bool, error) {
	if identity == "" {
		return false, newError(ErrCodeInvalidArgument, "%s identity is empty", role)
	}
	err := b.updateRoles(ctx, func(tx *store.Tx) error {
		if err := requireRole(tx, ir.RoleCustodian, caller); err != nil {
			return err
		}
		added, err := tx.AddRole(role, identity)
		if err != nil {
			return fmt.Errorf("register %s: %w", role, err)
		}
		if !added {
			return newError(ErrCodeAlreadyRegistered, "%s %q already registered", role, identity)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	slog.Info("role registered", "role", role, "identity", identity, "by", caller)
	return true, nil
}

// requireRole returns UNAUTHORIZED unless caller holds role.
func requireRole(tx *store.Tx, role ir.Role, caller string) error {
	ok, err := tx.HasRole(role, caller)
	if err != nil {
		return fmt.Errorf("check %s role: %w", role, err)
	}
	if !ok {
		return newError(ErrCodeUnauthorized, "caller %q is not a %s", caller, role)
	}
	return nil
}
