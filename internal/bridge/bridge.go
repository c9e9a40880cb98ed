package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/roach88/xbridge/internal/ir"
	"github.com/roach88/xbridge/internal/store"
)

// DefaultChain is the chain name stamped on outbound messages when none is
// configured.
const DefaultChain = "xbridge"

// MaxID is the largest sequence or session id the ledger and the execution
// context can carry; both store ids as signed 64-bit integers.
const MaxID = math.MaxInt64

// Invoker performs the outbound call of a dispatch.
// args is the decoded message payload followed by the execution context.
type Invoker interface {
	Invoke(ctx context.Context, contract, action string, args ir.Array) error
}

// Bridge serves every bridge operation against one ledger.
//
// Thread-safety: all methods are safe for concurrent use. Synchronous
// portions of each operation are serialized by mu; ExecuteMessage releases
// it around the outbound call.
type Bridge struct {
	store   *store.Store
	invoker Invoker
	chain   string
	tokens  TokenGenerator
	metrics *Metrics

	mu sync.Mutex
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithChain sets the chain name stamped as from_chain on outbound messages.
func WithChain(name string) Option {
	return func(b *Bridge) {
		b.chain = name
	}
}

// WithTokenGenerator sets the dispatch token generator.
// Default: UUIDv7Generator.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(b *Bridge) {
		b.tokens = g
	}
}

// WithMetrics sets the collectors updated by the bridge.
// Default: unregistered collectors.
func WithMetrics(m *Metrics) Option {
	return func(b *Bridge) {
		b.metrics = m
	}
}

// New creates a Bridge over s that dispatches through invoker.
func New(s *store.Store, invoker Invoker, opts ...Option) *Bridge {
	b := &Bridge{
		store:   s,
		invoker: invoker,
		chain:   DefaultChain,
		tokens:  UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.metrics == nil {
		b.metrics = NewMetrics(nil)
	}
	return b
}

// Chain returns the bridge's own chain name.
func (b *Bridge) Chain() string {
	return b.chain
}

// Bootstrap grants the custodian role to each identity.
// It is the only way to create custodians and is meant to run once at node
// start-up, before any request is served. Existing custodians are kept.
func (b *Bridge) Bootstrap(ctx context.Context, custodians []string) error {
	return b.updateRoles(ctx, func(tx *store.Tx) error {
		for _, id := range custodians {
			if id == "" {
				return newError(ErrCodeInvalidArgument, "custodian identity is empty")
			}
			added, err := tx.AddRole(ir.RoleCustodian, id)
			if err != nil {
				return fmt.Errorf("bootstrap custodian %q: %w", id, err)
			}
			if added {
				slog.Info("custodian bootstrapped", "identity", id)
			}
		}
		return nil
	})
}

// updateRoles runs fn like update and, once the transaction has committed,
// sets the validator gauge to the committed set size.
func (b *Bridge) updateRoles(ctx context.Context, fn func(tx *store.Tx) error) error {
	var validators int
	err := b.update(ctx, func(tx *store.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		var err error
		validators, err = tx.CountRole(ir.RoleValidator)
		return err
	})
	if err != nil {
		return err
	}
	b.metrics.validators.Set(float64(validators))
	return nil
}

// update runs fn in one ledger transaction under the bridge mutex.
func (b *Bridge) update(ctx context.Context, fn func(tx *store.Tx) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store.Update(ctx, fn)
}

// view runs a read-only fn.
func (b *Bridge) view(ctx context.Context, fn func(tx *store.Tx) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store.View(ctx, fn)
}
