// Package relayer runs the validator side of the bridge: it ports outbound
// messages from one node to another and dispatches what reached quorum.
//
// Each tick handles every route independently:
//
//	count := source.SentMessageCount(route.To)
//	task  := dest.MsgPortingTask(route.From, identity)
//	if task <= count: dest.ReceiveMessage(task, source.SentMessageByID(route.To, task))
//	for each executable entry of route.From on dest: dest.ExecuteMessage
//
// At most one message is ported per route per tick. Failures are logged and
// left for the next tick to re-derive; the relayer never retries on its own.
package relayer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/roach88/xbridge/internal/bridge"
	"github.com/roach88/xbridge/internal/ir"
)

// DefaultInterval is the pause between ticks.
const DefaultInterval = 10 * time.Second

// Source is the node a route reads outbound messages from.
type Source interface {
	SentMessageCount(ctx context.Context, chain string) (uint64, error)
	SentMessageByID(ctx context.Context, chain string, id uint64) (ir.Message, error)
}

// Destination is the node a route attests and dispatches on.
type Destination interface {
	MsgPortingTask(ctx context.Context, chain, validator string) (uint64, error)
	ReceiveMessage(ctx context.Context, id uint64, msg ir.Message) (bridge.Receipt, error)
	ExecutableMessages(ctx context.Context) ([]ir.ExecutableEntry, error)
	ExecuteMessage(ctx context.Context, chain string, id uint64) (ir.DispatchRecord, error)
}

// Route moves messages sent on chain From to chain To.
type Route struct {
	From   string
	To     string
	Source Source
	Dest   Destination
}

func (r Route) String() string {
	return r.From + "->" + r.To
}

// Relayer ports and dispatches messages for one validator identity.
type Relayer struct {
	identity string
	routes   []Route
	interval time.Duration
}

// New creates a relayer acting as identity over routes.
// A zero interval uses DefaultInterval.
func New(identity string, routes []Route, interval time.Duration) *Relayer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Relayer{identity: identity, routes: routes, interval: interval}
}

// Run ticks until ctx is cancelled. Tick failures are logged, not returned.
func (r *Relayer) Run(ctx context.Context) error {
	slog.Info("relayer starting",
		"identity", r.identity,
		"routes", len(r.routes),
		"interval", r.interval,
	)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if err := r.Tick(ctx); err != nil && ctx.Err() == nil {
			slog.Error("relayer tick failed", "error", err)
		}

		select {
		case <-ctx.Done():
			slog.Info("relayer stopping: context cancelled")
			return nil
		case <-ticker.C:
		}
	}
}

// Tick runs one pass over every route and returns the failures of all
// routes combined.
func (r *Relayer) Tick(ctx context.Context) error {
	var errs error
	for _, route := range r.routes {
		if err := r.port(ctx, route); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("port %s: %w", route, err))
		}
		if err := r.dispatch(ctx, route); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("dispatch %s: %w", route, err))
		}
	}
	return errs
}

// port submits the next message this identity owes the destination.
func (r *Relayer) port(ctx context.Context, route Route) error {
	count, err := route.Source.SentMessageCount(ctx, route.To)
	if err != nil {
		return fmt.Errorf("sent count: %w", err)
	}
	task, err := route.Dest.MsgPortingTask(ctx, route.From, r.identity)
	if err != nil {
		return fmt.Errorf("porting task: %w", err)
	}
	if task > count {
		return nil
	}

	msg, err := route.Source.SentMessageByID(ctx, route.To, task)
	if err != nil {
		return fmt.Errorf("fetch message %d: %w", task, err)
	}
	receipt, err := route.Dest.ReceiveMessage(ctx, task, msg)
	if err != nil {
		return fmt.Errorf("receive message %d: %w", task, err)
	}

	slog.Info("message ported",
		"route", route.String(),
		"id", task,
		"attesters", receipt.Attesters,
		"quorum", receipt.Quorum,
		"promoted", receipt.Promoted,
	)
	return nil
}

// dispatch executes every executable message of route.From on the
// destination. A NOT_FOUND means another dispatcher got there first.
func (r *Relayer) dispatch(ctx context.Context, route Route) error {
	entries, err := route.Dest.ExecutableMessages(ctx)
	if err != nil {
		return fmt.Errorf("list executable: %w", err)
	}

	var errs error
	for _, entry := range entries {
		if entry.Key.Chain != route.From || entry.ClaimedBy != "" {
			continue
		}
		rec, err := route.Dest.ExecuteMessage(ctx, entry.Key.Chain, entry.Key.ID)
		switch {
		case bridge.IsCode(err, bridge.ErrCodeNotFound):
			slog.Debug("executable message already taken", "chain", entry.Key.Chain, "id", entry.Key.ID)
		case err != nil:
			errs = multierror.Append(errs, fmt.Errorf("execute %d: %w", entry.Key.ID, err))
		default:
			slog.Info("message dispatched",
				"route", route.String(),
				"id", entry.Key.ID,
				"token", rec.Token,
			)
		}
	}
	return errs
}
