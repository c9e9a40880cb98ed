package testutil

import (
	"context"
	"sync"

	"github.com/roach88/xbridge/internal/ir"
)

// Call is one outbound call observed by a RecordingInvoker.
type Call struct {
	Contract string
	Action   string
	Args     ir.Array
}

// RecordingInvoker records outbound calls instead of performing them.
//
// Failures are configured per contract/action target. If Block is set, every
// call signals Started and waits for Release (or ctx) before returning, which
// lets tests act while a dispatch is suspended.
//
// Thread-safety: safe for concurrent use.
type RecordingInvoker struct {
	mu       sync.Mutex
	calls    []Call
	failures map[string]error

	Block   bool
	Started chan struct{}
	Release chan struct{}
}

// NewRecordingInvoker creates an invoker that succeeds on every call.
func NewRecordingInvoker() *RecordingInvoker {
	return &RecordingInvoker{
		failures: make(map[string]error),
		Started:  make(chan struct{}, 16),
		Release:  make(chan struct{}),
	}
}

// FailOn makes calls of action on contract return err.
func (r *RecordingInvoker) FailOn(contract, action string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[contract+"/"+action] = err
}

// Invoke implements bridge.Invoker.
func (r *RecordingInvoker) Invoke(ctx context.Context, contract, action string, args ir.Array) error {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Contract: contract, Action: action, Args: args})
	err := r.failures[contract+"/"+action]
	block := r.Block
	r.mu.Unlock()

	if block {
		r.Started <- struct{}{}
		select {
		case <-r.Release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// Calls returns a copy of the recorded calls in call order.
func (r *RecordingInvoker) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}
