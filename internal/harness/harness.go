package harness

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/xbridge/internal/bridge"
	"github.com/roach88/xbridge/internal/ir"
	"github.com/roach88/xbridge/internal/store"
	"github.com/roach88/xbridge/internal/testutil"
)

// Fixed identities present in every scenario.
const (
	Custodian = "admin"
	Locker    = "locker"
)

// errInvocationFailed is returned by the invoker for actions listed in a
// scenario's fail section.
var errInvocationFailed = errors.New("contract call failed")

// Harness executes scenario steps against one bridge.
type Harness struct {
	bridge  *bridge.Bridge
	invoker *testutil.RecordingInvoker
	chain   string
}

// Run executes a scenario on a fresh in-memory ledger and returns the
// result. The returned error is reserved for setup failures; unexpected
// step outcomes and failed assertions are recorded in the result.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	chain := scenario.Chain
	if chain == "" {
		chain = bridge.DefaultChain
	}

	inv := testutil.NewRecordingInvoker()
	for _, f := range scenario.Fail {
		inv.FailOn(f.Contract, f.Action, errInvocationFailed)
	}

	h := &Harness{
		bridge: bridge.New(st, inv,
			bridge.WithChain(chain),
			bridge.WithTokenGenerator(testutil.NewFixedTokenGenerator("tok")),
		),
		invoker: inv,
		chain:   chain,
	}

	ctx := context.Background()
	if err := h.setup(ctx, scenario.Validators); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		h.execute(ctx, i, step, result)
	}

	for _, msg := range EvaluateAssertions(ctx, h, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) setup(ctx context.Context, validators []string) error {
	if err := h.bridge.Bootstrap(ctx, []string{Custodian}); err != nil {
		return err
	}
	if _, err := h.bridge.RegisterLocker(ctx, Custodian, Locker); err != nil {
		return fmt.Errorf("register locker: %w", err)
	}
	for _, v := range validators {
		if _, err := h.bridge.RegisterValidator(ctx, Custodian, v); err != nil {
			return fmt.Errorf("register validator %s: %w", v, err)
		}
	}
	return nil
}

// execute runs one step, traces it and checks its expect clause.
func (h *Harness) execute(ctx context.Context, index int, step Step, result *Result) {
	ev := TraceEvent{Op: step.Op, Caller: h.caller(step)}
	obs := observed{}

	var err error
	switch step.Op {
	case OpRegister:
		ev.Result = ir.Object{"role": ir.String(step.Role), "identity": ir.String(step.Identity)}
		switch ir.Role(step.Role) {
		case ir.RoleLocker:
			_, err = h.bridge.RegisterLocker(ctx, ev.Caller, step.Identity)
		case ir.RoleValidator:
			_, err = h.bridge.RegisterValidator(ctx, ev.Caller, step.Identity)
		default:
			err = fmt.Errorf("cannot register role %q", step.Role)
		}

	case OpUnregister:
		var removed bool
		removed, err = h.bridge.UnregisterValidator(ctx, ev.Caller, step.Identity)
		ev.Result = ir.Object{"identity": ir.String(step.Identity), "removed": ir.Bool(removed)}

	case OpReceive:
		msg := h.message(step.Message)
		ev.Chain, ev.ID = msg.FromChain, step.ID
		var r bridge.Receipt
		r, err = h.bridge.ReceiveMessage(ctx, ev.Caller, step.ID, msg)
		if err == nil {
			obs.promoted, obs.attesters, obs.quorum = &r.Promoted, &r.Attesters, &r.Quorum
			ev.Result = ir.Object{
				"attesters": ir.Int(r.Attesters),
				"quorum":    ir.Int(r.Quorum),
				"promoted":  ir.Bool(r.Promoted),
			}
		}

	case OpSend:
		msg := h.message(step.Message)
		ev.Chain = step.Chain
		var entry ir.SentEntry
		entry, err = h.bridge.SendMessage(ctx, ev.Caller, step.Chain, msg.Content, msg.Session)
		if err == nil {
			ev.ID = entry.Key.ID
			obs.id = &entry.Key.ID
		}

	case OpExecute:
		ev.Chain, ev.ID = step.Chain, step.ID
		var rec ir.DispatchRecord
		rec, err = h.bridge.ExecuteMessage(ctx, step.Chain, step.ID)
		if rec.Outcome != "" {
			obs.outcome = string(rec.Outcome)
			ev.Result = ir.Object{"outcome": ir.String(rec.Outcome), "token": ir.String(rec.Token)}
		}

	case OpClearReceived:
		_, err = h.bridge.ClearReceivedMessage(ctx, ev.Caller, step.Chains)
		ev.Result = ir.Object{"chains": stringArray(step.Chains)}

	case OpClearSent:
		_, err = h.bridge.ClearSentMessage(ctx, ev.Caller, step.Chains)
		ev.Result = ir.Object{"chains": stringArray(step.Chains)}
	}

	if err != nil {
		ev.Error = errorCode(err)
	}
	result.AddTrace(ev)

	for _, msg := range checkExpect(step.Expect, err, obs) {
		result.AddError(fmt.Sprintf("steps[%d] (%s): %s", index, step.Op, msg))
	}
}

// caller returns the step's caller, defaulting by operation.
func (h *Harness) caller(step Step) string {
	if step.As != "" {
		return step.As
	}
	switch step.Op {
	case OpSend:
		return Locker
	case OpExecute:
		return ""
	default:
		return Custodian
	}
}

// message builds a message from spec, filling defaults.
func (h *Harness) message(spec *MessageSpec) ir.Message {
	s := MessageSpec{}
	if spec != nil {
		s = *spec
	}
	return ir.Message{
		FromChain: s.From,
		ToChain:   orDefault(s.To, h.chain),
		Sender:    orDefault(s.Sender, "alice"),
		Signer:    orDefault(s.Signer, orDefault(s.Sender, "alice")),
		QoS:       ir.DefaultQoS,
		Content: ir.Content{
			Contract: orDefault(s.Contract, "greeting"),
			Action:   orDefault(s.Action, "greet"),
			Data:     orDefault(s.Data, "[]"),
		},
		Session: ir.Session{ResType: s.ResType, ID: s.SessionID},
	}
}

// observed holds the step outcome fields an expect clause can check.
type observed struct {
	promoted  *bool
	attesters *int
	quorum    *int
	id        *uint64
	outcome   string
}

func checkExpect(exp *Expect, err error, obs observed) []string {
	if exp == nil {
		if err != nil {
			return []string{fmt.Sprintf("unexpected error: %v", err)}
		}
		return nil
	}

	var errs []string
	if exp.Error != "" {
		if got := errorCode(err); got != exp.Error {
			errs = append(errs, fmt.Sprintf("expected error %s, got %q", exp.Error, got))
		}
	} else if err != nil {
		errs = append(errs, fmt.Sprintf("unexpected error: %v", err))
	}

	if exp.Promoted != nil && (obs.promoted == nil || *obs.promoted != *exp.Promoted) {
		errs = append(errs, fmt.Sprintf("expected promoted=%v, got %s", *exp.Promoted, show(obs.promoted)))
	}
	if exp.Attesters != nil && (obs.attesters == nil || *obs.attesters != *exp.Attesters) {
		errs = append(errs, fmt.Sprintf("expected attesters=%d, got %s", *exp.Attesters, show(obs.attesters)))
	}
	if exp.Quorum != nil && (obs.quorum == nil || *obs.quorum != *exp.Quorum) {
		errs = append(errs, fmt.Sprintf("expected quorum=%d, got %s", *exp.Quorum, show(obs.quorum)))
	}
	if exp.ID != nil && (obs.id == nil || *obs.id != *exp.ID) {
		errs = append(errs, fmt.Sprintf("expected id=%d, got %s", *exp.ID, show(obs.id)))
	}
	if exp.Outcome != "" && obs.outcome != exp.Outcome {
		errs = append(errs, fmt.Sprintf("expected outcome %s, got %q", exp.Outcome, obs.outcome))
	}
	return errs
}

// errorCode returns the bridge error code of err, or "ERROR" for any other
// failure.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	if code := bridge.CodeOf(err); code != "" {
		return string(code)
	}
	return "ERROR"
}

func show[T any](v *T) string {
	if v == nil {
		return "nothing"
	}
	return fmt.Sprint(*v)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func stringArray(ss []string) ir.Array {
	arr := make(ir.Array, len(ss))
	for i, s := range ss {
		arr[i] = ir.String(s)
	}
	return arr
}
