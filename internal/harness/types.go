package harness

import "github.com/roach88/xbridge/internal/ir"

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq    int64     `json:"seq"`
	Op     string    `json:"op"`
	Caller string    `json:"as,omitempty"`
	Chain  string    `json:"chain_name,omitempty"`
	ID     uint64    `json:"id,omitempty"`
	Result ir.Object `json:"result,omitempty"`
	Error  string    `json:"error,omitempty"`
}

// toValue converts the event to canonical form, omitting empty fields.
func (e TraceEvent) toValue() ir.Object {
	obj := ir.Object{
		"seq": ir.Int(e.Seq),
		"op":  ir.String(e.Op),
	}
	if e.Caller != "" {
		obj["as"] = ir.String(e.Caller)
	}
	if e.Chain != "" {
		obj["chain_name"] = ir.String(e.Chain)
	}
	if e.ID != 0 {
		obj["id"] = ir.Int(int64(e.ID))
	}
	if len(e.Result) > 0 {
		obj["result"] = e.Result
	}
	if e.Error != "" {
		obj["error"] = ir.String(e.Error)
	}
	return obj
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains the failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends ev with the next sequence number.
func (r *Result) AddTrace(ev TraceEvent) {
	ev.Seq = int64(len(r.Trace) + 1)
	r.Trace = append(r.Trace, ev)
}
