package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/xbridge/internal/ir"
)

// EvaluateAssertions checks every assertion against the harness's ledger
// and returns a message per failure.
func EvaluateAssertions(ctx context.Context, h *Harness, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := h.evaluate(ctx, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d] (%s): %v", i, a.Type, err))
		}
	}
	return failures
}

func (h *Harness) evaluate(ctx context.Context, a Assertion) error {
	switch a.Type {
	case AssertWatermark:
		return h.assertWatermark(ctx, a)
	case AssertPending:
		return h.assertPending(ctx, a)
	case AssertExecutable:
		return h.assertExecutable(ctx, a)
	case AssertSentCount:
		n, err := h.bridge.SentMessageCount(ctx, a.Chain)
		if err != nil {
			return err
		}
		if int(n) != *a.Count {
			return fmt.Errorf("expected %d sent to %s, got %d", *a.Count, a.Chain, n)
		}
	case AssertInvocations:
		n := 0
		for _, c := range h.invoker.Calls() {
			if (a.Contract == "" || c.Contract == a.Contract) && (a.Action == "" || c.Action == a.Action) {
				n++
			}
		}
		if n != *a.Count {
			return fmt.Errorf("expected %d invocations, got %d", *a.Count, n)
		}
	case AssertDispatchLog:
		records, err := h.bridge.DispatchLog(ctx, a.Chain, a.ID)
		if err != nil {
			return err
		}
		got := make([]string, len(records))
		for i, r := range records {
			got[i] = string(r.Outcome)
		}
		if !slices.Equal(got, a.Outcomes) {
			return fmt.Errorf("expected outcomes %v, got %v", a.Outcomes, got)
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func (h *Harness) assertWatermark(ctx context.Context, a Assertion) error {
	var (
		id  uint64
		err error
	)
	if a.Validator != "" {
		id, err = h.bridge.FinalReceivedMessageID(ctx, a.Chain, a.Validator)
	} else {
		id, err = h.bridge.LatestMessageID(ctx, a.Chain)
	}
	if err != nil {
		return err
	}
	if id != a.ID {
		return fmt.Errorf("expected watermark %d, got %d", a.ID, id)
	}
	return nil
}

func (h *Harness) assertPending(ctx context.Context, a Assertion) error {
	slots, err := h.bridge.PendingMessages(ctx)
	if err != nil {
		return err
	}

	var got [][]string
	for _, s := range slots {
		if s.Key != (ir.SlotKey{Chain: a.Chain, ID: a.ID}) {
			continue
		}
		for _, g := range s.Groups {
			got = append(got, g.Validators)
		}
	}

	if !slices.Equal(normalizeGroups(got), normalizeGroups(a.Validators)) {
		return fmt.Errorf("expected groups %v, got %v", a.Validators, got)
	}
	return nil
}

func (h *Harness) assertExecutable(ctx context.Context, a Assertion) error {
	entries, err := h.bridge.ExecutableMessages(ctx)
	if err != nil {
		return err
	}
	present := slices.ContainsFunc(entries, func(e ir.ExecutableEntry) bool {
		return e.Key == ir.SlotKey{Chain: a.Chain, ID: a.ID}
	})
	if present != *a.Present {
		return fmt.Errorf("expected executable=%v for %s #%d, got %v", *a.Present, a.Chain, a.ID, present)
	}
	return nil
}

// normalizeGroups renders each group as its sorted members and sorts the
// result, so group and member order do not matter.
func normalizeGroups(groups [][]string) []string {
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		members := slices.Clone(g)
		slices.Sort(members)
		out = append(out, strings.Join(members, ","))
	}
	slices.Sort(out)
	return out
}
