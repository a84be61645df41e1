package harness

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/rowmap/internal/query"
	"github.com/roach88/rowmap/internal/reconcile"
	"github.com/roach88/rowmap/internal/record"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s (%s)\n", ev.Seq, ev.Event, ev.Table, ev.ID)
		}
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(ctx context.Context, h *Harness, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertFinalState:
			err = assertFinalState(ctx, h, a)
		case AssertEventOrder:
			err = assertEventOrder(h.result.Trace, a)
		case AssertEventCount:
			err = assertEventCount(h.result.Trace, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

// assertFinalState reads the rows matching the assertion's conditions and
// checks their count and contents.
func assertFinalState(ctx context.Context, h *Harness, a Assertion) error {
	orders, err := parseOrders(a.Order)
	if err != nil {
		return err
	}
	rows, err := h.mappers[a.Mapper].Find(ctx, query.Match(a.Where), orders...)
	if err != nil {
		return fmt.Errorf("final_state query: %w", err)
	}

	if a.Count != nil && len(rows) != *a.Count {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%d row(s) in %s where %v", *a.Count, a.Mapper, a.Where),
			Actual:   fmt.Sprintf("%d row(s)", len(rows)),
		}
	}
	if a.Rows != nil {
		if err := matchRows(a.Rows, rows); err != nil {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("rows %v", a.Rows),
				Actual:   err.Error(),
			}
		}
	}
	return nil
}

// assertEventOrder checks that the events appear in the trace in the given
// order. Other events may occur in between.
func assertEventOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, ev := range trace {
		if next < len(a.Events) && ev.Event == a.Events[next] {
			next++
		}
	}
	if next == len(a.Events) {
		return nil
	}
	return &AssertionError{
		Type:     AssertEventOrder,
		Expected: strings.Join(a.Events, " -> "),
		Actual:   fmt.Sprintf("%q not found after %v", a.Events[next], a.Events[:next]),
		Trace:    trace,
	}
}

// assertEventCount checks that an event occurs exactly count times.
func assertEventCount(trace []TraceEvent, a Assertion) error {
	n := 0
	for _, ev := range trace {
		if ev.Event == a.Event {
			n++
		}
	}
	if n == *a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertEventCount,
		Expected: fmt.Sprintf("%s x%d", a.Event, *a.Count),
		Actual:   fmt.Sprintf("%s x%d", a.Event, n),
		Trace:    trace,
	}
}

// matchRows checks got against want row by row. Each wanted row must be a
// subset of the actual row, compared the way sync compares identities.
func matchRows(want []map[string]any, got record.Set) error {
	if len(want) != len(got) {
		return fmt.Errorf("expected %d row(s), got %d", len(want), len(got))
	}
	for i, w := range want {
		if !rowMatches(w, got[i]) {
			return fmt.Errorf("row %d: expected subset %v, got %v", i, w, got[i])
		}
	}
	return nil
}

func rowMatches(want map[string]any, got *record.Record) bool {
	keys := slices.Sorted(maps.Keys(want))
	return reconcile.Identity(record.FromMap(want), keys) == reconcile.Identity(got, keys)
}
