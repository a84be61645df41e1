package harness

import (
	"github.com/roach88/rowmap/internal/hook"
	"github.com/roach88/rowmap/internal/reconcile"
	"github.com/roach88/rowmap/internal/record"
)

// TraceEvent is one recorded hook event.
type TraceEvent struct {
	Seq   int    `json:"seq"`
	Event string `json:"event"`
	Table string `json:"table"`
	ID    string `json:"id"`

	// Result summarizes the operation result on after events.
	Result map[string]any `json:"result,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`
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

// record appends a hook event to the trace.
func (r *Result) record(e *hook.Event) {
	ev := TraceEvent{
		Seq:   len(r.Trace) + 1,
		Event: e.Name(),
		Table: e.Table,
		ID:    e.ID,
	}
	if e.Phase == hook.After {
		ev.Result = summarize(e.Result)
	}
	r.Trace = append(r.Trace, ev)
}

// summarize reduces an operation result to counts so traces stay stable
// across generated keys and timestamps.
func summarize(v any) map[string]any {
	switch t := v.(type) {
	case record.Set:
		return map[string]any{"rows": len(t)}
	case *record.Record:
		if t == nil {
			return map[string]any{"rows": 0}
		}
		return map[string]any{"rows": 1}
	case bool:
		return map[string]any{"ok": t}
	case int64:
		return map[string]any{"count": t}
	case reconcile.Result:
		return map[string]any{
			"kept":    len(t.Kept),
			"added":   len(t.Added),
			"deleted": len(t.Deleted),
		}
	default:
		return nil
	}
}
