package hook

import (
	"github.com/roach88/rowmap/internal/query"
	"github.com/roach88/rowmap/internal/record"
)

// Op identifies a public mapper operation.
type Op int

const (
	OpFind Op = iota
	OpCreate
	OpUpdate
	OpUpdateBatch
	OpDelete
	OpFlush
	OpSync
)

func (o Op) String() string {
	switch o {
	case OpFind:
		return "find"
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpUpdateBatch:
		return "updateBatch"
	case OpDelete:
		return "delete"
	case OpFlush:
		return "flush"
	case OpSync:
		return "sync"
	default:
		return "unknown"
	}
}

// Phase says whether an event fires before or after the operation body.
type Phase int

const (
	Before Phase = iota
	After
)

func (p Phase) String() string {
	if p == After {
		return "after"
	}
	return "before"
}

// Name returns the event name for a phase and op, e.g. "before.find".
func Name(p Phase, o Op) string {
	return p.String() + "." + o.String()
}

// Args holds pointers to an operation's arguments. Before listeners may
// rewrite them; fields that do not apply to the op are nil.
type Args struct {
	Conditions      *query.Conditions
	Order           *[]query.Order
	Limit           *int
	Offset          *int
	Data            *record.Set
	UpdateNulls     *bool
	ConditionFields *[]string
	CompareKeys     *[]string
}

// Event is one lifecycle notification.
type Event struct {
	// ID correlates the before and after events of one call.
	ID    string
	Op    Op
	Phase Phase
	Table string
	Args  *Args

	// Result is the operation result on after events. Listeners may replace
	// it; the mapper returns whatever Result holds when the event completes.
	Result any

	stopped bool
}

// Name returns the event name, e.g. "after.sync".
func (e *Event) Name() string {
	return Name(e.Phase, e.Op)
}

// Stop prevents the mapper's local handlers from running for this event.
func (e *Event) Stop() {
	e.stopped = true
}

// Stopped reports whether a listener stopped the event.
func (e *Event) Stopped() bool {
	return e.stopped
}
