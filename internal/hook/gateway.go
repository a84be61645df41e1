package hook

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Dispatcher delivers events to external listeners.
type Dispatcher interface {
	Trigger(ctx context.Context, e *Event) error
}

// Handler reacts to an event. Returning an error aborts the operation.
type Handler func(ctx context.Context, e *Event) error

// IDGenerator produces event correlation IDs.
type IDGenerator func() string

// UUIDv7 generates time-sortable correlation IDs.
func UUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Gateway emits before/after events for one mapper.
//
// External listeners (the Dispatcher) always run first. Handlers registered
// with On run afterwards unless a listener stopped the event. With no
// dispatcher and no handlers every emit is a no-op.
type Gateway struct {
	dispatcher Dispatcher
	handlers   map[string][]Handler
	newID      IDGenerator
}

// NewGateway creates a gateway. dispatcher may be nil.
func NewGateway(dispatcher Dispatcher) *Gateway {
	return &Gateway{
		dispatcher: dispatcher,
		handlers:   make(map[string][]Handler),
		newID:      UUIDv7,
	}
}

// SetDispatcher attaches or replaces the external dispatcher.
func (g *Gateway) SetDispatcher(d Dispatcher) {
	g.dispatcher = d
}

// SetIDGenerator overrides the correlation ID source (tests use fixed IDs).
func (g *Gateway) SetIDGenerator(gen IDGenerator) {
	g.newID = gen
}

// On registers a local handler for a phase and op.
func (g *Gateway) On(p Phase, o Op, h Handler) {
	name := Name(p, o)
	g.handlers[name] = append(g.handlers[name], h)
}

// Begin emits the before event of an operation and returns it so the caller
// can emit the matching after event with Finish.
func (g *Gateway) Begin(ctx context.Context, o Op, table string, args *Args) (*Event, error) {
	e := &Event{
		ID:    g.newID(),
		Op:    o,
		Phase: Before,
		Table: table,
		Args:  args,
	}
	if err := g.emit(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Finish emits the after event paired with before and returns the (possibly
// replaced) result.
func (g *Gateway) Finish(ctx context.Context, before *Event, result any) (any, error) {
	e := &Event{
		ID:     before.ID,
		Op:     before.Op,
		Phase:  After,
		Table:  before.Table,
		Args:   before.Args,
		Result: result,
	}
	if err := g.emit(ctx, e); err != nil {
		return nil, err
	}
	return e.Result, nil
}

func (g *Gateway) emit(ctx context.Context, e *Event) error {
	if g.dispatcher != nil {
		if err := g.dispatcher.Trigger(ctx, e); err != nil {
			return fmt.Errorf("%s listener: %w", e.Name(), err)
		}
	}
	if e.Stopped() {
		slog.Debug("event stopped", "event", e.Name(), "table", e.Table, "id", e.ID)
		return nil
	}
	for _, h := range g.handlers[e.Name()] {
		if err := h(ctx, e); err != nil {
			return fmt.Errorf("%s handler: %w", e.Name(), err)
		}
	}
	return nil
}

// Bus is an in-process Dispatcher keyed by event name.
//
// Thread-safety: Subscribe and Trigger are safe for concurrent use.
type Bus struct {
	mu        sync.RWMutex
	listeners map[string][]Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{listeners: make(map[string][]Handler)}
}

// Subscribe registers a listener for an event name such as "before.find".
// The name "*" receives every event.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[name] = append(b.listeners[name], h)
}

// Trigger calls the listeners for the event in subscription order, wildcard
// listeners last. It stops early when a listener stops the event.
func (b *Bus) Trigger(ctx context.Context, e *Event) error {
	b.mu.RLock()
	hs := append(append([]Handler(nil), b.listeners[e.Name()]...), b.listeners["*"]...)
	b.mu.RUnlock()

	for _, h := range hs {
		if err := h(ctx, e); err != nil {
			return err
		}
		if e.Stopped() {
			return nil
		}
	}
	return nil
}
