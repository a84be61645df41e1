package harness

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/rowmap/internal/hook"
	"github.com/roach88/rowmap/internal/mapper"
	"github.com/roach88/rowmap/internal/query"
	"github.com/roach88/rowmap/internal/reconcile"
	"github.com/roach88/rowmap/internal/record"
	"github.com/roach88/rowmap/internal/store"
	"github.com/roach88/rowmap/internal/testutil"
)

// Harness holds one scenario run's database, mappers and trace.
type Harness struct {
	store   *store.Store
	mappers map[string]*mapper.Mapper
	ids     *testutil.IDSequence
	result  *Result
	tracing bool
}

// outcome is what a flow step returned.
type outcome struct {
	rows  record.Set
	count *int64
	ok    *bool
	sync  *reconcile.Result
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database. Execution flow:
//  1. run the schema DDL
//  2. build the mappers, all sharing one event bus and ID sequence
//  3. create the setup rows (untraced)
//  4. execute the flow steps, checking each expect clause
//  5. evaluate the assertions
//
// An error is returned only when the scenario cannot run at all; failed
// expectations are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	for i, ddl := range scenario.Schema {
		if _, err := st.Exec(ctx, ddl); err != nil {
			return nil, fmt.Errorf("schema[%d]: %w", i, err)
		}
	}

	h := &Harness{
		store:   st,
		mappers: make(map[string]*mapper.Mapper, len(scenario.Mappers)),
		ids:     testutil.NewIDSequence("op"),
		result:  NewResult(),
	}

	bus := hook.NewBus()
	bus.Subscribe("*", func(_ context.Context, e *hook.Event) error {
		if h.tracing {
			h.result.record(e)
		}
		return nil
	})

	for name, def := range scenario.Mappers {
		m, err := def.Build(st, mapper.WithDispatcher(bus))
		if err != nil {
			return nil, fmt.Errorf("mapper %q: %w", name, err)
		}
		m.Hooks().SetIDGenerator(h.ids.Next)
		h.mappers[name] = m
	}

	for i, step := range scenario.Setup {
		if _, err := h.mappers[step.Mapper].Create(ctx, step.Rows); err != nil {
			return nil, fmt.Errorf("setup[%d]: %w", i, err)
		}
	}

	h.ids.Reset()
	h.tracing = true
	for i, step := range scenario.Flow {
		h.executeStep(ctx, i, step)
	}
	h.tracing = false

	for _, msg := range EvaluateAssertions(ctx, h, scenario.Assertions) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

func (h *Harness) executeStep(ctx context.Context, i int, step FlowStep) {
	out, err := h.call(ctx, step)
	label := fmt.Sprintf("flow[%d] %s %s", i, step.Op, step.Mapper)

	want := step.Expect
	if want == nil {
		want = &Expect{}
	}
	if want.Error != "" {
		switch {
		case err == nil:
			h.result.AddError(fmt.Sprintf("%s: expected %s error, got success", label, want.Error))
		case ErrorKind(err) != want.Error:
			h.result.AddError(fmt.Sprintf("%s: expected %s error, got %s: %v", label, want.Error, ErrorKind(err), err))
		}
		return
	}
	if err != nil {
		h.result.AddError(fmt.Sprintf("%s: %v", label, err))
		return
	}

	for _, msg := range checkOutcome(want, out) {
		h.result.AddError(label + ": " + msg)
	}
}

func (h *Harness) call(ctx context.Context, step FlowStep) (outcome, error) {
	m := h.mappers[step.Mapper]
	where := query.Match(step.Where)

	var (
		out outcome
		err error
	)
	switch step.Op {
	case OpFind:
		var orders []query.Order
		if orders, err = parseOrders(step.Order); err != nil {
			return out, err
		}
		out.rows, err = m.Limit(step.Limit).Find(ctx, where, orders...)
	case OpCount:
		var n int64
		n, err = m.Count(ctx, where)
		out.count = &n
	case OpCreate:
		out.rows, err = m.Create(ctx, step.Data)
	case OpUpdate:
		out.rows, err = m.Update(ctx, step.Data, step.UpdateNulls, step.On...)
	case OpUpdateBatch:
		var ok bool
		ok, err = m.UpdateBatch(ctx, record.FromMap(step.Data.(map[string]any)), where)
		out.ok = &ok
	case OpDelete:
		var ok bool
		ok, err = m.Delete(ctx, where)
		out.ok = &ok
	case OpFlush:
		out.rows, err = m.Flush(ctx, step.Data, where)
	case OpSync:
		var res reconcile.Result
		res, err = m.Sync(ctx, step.Data, where, step.Compare...)
		out.sync = &res
	}
	return out, err
}

func checkOutcome(want *Expect, out outcome) []string {
	var errs []string
	if want.Count != nil {
		got := int64(len(out.rows))
		if out.count != nil {
			got = *out.count
		}
		if got != int64(*want.Count) {
			errs = append(errs, fmt.Sprintf("expected count %d, got %d", *want.Count, got))
		}
	}
	if want.Rows != nil {
		if err := matchRows(want.Rows, out.rows); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if want.OK != nil && (out.ok == nil || *out.ok != *want.OK) {
		errs = append(errs, fmt.Sprintf("expected ok=%v", *want.OK))
	}
	if out.sync != nil {
		errs = append(errs, checkPartition("kept", want.Kept, out.sync.Kept)...)
		errs = append(errs, checkPartition("added", want.Added, out.sync.Added)...)
		errs = append(errs, checkPartition("deleted", want.Deleted, out.sync.Deleted)...)
	}
	return errs
}

func checkPartition(name string, want *int, got record.Set) []string {
	if want == nil || *want == len(got) {
		return nil
	}
	return []string{fmt.Sprintf("expected %d %s, got %d", *want, name, len(got))}
}

// ErrorKind classifies an operation error as a mapper error code, or
// STORAGE for anything the connection returned.
func ErrorKind(err error) string {
	var mapErr *mapper.Error
	if errors.As(err, &mapErr) {
		return string(mapErr.Code)
	}
	return ErrorStorage
}

func parseOrders(specs []string) ([]query.Order, error) {
	orders := make([]query.Order, 0, len(specs))
	for _, s := range specs {
		o, err := query.ParseOrder(s)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}
