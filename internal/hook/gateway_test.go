package hook

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rowmap/internal/query"
	"github.com/roach88/rowmap/internal/testutil"
)

func TestGateway_NoDispatcherIsNoop(t *testing.T) {
	g := NewGateway(nil)

	before, err := g.Begin(context.Background(), OpFind, "users", &Args{})
	require.NoError(t, err)

	result, err := g.Finish(context.Background(), before, 42)
	require.NoError(t, err)
	assert.Equal(t, 42, result)
}

func TestGateway_CorrelationIDIsUUIDv7(t *testing.T) {
	g := NewGateway(nil)
	e, err := g.Begin(context.Background(), OpCreate, "users", &Args{})
	require.NoError(t, err)

	parsed, err := uuid.Parse(e.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestGateway_ListenerRewritesArgs(t *testing.T) {
	bus := NewBus()
	bus.Subscribe("before.find", func(_ context.Context, e *Event) error {
		*e.Args.Conditions = e.Args.Conditions.And("tenant", 7)
		*e.Args.Limit = 5
		return nil
	})
	g := NewGateway(bus)

	conds := query.Match(map[string]any{"name": "x"})
	limit := 0
	_, err := g.Begin(context.Background(), OpFind, "users", &Args{Conditions: &conds, Limit: &limit})
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "tenant"}, conds.Columns())
	assert.Equal(t, 5, limit)
}

func TestGateway_ListenerReplacesResult(t *testing.T) {
	bus := NewBus()
	bus.Subscribe("after.delete", func(_ context.Context, e *Event) error {
		e.Result = false
		return nil
	})
	g := NewGateway(bus)

	before, err := g.Begin(context.Background(), OpDelete, "users", &Args{})
	require.NoError(t, err)
	result, err := g.Finish(context.Background(), before, true)
	require.NoError(t, err)
	assert.Equal(t, false, result)
}

func TestGateway_LocalHandlersRunAfterListeners(t *testing.T) {
	var calls []string
	bus := NewBus()
	bus.Subscribe("after.create", func(_ context.Context, _ *Event) error {
		calls = append(calls, "listener")
		return nil
	})
	g := NewGateway(bus)
	g.On(After, OpCreate, func(_ context.Context, _ *Event) error {
		calls = append(calls, "local")
		return nil
	})

	before, err := g.Begin(context.Background(), OpCreate, "users", &Args{})
	require.NoError(t, err)
	_, err = g.Finish(context.Background(), before, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"listener", "local"}, calls)
}

func TestGateway_StoppedEventSkipsLocalHandlers(t *testing.T) {
	bus := NewBus()
	bus.Subscribe("before.sync", func(_ context.Context, e *Event) error {
		e.Stop()
		return nil
	})
	bus.Subscribe("before.sync", func(_ context.Context, _ *Event) error {
		t.Error("listeners after Stop must not run")
		return nil
	})
	g := NewGateway(bus)
	g.On(Before, OpSync, func(_ context.Context, _ *Event) error {
		t.Error("local handler must not run")
		return nil
	})

	_, err := g.Begin(context.Background(), OpSync, "users", &Args{})
	require.NoError(t, err)
}

func TestGateway_ErrorsAbort(t *testing.T) {
	boom := errors.New("boom")
	bus := NewBus()
	bus.Subscribe("before.update", func(_ context.Context, _ *Event) error { return boom })

	_, err := NewGateway(bus).Begin(context.Background(), OpUpdate, "users", &Args{})
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "before.update listener")
}

func TestGateway_FinishKeepsID(t *testing.T) {
	var ids []string
	bus := NewBus()
	bus.Subscribe("*", func(_ context.Context, e *Event) error {
		ids = append(ids, e.Name()+":"+e.ID)
		return nil
	})
	g := NewGateway(bus)
	g.SetIDGenerator(testutil.FixedID("op-1"))

	before, err := g.Begin(context.Background(), OpFlush, "t", &Args{})
	require.NoError(t, err)
	_, err = g.Finish(context.Background(), before, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"before.flush:op-1", "after.flush:op-1"}, ids)
}

func TestOpNames(t *testing.T) {
	assert.Equal(t, "before.updateBatch", Name(Before, OpUpdateBatch))
	assert.Equal(t, "after.find", Name(After, OpFind))
	assert.Equal(t, "unknown", Op(99).String())
}
