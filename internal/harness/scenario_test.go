package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_Testdata(t *testing.T) {
	sc := loadTestScenario(t, "sync_by_category")
	assert.Equal(t, "sync_by_category", sc.Name)
	require.Contains(t, sc.Mappers, "t")
	assert.Equal(t, "t", sc.Mappers["t"].Table)
	require.NotEmpty(t, sc.Flow)
	assert.Equal(t, OpSync, sc.Flow[0].Op)
	assert.Equal(t, []string{"id"}, sc.Flow[0].Compare)

	sc = loadTestScenario(t, "create_update_flush")
	assert.Equal(t, "create_update_flush", sc.Name)
	assert.Equal(t, "integer", sc.Mappers["tasks"].Casts["qty"])
}

func TestLoadScenario_Missing(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Invalid(t *testing.T) {
	const header = `
name: s
schema: ["CREATE TABLE t (id INTEGER PRIMARY KEY)"]
mappers:
  t: {table: t}
`
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: `
schema: ["CREATE TABLE t (id INTEGER)"]
mappers: {t: {table: t}}
flow: [{op: find, mapper: t}]
`,
			want: "name is required",
		},
		{
			name: "missing schema",
			yaml: `
name: s
mappers: {t: {table: t}}
flow: [{op: find, mapper: t}]
`,
			want: "schema list is required",
		},
		{
			name: "missing mapper table",
			yaml: `
name: s
schema: ["CREATE TABLE t (id INTEGER)"]
mappers: {t: {alias: x}}
flow: [{op: find, mapper: t}]
`,
			want: "mappers:",
		},
		{
			name: "empty flow",
			yaml: header,
			want: "flow list is required",
		},
		{
			name: "unknown op",
			yaml: header + `flow: [{op: upsert, mapper: t}]`,
			want: `flow[0]: unknown op "upsert"`,
		},
		{
			name: "unknown mapper",
			yaml: header + `flow: [{op: find, mapper: users}]`,
			want: `flow[0]: unknown mapper "users"`,
		},
		{
			name: "unknown setup mapper",
			yaml: header + `
setup: [{mapper: users, rows: [{id: 1}]}]
flow: [{op: find, mapper: t}]
`,
			want: `setup[0]: unknown mapper "users"`,
		},
		{
			name: "bad order",
			yaml: header + `flow: [{op: find, mapper: t, order: ["id sideways"]}]`,
			want: "flow[0]:",
		},
		{
			name: "update_batch list data",
			yaml: header + `flow: [{op: update_batch, mapper: t, data: [{id: 1}]}]`,
			want: "update_batch data must be a single row",
		},
		{
			name: "unknown assertion type",
			yaml: header + `
flow: [{op: find, mapper: t}]
assertions: [{type: eventually}]
`,
			want: `unknown assertion type "eventually"`,
		},
		{
			name: "final_state without checks",
			yaml: header + `
flow: [{op: find, mapper: t}]
assertions: [{type: final_state, mapper: t}]
`,
			want: "final_state needs count or rows",
		},
		{
			name: "event_count without count",
			yaml: header + `
flow: [{op: find, mapper: t}]
assertions: [{type: event_count, event: before.find}]
`,
			want: "count must be non-negative",
		},
		{
			name: "event_order without events",
			yaml: header + `
flow: [{op: find, mapper: t}]
assertions: [{type: event_order}]
`,
			want: "events list is required",
		},
		{
			name: "unknown field",
			yaml: header + `
flow: [{op: find, mapper: t, wher: {id: 1}}]
`,
			want: "failed to parse YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
