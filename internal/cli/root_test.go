package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rowmap/internal/store"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "rowmap", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"find", "create", "update", "delete", "sync", "schema", "validate", "test"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	cfg := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, cfg)
	assert.Equal(t, "rowmap.yaml", cfg.DefValue)

	assert.NotNil(t, cmd.PersistentFlags().Lookup("db"))
}

// fixture is a config file and database with a users table.
type fixture struct {
	dir    string
	config string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	st, err := store.Open(filepath.Join(dir, "app.db"))
	require.NoError(t, err)
	_, err = st.Exec(context.Background(), `CREATE TABLE users (
		id     INTEGER PRIMARY KEY,
		name   TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL DEFAULT 'new',
		team   TEXT,
		qty    INTEGER NOT NULL
	)`)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	cfg := filepath.Join(dir, "rowmap.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`database: app.db
mappers:
  users:
    table: users
  broken:
    table: missing
`), 0o644))

	return &fixture{dir: dir, config: cfg}
}

func (f *fixture) file(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes the CLI with JSON output and decodes the response.
func (f *fixture) run(t *testing.T, args ...string) (CLIResponse, error) {
	t.Helper()
	cmd := NewRootCommand()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(append([]string{"--format", "json", "--config", f.config}, args...))

	err := cmd.Execute()

	var resp CLIResponse
	if out.Len() > 0 {
		require.NoError(t, json.Unmarshal(out.Bytes(), &resp), out.String())
	}
	return resp, err
}

func rows(t *testing.T, resp CLIResponse) []map[string]any {
	t.Helper()
	list, ok := resp.Data.([]any)
	require.True(t, ok, "data is %T", resp.Data)
	out := make([]map[string]any, len(list))
	for i, r := range list {
		out[i] = r.(map[string]any)
	}
	return out
}

func TestCLI_CreateFindUpdateDelete(t *testing.T) {
	f := newFixture(t)

	data := f.file(t, "users.yaml", `
- {name: ann, team: a, qty: "2"}
- {name: bob, team: a, status: null, qty: 1}
- {name: cy, team: b, qty: 7}
`)
	resp, err := f.run(t, "create", "users", data)
	require.NoError(t, err)
	created := rows(t, resp)
	require.Len(t, created, 3)
	assert.Equal(t, float64(1), created[0]["id"])
	assert.Equal(t, float64(3), created[2]["id"])

	resp, err = f.run(t, "find", "users", "--where", "team=a", "--order", "name desc")
	require.NoError(t, err)
	found := rows(t, resp)
	require.Len(t, found, 2)
	assert.Equal(t, "bob", found[0]["name"])
	assert.Equal(t, "new", found[0]["status"], "null replaced by the column default")
	assert.Equal(t, "ann", found[1]["name"])
	assert.Equal(t, float64(2), found[1]["qty"], "string normalized to integer")

	resp, err = f.run(t, "find", "users", "--where", "qty>=2", "--count")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"count": float64(2)}, resp.Data)

	changes := f.file(t, "changes.yaml", "- {id: 1, team: c, status: null}\n")
	_, err = f.run(t, "update", "users", changes)
	require.NoError(t, err)

	resp, err = f.run(t, "find", "users", "--where", "id=1")
	require.NoError(t, err)
	one := rows(t, resp)
	require.Len(t, one, 1)
	assert.Equal(t, "c", one[0]["team"])
	assert.Equal(t, "new", one[0]["status"], "nulls skipped without --nulls")

	_, err = f.run(t, "delete", "users")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp, err = f.run(t, "delete", "users", "--where", "team=b")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"deleted": true}, resp.Data)

	resp, err = f.run(t, "find", "users", "--count")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"count": float64(2)}, resp.Data)
}

func TestCLI_Sync(t *testing.T) {
	f := newFixture(t)

	seed := f.file(t, "seed.yaml", "- {name: ann, team: a, qty: 0}\n- {name: bob, team: a, qty: 0}\n- {name: cy, team: b, qty: 0}\n")
	_, err := f.run(t, "create", "users", seed)
	require.NoError(t, err)

	desired := f.file(t, "desired.yaml", "- {name: ann, team: a, qty: 5}\n- {name: dee, team: a, qty: 1}\n")
	resp, err := f.run(t, "sync", "users", desired, "--where", "team=a", "--compare", "name")
	require.NoError(t, err)

	report, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Len(t, report["kept"], 1)
	assert.Len(t, report["added"], 1)
	assert.Len(t, report["deleted"], 1)

	resp, err = f.run(t, "find", "users", "--order", "name")
	require.NoError(t, err)
	all := rows(t, resp)
	require.Len(t, all, 3)
	assert.Equal(t, "ann", all[0]["name"])
	assert.Equal(t, float64(5), all[0]["qty"])
	assert.Equal(t, "cy", all[1]["name"])
	assert.Equal(t, "dee", all[2]["name"])
}

func TestCLI_SyncReplace(t *testing.T) {
	f := newFixture(t)

	seed := f.file(t, "seed.yaml", "- {name: ann, team: a, qty: 0}\n- {name: cy, team: b, qty: 0}\n")
	_, err := f.run(t, "create", "users", seed)
	require.NoError(t, err)

	desired := f.file(t, "desired.yaml", "- {name: eve, team: a, qty: 0}\n")
	_, err = f.run(t, "sync", "users", desired, "--where", "team=a", "--replace")
	require.NoError(t, err)

	resp, err := f.run(t, "find", "users", "--order", "name")
	require.NoError(t, err)
	all := rows(t, resp)
	require.Len(t, all, 2)
	assert.Equal(t, "cy", all[0]["name"])
	assert.Equal(t, "eve", all[1]["name"])
}

func TestCLI_Schema(t *testing.T) {
	f := newFixture(t)

	resp, err := f.run(t, "schema", "users")
	require.NoError(t, err)
	cols := rows(t, resp)
	require.Len(t, cols, 5)
	assert.Equal(t, "id", cols[0]["name"])
	assert.Equal(t, true, cols[0]["primary"])
	assert.Equal(t, "new", cols[2]["default"])
	assert.Equal(t, "integer", cols[4]["family"])
	assert.Equal(t, float64(0), cols[4]["default"])

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", f.config, "schema", "users"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "COLUMN")
	assert.Contains(t, out.String(), "id *")
}

func TestCLI_Errors(t *testing.T) {
	f := newFixture(t)
	scalar := f.file(t, "scalar.yaml", "5\n")
	dup := f.file(t, "dup.yaml", "- {name: x, qty: 1}\n- {name: x, qty: 1}\n")

	tests := []struct {
		name     string
		args     []string
		wantCode string
		wantExit int
	}{
		{"unknown mapper", []string{"find", "nope"}, "C008", ExitCommandError},
		{"bad condition", []string{"find", "users", "--where", "team"}, ErrCodeInput, ExitCommandError},
		{"bad order", []string{"find", "users", "--order", "name up"}, ErrCodeInput, ExitCommandError},
		{"scalar data", []string{"create", "users", scalar}, "INPUT_SHAPE", ExitCommandError},
		{"missing data file", []string{"create", "users", "absent.yaml"}, ErrCodeInput, ExitCommandError},
		{"constraint", []string{"create", "users", dup}, ErrCodeStorage, ExitFailure},
		{"missing table", []string{"schema", "broken"}, ErrCodeStorage, ExitFailure},
		{"sync without keys", []string{"sync", "users", dup}, "CONFIGURATION", ExitCommandError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.run(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestCLI_DatabaseOverride(t *testing.T) {
	f := newFixture(t)
	other := filepath.Join(t.TempDir(), "other.db")

	// The override database has no users table.
	_, err := f.run(t, "--db", other, "schema", "users")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestCLI_InvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "xml", "schema", "users"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
