package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rowmap/internal/config"
	"github.com/roach88/rowmap/internal/mapper"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success([]map[string]any{{"id": 1}})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []any{map[string]any{"id": float64(1)}}, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("E001", "insert failed", nil)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E001", resp.Error.Code)
	assert.Equal(t, "insert failed", resp.Error.Message)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	tests := []struct {
		name string
		data any
		want string
	}{
		{"string", "done", "done\n"},
		{"rows as yaml", []map[string]any{{"id": 1, "name": "ann"}}, "- id: 1\n  name: ann\n"},
		{"struct as yaml", map[string]int64{"count": 2}, "count: 2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf}
			require.NoError(t, formatter.Success(tt.data))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestOutputFormatter_TextErrorGoesToErrWriter(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:    "text",
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   true,
	}

	require.NoError(t, formatter.Error("E003", "constraint failed", map[string]string{"table": "t"}))
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "Error [E003]: constraint failed")
	assert.Contains(t, errOut.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:  "text",
				Writer:  buf,
				Verbose: tt.verbose,
			}

			formatter.VerboseLog("%d row(s) from %s", 3, "users")

			if tt.wantLog {
				assert.Contains(t, buf.String(), "3 row(s) from users")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		wantExit int
	}{
		{"load error", &config.LoadError{Code: config.ErrCodeUnknown}, config.ErrCodeUnknown, ExitCommandError},
		{"configuration", &mapper.Error{Code: mapper.ErrCodeConfiguration}, "CONFIGURATION", ExitCommandError},
		{"input shape", &mapper.Error{Code: mapper.ErrCodeInputShape}, "INPUT_SHAPE", ExitCommandError},
		{"reconciliation", &mapper.Error{Code: mapper.ErrCodeReconciliation}, "RECONCILIATION", ExitFailure},
		{"bad flag", &inputError{msg: "condition"}, ErrCodeInput, ExitCommandError},
		{"exit error", NewExitError(ExitCommandError, "open"), ErrCodeGeneric, ExitCommandError},
		{"storage", errors.New("UNIQUE constraint failed"), ErrCodeStorage, ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, exit := classify(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantExit, exit)
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("x")))
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "bad", errors.New("x"))))
}
