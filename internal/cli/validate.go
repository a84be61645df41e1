package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rowmap/internal/config"
	"github.com/roach88/rowmap/internal/mapper"
	"github.com/roach88/rowmap/internal/schema"
	"github.com/roach88/rowmap/internal/store"
)

// Validation error codes reported per mapper.
const (
	ErrCodeMissingTable  = "V001"
	ErrCodeUnknownColumn = "V002"
	ErrCodeJoinTable     = "V003"
)

// ValidationError is one problem found in a mapper definition.
type ValidationError struct {
	Mapper  string `json:"mapper" yaml:"mapper"`
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool              `json:"valid" yaml:"valid"`
	Mappers []string          `json:"mappers" yaml:"mappers"`
	Errors  []ValidationError `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the mapper config against the database",
		Long: `Load the config file and check every mapper against the live database.

Each mapper's table must exist, and its primary key columns and cast fields
must name columns of that table. Join tables must exist too. Nothing is
written.

Exit codes:
  0 - All mappers valid
  1 - One or more mappers invalid
  2 - Command error (unreadable config, no database, etc.)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), rootOpts, cmd)
		},
	}
	return cmd
}

func runValidate(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return out.Fail(err)
	}
	st, err := openStore(opts, cfg)
	if err != nil {
		return out.Fail(err)
	}
	defer st.Close()

	result := ValidationResult{Valid: true, Mappers: cfg.Names()}
	for _, name := range result.Mappers {
		out.VerboseLog("Validating mapper: %s", name)
		result.Errors = append(result.Errors, validateMapper(ctx, st, name, cfg.Mappers[name])...)
	}
	if len(result.Errors) == 0 {
		if out.Format == "json" {
			return out.Success(result)
		}
		return out.Success(fmt.Sprintf("✓ %d mapper(s) valid", len(result.Mappers)))
	}

	result.Valid = false
	if out.Format == "json" {
		err := json.NewEncoder(out.Writer).Encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: result.Errors[0].Code, Message: result.Errors[0].Message},
		})
		if err != nil {
			return err
		}
	} else {
		fmt.Fprintln(out.Writer, renderValidation(result.Errors))
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}

// validateMapper introspects a mapper's tables and checks the definition's
// column references against them.
func validateMapper(ctx context.Context, conn mapper.Connection, name string, def config.MapperDef) []ValidationError {
	fail := func(code, format string, args ...any) ValidationError {
		return ValidationError{Mapper: name, Code: code, Message: fmt.Sprintf(format, args...)}
	}

	m, err := def.Build(conn)
	if err != nil {
		return []ValidationError{fail(config.ErrCodeCast, "%v", err)}
	}
	fields, err := m.Schema().Fields(ctx)
	if err != nil {
		slog.Debug("introspection failed", "mapper", name, "table", def.Table, "error", err)
		return []ValidationError{fail(ErrCodeMissingTable, "table %q: %v", def.Table, err)}
	}

	var errs []ValidationError
	for _, col := range m.PrimaryKey() {
		if !fields.Has(col) {
			errs = append(errs, fail(ErrCodeUnknownColumn, "primary key column %q not in table %q", col, def.Table))
		}
	}
	for _, field := range slices.Sorted(maps.Keys(def.Casts)) {
		if !fields.Has(field) {
			errs = append(errs, fail(ErrCodeUnknownColumn, "cast field %q not in table %q", field, def.Table))
		}
	}
	for _, j := range def.Joins {
		if _, err := schema.NewCache(j.Table, conn).Fields(ctx); err != nil {
			errs = append(errs, fail(ErrCodeJoinTable, "join %q: table %q: %v", j.Alias, j.Table, err))
		}
	}
	return errs
}

// openStore opens the config's database, or the --db override.
func openStore(opts *RootOptions, cfg *config.File) (*store.Store, error) {
	path := cfg.Database
	if opts.Database != "" {
		path = opts.Database
	}
	if path == "" {
		return nil, &config.LoadError{Code: config.ErrCodeNoDatabase, Message: "no database: set database in the config or pass --db"}
	}

	slog.Debug("opening database", "path", path)
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func renderValidation(errs []ValidationError) string {
	var b strings.Builder
	b.WriteString("✗ Validation failed\n")
	for _, e := range errs {
		fmt.Fprintf(&b, "\n%s\n  %s: %s", e.Mapper, e.Code, e.Message)
	}
	return b.String()
}
