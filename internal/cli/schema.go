package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rowmap/internal/schema"
)

// ColumnInfo is one column in the schema command's output.
type ColumnInfo struct {
	Name          string `json:"name" yaml:"name"`
	Type          string `json:"type" yaml:"type"`
	Family        string `json:"family" yaml:"family"`
	Nullable      bool   `json:"nullable" yaml:"nullable"`
	Primary       bool   `json:"primary,omitempty" yaml:"primary,omitempty"`
	AutoIncrement bool   `json:"auto_increment,omitempty" yaml:"auto_increment,omitempty"`
	Default       any    `json:"default,omitempty" yaml:"default,omitempty"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema <mapper>",
		Short: "Show the columns of a mapper's table",
		Long: `Introspect the mapper's table and print each column with its type family,
nullability and the default used when a null reaches a non-nullable column.

Example:
  rowmap schema users
  rowmap schema users --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			s, err := openSession(rootOpts, args[0])
			if err != nil {
				return out.Fail(err)
			}
			defer s.Close()

			fields, err := s.mapper.Schema().Fields(cmd.Context())
			if err != nil {
				return out.Fail(err)
			}

			cols := columnInfos(fields.Columns())
			if out.Format == "json" {
				return out.Success(cols)
			}
			return out.Success(renderColumns(cols))
		},
	}
	return cmd
}

func columnInfos(cols []schema.Column) []ColumnInfo {
	out := make([]ColumnInfo, len(cols))
	for i, c := range cols {
		out[i] = ColumnInfo{
			Name:          c.Name,
			Type:          c.Type,
			Family:        c.Family().String(),
			Nullable:      c.Nullable,
			Primary:       c.Primary,
			AutoIncrement: c.AutoIncrement,
		}
		if c.HasDefault {
			out[i].Default = c.Default
			if e, ok := c.Default.(schema.Expr); ok {
				out[i].Default = string(e)
			}
		}
	}
	return out
}

func renderColumns(cols []ColumnInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %-16s %-9s %-5s %s", "COLUMN", "TYPE", "FAMILY", "NULL", "DEFAULT")
	for _, c := range cols {
		name := c.Name
		if c.Primary {
			name += " *"
		}
		null := "no"
		if c.Nullable {
			null = "yes"
		}
		def := ""
		if c.Default != nil {
			def = fmt.Sprint(c.Default)
		}
		fmt.Fprintf(&b, "\n%-20s %-16s %-9s %-5s %s", name, c.Type, c.Family, null, def)
	}
	return b.String()
}
