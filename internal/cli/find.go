package cli

import (
	"github.com/spf13/cobra"
)

// FindOptions holds flags for the find command.
type FindOptions struct {
	*RootOptions
	Where   []string
	Order   []string
	Columns []string
	Limit   int
	Offset  int
	Count   bool
}

// NewFindCommand creates the find command.
func NewFindCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FindOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "find <mapper>",
		Short: "Read rows through a mapper",
		Long: `Read rows matching the given conditions. Joins declared for the mapper
are applied; joined columns are reported as <alias>__<column>.

Example:
  rowmap find users --where status=open --order "name desc" --limit 10
  rowmap find users --where 'score>=2.5' --count`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Where, "where", "w", nil, "condition column<op>value, op one of = != > >= < <= ~ (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Order, "order", nil, `order "column [asc|desc]" (repeatable)`)
	cmd.Flags().StringSliceVar(&opts.Columns, "columns", nil, "columns to select")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum rows")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "rows to skip")
	cmd.Flags().BoolVar(&opts.Count, "count", false, "print the number of matching rows")

	return cmd
}

func runFind(cmd *cobra.Command, opts *FindOptions, name string) error {
	out := opts.formatter(cmd)
	ctx := cmd.Context()

	where, err := parseWhere(opts.Where)
	if err != nil {
		return out.Fail(err)
	}
	orders, err := parseOrders(opts.Order)
	if err != nil {
		return out.Fail(err)
	}

	s, err := openSession(opts.RootOptions, name)
	if err != nil {
		return out.Fail(err)
	}
	defer s.Close()

	m := s.def.ApplyJoins(s.mapper)
	if opts.Count {
		n, err := m.Count(ctx, where)
		if err != nil {
			return out.Fail(err)
		}
		return out.Success(map[string]int64{"count": n})
	}

	rows, err := m.Columns(opts.Columns...).
		Limit(opts.Limit).
		Offset(opts.Offset).
		Find(ctx, where, orders...)
	if err != nil {
		return out.Fail(err)
	}
	out.VerboseLog("%d row(s) from %s", len(rows), m.Table())
	return out.Success(rows.Maps())
}
