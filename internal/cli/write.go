package cli

import (
	"github.com/spf13/cobra"
)

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <mapper> <data-file>",
		Short: "Insert rows from a YAML data file",
		Long: `Insert one row (a YAML mapping) or many (a YAML sequence) in a single
transaction. Values are normalized against the table schema; generated keys
are reported back.

Example:
  rowmap create users users.yaml
  echo '{name: ann}' | rowmap create users -`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			data, err := readData(args[1], cmd.InOrStdin())
			if err != nil {
				return out.Fail(err)
			}
			s, err := openSession(rootOpts, args[0])
			if err != nil {
				return out.Fail(err)
			}
			defer s.Close()

			rows, err := s.mapper.Create(cmd.Context(), data)
			if err != nil {
				return out.Fail(err)
			}
			return out.Success(rows.Maps())
		},
	}
	return cmd
}

// UpdateOptions holds flags for the update command.
type UpdateOptions struct {
	*RootOptions
	On          []string
	UpdateNulls bool
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update <mapper> <data-file>",
		Short: "Update rows from a YAML data file",
		Long: `Update each row of the data file, matched by its primary key or by the
--on columns. Null values are skipped unless --nulls is given.

Example:
  rowmap update users changes.yaml
  rowmap update users changes.yaml --on email --nulls`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)
			data, err := readData(args[1], cmd.InOrStdin())
			if err != nil {
				return out.Fail(err)
			}
			s, err := openSession(opts.RootOptions, args[0])
			if err != nil {
				return out.Fail(err)
			}
			defer s.Close()

			rows, err := s.mapper.Update(cmd.Context(), data, opts.UpdateNulls, opts.On...)
			if err != nil {
				return out.Fail(err)
			}
			return out.Success(rows.Maps())
		},
	}

	cmd.Flags().StringSliceVar(&opts.On, "on", nil, "columns identifying the row (default: primary key)")
	cmd.Flags().BoolVar(&opts.UpdateNulls, "nulls", false, "write null values instead of skipping them")

	return cmd
}

// DeleteOptions holds flags for the delete command.
type DeleteOptions struct {
	*RootOptions
	Where []string
	All   bool
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeleteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "delete <mapper>",
		Short: "Delete rows matching conditions",
		Long: `Delete the rows matching --where. Deleting every row requires --all.

Example:
  rowmap delete users --where status=closed
  rowmap delete sessions --all`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)
			where, err := parseWhere(opts.Where)
			if err != nil {
				return out.Fail(err)
			}
			if len(where) == 0 && !opts.All {
				return out.Fail(&inputError{msg: "refusing to delete every row without --all"})
			}
			s, err := openSession(opts.RootOptions, args[0])
			if err != nil {
				return out.Fail(err)
			}
			defer s.Close()

			ok, err := s.mapper.Delete(cmd.Context(), where)
			if err != nil {
				return out.Fail(err)
			}
			return out.Success(map[string]bool{"deleted": ok})
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Where, "where", "w", nil, "condition column<op>value (repeatable)")
	cmd.Flags().BoolVar(&opts.All, "all", false, "allow deleting every row")

	return cmd
}
