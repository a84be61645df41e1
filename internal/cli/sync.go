package cli

import (
	"github.com/spf13/cobra"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions
	Where   []string
	Compare []string
	Replace bool
}

// SyncReport is the output of the sync command.
type SyncReport struct {
	Kept    []map[string]any `json:"kept" yaml:"kept"`
	Added   []map[string]any `json:"added" yaml:"added"`
	Deleted []map[string]any `json:"deleted" yaml:"deleted"`
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync <mapper> <data-file>",
		Short: "Make the rows matching conditions equal to a data file",
		Long: `Reconcile the rows matching --where with the rows of the data file.
Rows are matched on the --compare columns (default: the --where columns).
Unmatched stored rows are deleted, unmatched file rows are created and
matched rows are updated. The whole sync runs in one transaction.

With --replace the matching rows are deleted and the file rows created
instead, without matching.

Example:
  rowmap sync tags tags.yaml --where post_id=7 --compare post_id,name
  rowmap sync tags tags.yaml --where post_id=7 --replace`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Where, "where", "w", nil, "condition column<op>value scoping the rows (repeatable)")
	cmd.Flags().StringSliceVar(&opts.Compare, "compare", nil, "columns identifying a row")
	cmd.Flags().BoolVar(&opts.Replace, "replace", false, "delete then create instead of reconciling")

	return cmd
}

func runSync(cmd *cobra.Command, opts *SyncOptions, name, file string) error {
	out := opts.formatter(cmd)
	ctx := cmd.Context()

	where, err := parseWhere(opts.Where)
	if err != nil {
		return out.Fail(err)
	}
	data, err := readData(file, cmd.InOrStdin())
	if err != nil {
		return out.Fail(err)
	}
	s, err := openSession(opts.RootOptions, name)
	if err != nil {
		return out.Fail(err)
	}
	defer s.Close()

	if opts.Replace {
		rows, err := s.mapper.Flush(ctx, data, where)
		if err != nil {
			return out.Fail(err)
		}
		return out.Success(rows.Maps())
	}

	res, err := s.mapper.Sync(ctx, data, where, opts.Compare...)
	if err != nil {
		return out.Fail(err)
	}
	out.VerboseLog("kept %d, added %d, deleted %d", len(res.Kept), len(res.Added), len(res.Deleted))
	return out.Success(SyncReport{
		Kept:    res.Kept.Maps(),
		Added:   res.Added.Maps(),
		Deleted: res.Deleted.Maps(),
	})
}
