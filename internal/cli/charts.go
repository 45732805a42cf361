package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	var birth birthFlags
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save a chart",
		Long: `Save a chart as a new record, newest first.

Saving a chart that is already saved reuses the existing record.

Example:
  ziwei save --name 张三 --gender male --date 1990-1-1 --hour 0`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			c, err := birth.resolve(a)
			if err != nil {
				return invalid(a.out, "invalid birth data", err)
			}
			rec, created, err := a.charts.FindOrCreate(cmd.Context(), c)
			if err != nil {
				return fail(a.out, "保存失败，请重试", err)
			}
			return a.out.Success(saveResult{recordView: newRecordView(rec, false), Created: created})
		},
	}
	birth.register(cmd)
	return cmd
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List saved charts, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			recs := a.charts.List()
			views := make(recordList, len(recs))
			for i, rec := range recs {
				views[i] = newRecordView(rec, false)
			}
			return a.out.Success(views)
		},
	}
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete a saved chart",
		Long:          "Delete the saved chart with the given id. Deleting an unknown id is not an error.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.charts.DeleteByID(cmd.Context(), args[0]); err != nil {
				return fail(a.out, "删除失败", err)
			}
			return a.out.Success(fmt.Sprintf("deleted %s (%d remaining)", args[0], a.charts.Len()))
		},
	}
}

// NewFindCommand creates the find command.
func NewFindCommand(rootOpts *RootOptions) *cobra.Command {
	var birth birthFlags
	cmd := &cobra.Command{
		Use:   "find",
		Short: "Find the saved chart for a birth",
		Long: `Find the newest saved chart equivalent to the given birth data and
print it with its interpretation.

Example:
  ziwei find --name 张三 --date 1990-1-1 --hour 0`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			c, err := birth.resolve(a)
			if err != nil {
				return invalid(a.out, "invalid birth data", err)
			}
			rec, ok := a.charts.FindByIdentity(c)
			if !ok {
				_ = a.out.Error(ErrCodeNotFound, "no saved chart matches", c.Key())
				return NewExitError(ExitFailure, "no saved chart matches")
			}
			return a.out.Success(newRecordView(rec, true))
		},
	}
	birth.register(cmd)
	return cmd
}
