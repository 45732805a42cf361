package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/ziwei/internal/ics"
)

// NewExportCommand creates the export-ics command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export-ics",
		Short: "Export saved charts as an iCalendar birthday feed",
		Long: `Write every saved chart as a yearly all-day event on its solar birth date.

Example:
  ziwei export-ics -o birthdays.ics`,
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
			var buf bytes.Buffer
			if err := ics.Encode(&buf, recs, a.resolver.Location); err != nil {
				return fail(a.out, "export failed", err)
			}
			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
				return WrapExitError(ExitCommandError, "writing output file", err)
			}
			return a.out.Success(fmt.Sprintf("exported %d chart(s) to %s", len(recs), output))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
