package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ziwei/internal/settings"
)

type settingsView settings.Settings

func (v settingsView) String() string {
	data, _ := json.Marshal(settings.Settings(v))
	var m map[string]any
	_ = json.Unmarshal(data, &m)
	lines := make([]string, 0, len(m))
	for _, f := range settings.Fields() {
		lines = append(lines, fmt.Sprintf("%s = %v", f, m[f]))
	}
	return strings.Join(lines, "\n")
}

// NewSettingsCommand creates the settings command group.
func NewSettingsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the chart configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "get",
		Short:         "Print the chart configuration in effect",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := a.settings.Load(cmd.Context())
			if err != nil {
				return fail(a.out, "load settings", err)
			}
			return a.out.Success(settingsView(s))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <field> <value>",
		Short: "Change one configuration field",
		Long: `Change one configuration field and save the configuration.

Fields: ` + strings.Join(settings.Fields(), ", ") + `

Example:
  ziwei settings set algorithm zhongzhou
  ziwei settings set hideHoroscope true`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := a.settings.Load(cmd.Context())
			if err != nil {
				return fail(a.out, "load settings", err)
			}
			next, err := settings.Set(s, args[0], args[1])
			if err != nil {
				return invalid(a.out, "invalid setting", err)
			}
			if err := a.settings.Save(cmd.Context(), next); err != nil {
				return fail(a.out, "save settings", err)
			}
			return a.out.Success(settingsView(next))
		},
	})

	return cmd
}
