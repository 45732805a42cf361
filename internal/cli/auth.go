package cli

import (
	"bufio"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ziwei/internal/config"
)

// NewAuthCommand creates the auth command group.
func NewAuthCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the LLM API key",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set-key [key]",
		Short: "Store the LLM API key in the OS keyring",
		Long: `Store the LLM API key in the OS keyring. The key is read from stdin
when not given as an argument. llm.api_key and OPENAI_API_KEY take precedence
over the keyring.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(rootOpts, cmd)
			var key string
			if len(args) == 1 {
				key = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return invalid(out, "no key on stdin", err)
				}
				key = line
			}
			key = strings.TrimSpace(key)
			if key == "" {
				return NewExitError(ExitCommandError, "empty key")
			}
			if err := config.StoreAPIKey(key); err != nil {
				return fail(out, "store key", err)
			}
			return out.Success("API key stored in keyring")
		},
	})
	return cmd
}
