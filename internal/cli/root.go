package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/ziwei/internal/astro"
	"github.com/roach88/ziwei/internal/reasoner"
	"github.com/roach88/ziwei/internal/token"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string

	// Engine overrides the fixture engine built from config (for testing).
	Engine astro.Engine
	// Reasoner overrides the reasoner built from config (for testing).
	Reasoner reasoner.Reasoner
	// Clock overrides the wall clock (for testing).
	Clock token.Clock
	// IDs overrides the record id generator (for testing).
	IDs token.Generator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the ziwei CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ziwei",
		Short: "ziwei - Zi Wei Dou Shu chart keeper",
		Long:  "Save natal charts, look them up by birth data and request AI interpretations.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "ziwei.yaml", "path to config file")

	cmd.AddCommand(NewSaveCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewFindCommand(opts))
	cmd.AddCommand(NewInterpretCommand(opts))
	cmd.AddCommand(NewSettingsCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewAuthCommand(opts))

	return cmd
}
