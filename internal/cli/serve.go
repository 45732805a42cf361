package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/ziwei/internal/reasoner"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the interpretation proxy",
		Long: `Serve POST /api/interpret, forwarding requests to the configured
OpenAI-compatible endpoint. The upstream is configured with llm.* or the
OPENAI_BASE_URL, OPENAI_API_KEY and OPENAI_MODEL variables; without them the
endpoint answers 500.

Example:
  OPENAI_BASE_URL=https://api.openai.com/v1 ziwei serve
  ziwei serve --addr 127.0.0.1:3088`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, addr, cmd)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :$PORT or :3088)")
	return cmd
}

func runServe(opts *RootOptions, addr string, cmd *cobra.Command) error {
	cfg, log, logFile, err := loadConfig(opts)
	if err != nil {
		return err
	}
	defer logFile.Close()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var upstream reasoner.Reasoner
	if opts.Reasoner != nil {
		upstream = opts.Reasoner
	} else if d, err := newDirect(ctx, cfg); err == nil {
		upstream = d
	} else {
		// Serve anyway; the handler answers "AI service not configured".
		log.WithError(err).Warn("upstream not configured")
	}

	if addr == "" {
		addr = cfg.Addr()
	}
	timeout, err := cfg.ProxyTimeout()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid proxy config", err)
	}
	srv := reasoner.NewServer(addr, timeout, reasoner.NewHandler(upstream, log))

	errc := make(chan error, 1)
	go func() { errc <- srv.Start(ctx) }()
	log.WithField("addr", addr).Info("serving " + reasoner.InterpretPath)

	select {
	case err := <-errc:
		if err != nil {
			return WrapExitError(ExitFailure, "server failed", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info("shutting down")
	if err := srv.Stop(context.Background()); err != nil {
		return WrapExitError(ExitFailure, "server shutdown failed", err)
	}
	return nil
}
