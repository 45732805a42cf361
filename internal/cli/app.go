package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/roach88/ziwei/internal/astro"
	"github.com/roach88/ziwei/internal/chart"
	"github.com/roach88/ziwei/internal/charts"
	"github.com/roach88/ziwei/internal/config"
	"github.com/roach88/ziwei/internal/logger"
	"github.com/roach88/ziwei/internal/reasoner"
	"github.com/roach88/ziwei/internal/settings"
	"github.com/roach88/ziwei/internal/store"
	"github.com/roach88/ziwei/internal/token"
)

// app is the wiring shared by commands that touch the store.
type app struct {
	opts     *RootOptions
	cfg      *config.Config
	log      *logrus.Logger
	logFile  io.Closer
	backend  store.Backend
	charts   *charts.Store
	settings *settings.Repository
	resolver chart.Resolver
	clock    token.Clock
	out      *OutputFormatter
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// loadConfig reads the config and builds the logger.
func loadConfig(opts *RootOptions) (*config.Config, *logrus.Logger, io.Closer, error) {
	cfg, err := config.LoadConfig(opts.Config)
	if err != nil {
		return nil, nil, nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	level := cfg.Log.Level
	if opts.Verbose {
		level = "debug"
	}
	log, closer, err := logger.New(level, cfg.Log.File)
	if err != nil {
		return nil, nil, nil, WrapExitError(ExitCommandError, "failed to init logger", err)
	}
	return cfg, log, closer, nil
}

// openApp loads config, opens the durable store and the chart collection.
func openApp(cmd *cobra.Command, opts *RootOptions) (*app, error) {
	out := newFormatter(opts, cmd)
	cfg, log, logFile, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		logFile.Close()
		return nil, WrapExitError(ExitCommandError, "invalid chart config", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out.VerboseLog("opening %s store %s", cfg.Storage.Driver, cfg.Storage.Target)
	backend, err := store.OpenBackend(ctx, cfg.Storage.Driver, cfg.Storage.Target)
	if err != nil {
		logFile.Close()
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}

	clock := opts.Clock
	if clock == nil {
		clock = token.RealClock{}
	}
	chartOpts := []charts.Option{charts.WithLogger(log), charts.WithClock(clock)}
	if opts.IDs != nil {
		chartOpts = append(chartOpts, charts.WithIDGenerator(opts.IDs))
	}
	cs, err := charts.Open(ctx, backend, chartOpts...)
	if err != nil {
		backend.Close()
		logFile.Close()
		return nil, WrapExitError(ExitCommandError, "failed to load charts", err)
	}

	return &app{
		opts:     opts,
		cfg:      cfg,
		log:      log,
		logFile:  logFile,
		backend:  backend,
		charts:   cs,
		settings: settings.NewRepository(backend, log),
		resolver: chart.Resolver{Location: loc},
		clock:    clock,
		out:      out,
	}, nil
}

// Close releases the store and the log file.
func (a *app) Close() {
	if err := a.backend.Close(); err != nil {
		a.log.WithError(err).Error("error closing store")
	}
	_ = a.logFile.Close()
}

// engine returns the astrology engine.
func (a *app) engine() (astro.Engine, error) {
	if a.opts.Engine != nil {
		return a.opts.Engine, nil
	}
	var e *astro.FixtureEngine
	if a.cfg.Chart.Fixtures != "" {
		var err error
		if e, err = astro.LoadFixtures(a.cfg.Chart.Fixtures); err != nil {
			return nil, err
		}
	} else {
		e = astro.DefaultFixtures()
	}
	e.Location = a.resolver.Location
	return e, nil
}

// reasoner returns the proxy client when proxy.base_url is set, else a
// direct client.
func (a *app) reasoner(ctx context.Context) (reasoner.Reasoner, error) {
	if a.opts.Reasoner != nil {
		return a.opts.Reasoner, nil
	}
	if a.cfg.Proxy.BaseURL != "" {
		return reasoner.NewProxy(a.cfg.Proxy.BaseURL, nil), nil
	}
	return newDirect(ctx, a.cfg)
}

func newDirect(ctx context.Context, cfg *config.Config) (*reasoner.Direct, error) {
	key, err := cfg.APIKey()
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.LLMTimeout()
	if err != nil {
		return nil, fmt.Errorf("invalid llm config: %w", err)
	}
	return reasoner.NewDirect(ctx, reasoner.DirectConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  key,
		Model:   cfg.LLM.Model,
		Timeout: timeout,
		RPM:     cfg.Concurrency.RPM,
		Burst:   cfg.Concurrency.Burst,
	})
}
