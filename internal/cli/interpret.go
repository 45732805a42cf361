package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ziwei/internal/analysis"
	"github.com/roach88/ziwei/internal/payload"
)

// InterpretOptions holds flags for the interpret command.
type InterpretOptions struct {
	*RootOptions
	birth   birthFlags
	Palaces []string
	DryRun  bool
}

// interpretResult is the output of a completed interpretation.
type interpretResult struct {
	RecordID     string `json:"record_id"`
	Token        string `json:"token"`
	DocumentHash string `json:"document_hash"`
	Content      string `json:"content"`
}

func (r interpretResult) String() string { return r.Content }

type dryRunResult struct {
	DocumentHash string `json:"document_hash"`
	Document     string `json:"document"`
}

func (r dryRunResult) String() string { return r.Document }

// NewInterpretCommand creates the interpret command.
func NewInterpretCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InterpretOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "interpret",
		Short: "Request an AI interpretation of a chart",
		Long: `Build the analysis document for a chart, send it to the interpretation
service and store the result on the chart's saved record. The record is
created first if the chart is not saved yet.

命宫 is always analyzed; --palace adds more target palaces in order.

Example:
  ziwei interpret --name 张三 --date 1990-1-1 --hour 0 --palace 夫妻 --palace 财帛
  ziwei interpret --date 1990-1-1 --dry-run --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInterpret(opts, cmd)
		},
	}

	opts.birth.register(cmd)
	cmd.Flags().StringArrayVarP(&opts.Palaces, "palace", "p", nil, "extra target palace (repeatable)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print the analysis document without sending it")

	return cmd
}

func runInterpret(opts *InterpretOptions, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	c, err := opts.birth.resolve(a)
	if err != nil {
		return invalid(a.out, "invalid birth data", err)
	}
	sel, err := payload.NewSelection(opts.Palaces...)
	if err != nil {
		return invalid(a.out, "invalid --palace", err)
	}
	engine, err := a.engine()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load fixtures", err)
	}

	if opts.DryRun {
		doc, err := analysis.NewSession(a.charts, engine, nil, c,
			analysis.WithSettings(a.settings),
			analysis.WithClock(a.clock),
			analysis.WithLogger(a.log),
		).Document(ctx, sel)
		if err != nil {
			return fail(a.out, "build document", err)
		}
		data, err := doc.Render()
		if err != nil {
			return fail(a.out, "render document", err)
		}
		hash, err := doc.Hash()
		if err != nil {
			return fail(a.out, "hash document", err)
		}
		return a.out.Success(dryRunResult{DocumentHash: hash, Document: string(data)})
	}

	r, err := a.reasoner(ctx)
	if err != nil {
		return fail(a.out, "interpretation service unavailable", err)
	}

	session := analysis.NewSession(a.charts, engine, r, c,
		analysis.WithSettings(a.settings),
		analysis.WithClock(a.clock),
		analysis.WithLogger(a.log),
		analysis.WithNotifier(analysis.NotifierFunc(func(msg string) {
			fmt.Fprintln(a.out.GetErrWriter(), msg)
		})),
	)
	a.out.VerboseLog("requesting interpretation for %s", c.DisplayName())

	out, err := session.Start(ctx, sel)
	if err != nil && out.Content == "" {
		return fail(a.out, "interpretation failed", err)
	}
	if err != nil {
		// The interpretation was produced but not stored.
		_ = a.out.Success(interpretResult{Token: out.Request.Token, DocumentHash: out.DocumentHash, Content: out.Content})
		return fail(a.out, "interpretation not saved", err)
	}
	return a.out.Success(interpretResult{
		RecordID:     out.Record.ID,
		Token:        out.Request.Token,
		DocumentHash: out.DocumentHash,
		Content:      out.Content,
	})
}
