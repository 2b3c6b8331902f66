package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/crucibot/internal/bot"
	"github.com/colonyops/crucibot/internal/core/styles"
	"github.com/colonyops/crucibot/internal/pipeline"
	"github.com/colonyops/crucibot/pkg/iojson"
)

type RunCmd struct {
	flags *Flags
	app   *bot.App

	// Command-specific flags
	dryRun bool
	format string
}

// NewRunCmd creates a new run command
func NewRunCmd(flags *Flags, app *bot.App) *RunCmd {
	return &RunCmd{flags: flags, app: app}
}

// Flags returns the run flags. They are also registered on the root command
// because run is the default action.
func (cmd *RunCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "lint and report findings without posting comments or completing reviews",
			Sources:     cli.EnvVars("CRUCIBOT_DRY_RUN"),
			Destination: &cmd.dryRun,
		},
		&cli.StringFlag{
			Name:        "format",
			Usage:       "report format (text, json)",
			Value:       FormatText,
			Destination: &cmd.format,
		},
	}
}

// Register adds the run command to the application
func (cmd *RunCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "run",
		Usage:     "Review every open review assigned to the bot",
		UsageText: "crucibot run [options]",
		Description: `Logs in to Crucible, lints the latest revision of every review item
waiting on the bot user, posts one comment per finding and marks the
reviews complete.

With pipeline.failure_mode: abort (the default) any failure leaves every
review open. With isolate, failing reviews stay open and the rest complete.`,
		Flags:  cmd.Flags(),
		Action: cmd.Run,
	})

	return app
}

// Run executes one review pass.
func (cmd *RunCmd) Run(ctx context.Context, c *cli.Command) error {
	if err := validateFormat(cmd.format); err != nil {
		return err
	}

	opts := pipeline.OptionsFromConfig(cmd.flags.Config)
	if cmd.dryRun {
		opts.DryRun = true
	}

	p, closeLedger, err := cmd.app.Pipeline(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeLedger(); err != nil {
			log.Error().Err(err).Msg("failed to close ledger")
		}
	}()

	report, runErr := p.Run(ctx)

	var outErr error
	if cmd.format == FormatJSON {
		outErr = iojson.WriteWith(c.Root().Writer, os.Stderr, report)
	} else {
		writeReport(c.Root().Writer, report)
	}

	if runErr != nil {
		if cmd.format == FormatJSON {
			_ = iojson.WriteError(os.Stderr, runErr.Error(), map[string]any{"run_id": report.RunID})
		}
		return runErr
	}
	return outErr
}

func writeReport(w io.Writer, r *pipeline.Report) {
	title := "Review Pass"
	if r.DryRun {
		title += " (dry run)"
	}

	_, _ = fmt.Fprintln(w, styles.TextPrimaryBoldStyle.Render(title))
	_, _ = fmt.Fprintln(w, styles.TextMutedStyle.Render(strings.Repeat("─", 40)))

	if len(r.Reviews) == 0 {
		_, _ = fmt.Fprintln(w, styles.TextMutedStyle.Render("no open reviews"))
		return
	}

	for _, rr := range r.Reviews {
		var icon string
		switch {
		case rr.Error != "":
			icon = styles.TextErrorStyle.Render(styles.IconFail)
		case rr.Completed:
			icon = styles.TextSuccessStyle.Render(styles.IconPass)
		default:
			icon = styles.TextWarningStyle.Render(styles.IconSkip)
		}

		detail := fmt.Sprintf("%d items, %d validated, %d findings, %d posted", rr.Items, rr.Validated, rr.Findings, rr.Posted)
		if rr.Skipped > 0 {
			detail += fmt.Sprintf(", %d already posted", rr.Skipped)
		}
		_, _ = fmt.Fprintf(w, "  %s %s %s\n", icon, styles.TextForegroundBoldStyle.Render(rr.ID), styles.TextMutedStyle.Render(detail))

		if rr.Error != "" {
			_, _ = fmt.Fprintf(w, "    %s\n", styles.TextErrorStyle.Render(rr.Error))
		}
	}

	totals := r.Totals()
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "%s  %s  %s\n",
		styles.TextSuccessStyle.Render(fmt.Sprintf("%d completed", r.Completed())),
		styles.TextForegroundStyle.Render(fmt.Sprintf("%d comments posted", totals.Posted)),
		styles.TextErrorStyle.Render(fmt.Sprintf("%d failed", r.Failed())),
	)
}
