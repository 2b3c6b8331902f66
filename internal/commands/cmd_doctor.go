package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/crucibot/internal/bot"
	"github.com/colonyops/crucibot/internal/core/doctor"
	"github.com/colonyops/crucibot/internal/core/styles"
	"github.com/colonyops/crucibot/pkg/iojson"
)

type DoctorCmd struct {
	flags  *Flags
	app    *bot.App
	format string
}

func NewDoctorCmd(flags *Flags, app *bot.App) *DoctorCmd {
	return &DoctorCmd{flags: flags, app: app}
}

func (cmd *DoctorCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "doctor",
		Usage:       "Run health checks on your crucibot setup",
		UsageText:   "crucibot doctor [options]",
		Description: "Checks the configuration, validators, comment ledger and the connection to the Crucible server.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       FormatText,
				Destination: &cmd.format,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *DoctorCmd) run(ctx context.Context, c *cli.Command) error {
	if err := validateFormat(cmd.format); err != nil {
		return err
	}

	results := doctor.RunAll(ctx, cmd.app.DoctorChecks(cmd.flags.ConfigPath))
	_, _, failed := doctor.Summary(results)

	if cmd.format == FormatJSON {
		if err := cmd.outputJSON(c, results); err != nil {
			return err
		}
	} else {
		outputDoctorText(os.Stderr, results)
	}

	if failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func (cmd *DoctorCmd) outputJSON(c *cli.Command, results []doctor.Result) error {
	passed, warned, failed := doctor.Summary(results)

	out := struct {
		Healthy bool            `json:"healthy"`
		Summary summaryJSON     `json:"summary"`
		Checks  []doctor.Result `json:"checks"`
	}{
		Healthy: failed == 0,
		Summary: summaryJSON{Passed: passed, Warned: warned, Failed: failed},
		Checks:  results,
	}

	return iojson.WriteWith(c.Root().Writer, os.Stderr, out)
}

type summaryJSON struct {
	Passed int `json:"passed"`
	Warned int `json:"warned"`
	Failed int `json:"failed"`
}

func outputDoctorText(w io.Writer, results []doctor.Result) {
	divider := styles.TextMutedStyle.Render(strings.Repeat("─", 40))

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, styles.TextPrimaryBoldStyle.Render("Crucibot Doctor"))
	_, _ = fmt.Fprintln(w, divider)
	_, _ = fmt.Fprintln(w)

	for _, result := range results {
		_, _ = fmt.Fprintln(w, styles.TextForegroundBoldStyle.Render(result.Name))

		for _, item := range result.Items {
			var detail string
			if item.Detail != "" {
				detail = " " + styles.TextMutedStyle.Render(item.Detail)
			}

			var icon string
			switch item.Status {
			case doctor.StatusPass:
				icon = styles.TextSuccessStyle.Render(styles.IconPass)
			case doctor.StatusWarn:
				icon = styles.TextWarningStyle.Render(styles.IconWarn)
			case doctor.StatusFail:
				icon = styles.TextErrorStyle.Render(styles.IconFail)
			}

			_, _ = fmt.Fprintf(w, "  %s %s%s\n", icon, item.Label, detail)
		}

		_, _ = fmt.Fprintln(w)
	}

	passed, warned, failed := doctor.Summary(results)
	_, _ = fmt.Fprintf(w, "%s  %s  %s\n",
		styles.TextSuccessStyle.Render(fmt.Sprintf("%d passed", passed)),
		styles.TextWarningStyle.Render(fmt.Sprintf("%d warnings", warned)),
		styles.TextErrorStyle.Render(fmt.Sprintf("%d failed", failed)),
	)
}
