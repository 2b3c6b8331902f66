package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/crucibot/internal/bot"
	"github.com/colonyops/crucibot/internal/core/styles"
	"github.com/colonyops/crucibot/internal/lint"
	"github.com/colonyops/crucibot/pkg/iojson"
)

type LintCmd struct {
	flags  *Flags
	app    *bot.App
	format string
}

// NewLintCmd creates a new lint command.
func NewLintCmd(flags *Flags, app *bot.App) *LintCmd {
	return &LintCmd{flags: flags, app: app}
}

// Register adds the lint command to the application.
func (cmd *LintCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "lint",
		Usage:     "Run the configured validators on local files",
		UsageText: "crucibot lint [options] FILE...",
		Description: `Runs the same validators the bot uses on review items against local
files, without contacting the server. Exits with status 1 when any
finding is reported.`,
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

// fileFindings is the lint result for a single file.
type fileFindings struct {
	Path     string         `json:"path"`
	Skipped  bool           `json:"skipped,omitempty"`
	Findings []lint.Finding `json:"findings"`
}

func (cmd *LintCmd) run(_ context.Context, c *cli.Command) error {
	if err := validateFormat(cmd.format); err != nil {
		return err
	}
	if c.Args().Len() == 0 {
		return fmt.Errorf("no files given. Run 'crucibot lint --help' for usage")
	}

	registry, err := cmd.app.Validators()
	if err != nil {
		return fmt.Errorf("build validators: %w", err)
	}

	results, err := lintFiles(registry, c.Args().Slice())
	if err != nil {
		return err
	}

	total := 0
	for _, r := range results {
		total += len(r.Findings)
	}

	if cmd.format == FormatJSON {
		if err := iojson.WriteWith(c.Root().Writer, os.Stderr, results); err != nil {
			return err
		}
	} else {
		writeFindings(c.Root().Writer, results, total)
	}

	if total > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func lintFiles(registry *lint.Registry, paths []string) ([]fileFindings, error) {
	results := make([]fileFindings, 0, len(paths))
	for _, path := range paths {
		if !registry.Supports(path) {
			results = append(results, fileFindings{Path: path, Skipped: true, Findings: []lint.Finding{}})
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		findings := registry.Validate(path, string(data))
		if findings == nil {
			findings = []lint.Finding{}
		}
		results = append(results, fileFindings{Path: path, Findings: findings})
	}
	return results, nil
}

func writeFindings(w io.Writer, results []fileFindings, total int) {
	for _, r := range results {
		if r.Skipped {
			_, _ = fmt.Fprintf(w, "%s %s\n", r.Path, styles.TextMutedStyle.Render("(no validator)"))
			continue
		}
		for _, f := range r.Findings {
			_, _ = fmt.Fprintf(w, "%s:%d:%d: %s %s\n",
				r.Path, f.Line, f.Column, f.Message, styles.TextMutedStyle.Render("("+f.Code+")"))
		}
	}

	if total == 0 {
		_, _ = fmt.Fprintln(w, styles.TextSuccessStyle.Render(styles.IconPass+" no findings"))
		return
	}
	_, _ = fmt.Fprintln(w, styles.TextErrorStyle.Render(fmt.Sprintf("%s %d finding(s)", styles.IconFail, total)))
}
