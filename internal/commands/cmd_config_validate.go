package commands

import (
	"context"
	"errors"
	"os"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/crucibot/internal/core/styles"
	"github.com/colonyops/crucibot/pkg/iojson"
)

type ConfigValidateCmd struct {
	flags  *Flags
	format string
}

// NewConfigValidateCmd creates a new config validate command.
func NewConfigValidateCmd(flags *Flags) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags}
}

// Register adds the config validate command to the application.
func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "crucibot config validate [options]",
				Description: "Validates the configuration file, server credentials, exclude globs and referenced files.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       FormatText,
						Destination: &cmd.format,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (cmd *ConfigValidateCmd) run(_ context.Context, c *cli.Command) error {
	if err := validateFormat(cmd.format); err != nil {
		return err
	}

	cfg := cmd.flags.Config
	errs := append(
		fieldErrors(cfg.ValidateDeep(cmd.flags.ConfigPath)),
		fieldErrors(cfg.ValidateCredentials())...,
	)

	if cmd.format == FormatJSON {
		out := struct {
			Valid  bool         `json:"valid"`
			Errors []fieldError `json:"errors,omitempty"`
		}{Valid: len(errs) == 0, Errors: errs}
		if err := iojson.WriteWith(c.Root().Writer, os.Stderr, out); err != nil {
			return err
		}
	} else {
		w := c.Root().Writer
		for _, fe := range errs {
			_, _ = w.Write([]byte(styles.TextErrorStyle.Render(styles.IconFail+" "+fe.Field) + ": " + fe.Message + "\n"))
		}
		if len(errs) == 0 {
			_, _ = w.Write([]byte(styles.TextSuccessStyle.Render(styles.IconPass+" Configuration is valid") + "\n"))
		}
	}

	if len(errs) > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func fieldErrors(err error) []fieldError {
	if err == nil {
		return nil
	}

	var fes criterio.FieldErrors
	if !errors.As(err, &fes) {
		return []fieldError{{Field: "config", Message: err.Error()}}
	}

	out := make([]fieldError, 0, len(fes))
	for _, fe := range fes {
		out = append(out, fieldError{Field: fe.Field, Message: fe.Err.Error()})
	}
	return out
}
