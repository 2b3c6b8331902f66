package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/crucibot/internal/bot"
	"github.com/colonyops/crucibot/internal/commands"
	"github.com/colonyops/crucibot/internal/core/config"
	"github.com/colonyops/crucibot/internal/core/logging"
	"github.com/colonyops/crucibot/internal/core/styles"
	"github.com/colonyops/crucibot/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, build() falls back
	// to runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	var (
		logCloser func()
		botApp    = &bot.App{}
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "crucibot",
		Usage:     "Lint Crucible review items and comment on the findings",
		UsageText: "crucibot [global options] [command [command options]]",
		Description: `crucibot logs in to a Crucible server as a bot user, lints the latest
revision of every review item waiting on that user, posts one inline
comment per finding and marks the reviews complete.

Run 'crucibot' with no arguments to perform a single review pass.
Run 'crucibot lint FILE...' to check local files with the same validators.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("CRUCIBOT_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to stderr)",
				Sources:     cli.EnvVars("CRUCIBOT_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("CRUCIBOT_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("CRUCIBOT_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
			&cli.StringFlag{
				Name:        "env-file",
				Usage:       "dotenv file with CRUCIBLE_* credentials (default .env, if present)",
				Sources:     cli.EnvVars("CRUCIBOT_ENV_FILE"),
				Destination: &flags.EnvFile,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := logutils.New(flags.LogLevel, flags.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			logging.Install(logger)
			logCloser = closer

			envFile, required := flags.EnvFile, true
			if envFile == "" {
				envFile, required = ".env", false
			}
			if err := config.LoadEnvFile(envFile, required); err != nil {
				return ctx, fmt.Errorf("load env file: %w", err)
			}

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			// Apply configured theme (validation ensures name is valid)
			palette, _ := styles.GetPalette(cfg.Theme)
			styles.SetTheme(palette)

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*botApp = *bot.NewApp(cfg)

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	runCmd := commands.NewRunCmd(flags, botApp)

	app = runCmd.Register(app)
	app = commands.NewLintCmd(flags, botApp).Register(app)
	app = commands.NewDoctorCmd(flags, botApp).Register(app)
	app = commands.NewConfigValidateCmd(flags).Register(app)

	// Register run flags on root command
	app.Flags = append(app.Flags, runCmd.Flags()...)

	// Set run as default action when no subcommand is provided
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'crucibot --help' for usage", c.Args().First())
		}
		return runCmd.Run(ctx, c)
	}

	exitCode := 0
	if err := app.Run(ctx, os.Args); err != nil {
		log.Error().Err(err).Msg("crucibot failed")
		exitCode = 1
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
	}

	stop()
	os.Exit(exitCode)
}
