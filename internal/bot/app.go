// Package bot assembles the crucibot components from configuration.
package bot

import (
	"context"
	"fmt"

	"github.com/colonyops/crucibot/internal/core/config"
	"github.com/colonyops/crucibot/internal/core/doctor"
	"github.com/colonyops/crucibot/internal/core/logging"
	"github.com/colonyops/crucibot/internal/crucible"
	"github.com/colonyops/crucibot/internal/ledger"
	"github.com/colonyops/crucibot/internal/lint"
	"github.com/colonyops/crucibot/internal/lint/jshint"
	"github.com/colonyops/crucibot/internal/pipeline"
)

// App is the central entry point for all crucibot operations.
// Commands consume App instead of building their own dependencies.
type App struct {
	Config   *config.Config
	Client   *crucible.Client
	Registry *lint.Registry

	// registryErr is kept so doctor can report it instead of failing startup.
	registryErr error
}

// NewApp builds the client and validator registry for cfg. A broken
// validator configuration is not fatal here; it is returned by Pipeline and
// Registry consumers and reported by doctor.
func NewApp(cfg *config.Config) *App {
	registry, err := BuildRegistry(cfg)

	return &App{
		Config: cfg,
		Client: crucible.New(crucible.Config{
			BaseURL: cfg.Crucible.URL,
			Timeout: cfg.Crucible.Timeout,
			Logger:  logging.Component("crucible"),
		}),
		Registry:    registry,
		registryErr: err,
	}
}

// BuildRegistry registers every enabled validator. jshint options come from
// the .jshintrc file, overridden by inline options in the config.
func BuildRegistry(cfg *config.Config) (*lint.Registry, error) {
	registry := lint.NewRegistry()

	if js := cfg.Validators.JSHint; js.IsEnabled() {
		opts := jshint.Options{}
		if path := cfg.JSHintConfigPath(); path != "" {
			fileOpts, err := jshint.LoadOptions(path)
			if err != nil {
				return nil, err
			}
			opts = fileOpts
		}
		registry.Register(jshint.New(opts.Merge(js.Options)))
	}

	return registry, nil
}

// Validators returns the registry, or the error encountered while building it.
func (a *App) Validators() (*lint.Registry, error) {
	return a.Registry, a.registryErr
}

// Pipeline returns a pipeline wired to the server and, when enabled, the
// comment ledger. The returned close function releases the ledger.
func (a *App) Pipeline(ctx context.Context, opts pipeline.Options) (*pipeline.Pipeline, func() error, error) {
	closer := func() error { return nil }

	if a.registryErr != nil {
		return nil, closer, fmt.Errorf("build validators: %w", a.registryErr)
	}
	if err := a.Config.ValidateCredentials(); err != nil {
		return nil, closer, fmt.Errorf("invalid config: %w", err)
	}

	p := pipeline.New(a.Client, a.Registry, opts)

	if a.Config.Ledger.Enabled {
		l, err := ledger.Open(ctx, a.Config.LedgerPath())
		if err != nil {
			return nil, closer, fmt.Errorf("open ledger: %w", err)
		}
		p.WithLedger(l)
		closer = l.Close
	}

	return p, closer, nil
}

// DoctorChecks returns the health checks for this setup.
func (a *App) DoctorChecks(configPath string) []doctor.Check {
	return []doctor.Check{
		doctor.NewConfigCheck(a.Config, configPath),
		doctor.NewValidatorsCheck(a.Registry, a.registryErr),
		doctor.NewLedgerCheck(a.Config.Ledger.Enabled, a.Config.LedgerPath()),
		doctor.NewServerCheck(a.Client, a.Config.Crucible.URL, a.Config.Crucible.Username, a.Config.Crucible.Password, a.Config.Crucible.Filter),
	}
}
