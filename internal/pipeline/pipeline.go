// Package pipeline drives one review pass: discover open reviews, expand their
// eligible items, fetch and lint content, post a comment per finding and mark
// the reviews complete.
package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/colonyops/crucibot/internal/core/config"
	"github.com/colonyops/crucibot/internal/core/logging"
	"github.com/colonyops/crucibot/internal/crucible"
	"github.com/colonyops/crucibot/internal/lint"
)

// Client is the subset of the Crucible API the pipeline needs.
type Client interface {
	Login(ctx context.Context, userName, password string) (*crucible.Session, error)
	OpenReviews(ctx context.Context, s *crucible.Session, filter string) ([]crucible.ReviewSummary, error)
	ReviewItems(ctx context.Context, s *crucible.Session, reviewID string) ([]crucible.ReviewItem, error)
	FileContent(ctx context.Context, s *crucible.Session, contentPath string) (string, error)
	PostComment(ctx context.Context, s *crucible.Session, comment crucible.Comment) error
	CompleteReview(ctx context.Context, s *crucible.Session, reviewID string) error
}

// Ledger remembers which comments were already posted.
type Ledger interface {
	Seen(ctx context.Context, key string) (bool, error)
	Record(ctx context.Context, key string, comment crucible.Comment) error
}

// Options configures a Pipeline.
type Options struct {
	Username    string
	Password    string
	Filter      string
	Concurrency int
	FailureMode config.FailureMode
	DryRun      bool
	Exclude     []string
}

// OptionsFromConfig builds pipeline options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Username:    cfg.Crucible.Username,
		Password:    cfg.Crucible.Password,
		Filter:      cfg.Crucible.Filter,
		Concurrency: cfg.Pipeline.Concurrency,
		FailureMode: cfg.Pipeline.FailureMode,
		DryRun:      cfg.Pipeline.DryRun,
		Exclude:     cfg.Paths.Exclude,
	}
}

// Pipeline runs review passes against a Crucible server.
type Pipeline struct {
	client   Client
	registry *lint.Registry
	ledger   Ledger
	opts     Options
	log      zerolog.Logger
}

// New creates a Pipeline. Zero option values fall back to defaults.
func New(client Client, registry *lint.Registry, opts Options) *Pipeline {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Filter == "" {
		opts.Filter = crucible.FilterToReview
	}
	if opts.FailureMode == "" {
		opts.FailureMode = config.FailureAbort
	}

	return &Pipeline{
		client:   client,
		registry: registry,
		opts:     opts,
		log:      logging.Component("pipeline"),
	}
}

// WithLedger enables cross-run comment deduplication.
func (p *Pipeline) WithLedger(l Ledger) *Pipeline {
	p.ledger = l
	return p
}

// WithLogger replaces the component logger.
func (p *Pipeline) WithLogger(l zerolog.Logger) *Pipeline {
	p.log = l
	return p
}

// Options returns the effective options.
func (p *Pipeline) Options() Options { return p.opts }
