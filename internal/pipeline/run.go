package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/colonyops/crucibot/internal/core/config"
	"github.com/colonyops/crucibot/internal/core/logging"
	"github.com/colonyops/crucibot/internal/crucible"
)

// Run performs one full review pass: login, discovery and processing of every
// open review according to the configured failure mode. The returned Report
// is never nil and reflects the work done even when an error is returned.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	started := time.Now()
	report := &Report{
		RunID:       uuid.NewString(),
		DryRun:      p.opts.DryRun,
		FailureMode: p.opts.FailureMode,
		StartedAt:   started,
	}
	defer func() { report.Duration = time.Since(started) }()

	ctx = logging.WithRunID(ctx, report.RunID)
	p.log.Info().Ctx(ctx).
		Str("mode", string(p.opts.FailureMode)).
		Bool("dry_run", p.opts.DryRun).
		Msg("starting review pass")

	s, err := p.client.Login(ctx, p.opts.Username, p.opts.Password)
	if err != nil {
		return report, fmt.Errorf("login: %w", err)
	}

	ids, err := p.DiscoverOpenReviews(ctx, s)
	if err != nil {
		return report, err
	}

	report.Reviews = make([]ReviewResult, len(ids))
	for i, id := range ids {
		report.Reviews[i].ID = id
	}
	if len(ids) == 0 {
		return report, nil
	}

	if p.opts.FailureMode == config.FailureIsolate {
		err = p.runIsolated(ctx, s, report)
	} else {
		err = p.runAll(ctx, s, ids, report)
	}

	p.log.Info().Ctx(ctx).
		Int("reviews", len(ids)).
		Int("completed", report.Completed()).
		Int("posted", report.Totals().Posted).
		Err(err).
		Msg("review pass finished")

	return report, err
}

// runAll processes every review stage by stage. Nothing is completed unless
// every stage succeeded for every review.
func (p *Pipeline) runAll(ctx context.Context, s *crucible.Session, ids []string, report *Report) error {
	fail := func(err error) error {
		for i := range report.Reviews {
			report.Reviews[i].Error = err.Error()
		}
		return err
	}

	byReview, err := p.ExpandItems(ctx, s, ids)
	if err != nil {
		return fail(err)
	}

	var items []Item
	for i, id := range ids {
		report.Reviews[i].Items = len(byReview[id])
		items = append(items, byReview[id]...)
	}

	fetched, err := p.FetchContents(ctx, s, items)
	if err != nil {
		return fail(err)
	}

	stats, err := p.ValidateAndComment(ctx, s, fetched)
	for i := range report.Reviews {
		report.Reviews[i].Counts = stats.Reviews[report.Reviews[i].ID]
	}
	if err != nil {
		return fail(err)
	}

	if p.opts.DryRun {
		return nil
	}

	errs := p.markComplete(ctx, s, ids)
	for i, cerr := range errs {
		if cerr != nil {
			report.Reviews[i].Error = cerr.Error()
			continue
		}
		report.Reviews[i].Completed = true
	}
	return errors.Join(errs...)
}

// runIsolated processes each review on its own so that a failing review does
// not keep the others open.
func (p *Pipeline) runIsolated(ctx context.Context, s *crucible.Session, report *Report) error {
	errs := make([]error, len(report.Reviews))

	var g errgroup.Group
	g.SetLimit(p.opts.Concurrency)

	for i := range report.Reviews {
		g.Go(func() error {
			result := &report.Reviews[i]
			if err := p.processReview(logging.WithReviewID(ctx, result.ID), s, result); err != nil {
				result.Error = err.Error()
				errs[i] = err
				p.log.Error().Ctx(ctx).Str("review_id", result.ID).Err(err).Msg("review failed, leaving open")
			}
			return nil
		})
	}

	_ = g.Wait()
	return errors.Join(errs...)
}

func (p *Pipeline) processReview(ctx context.Context, s *crucible.Session, result *ReviewResult) error {
	byReview, err := p.ExpandItems(ctx, s, []string{result.ID})
	if err != nil {
		return err
	}
	items := byReview[result.ID]
	result.Items = len(items)

	fetched, err := p.FetchContents(ctx, s, items)
	if err != nil {
		return err
	}

	stats, err := p.ValidateAndComment(ctx, s, fetched)
	result.Counts = stats.Counts
	if err != nil {
		return err
	}

	if p.opts.DryRun {
		return nil
	}

	if err := p.MarkComplete(ctx, s, []string{result.ID}); err != nil {
		return err
	}
	result.Completed = true
	return nil
}
