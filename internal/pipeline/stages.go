package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/colonyops/crucibot/internal/core/logging"
	"github.com/colonyops/crucibot/internal/crucible"
	"github.com/colonyops/crucibot/internal/ledger"
)

// Counts tallies the work done on a set of items.
type Counts struct {
	Validated int `json:"validated"`
	Findings  int `json:"findings"`
	Posted    int `json:"posted"`
	Skipped   int `json:"skipped"`
}

func (c *Counts) add(o Counts) {
	c.Validated += o.Validated
	c.Findings += o.Findings
	c.Posted += o.Posted
	c.Skipped += o.Skipped
}

// Stats is the outcome of ValidateAndComment, totalled and per review.
type Stats struct {
	Counts
	Reviews map[string]Counts
}

// DiscoverOpenReviews lists the IDs of the reviews matching the configured filter.
func (p *Pipeline) DiscoverOpenReviews(ctx context.Context, s *crucible.Session) ([]string, error) {
	reviews, err := p.client.OpenReviews(ctx, s, p.opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("discover open reviews: %w", err)
	}

	ids := make([]string, 0, len(reviews))
	for _, r := range reviews {
		ids = append(ids, r.ID())
	}

	p.log.Info().Ctx(ctx).Str("filter", p.opts.Filter).Int("reviews", len(ids)).Msg("discovered open reviews")
	return ids, nil
}

// ExpandItems fetches the items of every review and keeps the eligible ones,
// in server order. The first failure cancels the stage and no partial result
// is returned.
func (p *Pipeline) ExpandItems(ctx context.Context, s *crucible.Session, ids []string) (map[string][]Item, error) {
	slots := make([][]Item, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for i, id := range ids {
		g.Go(func() error {
			rctx := logging.WithReviewID(gctx, id)

			reviewItems, err := p.client.ReviewItems(rctx, s, id)
			if err != nil {
				return fmt.Errorf("expand review %s: %w", id, err)
			}

			items := make([]Item, 0, len(reviewItems))
			for _, ri := range reviewItems {
				if it, ok := project(id, ri, s.User); ok {
					items = append(items, it)
				}
			}

			p.log.Debug().Ctx(rctx).Int("items", len(reviewItems)).Int("eligible", len(items)).Msg("expanded review")
			slots[i] = items
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]Item, len(ids))
	for i, id := range ids {
		out[id] = slots[i]
	}
	return out, nil
}

// FetchContents drops items no validator supports or whose path is excluded,
// then fetches the content of the rest. Any failed fetch fails the stage.
func (p *Pipeline) FetchContents(ctx context.Context, s *crucible.Session, items []Item) ([]Item, error) {
	kept := make([]Item, 0, len(items))
	for _, it := range items {
		name := it.Name()
		switch {
		case !p.registry.Supports(name):
			p.log.Debug().Ctx(itemContext(ctx, it)).Str("path", name).Msg("no validator for item, skipping")
		case excluded(p.opts.Exclude, name):
			p.log.Debug().Ctx(itemContext(ctx, it)).Str("path", name).Msg("item excluded by path, skipping")
		default:
			kept = append(kept, it)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for i := range kept {
		g.Go(func() error {
			it := &kept[i]
			content, err := p.client.FileContent(itemContext(gctx, *it), s, it.contentPath())
			if err != nil {
				return fmt.Errorf("fetch item %s of review %s: %w", it.ID, it.ReviewID, err)
			}
			it.Content = content
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return kept, nil
}

// ValidateAndComment lints every item and posts one comment per finding.
// Comments posted before a failure stay posted; the returned Stats include them.
func (p *Pipeline) ValidateAndComment(ctx context.Context, s *crucible.Session, items []Item) (Stats, error) {
	var (
		mu    sync.Mutex
		stats = Stats{Reviews: make(map[string]Counts)}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for _, it := range items {
		g.Go(func() error {
			counts, err := p.commentItem(itemContext(gctx, it), s, it)

			mu.Lock()
			stats.add(counts)
			rc := stats.Reviews[it.ReviewID]
			rc.add(counts)
			stats.Reviews[it.ReviewID] = rc
			mu.Unlock()

			return err
		})
	}

	err := g.Wait()
	return stats, err
}

func (p *Pipeline) commentItem(ctx context.Context, s *crucible.Session, it Item) (Counts, error) {
	findings := p.registry.Validate(it.Name(), it.Content)
	counts := Counts{Validated: 1, Findings: len(findings)}

	p.log.Debug().Ctx(ctx).Str("path", it.Name()).Int("findings", len(findings)).Msg("validated item")

	for _, f := range findings {
		comment := crucible.Comment{
			ReviewID: it.ReviewID,
			ItemID:   it.ID,
			Revision: it.Revision,
			Line:     f.Line,
			Message:  f.Message,
		}

		key := ledger.Key(comment)
		if p.ledger != nil {
			seen, err := p.ledger.Seen(ctx, key)
			if err != nil {
				return counts, fmt.Errorf("check ledger for item %s: %w", it.ID, err)
			}
			if seen {
				counts.Skipped++
				continue
			}
		}

		if p.opts.DryRun {
			p.log.Info().Ctx(ctx).Int("line", f.Line).Str("message", f.Message).Msg("dry run: would post comment")
			continue
		}

		if err := p.client.PostComment(ctx, s, comment); err != nil {
			return counts, fmt.Errorf("comment on item %s of review %s: %w", it.ID, it.ReviewID, err)
		}
		counts.Posted++

		if p.ledger != nil {
			if err := p.ledger.Record(ctx, key, comment); err != nil {
				p.log.Warn().Ctx(ctx).Err(err).Msg("failed to record posted comment")
			}
		}
	}

	return counts, nil
}

// MarkComplete completes every review. Calls are independent: a failure on
// one review does not stop the others, and all failures are returned joined.
func (p *Pipeline) MarkComplete(ctx context.Context, s *crucible.Session, ids []string) error {
	errs := p.markComplete(ctx, s, ids)
	return errors.Join(errs...)
}

// markComplete returns one error slot per id.
func (p *Pipeline) markComplete(ctx context.Context, s *crucible.Session, ids []string) []error {
	errs := make([]error, len(ids))

	var g errgroup.Group
	g.SetLimit(p.opts.Concurrency)

	for i, id := range ids {
		g.Go(func() error {
			rctx := logging.WithReviewID(ctx, id)
			if err := p.client.CompleteReview(rctx, s, id); err != nil {
				errs[i] = fmt.Errorf("complete review %s: %w", id, err)
				return nil
			}
			p.log.Info().Ctx(rctx).Msg("review completed")
			return nil
		})
	}

	_ = g.Wait()
	return errs
}

func itemContext(ctx context.Context, it Item) context.Context {
	return logging.WithItemID(logging.WithReviewID(ctx, it.ReviewID), it.ID)
}
