package pipeline

import (
	"time"

	"github.com/colonyops/crucibot/internal/core/config"
)

// ReviewResult is the outcome of one review in a pass.
type ReviewResult struct {
	ID    string `json:"id"`
	Items int    `json:"items"`
	Counts
	Completed bool   `json:"completed"`
	Error     string `json:"error,omitempty"`
}

// Report summarizes a review pass.
type Report struct {
	RunID       string             `json:"run_id"`
	DryRun      bool               `json:"dry_run"`
	FailureMode config.FailureMode `json:"failure_mode"`
	StartedAt   time.Time          `json:"started_at"`
	Duration    time.Duration      `json:"duration"`
	Reviews     []ReviewResult     `json:"reviews"`
}

// Totals sums the counts of every review.
func (r *Report) Totals() Counts {
	var c Counts
	for _, rr := range r.Reviews {
		c.add(rr.Counts)
	}
	return c
}

// Completed returns the number of reviews marked complete.
func (r *Report) Completed() int {
	n := 0
	for _, rr := range r.Reviews {
		if rr.Completed {
			n++
		}
	}
	return n
}

// Failed returns the number of reviews that ended with an error.
func (r *Report) Failed() int {
	n := 0
	for _, rr := range r.Reviews {
		if rr.Error != "" {
			n++
		}
	}
	return n
}
