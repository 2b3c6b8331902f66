package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook copies run_id, review_id and item_id from the event context
// onto the log event.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if runID := GetRunID(ctx); runID != "" {
		e.Str(string(runIDKey), runID)
	}

	if reviewID := GetReviewID(ctx); reviewID != "" {
		e.Str(string(reviewIDKey), reviewID)
	}

	if itemID := GetItemID(ctx); itemID != "" {
		e.Str(string(itemIDKey), itemID)
	}
}
