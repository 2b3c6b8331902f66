package logging

import "context"

type contextKey string

const (
	runIDKey    contextKey = "run_id"
	reviewIDKey contextKey = "review_id"
	itemIDKey   contextKey = "item_id"
)

// WithRunID adds the identifier of the current bot run to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// WithReviewID adds a review ID to the context.
func WithReviewID(ctx context.Context, reviewID string) context.Context {
	return context.WithValue(ctx, reviewIDKey, reviewID)
}

// WithItemID adds a review item ID to the context.
func WithItemID(ctx context.Context, itemID string) context.Context {
	return context.WithValue(ctx, itemIDKey, itemID)
}

// GetRunID retrieves the run ID from the context.
// Returns empty string if not present.
func GetRunID(ctx context.Context) string {
	return stringValue(ctx, runIDKey)
}

// GetReviewID retrieves the review ID from the context.
// Returns empty string if not present.
func GetReviewID(ctx context.Context) string {
	return stringValue(ctx, reviewIDKey)
}

// GetItemID retrieves the review item ID from the context.
// Returns empty string if not present.
func GetItemID(ctx context.Context) string {
	return stringValue(ctx, itemIDKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if id, ok := ctx.Value(key).(string); ok {
		return id
	}
	return ""
}
