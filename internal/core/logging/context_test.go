package logging

import (
	"context"
	"testing"
)

func TestWithRunID(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-123")

	if got := GetRunID(ctx); got != "run-123" {
		t.Errorf("GetRunID() = %q, want %q", got, "run-123")
	}
}

func TestWithReviewID(t *testing.T) {
	ctx := WithReviewID(context.Background(), "CR-42")

	if got := GetReviewID(ctx); got != "CR-42" {
		t.Errorf("GetReviewID() = %q, want %q", got, "CR-42")
	}
}

func TestWithItemID(t *testing.T) {
	ctx := WithItemID(context.Background(), "CFR-7")

	if got := GetItemID(ctx); got != "CFR-7" {
		t.Errorf("GetItemID() = %q, want %q", got, "CFR-7")
	}
}

func TestGetters_NotPresent(t *testing.T) {
	ctx := context.Background()

	if got := GetRunID(ctx); got != "" {
		t.Errorf("GetRunID() = %q, want empty string", got)
	}
	if got := GetReviewID(ctx); got != "" {
		t.Errorf("GetReviewID() = %q, want empty string", got)
	}
	if got := GetItemID(ctx); got != "" {
		t.Errorf("GetItemID() = %q, want empty string", got)
	}
}

func TestNestedIDs(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-1")
	ctx = WithReviewID(ctx, "CR-1")
	ctx = WithItemID(ctx, "CFR-1")

	if got := GetRunID(ctx); got != "run-1" {
		t.Errorf("GetRunID() = %q, want %q", got, "run-1")
	}
	if got := GetReviewID(ctx); got != "CR-1" {
		t.Errorf("GetReviewID() = %q, want %q", got, "CR-1")
	}
	if got := GetItemID(ctx); got != "CFR-1" {
		t.Errorf("GetItemID() = %q, want %q", got, "CFR-1")
	}
}
