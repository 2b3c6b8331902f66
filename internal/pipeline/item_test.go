package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/colonyops/crucibot/internal/crucible"
)

func TestEligible(t *testing.T) {
	rev := func(fileType, commitType string) crucible.ExpandedRevision {
		return crucible.ExpandedRevision{FileType: fileType, CommitType: commitType, Revision: "1"}
	}
	awaiting := []crucible.Participant{{User: crucible.User{UserName: "bot"}}}

	tests := []struct {
		name string
		item crucible.ReviewItem
		want bool
	}{
		{
			name: "added file awaiting bot",
			item: crucible.ReviewItem{Participants: awaiting, ExpandedRevisions: []crucible.ExpandedRevision{rev(crucible.FileTypeFile, crucible.CommitAdded)}},
			want: true,
		},
		{
			name: "modified file",
			item: crucible.ReviewItem{Participants: awaiting, ExpandedRevisions: []crucible.ExpandedRevision{rev(crucible.FileTypeFile, crucible.CommitModified)}},
			want: true,
		},
		{
			name: "moved file",
			item: crucible.ReviewItem{Participants: awaiting, ExpandedRevisions: []crucible.ExpandedRevision{rev(crucible.FileTypeFile, crucible.CommitMoved)}},
			want: true,
		},
		{
			name: "deleted file",
			item: crucible.ReviewItem{Participants: awaiting, ExpandedRevisions: []crucible.ExpandedRevision{rev(crucible.FileTypeFile, crucible.CommitDeleted)}},
		},
		{
			name: "directory",
			item: crucible.ReviewItem{Participants: awaiting, ExpandedRevisions: []crucible.ExpandedRevision{rev(crucible.FileTypeDirectory, crucible.CommitAdded)}},
		},
		{
			name: "only the last revision counts",
			item: crucible.ReviewItem{Participants: awaiting, ExpandedRevisions: []crucible.ExpandedRevision{
				rev(crucible.FileTypeFile, crucible.CommitAdded),
				rev(crucible.FileTypeFile, crucible.CommitDeleted),
			}},
		},
		{
			name: "no revisions",
			item: crucible.ReviewItem{Participants: awaiting},
		},
		{
			name: "bot already completed",
			item: crucible.ReviewItem{
				Participants:      []crucible.Participant{{User: crucible.User{UserName: "bot"}, Completed: true}},
				ExpandedRevisions: []crucible.ExpandedRevision{rev(crucible.FileTypeFile, crucible.CommitAdded)},
			},
		},
		{
			name: "bot not a participant",
			item: crucible.ReviewItem{
				Participants:      []crucible.Participant{{User: crucible.User{UserName: "alice"}}},
				ExpandedRevisions: []crucible.ExpandedRevision{rev(crucible.FileTypeFile, crucible.CommitAdded)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Eligible(tt.item, "bot"))
		})
	}
}

func TestProject(t *testing.T) {
	ri := reviewItem("CFR-1", "12", "/src/a.js", "/cru/CR-1/contents/a.js?r=12", crucible.CommitAdded, "bot", false)

	it, ok := project("CR-1", ri, "bot")
	assert.True(t, ok)
	assert.Equal(t, Item{
		ID:         "CFR-1",
		ReviewID:   "CR-1",
		Revision:   "12",
		Path:       "/src/a.js",
		ContentURL: "/cru/CR-1/contents/a.js?r=12",
	}, it)
	assert.Equal(t, "/cru/CR-1/contents/a.js?r=12", it.contentPath())

	_, ok = project("CR-1", ri, "someone")
	assert.False(t, ok)
}

func TestItem_NameFallsBackToContentURL(t *testing.T) {
	assert.Equal(t, "/src/a.js", Item{Path: "/src/a.js", ContentURL: "/c/a.js"}.Name())
	assert.Equal(t, "/c/a.js", Item{ContentURL: "/c/a.js"}.Name())
}

func TestExcluded(t *testing.T) {
	patterns := []string{"**/vendor/**", "**/*.min.js", "/generated/*.js"}

	assert.True(t, excluded(patterns, "/src/vendor/lib.js"))
	assert.True(t, excluded(patterns, "vendor/lib.js"))
	assert.True(t, excluded(patterns, "/dist/app.min.js?r=3"))
	assert.True(t, excluded(patterns, "/generated/api.js"))
	assert.False(t, excluded(patterns, "/src/app.js"))
	assert.False(t, excluded(nil, "/src/vendor/lib.js"))
}
