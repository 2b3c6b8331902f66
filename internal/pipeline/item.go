package pipeline

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/colonyops/crucibot/internal/crucible"
)

var processedCommitTypes = map[string]bool{
	crucible.CommitAdded:    true,
	crucible.CommitModified: true,
	crucible.CommitMoved:    true,
}

// Item is an eligible review item projected onto its latest revision.
type Item struct {
	ID         string `json:"id"`
	ReviewID   string `json:"review_id"`
	Revision   string `json:"revision"`
	Path       string `json:"path,omitempty"`
	ContentURL string `json:"content_url"`
	Content    string `json:"-"`
}

// Name is the path used for validator selection and exclusion. The content
// URL carries the file name when the server omits the repository path.
func (it Item) Name() string {
	if it.Path != "" {
		return it.Path
	}
	return it.ContentURL
}

// contentPath is the location FileContent is called with.
func (it Item) contentPath() string {
	if it.ContentURL != "" {
		return it.ContentURL
	}
	return it.Path
}

// Eligible reports whether ri should be linted on behalf of userName: its
// latest revision is a file that was added, modified or moved, and userName
// is a participant who has not completed the item.
func Eligible(ri crucible.ReviewItem, userName string) bool {
	rev, ok := ri.LastRevision()
	if !ok {
		return false
	}
	if rev.FileType != crucible.FileTypeFile || !processedCommitTypes[rev.CommitType] {
		return false
	}
	return ri.AwaitingUser(userName)
}

// project returns the Item for ri, or false when ri is not eligible.
func project(reviewID string, ri crucible.ReviewItem, userName string) (Item, bool) {
	if !Eligible(ri, userName) {
		return Item{}, false
	}
	rev, _ := ri.LastRevision()
	return Item{
		ID:         ri.ID(),
		ReviewID:   reviewID,
		Revision:   string(rev.Revision),
		Path:       rev.Path,
		ContentURL: rev.ContentURL,
	}, true
}

// excluded reports whether name matches any doublestar pattern. Leading
// slashes and query strings are ignored.
func excluded(patterns []string, name string) bool {
	if len(patterns) == 0 {
		return false
	}
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimLeft(name, "/")

	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(strings.TrimLeft(pattern, "/"), name); ok {
			return true
		}
	}
	return false
}
