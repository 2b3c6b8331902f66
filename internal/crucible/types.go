package crucible

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// Review filters understood by the reviews-v1 filter endpoint.
const (
	FilterAllOpenReviews = "allOpenReviews"
	FilterToReview       = "toReview"
)

// File types reported on a revision.
const (
	FileTypeFile      = "File"
	FileTypeDirectory = "Directory"
)

// Commit types reported on a revision.
const (
	CommitAdded     = "Added"
	CommitModified  = "Modified"
	CommitMoved     = "Moved"
	CommitDeleted   = "Deleted"
	CommitCopied    = "Copied"
	CommitUnchanged = "Unchanged"
)

// Session is the authenticated state returned by Login. It is never mutated
// after creation and is safe to share between goroutines.
type Session struct {
	Token   string
	Cookies []*http.Cookie
	User    string
}

// PermID is the wrapper Crucible uses for permanent identifiers.
type PermID struct {
	ID string `json:"id"`
}

// ReviewSummary is a single entry of a review filter listing.
type ReviewSummary struct {
	PermaID PermID `json:"permaId"`
	Name    string `json:"name"`
	State   string `json:"state"`
}

// ID returns the permanent review identifier.
func (r ReviewSummary) ID() string { return r.PermaID.ID }

type reviewList struct {
	ReviewData []ReviewSummary `json:"reviewData"`
}

// User identifies a Crucible user.
type User struct {
	UserName    string `json:"userName"`
	DisplayName string `json:"displayName"`
}

// Participant is a reviewer on a review item.
type Participant struct {
	User      User `json:"user"`
	Completed bool `json:"completed"`
}

// RevisionID is a revision identifier. Crucible sends it as either a JSON
// string or a number.
type RevisionID string

func (r *RevisionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = RevisionID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("revision: %w", err)
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return fmt.Errorf("revision: invalid number %q", n)
	}
	*r = RevisionID(n.String())
	return nil
}

// ExpandedRevision is one revision of a review item.
type ExpandedRevision struct {
	FileType   string     `json:"fileType"`
	CommitType string     `json:"commitType"`
	Revision   RevisionID `json:"revision"`
	Path       string     `json:"path"`
	ContentURL string     `json:"contentUrl"`
}

// ReviewItem is a file (or other artifact) under review.
type ReviewItem struct {
	PermID            PermID             `json:"permId"`
	Participants      []Participant      `json:"participants"`
	ExpandedRevisions []ExpandedRevision `json:"expandedRevisions"`
}

// ID returns the permanent review item identifier.
func (ri ReviewItem) ID() string { return ri.PermID.ID }

// LastRevision returns the most recent revision and false when the item has none.
func (ri ReviewItem) LastRevision() (ExpandedRevision, bool) {
	if len(ri.ExpandedRevisions) == 0 {
		return ExpandedRevision{}, false
	}
	return ri.ExpandedRevisions[len(ri.ExpandedRevisions)-1], true
}

// AwaitingUser reports whether userName participates in the item and has not
// yet completed it.
func (ri ReviewItem) AwaitingUser(userName string) bool {
	for _, p := range ri.Participants {
		if !p.Completed && p.User.UserName == userName {
			return true
		}
	}
	return false
}

type reviewItemList struct {
	ReviewItem []ReviewItem `json:"reviewItem"`
}

// Comment is an inline comment on a single line of a review item revision.
type Comment struct {
	ReviewID string
	ItemID   string
	Revision string
	Line     int
	Message  string
}

type lineRange struct {
	Revision string `json:"revision"`
	Range    string `json:"range"`
}

type commentBody struct {
	Message    string      `json:"message"`
	LineRanges []lineRange `json:"lineRanges"`
}

func (c Comment) body() commentBody {
	return commentBody{
		Message: c.Message,
		LineRanges: []lineRange{
			{Revision: c.Revision, Range: strconv.Itoa(c.Line)},
		},
	}
}
