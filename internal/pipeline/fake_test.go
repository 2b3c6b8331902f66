package pipeline

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/colonyops/crucibot/internal/crucible"
	"github.com/colonyops/crucibot/internal/ledger"
)

// fakeClient is an in-memory Crucible server.
type fakeClient struct {
	mu sync.Mutex

	loginErr    error
	openErr     error
	reviews     []string
	items       map[string][]crucible.ReviewItem
	itemsErr    map[string]error
	contents    map[string]string
	contentErr  map[string]error
	postErr     error
	completeErr map[string]error

	logins    int
	filter    string
	expanded  []string
	fetched   []string
	posted    []crucible.Comment
	completed []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		items:       make(map[string][]crucible.ReviewItem),
		itemsErr:    make(map[string]error),
		contents:    make(map[string]string),
		contentErr:  make(map[string]error),
		completeErr: make(map[string]error),
	}
}

func (f *fakeClient) Login(_ context.Context, userName, _ string) (*crucible.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins++
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &crucible.Session{Token: "tok", User: userName}, nil
}

func (f *fakeClient) OpenReviews(_ context.Context, s *crucible.Session, filter string) ([]crucible.ReviewSummary, error) {
	if s == nil {
		return nil, errors.New("nil session")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter = filter
	if f.openErr != nil {
		return nil, f.openErr
	}
	out := make([]crucible.ReviewSummary, 0, len(f.reviews))
	for _, id := range f.reviews {
		out = append(out, crucible.ReviewSummary{PermaID: crucible.PermID{ID: id}})
	}
	return out, nil
}

func (f *fakeClient) ReviewItems(_ context.Context, _ *crucible.Session, reviewID string) ([]crucible.ReviewItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expanded = append(f.expanded, reviewID)
	if err := f.itemsErr[reviewID]; err != nil {
		return nil, err
	}
	return f.items[reviewID], nil
}

func (f *fakeClient) FileContent(_ context.Context, _ *crucible.Session, contentPath string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, contentPath)
	if err := f.contentErr[contentPath]; err != nil {
		return "", err
	}
	return f.contents[contentPath], nil
}

func (f *fakeClient) PostComment(_ context.Context, _ *crucible.Session, c crucible.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postErr != nil {
		return f.postErr
	}
	f.posted = append(f.posted, c)
	return nil
}

func (f *fakeClient) CompleteReview(_ context.Context, _ *crucible.Session, reviewID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.completeErr[reviewID]; err != nil {
		return err
	}
	f.completed = append(f.completed, reviewID)
	return nil
}

func (f *fakeClient) completedSorted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.completed...)
	sort.Strings(out)
	return out
}

// addItem registers an eligible item awaiting user "bot" with the given content.
func (f *fakeClient) addItem(reviewID, itemID, revision, path, content string) {
	url := "/cru/" + reviewID + "/contents" + path
	f.items[reviewID] = append(f.items[reviewID], reviewItem(itemID, revision, path, url, crucible.CommitModified, "bot", false))
	f.contents[url] = content
}

func reviewItem(id, revision, path, url, commitType, user string, completed bool) crucible.ReviewItem {
	return crucible.ReviewItem{
		PermID: crucible.PermID{ID: id},
		Participants: []crucible.Participant{
			{User: crucible.User{UserName: user}, Completed: completed},
		},
		ExpandedRevisions: []crucible.ExpandedRevision{
			{
				FileType:   crucible.FileTypeFile,
				CommitType: commitType,
				Revision:   crucible.RevisionID(revision),
				Path:       path,
				ContentURL: url,
			},
		},
	}
}

// memLedger is an in-memory Ledger.
type memLedger struct {
	mu   sync.Mutex
	keys map[string]crucible.Comment
}

func newMemLedger() *memLedger {
	return &memLedger{keys: make(map[string]crucible.Comment)}
}

func (m *memLedger) Seen(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.keys[key]
	return ok, nil
}

func (m *memLedger) Record(_ context.Context, key string, c crucible.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = c
	return nil
}

func (m *memLedger) remember(c crucible.Comment) {
	m.keys[ledger.Key(c)] = c
}
