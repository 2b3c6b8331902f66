package crucible

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return New(Config{BaseURL: server.URL + "/", Timeout: 5 * time.Second, Logger: zerolog.Nop()})
}

func testSession() *Session {
	return &Session{
		Token:   "tok-123",
		Cookies: []*http.Cookie{{Name: "JSESSIONID", Value: "abc"}},
		User:    "lint-bot",
	}
}

func TestLogin_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest-service/auth-v1/login", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "lint-bot", r.PostForm.Get("userName"))
		assert.Equal(t, "s3cret", r.PostForm.Get("password"))

		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "abc"})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"tok-123"}`))
	})

	sess, err := client.Login(context.Background(), "lint-bot", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", sess.Token)
	assert.Equal(t, "lint-bot", sess.User)
	require.Len(t, sess.Cookies, 1)
	assert.Equal(t, "JSESSIONID", sess.Cookies[0].Name)
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"bad credentials"}`},
		{name: "html body", status: http.StatusOK, body: `<html>login</html>`},
		{name: "missing token", status: http.StatusOK, body: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Login(context.Background(), "lint-bot", "wrong")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrAuthentication)
		})
	}
}

func TestOpenReviews(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest-service/reviews-v1/filter/toReview", r.URL.Path)
		assert.Equal(t, "tok-123", r.URL.Query().Get(AuthParam))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"reviewData":[{"permaId":{"id":"CR-1"},"name":"first"},{"permaId":{"id":"CR-2"}}]}`))
	})

	reviews, err := client.OpenReviews(context.Background(), testSession(), FilterToReview)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, "CR-1", reviews[0].ID())
	assert.Equal(t, "first", reviews[0].Name)
	assert.Equal(t, "CR-2", reviews[1].ID())
}

func TestOpenReviews_StatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	})

	_, err := client.OpenReviews(context.Background(), testSession(), FilterAllOpenReviews)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusInternalServerError))

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "boom", se.Body)
	assert.NotContains(t, se.URL, "tok-123", "token must not leak into errors")
}

func TestOpenReviews_NoSession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without a session")
	})

	_, err := client.OpenReviews(context.Background(), nil, FilterToReview)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestReviewItems(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest-service/reviews-v1/CR-7/reviewitems", r.URL.Path)
		_, _ = w.Write([]byte(`{"reviewItem":[
			{"permId":{"id":"CFR-1"},
			 "participants":[{"user":{"userName":"lint-bot"},"completed":false}],
			 "expandedRevisions":[
				{"fileType":"File","commitType":"Added","revision":1,"contentUrl":"/cru/CR-7/rawcontent/1/a.js"},
				{"fileType":"File","commitType":"Modified","revision":"2","contentUrl":"/cru/CR-7/rawcontent/2/a.js"}
			 ]}
		]}`))
	})

	items, err := client.ReviewItems(context.Background(), testSession(), "CR-7")
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "CFR-1", item.ID())
	assert.Equal(t, RevisionID("1"), item.ExpandedRevisions[0].Revision)

	last, ok := item.LastRevision()
	require.True(t, ok)
	assert.Equal(t, RevisionID("2"), last.Revision)
	assert.Equal(t, CommitModified, last.CommitType)
	assert.Equal(t, "/cru/CR-7/rawcontent/2/a.js", last.ContentURL)
	assert.True(t, item.AwaitingUser("lint-bot"))
	assert.False(t, item.AwaitingUser("someone-else"))
}

func TestReviewItems_MalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := client.ReviewItems(context.Background(), testSession(), "CR-7")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CR-7")
	assert.Contains(t, err.Error(), "decode response")
}

func TestFileContent_SendsCookies(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cru/CR-7/rawcontent/2/a.js", r.URL.Path)
		cookie, err := r.Cookie("JSESSIONID")
		require.NoError(t, err)
		assert.Equal(t, "abc", cookie.Value)
		_, _ = w.Write([]byte("var a = 1;\n"))
	})

	content, err := client.FileContent(context.Background(), testSession(), "/cru/CR-7/rawcontent/2/a.js")
	require.NoError(t, err)
	assert.Equal(t, "var a = 1;\n", content)
}

func TestFileContent_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.FileContent(context.Background(), testSession(), "cru/missing.js")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.Contains(t, err.Error(), "cru/missing.js")
}

func TestPostComment(t *testing.T) {
	var received map[string]any

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest-service/reviews-v1/CR-7/reviewitems/CFR-1/comments", r.URL.Path)
		assert.Equal(t, "tok-123", r.URL.Query().Get(AuthParam))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	})

	err := client.PostComment(context.Background(), testSession(), Comment{
		ReviewID: "CR-7",
		ItemID:   "CFR-1",
		Revision: "2",
		Line:     10,
		Message:  "unused variable",
	})
	require.NoError(t, err)

	assert.Equal(t, "unused variable", received["message"])
	ranges, ok := received["lineRanges"].([]any)
	require.True(t, ok)
	require.Len(t, ranges, 1)
	assert.Equal(t, map[string]any{"revision": "2", "range": "10"}, ranges[0])
}

func TestPostComment_WrongStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	err := client.PostComment(context.Background(), testSession(), Comment{ReviewID: "CR-7", ItemID: "CFR-1", Line: 1})
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusOK))
}

func TestCompleteReview(t *testing.T) {
	var called bool
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest-service/reviews-v1/CR-7/complete", r.URL.Path)
		assert.Equal(t, "tok-123", r.URL.Query().Get(AuthParam))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.CompleteReview(context.Background(), testSession(), "CR-7"))
	assert.True(t, called)
}

func TestCompleteReview_Failure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	err := client.CompleteReview(context.Background(), testSession(), "CR-7")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusForbidden))
	assert.Contains(t, err.Error(), "CR-7")
}

func TestRevisionID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input string
		want  RevisionID
	}{
		{`"abc123"`, "abc123"},
		{`42`, "42"},
		{`null`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var got RevisionID
			require.NoError(t, json.Unmarshal([]byte(tt.input), &got))
			assert.Equal(t, tt.want, got)
		})
	}

	var bad RevisionID
	assert.Error(t, json.Unmarshal([]byte(`{}`), &bad))
}
