// Package crucible is a small client for the Crucible REST API covering the
// calls the review bot needs: login, review discovery, review items, raw file
// content, inline comments and review completion.
package crucible

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// AuthParam is the query parameter carrying the login token on authenticated calls.
const AuthParam = "FEAUTH"

const (
	endpointLogin       = "/rest-service/auth-v1/login"
	endpointFilter      = "/rest-service/reviews-v1/filter/%s"
	endpointReviewItems = "/rest-service/reviews-v1/%s/reviewitems"
	endpointComments    = "/rest-service/reviews-v1/%s/reviewitems/%s/comments"
	endpointComplete    = "/rest-service/reviews-v1/%s/complete"

	maxErrorBody = 512
)

// DefaultTimeout bounds a single request when Config.Timeout is unset.
const DefaultTimeout = 30 * time.Second

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  zerolog.Logger

	// HTTPClient overrides the default client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client talks to a single Crucible server. It holds no authentication state;
// every authenticated call takes the Session returned by Login.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// New creates a Client for the server at cfg.BaseURL.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		log:        cfg.Logger,
	}
}

// BaseURL returns the server root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Login authenticates userName and returns the session used by every other call.
func (c *Client) Login(ctx context.Context, userName, password string) (*Session, error) {
	form := url.Values{}
	form.Set("userName", userName)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpointLogin, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req, "login")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %w", ErrAuthentication, statusError("login", req, resp))
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode login response: %w", ErrAuthentication, err)
	}
	if out.Token == "" {
		return nil, fmt.Errorf("%w: login response has no token", ErrAuthentication)
	}

	return &Session{
		Token:   out.Token,
		Cookies: resp.Cookies(),
		User:    userName,
	}, nil
}

// OpenReviews lists the reviews matched by filter (FilterToReview or FilterAllOpenReviews).
func (c *Client) OpenReviews(ctx context.Context, s *Session, filter string) ([]ReviewSummary, error) {
	var out reviewList
	path := fmt.Sprintf(endpointFilter, url.PathEscape(filter))
	if err := c.getJSON(ctx, s, "list reviews", path, &out); err != nil {
		return nil, err
	}
	return out.ReviewData, nil
}

// ReviewItems returns the items of review reviewID in server order.
func (c *Client) ReviewItems(ctx context.Context, s *Session, reviewID string) ([]ReviewItem, error) {
	var out reviewItemList
	path := fmt.Sprintf(endpointReviewItems, url.PathEscape(reviewID))
	if err := c.getJSON(ctx, s, "list review items", path, &out); err != nil {
		return nil, fmt.Errorf("review %s: %w", reviewID, err)
	}
	return out.ReviewItem, nil
}

// FileContent downloads the raw content at contentPath, a server relative
// content URL as reported on a revision.
func (c *Client) FileContent(ctx context.Context, s *Session, contentPath string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("%w: no session", ErrAuthentication)
	}
	target := c.contentURL(contentPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("build content request: %w", err)
	}
	for _, cookie := range s.Cookies {
		req.AddCookie(cookie)
	}

	resp, err := c.do(req, "file content")
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("path %s: %w", contentPath, statusError("file content", req, resp))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read content %s: %w", contentPath, err)
	}
	return string(data), nil
}

// PostComment posts an inline comment on one line of a review item revision.
func (c *Client) PostComment(ctx context.Context, s *Session, comment Comment) error {
	payload, err := json.Marshal(comment.body())
	if err != nil {
		return fmt.Errorf("encode comment: %w", err)
	}

	path := fmt.Sprintf(endpointComments, url.PathEscape(comment.ReviewID), url.PathEscape(comment.ItemID))
	req, err := c.newAuthRequest(ctx, s, http.MethodPost, path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req, "post comment")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("item %s in review %s: %w", comment.ItemID, comment.ReviewID, statusError("post comment", req, resp))
	}
	return nil
}

// CompleteReview marks reviewID complete for the session user.
func (c *Client) CompleteReview(ctx context.Context, s *Session, reviewID string) error {
	path := fmt.Sprintf(endpointComplete, url.PathEscape(reviewID))
	req, err := c.newAuthRequest(ctx, s, http.MethodPost, path, nil)
	if err != nil {
		return err
	}

	resp, err := c.do(req, "complete review")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("review %s: %w", reviewID, statusError("complete review", req, resp))
	}
	return nil
}

func (c *Client) newAuthRequest(ctx context.Context, s *Session, method, path string, body io.Reader) (*http.Request, error) {
	if s == nil || s.Token == "" {
		return nil, fmt.Errorf("%w: no session", ErrAuthentication)
	}

	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	q.Set(AuthParam, s.Token)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) getJSON(ctx context.Context, s *Session, op, path string, out any) error {
	req, err := c.newAuthRequest(ctx, s, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	resp, err := c.do(req, op)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return statusError(op, req, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("crucible %s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) do(req *http.Request, op string) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crucible %s: request failed: %w", op, err)
	}

	c.log.Debug().Ctx(req.Context()).
		Str("op", op).
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("crucible request")

	return resp, nil
}

func (c *Client) contentURL(contentPath string) string {
	if strings.HasPrefix(contentPath, "http://") || strings.HasPrefix(contentPath, "https://") {
		return contentPath
	}
	return c.baseURL + "/" + strings.TrimLeft(contentPath, "/")
}

func statusError(op string, req *http.Request, resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	// Strip the token before the URL ends up in an error message.
	u := *req.URL
	q := u.Query()
	q.Del(AuthParam)
	u.RawQuery = q.Encode()

	return &StatusError{
		Op:         op,
		URL:        u.String(),
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}
