package doctor

import (
	"context"
	"fmt"

	"github.com/colonyops/crucibot/internal/crucible"
)

// Authenticator logs in to the review server.
type Authenticator interface {
	Login(ctx context.Context, userName, password string) (*crucible.Session, error)
	OpenReviews(ctx context.Context, s *crucible.Session, filter string) ([]crucible.ReviewSummary, error)
}

// ServerCheck verifies that the bot can log in and list its reviews.
type ServerCheck struct {
	client   Authenticator
	url      string
	user     string
	password string
	filter   string
}

// NewServerCheck creates a new server connectivity check.
func NewServerCheck(client Authenticator, url, user, password, filter string) *ServerCheck {
	return &ServerCheck{client: client, url: url, user: user, password: password, filter: filter}
}

func (c *ServerCheck) Name() string {
	return "Crucible Server"
}

func (c *ServerCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	if c.url == "" || c.user == "" {
		result.add("login", StatusFail, "server url and username must be configured")
		return result
	}

	s, err := c.client.Login(ctx, c.user, c.password)
	if err != nil {
		result.add("login", StatusFail, err.Error())
		return result
	}
	result.add("login", StatusPass, fmt.Sprintf("%s as %s", c.url, s.User))

	reviews, err := c.client.OpenReviews(ctx, s, c.filter)
	if err != nil {
		result.add("reviews", StatusFail, err.Error())
		return result
	}
	result.add("reviews", StatusPass, fmt.Sprintf("%d open (%s)", len(reviews), c.filter))

	return result
}
