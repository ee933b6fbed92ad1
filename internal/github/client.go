// Package github talks to the GitHub REST API and translates webhook
// deliveries into domain events.
package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v61/github"
	"go.uber.org/zap"

	"github.com/pbrinkmeier/hoff/internal/entities"
)

// Client is the GitHub driver. One instance serves all projects.
type Client struct {
	api *gh.Client
	log *zap.SugaredLogger
}

// NewClient builds a Client authenticated with token. apiBaseURL overrides
// the endpoint for GitHub Enterprise installations; empty means github.com.
func NewClient(token, apiBaseURL string, log *zap.SugaredLogger) (*Client, error) {
	api := gh.NewClient(nil).WithAuthToken(token)
	if apiBaseURL != "" {
		parsed, err := url.Parse(apiBaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse api base url %q: %w", apiBaseURL, err)
		}
		if !strings.HasSuffix(parsed.Path, "/") {
			parsed.Path += "/"
		}
		api.BaseURL = parsed
	}
	return &Client{api: api, log: log.Named("github")}, nil
}

// LeaveComment posts body as a comment on a pull request.
func (c *Client) LeaveComment(ctx context.Context, owner, repo string, number entities.PullRequestID, body string) error {
	comment := &gh.IssueComment{Body: gh.String(body)}
	if _, _, err := c.api.Issues.CreateComment(ctx, owner, repo, int(number), comment); err != nil {
		return fmt.Errorf("create comment on %s/%s#%d: %w", owner, repo, number, err)
	}
	c.log.Infow("comment posted", "repository", owner+"/"+repo, "number", number)
	return nil
}

// HasPushAccess reports whether user may push to the repository. Merge
// commands from anybody else are ignored.
func (c *Client) HasPushAccess(ctx context.Context, owner, repo, user string) (bool, error) {
	level, _, err := c.api.Repositories.GetPermissionLevel(ctx, owner, repo, user)
	if err != nil {
		return false, fmt.Errorf("get permission level of %s on %s/%s: %w", user, owner, repo, err)
	}
	switch level.GetPermission() {
	case "admin", "write", "maintain":
		return true, nil
	}
	return false, nil
}
