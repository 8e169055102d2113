// Package github adapts the GitHub API. Only the credential probe is needed
// here; repository access itself happens over git.
package github

import (
	"context"
	"net/http"

	"github.com/halyard-dev/halyard/internal/cloud"
)

const defaultBaseURL = "https://api.github.com"

type Client struct {
	api     *cloud.Client
	token   string
	baseURL string // test override
}

func New(token string) *Client {
	c := &Client{token: token}
	c.api = cloud.NewClient(c)
	return c
}

func (c *Client) BaseURL() string {
	if c.baseURL != "" {
		return c.baseURL
	}
	return defaultBaseURL
}

func (c *Client) Authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
}

func (c *Client) ClassifyStatus(status int, body []byte) error {
	return cloud.ClassifyStatus(status, body)
}

// ValidateCredentials reads the authenticated user.
func (c *Client) ValidateCredentials(ctx context.Context) error {
	var out struct {
		Login string `json:"login"`
	}
	return c.api.Do(ctx, http.MethodGet, "/user", nil, &out)
}
