// Package dropbox adapts the Dropbox API. Dropbox uses short-lived OAuth
// access tokens; the stored refresh token is exchanged before each probe.
package dropbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/halyard-dev/halyard/internal/cloud"
)

const (
	defaultAuthURL = "https://api.dropbox.com"
	defaultAPIURL  = "https://api.dropboxapi.com"
)

// Config holds the OAuth app key pair and the user's refresh token.
type Config struct {
	AppKey       string
	AppSecret    string
	RefreshToken string
	AuthURL      string // test override
	APIURL       string // test override
}

type Client struct {
	cfg Config
	hc  *http.Client
}

func New(cfg Config) *Client {
	return &Client{cfg: cfg, hc: &http.Client{Timeout: 30 * time.Second}}
}

func (c *Client) authURL() string {
	if c.cfg.AuthURL != "" {
		return c.cfg.AuthURL
	}
	return defaultAuthURL
}

func (c *Client) apiURL() string {
	if c.cfg.APIURL != "" {
		return c.cfg.APIURL
	}
	return defaultAPIURL
}

// ValidateCredentials exchanges the refresh token and reads the current
// account, proving the whole OAuth triple works.
func (c *Client) ValidateCredentials(ctx context.Context) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL()+"/2/users/get_current_account", nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.hc.Do(req)
	if err != nil {
		return &cloud.Error{Kind: cloud.KindNetworkError, Message: err.Error()}
	}
	defer resp.Body.Close()
	return cloud.ClassifyStatus(resp.StatusCode, nil)
}

// accessToken performs the refresh-token grant. The token endpoint is
// form-encoded, unlike the rest of the API.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {c.cfg.RefreshToken},
		"client_id":     {c.cfg.AppKey},
		"client_secret": {c.cfg.AppSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL()+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", &cloud.Error{Kind: cloud.KindNetworkError, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &cloud.Error{
			Kind:       cloud.KindUnauthorized,
			StatusCode: resp.StatusCode,
			Message:    "refresh token exchange failed",
			Suggestion: "re-link the Dropbox app to obtain a new refresh token",
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &cloud.Error{Kind: cloud.KindNetworkError, Message: "reading token response: " + err.Error()}
	}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.AccessToken == "" {
		return "", &cloud.Error{Kind: cloud.KindInvalidResponse, Message: "token response missing access_token"}
	}
	return out.AccessToken, nil
}
