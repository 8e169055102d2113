// Package cloudflare adapts the Cloudflare v4 API: zones, DNS records,
// Zero Trust tunnels, and R2 storage credential derivation. Every response
// arrives wrapped in the {success, errors[], result, result_info} envelope;
// failure is usually reported inside an HTTP 200 body.
package cloudflare

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/halyard-dev/halyard/internal/cloud"
)

const defaultBaseURL = "https://api.cloudflare.com/client/v4"

// TunnelCNAMESuffix is the domain tunnel CNAME targets point at. A DNS
// record whose content matches *.{suffix} is classified as a tunnel record.
const TunnelCNAMESuffix = "cfargotunnel.com"

// Config selects one of the two supported auth schemes: an API token, or
// the legacy email + Global API Key pair. AccountID is optional; when empty
// the first account visible to the credentials is used.
type Config struct {
	Email     string
	APIKey    string
	APIToken  string
	AccountID string
	BaseURL   string // test override
}

// Client is the Cloudflare adapter. It implements cloud.DNSProvider,
// cloud.TunnelProvider, and cloud.CredentialValidator.
type Client struct {
	api *cloud.Client
	cfg Config

	mu        sync.Mutex
	accountID string // resolved lazily, cached
}

func New(cfg Config) *Client {
	c := &Client{cfg: cfg, accountID: cfg.AccountID}
	c.api = cloud.NewClient(c)
	return c
}

// BaseURL implements cloud.Provider.
func (c *Client) BaseURL() string {
	if c.cfg.BaseURL != "" {
		return c.cfg.BaseURL
	}
	return defaultBaseURL
}

// Authorize implements cloud.Provider.
func (c *Client) Authorize(req *http.Request) {
	if c.cfg.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
		return
	}
	req.Header.Set("X-Auth-Email", c.cfg.Email)
	req.Header.Set("X-Auth-Key", c.cfg.APIKey)
}

// ClassifyStatus implements cloud.Provider. Cloudflare reports most failures
// inside the envelope, so only transport-level statuses short-circuit here.
func (c *Client) ClassifyStatus(status int, body []byte) error {
	return cloud.ClassifyStatus(status, body)
}

type envelope struct {
	Success    bool            `json:"success"`
	Errors     []apiError      `json:"errors"`
	Result     json.RawMessage `json:"result"`
	ResultInfo *resultInfo     `json:"result_info"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type resultInfo struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
}

// Envelope error codes with a known meaning.
const (
	codeInvalidKey        = 9103
	codeAuthError         = 10000
	codePermissionDenied  = 9109
	codeInvalidRecordType = 9021
	codeRecordConflict    = 81053
	codeRecordExists      = 81057
	codeDNSSEC            = 81062
	codeZoneLocked        = 81022
)

func classifyErrors(errs []apiError) error {
	if len(errs) == 0 {
		return &cloud.Error{Kind: cloud.KindAPIError, Message: "request failed with no error detail"}
	}
	e := errs[0]
	out := &cloud.Error{Kind: cloud.KindAPIError, Code: e.Code, Message: e.Message}
	switch e.Code {
	case codeInvalidKey, codeAuthError:
		out.Kind = cloud.KindUnauthorized
		out.Suggestion = "verify the credentials: a Global API Key requires the account email, an API Token must not be mixed with one"
	case codePermissionDenied:
		out.Kind = cloud.KindUnauthorized
		out.Suggestion = "the token is valid but lacks the required permission scopes"
	case codeRecordConflict, codeRecordExists:
		out.Kind = cloud.KindRecordConflict
		out.Suggestion = "delete the conflicting DNS record first"
	case codeInvalidRecordType:
		out.Kind = cloud.KindInvalidRecordType
	case codeDNSSEC:
		out.Kind = cloud.KindDNSSECError
	case codeZoneLocked:
		out.Kind = cloud.KindZoneLocked
	}
	return out
}

// call performs one enveloped request and unmarshals result when non-nil.
func (c *Client) call(ctx context.Context, method, path string, body, result any) error {
	var env envelope
	if err := c.api.Do(ctx, method, path, body, &env); err != nil {
		return err
	}
	if !env.Success {
		return classifyErrors(env.Errors)
	}
	if result != nil {
		if err := json.Unmarshal(env.Result, result); err != nil {
			return &cloud.Error{Kind: cloud.KindInvalidResponse, Message: "decoding result: " + err.Error()}
		}
	}
	return nil
}

// ValidateCredentials is a side-effect-free probe: token verification for
// token auth, the user endpoint for key auth.
func (c *Client) ValidateCredentials(ctx context.Context) error {
	if c.cfg.APIToken != "" {
		return c.call(ctx, http.MethodGet, "/user/tokens/verify", nil, nil)
	}
	return c.call(ctx, http.MethodGet, "/user", nil, nil)
}

// Account is a Cloudflare account visible to the credentials.
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListAccounts returns the accounts the credentials can access.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	var accounts []Account
	if err := c.call(ctx, http.MethodGet, "/accounts", nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// resolveAccount returns the configured account ID, or discovers and caches
// the first visible account. Tunnel and token calls are account-scoped.
func (c *Client) resolveAccount(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.accountID != "" {
		id := c.accountID
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	accounts, err := c.ListAccounts(ctx)
	if err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		return "", &cloud.Error{
			Kind:       cloud.KindNoAccountFound,
			Message:    "no Cloudflare account is visible to these credentials",
			Suggestion: "grant the token account-level read access",
		}
	}

	c.mu.Lock()
	c.accountID = accounts[0].ID
	c.mu.Unlock()
	return accounts[0].ID, nil
}
