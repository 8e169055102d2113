package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Provider describes one vendor's HTTP API to the generic client.
type Provider interface {
	// BaseURL is the API root, without a trailing slash.
	BaseURL() string

	// Authorize injects the vendor's auth headers into the request.
	Authorize(req *http.Request)

	// ClassifyStatus maps a transport-level status code to a typed error.
	// Returning nil lets the body decoder decide: most vendors report
	// success/failure inside the JSON envelope with HTTP 200.
	ClassifyStatus(status int, body []byte) error
}

// Client is the request/response pipeline shared by every vendor adapter.
type Client struct {
	hc *http.Client
	p  Provider
}

// NewClient wraps a Provider in a client with a 30 second transport timeout.
func NewClient(p Provider) *Client {
	return &Client{
		hc: &http.Client{Timeout: 30 * time.Second},
		p:  p,
	}
}

// Do issues one request and decodes the JSON response into out (skipped when
// out is nil). The body, when non-nil, is sent as JSON.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	raw, err := c.raw(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Kind: KindInvalidResponse, Message: fmt.Sprintf("decoding response: %v", err)}
	}
	return nil
}

func (c *Client) raw(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.p.BaseURL()+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.p.Authorize(req)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetworkError, Message: fmt.Sprintf("reading response: %v", err)}
	}

	if err := c.p.ClassifyStatus(resp.StatusCode, raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func classifyTransport(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return &Error{Kind: KindTimeout, Message: err.Error(), Suggestion: "check connectivity and try again"}
	}
	return &Error{Kind: KindNetworkError, Message: err.Error()}
}

// ClassifyStatus is the default transport-level classifier shared by the
// adapters: it short-circuits only on failures the body cannot explain.
func ClassifyStatus(status int, body []byte) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &Error{
			Kind:       KindUnauthorized,
			StatusCode: status,
			Message:    "authentication failed",
			Suggestion: "verify the API credentials for this integration",
		}
	case status == http.StatusTooManyRequests:
		return &Error{
			Kind:       KindRateLimited,
			StatusCode: status,
			Message:    "rate limited",
			Suggestion: "wait for the rate limit to clear before retrying",
		}
	case status >= 500:
		return &Error{
			Kind:       KindServerError,
			StatusCode: status,
			Message:    fmt.Sprintf("vendor server error (HTTP %d)", status),
		}
	}
	return nil
}

// PageInfo is the pagination metadata a vendor returns with a list response.
// The zero value means the listing fits in a single page.
type PageInfo struct {
	Page       int
	PerPage    int
	TotalPages int
}

// GetPages fetches path repeatedly with an incrementing page query parameter
// until decode reports no further pages. decode consumes one page body and
// returns its pagination metadata; zero metadata stops after the first page.
func (c *Client) GetPages(ctx context.Context, path string, query url.Values, decode func(body []byte) (PageInfo, error)) error {
	page := 1
	for {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(page))
		if q.Get("per_page") == "" {
			q.Set("per_page", "50")
		}

		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		raw, err := c.raw(ctx, http.MethodGet, path+sep+q.Encode(), nil)
		if err != nil {
			return err
		}

		info, err := decode(raw)
		if err != nil {
			return err
		}
		if info.TotalPages == 0 || page >= info.TotalPages {
			return nil
		}
		page++
	}
}
