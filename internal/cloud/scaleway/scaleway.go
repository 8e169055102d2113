// Package scaleway adapts Scaleway Object Storage through its S3-compatible
// API. Every request is signed with AWS Signature V4 (service "s3"); the
// generic JSON client does not apply here because the API speaks XML.
package scaleway

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/halyard-dev/halyard/internal/cloud"
	"github.com/halyard-dev/halyard/internal/cloud/sigv4"
)

// Config holds the API key pair and target region (e.g. "fr-par").
type Config struct {
	AccessKey string
	SecretKey string
	Region    string
	Endpoint  string // test override, e.g. http://127.0.0.1:8080
}

type Client struct {
	cfg Config
	hc  *http.Client
	now func() time.Time
}

func New(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		hc:  &http.Client{Timeout: 30 * time.Second},
		now: time.Now,
	}
}

func (c *Client) endpoint() string {
	if c.cfg.Endpoint != "" {
		return c.cfg.Endpoint
	}
	return fmt.Sprintf("https://s3.%s.scw.cloud", c.cfg.Region)
}

// ValidateCredentials lists buckets, the cheapest signed read.
func (c *Client) ValidateCredentials(ctx context.Context) error {
	_, err := c.ListBuckets(ctx)
	return err
}

type listAllMyBucketsResult struct {
	XMLName xml.Name `xml:"ListAllMyBucketsResult"`
	Buckets []struct {
		Name string `xml:"Name"`
	} `xml:"Buckets>Bucket"`
}

func (c *Client) ListBuckets(ctx context.Context) ([]string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.classify(resp); err != nil {
		return nil, err
	}

	var result listAllMyBucketsResult
	if err := xml.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &cloud.Error{Kind: cloud.KindInvalidResponse, Message: "decoding bucket list: " + err.Error()}
	}
	names := make([]string, 0, len(result.Buckets))
	for _, b := range result.Buckets {
		names = append(names, b.Name)
	}
	return names, nil
}

func (c *Client) BucketExists(ctx context.Context, name string) (bool, error) {
	resp, err := c.do(ctx, http.MethodHead, "/"+name, nil)
	if err != nil {
		return false, err
	}
	resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	}
	return false, c.classify(resp)
}

func (c *Client) CreateBucket(ctx context.Context, name string) error {
	resp, err := c.do(ctx, http.MethodPut, "/"+name, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.classify(resp)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint()+path, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	creds := sigv4.Credentials{AccessKey: c.cfg.AccessKey, SecretKey: c.cfg.SecretKey}
	sigv4.SignRequest(req, c.cfg.Region, "s3", creds, payload, c.now())

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &cloud.Error{Kind: cloud.KindNetworkError, Message: err.Error()}
	}
	return resp, nil
}

// classify maps a non-2xx S3 response to a typed error. The body is an XML
// error document; its message is carried through when present.
func (c *Client) classify(resp *http.Response) error {
	if resp.StatusCode < 300 {
		return nil
	}
	if err := cloud.ClassifyStatus(resp.StatusCode, nil); err != nil {
		return err
	}

	var s3err struct {
		Code    string `xml:"Code"`
		Message string `xml:"Message"`
	}
	if body, err := io.ReadAll(resp.Body); err == nil {
		_ = xml.Unmarshal(body, &s3err)
	}
	msg := s3err.Message
	if msg == "" {
		msg = fmt.Sprintf("request failed (HTTP %d)", resp.StatusCode)
	}
	return &cloud.Error{Kind: cloud.KindAPIError, StatusCode: resp.StatusCode, Message: msg}
}
