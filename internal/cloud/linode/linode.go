// Package linode adapts the Linode v4 API for server provisioning.
package linode

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"

	"github.com/halyard-dev/halyard/internal/cloud"
)

const defaultBaseURL = "https://api.linode.com/v4"

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
}

func (c *Client) ClassifyStatus(status int, body []byte) error {
	return cloud.ClassifyStatus(status, body)
}

func (c *Client) ValidateCredentials(ctx context.Context) error {
	var out struct {
		Username string `json:"username"`
	}
	return c.api.Do(ctx, http.MethodGet, "/profile", nil, &out)
}

func (c *Client) ListRegions(ctx context.Context) ([]cloud.Region, error) {
	var out struct {
		Data []struct {
			ID      string `json:"id"`
			Label   string `json:"label"`
			Country string `json:"country"`
		} `json:"data"`
	}
	if err := c.api.Do(ctx, http.MethodGet, "/regions", nil, &out); err != nil {
		return nil, err
	}
	regions := make([]cloud.Region, 0, len(out.Data))
	for _, r := range out.Data {
		regions = append(regions, cloud.Region{ID: r.ID, Name: r.Label, Country: r.Country})
	}
	return regions, nil
}

func (c *Client) ListSizes(ctx context.Context) ([]cloud.ServerSize, error) {
	var out struct {
		Data []struct {
			ID     string `json:"id"`
			Label  string `json:"label"`
			VCPUs  int    `json:"vcpus"`
			Memory int    `json:"memory"` // MB
			Disk   int    `json:"disk"`   // MB
		} `json:"data"`
	}
	if err := c.api.Do(ctx, http.MethodGet, "/linode/types", nil, &out); err != nil {
		return nil, err
	}
	sizes := make([]cloud.ServerSize, 0, len(out.Data))
	for _, t := range out.Data {
		sizes = append(sizes, cloud.ServerSize{
			ID:       t.ID,
			Name:     t.Label,
			Cores:    t.VCPUs,
			MemoryGB: float64(t.Memory) / 1024,
			DiskGB:   t.Disk / 1024,
		})
	}
	return sizes, nil
}

// CreateServer boots an instance with the public key inline. Linode requires
// a root password on create even when key auth is used; a random throwaway
// one is generated.
func (c *Client) CreateServer(ctx context.Context, req cloud.ServerRequest) (*cloud.ServerInfo, error) {
	rootPass, err := randomPassword()
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"label":           req.Name,
		"region":          req.Region,
		"type":            req.Size,
		"image":           req.Image,
		"root_pass":       rootPass,
		"authorized_keys": []string{req.SSHPublicKey},
	}
	var out linodeInstance
	if err := c.api.Do(ctx, http.MethodPost, "/linode/instances", body, &out); err != nil {
		return nil, err
	}
	return out.info(), nil
}

func (c *Client) GetServer(ctx context.Context, serverID string) (*cloud.ServerInfo, error) {
	var out linodeInstance
	if err := c.api.Do(ctx, http.MethodGet, "/linode/instances/"+serverID, nil, &out); err != nil {
		return nil, err
	}
	return out.info(), nil
}

func (c *Client) DeleteServer(ctx context.Context, serverID string) error {
	return c.api.Do(ctx, http.MethodDelete, "/linode/instances/"+serverID, nil, nil)
}

func randomPassword() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating root password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

type linodeInstance struct {
	ID     int64    `json:"id"`
	Label  string   `json:"label"`
	Status string   `json:"status"`
	IPv4   []string `json:"ipv4"`
}

func (l linodeInstance) info() *cloud.ServerInfo {
	info := &cloud.ServerInfo{
		ID:     strconv.FormatInt(l.ID, 10),
		Name:   l.Label,
		Status: l.Status,
	}
	if len(l.IPv4) > 0 {
		info.IPv4 = l.IPv4[0]
	}
	return info
}
