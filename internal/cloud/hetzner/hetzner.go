// Package hetzner adapts the Hetzner Cloud API for server provisioning.
package hetzner

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/halyard-dev/halyard/internal/cloud"
)

const defaultBaseURL = "https://api.hetzner.cloud/v1"

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

// ValidateCredentials probes the cheapest read-only endpoint.
func (c *Client) ValidateCredentials(ctx context.Context) error {
	var out struct {
		Locations []any `json:"locations"`
	}
	return c.api.Do(ctx, http.MethodGet, "/locations", nil, &out)
}

func (c *Client) ListRegions(ctx context.Context) ([]cloud.Region, error) {
	var out struct {
		Locations []struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			Country     string `json:"country"`
		} `json:"locations"`
	}
	if err := c.api.Do(ctx, http.MethodGet, "/locations", nil, &out); err != nil {
		return nil, err
	}
	regions := make([]cloud.Region, 0, len(out.Locations))
	for _, l := range out.Locations {
		regions = append(regions, cloud.Region{ID: l.Name, Name: l.Description, Country: l.Country})
	}
	return regions, nil
}

func (c *Client) ListSizes(ctx context.Context) ([]cloud.ServerSize, error) {
	var out struct {
		ServerTypes []struct {
			ID         int64   `json:"id"`
			Name       string  `json:"name"`
			Cores      int     `json:"cores"`
			Memory     float64 `json:"memory"`
			Disk       int     `json:"disk"`
			Deprecated bool    `json:"deprecated"`
		} `json:"server_types"`
	}
	if err := c.api.Do(ctx, http.MethodGet, "/server_types", nil, &out); err != nil {
		return nil, err
	}
	var sizes []cloud.ServerSize
	for _, t := range out.ServerTypes {
		if t.Deprecated {
			continue
		}
		sizes = append(sizes, cloud.ServerSize{
			ID:       t.Name,
			Name:     t.Name,
			Cores:    t.Cores,
			MemoryGB: t.Memory,
			DiskGB:   t.Disk,
		})
	}
	return sizes, nil
}

// CreateServer uploads the SSH public key, then creates the server with it.
// Hetzner only accepts key references on create, not inline key material.
func (c *Client) CreateServer(ctx context.Context, req cloud.ServerRequest) (*cloud.ServerInfo, error) {
	keyID, err := c.ensureSSHKey(ctx, req.Name+"-key", req.SSHPublicKey)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"name":        req.Name,
		"server_type": req.Size,
		"image":       req.Image,
		"location":    req.Region,
		"ssh_keys":    []int64{keyID},
	}
	var out struct {
		Server hetznerServer `json:"server"`
	}
	if err := c.api.Do(ctx, http.MethodPost, "/servers", body, &out); err != nil {
		return nil, err
	}
	return out.Server.info(), nil
}

func (c *Client) GetServer(ctx context.Context, serverID string) (*cloud.ServerInfo, error) {
	var out struct {
		Server hetznerServer `json:"server"`
	}
	if err := c.api.Do(ctx, http.MethodGet, "/servers/"+serverID, nil, &out); err != nil {
		return nil, err
	}
	return out.Server.info(), nil
}

func (c *Client) DeleteServer(ctx context.Context, serverID string) error {
	return c.api.Do(ctx, http.MethodDelete, "/servers/"+serverID, nil, nil)
}

func (c *Client) ensureSSHKey(ctx context.Context, name, publicKey string) (int64, error) {
	body := map[string]string{"name": name, "public_key": publicKey}
	var out struct {
		SSHKey struct {
			ID int64 `json:"id"`
		} `json:"ssh_key"`
	}
	if err := c.api.Do(ctx, http.MethodPost, "/ssh_keys", body, &out); err != nil {
		return 0, fmt.Errorf("uploading SSH key: %w", err)
	}
	return out.SSHKey.ID, nil
}

type hetznerServer struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	PublicNet struct {
		IPv4 struct {
			IP string `json:"ip"`
		} `json:"ipv4"`
	} `json:"public_net"`
}

func (s hetznerServer) info() *cloud.ServerInfo {
	return &cloud.ServerInfo{
		ID:     strconv.FormatInt(s.ID, 10),
		Name:   s.Name,
		Status: s.Status,
		IPv4:   s.PublicNet.IPv4.IP,
	}
}
