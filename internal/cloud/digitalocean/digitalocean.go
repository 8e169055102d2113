// Package digitalocean adapts the DigitalOcean v2 API for server
// provisioning.
package digitalocean

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/halyard-dev/halyard/internal/cloud"
)

const defaultBaseURL = "https://api.digitalocean.com/v2"

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

// ValidateCredentials reads the account record, the cheapest authenticated
// call the API offers.
func (c *Client) ValidateCredentials(ctx context.Context) error {
	var out struct {
		Account struct {
			Status string `json:"status"`
		} `json:"account"`
	}
	return c.api.Do(ctx, http.MethodGet, "/account", nil, &out)
}

func (c *Client) ListRegions(ctx context.Context) ([]cloud.Region, error) {
	var out struct {
		Regions []struct {
			Slug      string `json:"slug"`
			Name      string `json:"name"`
			Available bool   `json:"available"`
		} `json:"regions"`
	}
	if err := c.api.Do(ctx, http.MethodGet, "/regions?per_page=200", nil, &out); err != nil {
		return nil, err
	}
	var regions []cloud.Region
	for _, r := range out.Regions {
		if !r.Available {
			continue
		}
		regions = append(regions, cloud.Region{ID: r.Slug, Name: r.Name})
	}
	return regions, nil
}

func (c *Client) ListSizes(ctx context.Context) ([]cloud.ServerSize, error) {
	var out struct {
		Sizes []struct {
			Slug      string `json:"slug"`
			VCPUs     int    `json:"vcpus"`
			Memory    int    `json:"memory"` // MB
			Disk      int    `json:"disk"`
			Available bool   `json:"available"`
		} `json:"sizes"`
	}
	if err := c.api.Do(ctx, http.MethodGet, "/sizes?per_page=200", nil, &out); err != nil {
		return nil, err
	}
	var sizes []cloud.ServerSize
	for _, s := range out.Sizes {
		if !s.Available {
			continue
		}
		sizes = append(sizes, cloud.ServerSize{
			ID:       s.Slug,
			Name:     s.Slug,
			Cores:    s.VCPUs,
			MemoryGB: float64(s.Memory) / 1024,
			DiskGB:   s.Disk,
		})
	}
	return sizes, nil
}

// CreateServer registers the SSH key with the account, then boots a droplet
// referencing it.
func (c *Client) CreateServer(ctx context.Context, req cloud.ServerRequest) (*cloud.ServerInfo, error) {
	keyID, err := c.registerSSHKey(ctx, req.Name+"-key", req.SSHPublicKey)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"name":     req.Name,
		"region":   req.Region,
		"size":     req.Size,
		"image":    req.Image,
		"ssh_keys": []int64{keyID},
	}
	var out struct {
		Droplet droplet `json:"droplet"`
	}
	if err := c.api.Do(ctx, http.MethodPost, "/droplets", body, &out); err != nil {
		return nil, err
	}
	return out.Droplet.info(), nil
}

func (c *Client) GetServer(ctx context.Context, serverID string) (*cloud.ServerInfo, error) {
	var out struct {
		Droplet droplet `json:"droplet"`
	}
	if err := c.api.Do(ctx, http.MethodGet, "/droplets/"+serverID, nil, &out); err != nil {
		return nil, err
	}
	return out.Droplet.info(), nil
}

func (c *Client) DeleteServer(ctx context.Context, serverID string) error {
	return c.api.Do(ctx, http.MethodDelete, "/droplets/"+serverID, nil, nil)
}

func (c *Client) registerSSHKey(ctx context.Context, name, publicKey string) (int64, error) {
	body := map[string]string{"name": name, "public_key": publicKey}
	var out struct {
		SSHKey struct {
			ID int64 `json:"id"`
		} `json:"ssh_key"`
	}
	if err := c.api.Do(ctx, http.MethodPost, "/account/keys", body, &out); err != nil {
		return 0, fmt.Errorf("registering SSH key: %w", err)
	}
	return out.SSHKey.ID, nil
}

type droplet struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Networks struct {
		V4 []struct {
			IPAddress string `json:"ip_address"`
			Type      string `json:"type"`
		} `json:"v4"`
	} `json:"networks"`
}

func (d droplet) info() *cloud.ServerInfo {
	info := &cloud.ServerInfo{
		ID:     strconv.FormatInt(d.ID, 10),
		Name:   d.Name,
		Status: d.Status,
	}
	for _, n := range d.Networks.V4 {
		if n.Type == "public" {
			info.IPv4 = n.IPAddress
			break
		}
	}
	return info
}
