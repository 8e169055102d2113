// Package vultr adapts the Vultr v2 API for server provisioning.
package vultr

import (
	"context"
	"fmt"
	"net/http"

	"github.com/halyard-dev/halyard/internal/cloud"
)

const defaultBaseURL = "https://api.vultr.com/v2"

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
		Account struct {
			Email string `json:"email"`
		} `json:"account"`
	}
	return c.api.Do(ctx, http.MethodGet, "/account", nil, &out)
}

func (c *Client) ListRegions(ctx context.Context) ([]cloud.Region, error) {
	var out struct {
		Regions []struct {
			ID      string `json:"id"`
			City    string `json:"city"`
			Country string `json:"country"`
		} `json:"regions"`
	}
	if err := c.api.Do(ctx, http.MethodGet, "/regions?per_page=500", nil, &out); err != nil {
		return nil, err
	}
	regions := make([]cloud.Region, 0, len(out.Regions))
	for _, r := range out.Regions {
		regions = append(regions, cloud.Region{ID: r.ID, Name: r.City, Country: r.Country})
	}
	return regions, nil
}

func (c *Client) ListSizes(ctx context.Context) ([]cloud.ServerSize, error) {
	var out struct {
		Plans []struct {
			ID        string `json:"id"`
			VCPUCount int    `json:"vcpu_count"`
			RAM       int    `json:"ram"` // MB
			Disk      int    `json:"disk"`
		} `json:"plans"`
	}
	if err := c.api.Do(ctx, http.MethodGet, "/plans?per_page=500", nil, &out); err != nil {
		return nil, err
	}
	sizes := make([]cloud.ServerSize, 0, len(out.Plans))
	for _, p := range out.Plans {
		sizes = append(sizes, cloud.ServerSize{
			ID:       p.ID,
			Name:     p.ID,
			Cores:    p.VCPUCount,
			MemoryGB: float64(p.RAM) / 1024,
			DiskGB:   p.Disk,
		})
	}
	return sizes, nil
}

func (c *Client) CreateServer(ctx context.Context, req cloud.ServerRequest) (*cloud.ServerInfo, error) {
	keyID, err := c.createSSHKey(ctx, req.Name+"-key", req.SSHPublicKey)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"label":     req.Name,
		"region":    req.Region,
		"plan":      req.Size,
		"image_id":  req.Image,
		"sshkey_id": []string{keyID},
		"hostname":  req.Name,
	}
	var out struct {
		Instance instance `json:"instance"`
	}
	if err := c.api.Do(ctx, http.MethodPost, "/instances", body, &out); err != nil {
		return nil, err
	}
	return out.Instance.info(), nil
}

func (c *Client) GetServer(ctx context.Context, serverID string) (*cloud.ServerInfo, error) {
	var out struct {
		Instance instance `json:"instance"`
	}
	if err := c.api.Do(ctx, http.MethodGet, "/instances/"+serverID, nil, &out); err != nil {
		return nil, err
	}
	return out.Instance.info(), nil
}

func (c *Client) DeleteServer(ctx context.Context, serverID string) error {
	return c.api.Do(ctx, http.MethodDelete, "/instances/"+serverID, nil, nil)
}

func (c *Client) createSSHKey(ctx context.Context, name, publicKey string) (string, error) {
	body := map[string]string{"name": name, "ssh_key": publicKey}
	var out struct {
		SSHKey struct {
			ID string `json:"id"`
		} `json:"ssh_key"`
	}
	if err := c.api.Do(ctx, http.MethodPost, "/ssh-keys", body, &out); err != nil {
		return "", fmt.Errorf("creating SSH key: %w", err)
	}
	return out.SSHKey.ID, nil
}

type instance struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Status string `json:"status"`
	MainIP string `json:"main_ip"`
}

func (i instance) info() *cloud.ServerInfo {
	ip := i.MainIP
	// Vultr reports 0.0.0.0 until an address is assigned.
	if ip == "0.0.0.0" {
		ip = ""
	}
	return &cloud.ServerInfo{ID: i.ID, Name: i.Label, Status: i.Status, IPv4: ip}
}
