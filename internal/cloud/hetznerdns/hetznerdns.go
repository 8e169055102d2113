// Package hetznerdns adapts the Hetzner DNS API. It is a separate vendor
// surface from Hetzner Cloud with its own token and auth header.
package hetznerdns

import (
	"context"
	"net/http"
	"net/url"

	"github.com/halyard-dev/halyard/internal/cloud"
)

const defaultBaseURL = "https://dns.hetzner.com/api/v1"

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
	req.Header.Set("Auth-API-Token", c.token)
}

func (c *Client) ClassifyStatus(status int, body []byte) error {
	return cloud.ClassifyStatus(status, body)
}

func (c *Client) ValidateCredentials(ctx context.Context) error {
	var out struct {
		Zones []any `json:"zones"`
	}
	return c.api.Do(ctx, http.MethodGet, "/zones?per_page=1", nil, &out)
}

func (c *Client) ListZones(ctx context.Context) ([]cloud.Zone, error) {
	var out struct {
		Zones []struct {
			ID     string   `json:"id"`
			Name   string   `json:"name"`
			Status string   `json:"status"`
			NS     []string `json:"ns"`
		} `json:"zones"`
	}
	if err := c.api.Do(ctx, http.MethodGet, "/zones", nil, &out); err != nil {
		return nil, err
	}
	zones := make([]cloud.Zone, 0, len(out.Zones))
	for _, z := range out.Zones {
		zones = append(zones, cloud.Zone{ID: z.ID, Name: z.Name, Status: z.Status, NameServers: z.NS})
	}
	return zones, nil
}

// ListDNSRecords returns the zone's records. The API has no server-side
// record filters, so the filter is applied locally.
func (c *Client) ListDNSRecords(ctx context.Context, zoneID string, filter cloud.RecordFilter) ([]cloud.DNSRecord, error) {
	var out struct {
		Records []hetznerRecord `json:"records"`
	}
	path := "/records?zone_id=" + url.QueryEscape(zoneID)
	if err := c.api.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	var records []cloud.DNSRecord
	for _, r := range out.Records {
		rec := r.record()
		if filter.Matches(rec) {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (c *Client) CreateDNSRecord(ctx context.Context, zoneID string, rec cloud.DNSRecord) (*cloud.DNSRecord, error) {
	body := map[string]any{
		"zone_id": zoneID,
		"type":    rec.Type,
		"name":    rec.Name,
		"value":   rec.Content,
		"ttl":     rec.TTL,
	}
	var out struct {
		Record hetznerRecord `json:"record"`
	}
	if err := c.api.Do(ctx, http.MethodPost, "/records", body, &out); err != nil {
		return nil, err
	}
	created := out.Record.record()
	return &created, nil
}

func (c *Client) DeleteDNSRecord(ctx context.Context, zoneID, recordID string) error {
	return c.api.Do(ctx, http.MethodDelete, "/records/"+recordID, nil, nil)
}

type hetznerRecord struct {
	ID       string `json:"id"`
	ZoneID   string `json:"zone_id"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	Value    string `json:"value"`
	TTL      int    `json:"ttl"`
	Created  string `json:"created,omitempty"`
	Modified string `json:"modified,omitempty"`
}

func (r hetznerRecord) record() cloud.DNSRecord {
	return cloud.DNSRecord{
		ID:         r.ID,
		ZoneID:     r.ZoneID,
		Type:       r.Type,
		Name:       r.Name,
		Content:    r.Value,
		TTL:        r.TTL,
		CreatedOn:  r.Created,
		ModifiedOn: r.Modified,
	}
}
