// Package bunny adapts the bunny.net DNS API. Bunny identifies record types
// by integer and nests records inside the zone resource.
package bunny

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/halyard-dev/halyard/internal/cloud"
)

const defaultBaseURL = "https://api.bunny.net"

// Record type ids used by the API.
var recordTypeIDs = map[string]int{
	"A":     0,
	"AAAA":  1,
	"CNAME": 2,
	"TXT":   3,
	"MX":    4,
	"NS":    7,
	"SRV":   8,
	"CAA":   9,
}

type Client struct {
	api     *cloud.Client
	key     string
	baseURL string // test override
}

func New(apiKey string) *Client {
	c := &Client{key: apiKey}
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
	req.Header.Set("AccessKey", c.key)
}

func (c *Client) ClassifyStatus(status int, body []byte) error {
	return cloud.ClassifyStatus(status, body)
}

func (c *Client) ValidateCredentials(ctx context.Context) error {
	var out struct {
		Items []any `json:"Items"`
	}
	return c.api.Do(ctx, http.MethodGet, "/dnszone?page=1&perPage=1", nil, &out)
}

func (c *Client) ListZones(ctx context.Context) ([]cloud.Zone, error) {
	var zones []cloud.Zone
	page := 1
	for {
		var out struct {
			Items []struct {
				ID          int64    `json:"Id"`
				Domain      string   `json:"Domain"`
				Nameservers []string `json:"Nameservers"`
			} `json:"Items"`
			TotalItems   int  `json:"TotalItems"`
			CurrentPage  int  `json:"CurrentPage"`
			HasMoreItems bool `json:"HasMoreItems"`
		}
		path := fmt.Sprintf("/dnszone?page=%d&perPage=100", page)
		if err := c.api.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
			return nil, err
		}
		for _, z := range out.Items {
			zones = append(zones, cloud.Zone{
				ID:          strconv.FormatInt(z.ID, 10),
				Name:        z.Domain,
				Status:      "active",
				NameServers: z.Nameservers,
			})
		}
		if !out.HasMoreItems {
			return zones, nil
		}
		page++
	}
}

func (c *Client) ListDNSRecords(ctx context.Context, zoneID string, filter cloud.RecordFilter) ([]cloud.DNSRecord, error) {
	var out struct {
		Records []bunnyRecord `json:"Records"`
	}
	if err := c.api.Do(ctx, http.MethodGet, "/dnszone/"+zoneID, nil, &out); err != nil {
		return nil, err
	}
	var records []cloud.DNSRecord
	for _, r := range out.Records {
		rec := r.record(zoneID)
		if filter.Matches(rec) {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (c *Client) CreateDNSRecord(ctx context.Context, zoneID string, rec cloud.DNSRecord) (*cloud.DNSRecord, error) {
	typeID, ok := recordTypeIDs[rec.Type]
	if !ok {
		return nil, cloud.Errf(cloud.KindInvalidRecordType, "unsupported record type %q", rec.Type)
	}
	body := map[string]any{
		"Type":  typeID,
		"Name":  rec.Name,
		"Value": rec.Content,
		"Ttl":   rec.TTL,
	}
	var out bunnyRecord
	path := fmt.Sprintf("/dnszone/%s/records", zoneID)
	if err := c.api.Do(ctx, http.MethodPut, path, body, &out); err != nil {
		return nil, err
	}
	created := out.record(zoneID)
	return &created, nil
}

func (c *Client) DeleteDNSRecord(ctx context.Context, zoneID, recordID string) error {
	path := fmt.Sprintf("/dnszone/%s/records/%s", zoneID, recordID)
	return c.api.Do(ctx, http.MethodDelete, path, nil, nil)
}

type bunnyRecord struct {
	ID    int64  `json:"Id"`
	Type  int    `json:"Type"`
	Name  string `json:"Name"`
	Value string `json:"Value"`
	TTL   int    `json:"Ttl"`
}

func (r bunnyRecord) record(zoneID string) cloud.DNSRecord {
	typ := "A"
	for name, id := range recordTypeIDs {
		if id == r.Type {
			typ = name
			break
		}
	}
	return cloud.DNSRecord{
		ID:      strconv.FormatInt(r.ID, 10),
		ZoneID:  zoneID,
		Type:    typ,
		Name:    r.Name,
		Content: r.Value,
		TTL:     r.TTL,
	}
}
