package cloudflare

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/halyard-dev/halyard/internal/cloud"
)

// ListZones returns every zone on the account, following pagination.
func (c *Client) ListZones(ctx context.Context) ([]cloud.Zone, error) {
	var zones []cloud.Zone
	err := c.api.GetPages(ctx, "/zones", nil, func(body []byte) (cloud.PageInfo, error) {
		page, info, err := decodePage[cloud.Zone](body)
		if err != nil {
			return cloud.PageInfo{}, err
		}
		zones = append(zones, page...)
		return info, nil
	})
	if err != nil {
		return nil, err
	}
	return zones, nil
}

// ListDNSRecords returns the zone's records, narrowed server-side by the
// filter where the API supports it.
func (c *Client) ListDNSRecords(ctx context.Context, zoneID string, filter cloud.RecordFilter) ([]cloud.DNSRecord, error) {
	query := url.Values{}
	if filter.Type != "" {
		query.Set("type", filter.Type)
	}
	if filter.Name != "" {
		query.Set("name", filter.Name)
	}
	if filter.Content != "" {
		query.Set("content", filter.Content)
	}

	var records []cloud.DNSRecord
	path := fmt.Sprintf("/zones/%s/dns_records", zoneID)
	err := c.api.GetPages(ctx, path, query, func(body []byte) (cloud.PageInfo, error) {
		page, info, err := decodePage[cloud.DNSRecord](body)
		if err != nil {
			return cloud.PageInfo{}, err
		}
		records = append(records, page...)
		return info, nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// CreateDNSRecord creates rec in the zone and returns the vendor's view of it.
func (c *Client) CreateDNSRecord(ctx context.Context, zoneID string, rec cloud.DNSRecord) (*cloud.DNSRecord, error) {
	body := map[string]any{
		"type":    rec.Type,
		"name":    rec.Name,
		"content": rec.Content,
		"proxied": rec.Proxied,
		"ttl":     rec.TTL,
	}
	var created cloud.DNSRecord
	path := fmt.Sprintf("/zones/%s/dns_records", zoneID)
	if err := c.call(ctx, http.MethodPost, path, body, &created); err != nil {
		return nil, err
	}
	created.ZoneID = zoneID
	return &created, nil
}

// DeleteDNSRecord removes one record by ID.
func (c *Client) DeleteDNSRecord(ctx context.Context, zoneID, recordID string) error {
	path := fmt.Sprintf("/zones/%s/dns_records/%s", zoneID, recordID)
	return c.call(ctx, http.MethodDelete, path, nil, nil)
}

// decodePage unwraps one envelope page into a typed slice plus pagination
// metadata. An absent result_info means the listing is single-page.
func decodePage[T any](body []byte) ([]T, cloud.PageInfo, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, cloud.PageInfo{}, &cloud.Error{Kind: cloud.KindInvalidResponse, Message: "decoding envelope: " + err.Error()}
	}
	if !env.Success {
		return nil, cloud.PageInfo{}, classifyErrors(env.Errors)
	}
	var page []T
	if err := json.Unmarshal(env.Result, &page); err != nil {
		return nil, cloud.PageInfo{}, &cloud.Error{Kind: cloud.KindInvalidResponse, Message: "decoding result: " + err.Error()}
	}
	var info cloud.PageInfo
	if env.ResultInfo != nil {
		info = cloud.PageInfo{
			Page:       env.ResultInfo.Page,
			PerPage:    env.ResultInfo.PerPage,
			TotalPages: env.ResultInfo.TotalPages,
		}
	}
	return page, info, nil
}
