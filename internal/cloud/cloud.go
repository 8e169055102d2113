// Package cloud normalizes the vendor HTTP APIs behind one capability
// surface. Each vendor adapter lives in a subpackage and implements the
// narrow interfaces below; orchestration code depends only on these.
package cloud

import "context"

// Zone is a DNS-managed domain at a vendor. Read-only mirror of vendor
// state, fetched on demand and never persisted.
type Zone struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Status      string   `json:"status"`
	Paused      bool     `json:"paused"`
	NameServers []string `json:"name_servers"`
}

// DNSRecord is the record shape produced and consumed by the DNS adapters.
type DNSRecord struct {
	ID         string `json:"id,omitempty"`
	ZoneID     string `json:"zone_id,omitempty"`
	Type       string `json:"type"`
	Name       string `json:"name"`
	Content    string `json:"content"`
	Proxied    bool   `json:"proxied"`
	TTL        int    `json:"ttl"`
	CreatedOn  string `json:"created_on,omitempty"`
	ModifiedOn string `json:"modified_on,omitempty"`
}

// RecordFilter narrows a DNS record listing. Zero fields match everything.
type RecordFilter struct {
	Type    string
	Name    string
	Content string
}

// Matches reports whether rec passes the filter.
func (f RecordFilter) Matches(rec DNSRecord) bool {
	if f.Type != "" && f.Type != rec.Type {
		return false
	}
	if f.Name != "" && f.Name != rec.Name {
		return false
	}
	if f.Content != "" && f.Content != rec.Content {
		return false
	}
	return true
}

// Region is a selectable location for a VPS vendor.
type Region struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
}

// ServerSize is a selectable machine plan for a VPS vendor.
type ServerSize struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Cores    int     `json:"cores"`
	MemoryGB float64 `json:"memory_gb"`
	DiskGB   int     `json:"disk_gb"`
}

// ServerRequest describes a vendor server-create call.
type ServerRequest struct {
	Name         string
	Region       string
	Size         string
	Image        string
	SSHPublicKey string
}

// ServerInfo mirrors the vendor-side view of a created server.
type ServerInfo struct {
	ID     string
	Name   string
	Status string
	IPv4   string // empty until the vendor assigns an address
}

// IngressRule is one tunnel routing entry. An entry with no hostname is the
// mandatory trailing catch-all.
type IngressRule struct {
	Hostname string `json:"hostname,omitempty"`
	Service  string `json:"service"`
}

// TunnelInfo mirrors the vendor-side view of a tunnel.
type TunnelInfo struct {
	ID     string
	Name   string
	Secret string // per-connection secret material, set on create only
}

// DNSProvider is the contract for DNS-capable vendors.
type DNSProvider interface {
	ListZones(ctx context.Context) ([]Zone, error)
	ListDNSRecords(ctx context.Context, zoneID string, filter RecordFilter) ([]DNSRecord, error)
	CreateDNSRecord(ctx context.Context, zoneID string, rec DNSRecord) (*DNSRecord, error)
	DeleteDNSRecord(ctx context.Context, zoneID, recordID string) error
}

// TunnelProvider is the contract for the tunnel-capable vendor.
type TunnelProvider interface {
	CreateTunnel(ctx context.Context, name string) (*TunnelInfo, error)
	GetTunnel(ctx context.Context, tunnelID string) (*TunnelInfo, error)
	ListTunnels(ctx context.Context) ([]TunnelInfo, error)
	DeleteTunnel(ctx context.Context, tunnelID string) error
	GetTunnelConfiguration(ctx context.Context, tunnelID string) ([]IngressRule, error)
	ConfigureTunnelIngress(ctx context.Context, tunnelID string, rules []IngressRule) error
}

// VPSProvider is the contract for server-capable vendors.
type VPSProvider interface {
	ListRegions(ctx context.Context) ([]Region, error)
	ListSizes(ctx context.Context) ([]ServerSize, error)
	CreateServer(ctx context.Context, req ServerRequest) (*ServerInfo, error)
	GetServer(ctx context.Context, serverID string) (*ServerInfo, error)
	DeleteServer(ctx context.Context, serverID string) error
	ValidateCredentials(ctx context.Context) error
}

// ObjectStorageProvider is the contract for the object-storage vendor.
type ObjectStorageProvider interface {
	ListBuckets(ctx context.Context) ([]string, error)
	BucketExists(ctx context.Context, name string) (bool, error)
	CreateBucket(ctx context.Context, name string) error
}

// CredentialValidator is the side-effect-free probe every adapter
// implements: the cheapest read that fails on bad credentials, never a write.
type CredentialValidator interface {
	ValidateCredentials(ctx context.Context) error
}
