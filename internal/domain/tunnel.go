package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tunnel is the local record of a vendor tunnel plus the DNS record created
// for it. Stored so teardown knows exactly what to delete.
type Tunnel struct {
	ID            string    `json:"id"`
	IntegrationID string    `json:"integration_id"`   // tunnel/DNS vendor integration
	RemoteID      string    `json:"remote_id"`        // vendor-assigned tunnel id
	Name          string    `json:"name"`
	Secret        string    `json:"secret,omitempty"` // per-connection secret material
	CNAMETarget   string    `json:"cname_target"`     // {remote_id}.{tunnel-suffix}
	ZoneID        string    `json:"zone_id"`
	Hostname      string    `json:"hostname"` // public FQDN routed through the tunnel
	DNSRecordID   string    `json:"dns_record_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewTunnel returns a tunnel record with a fresh local ID.
func NewTunnel(name string) *Tunnel {
	return &Tunnel{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
}
