// Package tunnel composes tunnel and DNS adapter calls into multi-step
// sagas: create with best-effort compensation, teardown that attempts every
// deletion before surfacing a failure, and idempotent ingress
// reconciliation.
package tunnel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/halyard-dev/halyard/internal/cloud"
	"github.com/halyard-dev/halyard/internal/cloud/cloudflare"
	"github.com/halyard-dev/halyard/internal/domain"
)

// Manager orchestrates one tunnel vendor and one DNS vendor. It holds no
// mutable state; sagas for distinct servers may run concurrently.
type Manager struct {
	tunnels cloud.TunnelProvider
	dns     cloud.DNSProvider
}

func NewManager(tunnels cloud.TunnelProvider, dns cloud.DNSProvider) *Manager {
	return &Manager{tunnels: tunnels, dns: dns}
}

// Setup creates a tunnel routing SSH for {subdomain}.{zone} and a proxied
// CNAME record pointing at the tunnel. On failure after the tunnel exists,
// the tunnel is deleted again (best-effort) so no partial state is left
// behind; the original failure is what propagates. Cancellation mid-flight
// leaves remote state as-is for the caller to clean up.
func (m *Manager) Setup(ctx context.Context, zone cloud.Zone, subdomain string) (*domain.Tunnel, error) {
	// Local format checks before any remote call.
	if err := cloud.ValidateSubdomain(subdomain); err != nil {
		return nil, err
	}
	if err := cloud.ValidateZoneName(zone.Name); err != nil {
		return nil, err
	}
	hostname := subdomain + "." + zone.Name

	// Step 1: create the tunnel. The vendor assigns id + credentials.
	info, err := m.tunnels.CreateTunnel(ctx, hostname)
	if err != nil {
		return nil, fmt.Errorf("creating tunnel: %w", err)
	}

	// Step 2: route the SSH hostname, trailing catch-all included.
	ingress := []cloud.IngressRule{
		{Hostname: hostname, Service: "ssh://localhost:22"},
		catchAll(),
	}
	if err := m.tunnels.ConfigureTunnelIngress(ctx, info.ID, ingress); err != nil {
		return nil, m.compensate(ctx, info.ID, fmt.Errorf("configuring ingress: %w", err))
	}

	// Step 3: explicit conflict check. Relying on vendor-side uniqueness
	// errors would leave the failure shape vendor-dependent.
	existing, err := m.dns.ListDNSRecords(ctx, zone.ID, cloud.RecordFilter{Name: hostname})
	if err != nil {
		return nil, m.compensate(ctx, info.ID, fmt.Errorf("checking for existing records: %w", err))
	}
	if len(existing) > 0 {
		conflict := &cloud.Error{
			Kind:       cloud.KindRecordConflict,
			Message:    fmt.Sprintf("a DNS record for %s already exists", hostname),
			Suggestion: "delete the conflicting record or choose another subdomain",
		}
		return nil, m.compensate(ctx, info.ID, conflict)
	}

	// Step 4: the CNAME record, proxied.
	target := info.ID + "." + cloudflare.TunnelCNAMESuffix
	rec, err := m.dns.CreateDNSRecord(ctx, zone.ID, cloud.DNSRecord{
		Type:    "CNAME",
		Name:    hostname,
		Content: target,
		Proxied: true,
		TTL:     1, // vendor convention for "automatic"
	})
	if err != nil {
		return nil, m.compensate(ctx, info.ID, fmt.Errorf("creating DNS record: %w", err))
	}

	t := domain.NewTunnel(hostname)
	t.RemoteID = info.ID
	t.Secret = info.Secret
	t.CNAMETarget = target
	t.ZoneID = zone.ID
	t.Hostname = hostname
	t.DNSRecordID = rec.ID
	return t, nil
}

// compensate deletes the tunnel created earlier in the saga. The deletion is
// best-effort: its own failure is logged, not propagated, so the cause of
// the rollback stays visible to the caller. A cancelled context skips the
// deletion entirely; cancellation does not roll back.
func (m *Manager) compensate(ctx context.Context, tunnelID string, cause error) error {
	if errors.Is(cause, context.Canceled) || ctx.Err() != nil {
		return cause
	}
	if err := m.tunnels.DeleteTunnel(ctx, tunnelID); err != nil {
		slog.Warn("tunnel compensation failed, remote tunnel may be orphaned",
			"tunnel_id", tunnelID, "error", err, "cause", cause)
	}
	return cause
}

// Teardown deletes the tunnel's DNS record and the tunnel itself. Both
// deletions are attempted regardless of the other's outcome; the first
// failure (if any) is surfaced after both complete. This maximizes cleanup
// under partial failure.
func (m *Manager) Teardown(ctx context.Context, t *domain.Tunnel) error {
	var errs []error

	recordID := t.DNSRecordID
	if recordID == "" {
		// Older records may predate the stored id; find the tunnel record
		// by its CNAME target.
		recs, err := m.dns.ListDNSRecords(ctx, t.ZoneID, cloud.RecordFilter{Name: t.Hostname})
		if err != nil {
			errs = append(errs, fmt.Errorf("finding DNS record: %w", err))
		} else {
			for _, r := range recs {
				if IsTunnelRecord(r) {
					recordID = r.ID
					break
				}
			}
		}
	}
	if recordID != "" {
		if err := m.dns.DeleteDNSRecord(ctx, t.ZoneID, recordID); err != nil {
			errs = append(errs, fmt.Errorf("deleting DNS record: %w", err))
		}
	}

	if err := m.tunnels.DeleteTunnel(ctx, t.RemoteID); err != nil {
		errs = append(errs, fmt.Errorf("deleting tunnel: %w", err))
	}

	if len(errs) > 0 {
		for _, err := range errs[1:] {
			slog.Warn("additional teardown failure", "tunnel", t.Hostname, "error", err)
		}
		return errs[0]
	}
	return nil
}
