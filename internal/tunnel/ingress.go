package tunnel

import (
	"context"
	"fmt"
	"strings"

	"github.com/halyard-dev/halyard/internal/cloud"
	"github.com/halyard-dev/halyard/internal/cloud/cloudflare"
)

// CatchAllService is the service of the mandatory trailing hostname-less
// rule. Every ingress list ends with exactly one such entry.
const CatchAllService = "http_status:404"

func catchAll() cloud.IngressRule {
	return cloud.IngressRule{Service: CatchAllService}
}

// withCatchAll strips any existing catch-all entries and re-appends a single
// trailing one.
func withCatchAll(rules []cloud.IngressRule) []cloud.IngressRule {
	out := make([]cloud.IngressRule, 0, len(rules)+1)
	for _, r := range rules {
		if r.Hostname != "" {
			out = append(out, r)
		}
	}
	return append(out, catchAll())
}

func hasHostname(rules []cloud.IngressRule, hostname string) bool {
	for _, r := range rules {
		if r.Hostname == hostname {
			return true
		}
	}
	return false
}

// AddRoute adds an HTTP route for hostname to the tunnel, targeting the
// given local port. Calling it twice with the same hostname is a no-op.
//
// The vendor API is full-replace, not patch: the rule list is always
// re-derived from a just-fetched snapshot. Concurrent mutation of the same
// tunnel is last-writer-wins; callers must keep a single writer per tunnel.
func (m *Manager) AddRoute(ctx context.Context, tunnelID, hostname string, port int) error {
	rules, err := m.tunnels.GetTunnelConfiguration(ctx, tunnelID)
	if err != nil {
		return fmt.Errorf("fetching ingress rules: %w", err)
	}
	if hasHostname(rules, hostname) {
		return nil
	}

	rules = withCatchAll(append(rules, cloud.IngressRule{
		Hostname: hostname,
		Service:  fmt.Sprintf("http://localhost:%d", port),
	}))
	if err := m.tunnels.ConfigureTunnelIngress(ctx, tunnelID, rules); err != nil {
		return fmt.Errorf("replacing ingress rules: %w", err)
	}
	return nil
}

// RemoveRoute removes the hostname's route from the tunnel. Removing an
// absent hostname is a no-op. Same last-writer-wins caveat as AddRoute.
func (m *Manager) RemoveRoute(ctx context.Context, tunnelID, hostname string) error {
	rules, err := m.tunnels.GetTunnelConfiguration(ctx, tunnelID)
	if err != nil {
		return fmt.Errorf("fetching ingress rules: %w", err)
	}
	if !hasHostname(rules, hostname) {
		return nil
	}

	kept := make([]cloud.IngressRule, 0, len(rules))
	for _, r := range rules {
		if r.Hostname != hostname {
			kept = append(kept, r)
		}
	}
	if err := m.tunnels.ConfigureTunnelIngress(ctx, tunnelID, withCatchAll(kept)); err != nil {
		return fmt.Errorf("replacing ingress rules: %w", err)
	}
	return nil
}

// IsTunnelRecord reports whether a DNS record points at a tunnel CNAME
// target. Handles the trailing dot some providers require in FQDN form.
func IsTunnelRecord(rec cloud.DNSRecord) bool {
	content := strings.TrimSuffix(rec.Content, ".")
	return strings.HasSuffix(content, "."+cloudflare.TunnelCNAMESuffix)
}
