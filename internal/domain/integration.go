// Package domain holds the persisted entities shared by the orchestration
// layers: integrations (vendor connections), servers, and tunnels.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// IntegrationType identifies the vendor behind an integration.
type IntegrationType string

const (
	TypeCloudflare   IntegrationType = "cloudflare"
	TypeHetzner      IntegrationType = "hetzner"
	TypeHetznerDNS   IntegrationType = "hetzner_dns"
	TypeDigitalOcean IntegrationType = "digitalocean"
	TypeVultr        IntegrationType = "vultr"
	TypeLinode       IntegrationType = "linode"
	TypeBunny        IntegrationType = "bunny"
	TypeScaleway     IntegrationType = "scaleway"
	TypeGitHub       IntegrationType = "github"
	TypeDropbox      IntegrationType = "dropbox"
)

// Capability is a declared feature an integration supports, used to filter
// which integrations are offered for which workflow.
type Capability string

const (
	CapVPS           Capability = "vps-provider"
	CapDNS           Capability = "dns-provider"
	CapTunnel        Capability = "tunnel-provider"
	CapObjectStorage Capability = "object-storage"
	CapSourceControl Capability = "source-control"
	CapBackupStorage Capability = "backup-storage"
)

// defaultCapabilities maps each vendor type to the capabilities it supports.
var defaultCapabilities = map[IntegrationType][]Capability{
	TypeCloudflare:   {CapDNS, CapTunnel, CapObjectStorage},
	TypeHetzner:      {CapVPS},
	TypeHetznerDNS:   {CapDNS},
	TypeDigitalOcean: {CapVPS},
	TypeVultr:        {CapVPS},
	TypeLinode:       {CapVPS},
	TypeBunny:        {CapDNS},
	TypeScaleway:     {CapObjectStorage},
	TypeGitHub:       {CapSourceControl},
	TypeDropbox:      {CapBackupStorage},
}

// DefaultCapabilities returns the capability set implied by the vendor type.
func DefaultCapabilities(t IntegrationType) []Capability {
	caps := defaultCapabilities[t]
	out := make([]Capability, len(caps))
	copy(out, caps)
	return out
}

// Integration is a configured connection to one vendor.
type Integration struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Type         IntegrationType `json:"type"`
	Capabilities []Capability    `json:"capabilities"`
	Credentials  Credentials     `json:"credentials"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func newIntegration(name string, t IntegrationType, creds Credentials) *Integration {
	now := time.Now().UTC()
	return &Integration{
		ID:           uuid.NewString(),
		Name:         name,
		Type:         t,
		Capabilities: DefaultCapabilities(t),
		Credentials:  creds,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsConfigured reports whether the credential payload satisfies the
// vendor-specific required-field predicate.
func (i *Integration) IsConfigured() bool {
	return i.Credentials.Valid(i.Type)
}

// HasCapability reports whether the integration declares cap.
func (i *Integration) HasCapability(cap Capability) bool {
	for _, c := range i.Capabilities {
		if c == cap {
			return true
		}
	}
	return false
}

// SetCapabilities overrides the default capability set.
func (i *Integration) SetCapabilities(caps []Capability) {
	i.Capabilities = caps
	i.UpdatedAt = time.Now().UTC()
}

// SetCredentials replaces the credential payload.
func (i *Integration) SetCredentials(creds Credentials) {
	i.Credentials = creds
	i.UpdatedAt = time.Now().UTC()
}

// Vendor factory functions. Each populates only the credential fields its
// vendor reads.

func NewCloudflare(name, apiToken string) *Integration {
	return newIntegration(name, TypeCloudflare, Credentials{APIToken: apiToken})
}

// NewCloudflareGlobalKey builds a Cloudflare integration on the legacy
// email + Global API Key pair.
func NewCloudflareGlobalKey(name, email, globalKey string) *Integration {
	return newIntegration(name, TypeCloudflare, Credentials{Email: email, GlobalAPIKey: globalKey})
}

func NewHetzner(name, apiToken string) *Integration {
	return newIntegration(name, TypeHetzner, Credentials{APIToken: apiToken})
}

func NewHetznerDNS(name, apiToken string) *Integration {
	return newIntegration(name, TypeHetznerDNS, Credentials{APIToken: apiToken})
}

func NewDigitalOcean(name, apiToken string) *Integration {
	return newIntegration(name, TypeDigitalOcean, Credentials{APIToken: apiToken})
}

func NewVultr(name, apiToken string) *Integration {
	return newIntegration(name, TypeVultr, Credentials{APIToken: apiToken})
}

func NewLinode(name, apiToken string) *Integration {
	return newIntegration(name, TypeLinode, Credentials{APIToken: apiToken})
}

func NewBunny(name, apiKey string) *Integration {
	return newIntegration(name, TypeBunny, Credentials{APIKey: apiKey})
}

func NewScaleway(name, accessKey, secretKey, region string) *Integration {
	return newIntegration(name, TypeScaleway, Credentials{
		AccessKey: accessKey,
		SecretKey: secretKey,
		Region:    region,
	})
}

func NewGitHub(name, apiToken string) *Integration {
	return newIntegration(name, TypeGitHub, Credentials{APIToken: apiToken})
}

func NewDropbox(name, appKey, appSecret, refreshToken string) *Integration {
	return newIntegration(name, TypeDropbox, Credentials{
		AppKey:       appKey,
		AppSecret:    appSecret,
		RefreshToken: refreshToken,
	})
}
