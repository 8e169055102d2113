// Package providers builds concrete vendor adapters from stored
// integrations. Orchestration code asks for a capability and receives the
// matching interface; the vendor switch lives only here.
package providers

import (
	"fmt"

	"github.com/halyard-dev/halyard/internal/cloud"
	"github.com/halyard-dev/halyard/internal/cloud/bunny"
	"github.com/halyard-dev/halyard/internal/cloud/cloudflare"
	"github.com/halyard-dev/halyard/internal/cloud/digitalocean"
	"github.com/halyard-dev/halyard/internal/cloud/dropbox"
	"github.com/halyard-dev/halyard/internal/cloud/github"
	"github.com/halyard-dev/halyard/internal/cloud/hetzner"
	"github.com/halyard-dev/halyard/internal/cloud/hetznerdns"
	"github.com/halyard-dev/halyard/internal/cloud/linode"
	"github.com/halyard-dev/halyard/internal/cloud/scaleway"
	"github.com/halyard-dev/halyard/internal/cloud/vultr"
	"github.com/halyard-dev/halyard/internal/domain"
)

func check(i *domain.Integration, cap domain.Capability) error {
	if !i.IsConfigured() {
		return fmt.Errorf("integration %s (%s) is missing required credentials", i.Name, i.Type)
	}
	if !i.HasCapability(cap) {
		return fmt.Errorf("integration %s (%s) does not declare capability %s", i.Name, i.Type, cap)
	}
	return nil
}

// Validator returns the credential probe for any configured integration.
func Validator(i *domain.Integration) (cloud.CredentialValidator, error) {
	if !i.IsConfigured() {
		return nil, fmt.Errorf("integration %s (%s) is missing required credentials", i.Name, i.Type)
	}
	c := i.Credentials
	switch i.Type {
	case domain.TypeCloudflare:
		return Cloudflare(i), nil
	case domain.TypeHetzner:
		return hetzner.New(c.APIToken), nil
	case domain.TypeHetznerDNS:
		return hetznerdns.New(c.APIToken), nil
	case domain.TypeDigitalOcean:
		return digitalocean.New(c.APIToken), nil
	case domain.TypeVultr:
		return vultr.New(c.APIToken), nil
	case domain.TypeLinode:
		return linode.New(c.APIToken), nil
	case domain.TypeBunny:
		return bunny.New(c.APIKey), nil
	case domain.TypeScaleway:
		return scaleway.New(scaleway.Config{
			AccessKey: c.AccessKey,
			SecretKey: c.SecretKey,
			Region:    c.Region,
		}), nil
	case domain.TypeGitHub:
		return github.New(c.APIToken), nil
	case domain.TypeDropbox:
		return dropbox.New(dropbox.Config{
			AppKey:       c.AppKey,
			AppSecret:    c.AppSecret,
			RefreshToken: c.RefreshToken,
		}), nil
	}
	return nil, fmt.Errorf("unknown integration type %q", i.Type)
}

// VPS returns the server-provisioning adapter for the integration.
func VPS(i *domain.Integration) (cloud.VPSProvider, error) {
	if err := check(i, domain.CapVPS); err != nil {
		return nil, err
	}
	switch i.Type {
	case domain.TypeHetzner:
		return hetzner.New(i.Credentials.APIToken), nil
	case domain.TypeDigitalOcean:
		return digitalocean.New(i.Credentials.APIToken), nil
	case domain.TypeVultr:
		return vultr.New(i.Credentials.APIToken), nil
	case domain.TypeLinode:
		return linode.New(i.Credentials.APIToken), nil
	}
	return nil, fmt.Errorf("integration type %q cannot provision servers", i.Type)
}

// DNS returns the DNS adapter for the integration.
func DNS(i *domain.Integration) (cloud.DNSProvider, error) {
	if err := check(i, domain.CapDNS); err != nil {
		return nil, err
	}
	switch i.Type {
	case domain.TypeCloudflare:
		return Cloudflare(i), nil
	case domain.TypeHetznerDNS:
		return hetznerdns.New(i.Credentials.APIToken), nil
	case domain.TypeBunny:
		return bunny.New(i.Credentials.APIKey), nil
	}
	return nil, fmt.Errorf("integration type %q cannot manage DNS", i.Type)
}

// Tunnel returns the tunnel adapter. Only Cloudflare is tunnel-capable.
func Tunnel(i *domain.Integration) (cloud.TunnelProvider, error) {
	if err := check(i, domain.CapTunnel); err != nil {
		return nil, err
	}
	if i.Type != domain.TypeCloudflare {
		return nil, fmt.Errorf("integration type %q cannot manage tunnels", i.Type)
	}
	return Cloudflare(i), nil
}

// ObjectStorage returns the bucket adapter for the integration.
func ObjectStorage(i *domain.Integration) (cloud.ObjectStorageProvider, error) {
	if err := check(i, domain.CapObjectStorage); err != nil {
		return nil, err
	}
	if i.Type != domain.TypeScaleway {
		return nil, fmt.Errorf("integration type %q cannot manage buckets", i.Type)
	}
	c := i.Credentials
	return scaleway.New(scaleway.Config{
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		Region:    c.Region,
	}), nil
}

// Cloudflare builds the Cloudflare client for either auth scheme. Exposed
// because tunnel setup needs the concrete type for both capabilities at once.
func Cloudflare(i *domain.Integration) *cloudflare.Client {
	return cloudflare.New(cloudflare.Config{
		Email:    i.Credentials.Email,
		APIKey:   i.Credentials.GlobalAPIKey,
		APIToken: i.Credentials.APIToken,
	})
}
