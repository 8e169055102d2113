package domain

// VendorInfo is display metadata for one supported vendor: what the
// credential is called and where the user creates it.
type VendorInfo struct {
	Name      string          `json:"name"`
	Type      IntegrationType `json:"type"`
	TokenName string          `json:"token_name"` // display label for the credential
	TokenLink string          `json:"token_link"` // URL where the user creates the token
}

// Vendors returns the supported vendors in menu order.
func Vendors() []VendorInfo {
	return []VendorInfo{
		{
			Name:      "Cloudflare",
			Type:      TypeCloudflare,
			TokenName: "API Token",
			TokenLink: "https://dash.cloudflare.com/profile/api-tokens -> Create Token",
		},
		{
			Name:      "Hetzner Cloud",
			Type:      TypeHetzner,
			TokenName: "API Token",
			TokenLink: "https://console.hetzner.cloud -> Project -> Security -> API Tokens -> Generate",
		},
		{
			Name:      "Hetzner DNS",
			Type:      TypeHetznerDNS,
			TokenName: "API Token",
			TokenLink: "https://dns.hetzner.com/settings/api-token",
		},
		{
			Name:      "DigitalOcean",
			Type:      TypeDigitalOcean,
			TokenName: "API Token",
			TokenLink: "https://cloud.digitalocean.com/account/api/tokens -> Generate New Token",
		},
		{
			Name:      "Vultr",
			Type:      TypeVultr,
			TokenName: "API Key",
			TokenLink: "https://my.vultr.com/settings/#settingsapi",
		},
		{
			Name:      "Linode",
			Type:      TypeLinode,
			TokenName: "Personal Access Token",
			TokenLink: "https://cloud.linode.com/profile/tokens -> Create a Personal Access Token",
		},
		{
			Name:      "Bunny",
			Type:      TypeBunny,
			TokenName: "API Key",
			TokenLink: "https://dash.bunny.net/account/settings -> API Key",
		},
		{
			Name:      "Scaleway",
			Type:      TypeScaleway,
			TokenName: "API Key pair",
			TokenLink: "https://console.scaleway.com/iam/api-keys -> Generate API key",
		},
		{
			Name:      "GitHub",
			Type:      TypeGitHub,
			TokenName: "Personal Access Token",
			TokenLink: "https://github.com/settings/tokens -> Generate new token",
		},
		{
			Name:      "Dropbox",
			Type:      TypeDropbox,
			TokenName: "App key, secret, and refresh token",
			TokenLink: "https://www.dropbox.com/developers/apps -> Create app",
		},
	}
}

// VendorByType looks up the vendor metadata for t.
func VendorByType(t IntegrationType) (VendorInfo, bool) {
	for _, v := range Vendors() {
		if v.Type == t {
			return v, true
		}
	}
	return VendorInfo{}, false
}
