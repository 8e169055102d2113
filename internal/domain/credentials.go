package domain

// Credentials is a flat union wide enough to hold every vendor's secret
// shape. Only the fields relevant to the owning integration type are
// meaningful; all others stay empty.
type Credentials struct {
	Email        string `json:"email,omitempty"`          // Cloudflare global key auth
	GlobalAPIKey string `json:"global_api_key,omitempty"` // Cloudflare global key auth
	APIToken     string `json:"api_token,omitempty"`      // bearer-token vendors
	APIKey       string `json:"api_key,omitempty"`        // Bunny
	AccessKey    string `json:"access_key,omitempty"`     // Scaleway
	SecretKey    string `json:"secret_key,omitempty"`     // Scaleway
	Region       string `json:"region,omitempty"`         // Scaleway
	AppKey       string `json:"app_key,omitempty"`        // Dropbox OAuth app
	AppSecret    string `json:"app_secret,omitempty"`     // Dropbox OAuth app
	RefreshToken string `json:"refresh_token,omitempty"`  // Dropbox OAuth app
}

type credentialField string

const (
	fieldEmail        credentialField = "email"
	fieldGlobalAPIKey credentialField = "global_api_key"
	fieldAPIToken     credentialField = "api_token"
	fieldAPIKey       credentialField = "api_key"
	fieldAccessKey    credentialField = "access_key"
	fieldSecretKey    credentialField = "secret_key"
	fieldRegion       credentialField = "region"
	fieldAppKey       credentialField = "app_key"
	fieldAppSecret    credentialField = "app_secret"
	fieldRefreshToken credentialField = "refresh_token"
)

// credentialRules is the single source of truth for "is this integration
// usable": per vendor type, the alternative field sets that satisfy it. A
// payload is valid when every field of at least one alternative is present.
var credentialRules = map[IntegrationType][][]credentialField{
	TypeCloudflare: {
		{fieldAPIToken},
		{fieldEmail, fieldGlobalAPIKey},
	},
	TypeHetzner:      {{fieldAPIToken}},
	TypeHetznerDNS:   {{fieldAPIToken}},
	TypeDigitalOcean: {{fieldAPIToken}},
	TypeVultr:        {{fieldAPIToken}},
	TypeLinode:       {{fieldAPIToken}},
	TypeBunny:        {{fieldAPIKey}},
	TypeScaleway:     {{fieldAccessKey, fieldSecretKey, fieldRegion}},
	TypeGitHub:       {{fieldAPIToken}},
	TypeDropbox:      {{fieldAppKey, fieldAppSecret, fieldRefreshToken}},
}

func (c Credentials) field(f credentialField) string {
	switch f {
	case fieldEmail:
		return c.Email
	case fieldGlobalAPIKey:
		return c.GlobalAPIKey
	case fieldAPIToken:
		return c.APIToken
	case fieldAPIKey:
		return c.APIKey
	case fieldAccessKey:
		return c.AccessKey
	case fieldSecretKey:
		return c.SecretKey
	case fieldRegion:
		return c.Region
	case fieldAppKey:
		return c.AppKey
	case fieldAppSecret:
		return c.AppSecret
	case fieldRefreshToken:
		return c.RefreshToken
	}
	return ""
}

// Valid reports whether the payload satisfies the required-field predicate
// for the given vendor type. Unrelated fields being populated never affects
// the result.
func (c Credentials) Valid(t IntegrationType) bool {
	rules, ok := credentialRules[t]
	if !ok {
		return false
	}
	for _, alternative := range rules {
		satisfied := true
		for _, f := range alternative {
			if c.field(f) == "" {
				satisfied = false
				break
			}
		}
		if satisfied {
			return true
		}
	}
	return false
}
