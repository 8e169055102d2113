package cloud

import "regexp"

var (
	subdomainRE = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)
	zoneNameRE  = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,}$`)
	tunnelIDRE  = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

// ValidateSubdomain checks a single DNS label. Runs locally before any
// network call so malformed input fails fast.
func ValidateSubdomain(s string) error {
	if !subdomainRE.MatchString(s) {
		return Errf(KindAPIError, "invalid subdomain %q: must be a lowercase DNS label", s)
	}
	return nil
}

// ValidateZoneName checks a fully qualified zone name.
func ValidateZoneName(s string) error {
	if !zoneNameRE.MatchString(s) {
		return Errf(KindAPIError, "invalid zone name %q", s)
	}
	return nil
}

// ValidateTunnelID checks the vendor tunnel identifier format (UUID).
func ValidateTunnelID(s string) error {
	if !tunnelIDRE.MatchString(s) {
		return Errf(KindAPIError, "invalid tunnel id %q", s)
	}
	return nil
}
