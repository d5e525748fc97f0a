package registry

import "strings"

// Property represents a GA4 property discovered through the Admin API.
// Identity is NumericID. Instances are immutable once discovered; the
// registry is the single source of truth for them.
type Property struct {
	NumericID    string `json:"id"`
	ResourceName string `json:"resource_name"`
	DisplayName  string `json:"display_name"`
	AccountID    string `json:"account_id"`
	// CleanName is the lowercase alphanumeric form of DisplayName, capped
	// at 30 characters, used for name matching.
	CleanName  string `json:"name"`
	WebsiteURL string `json:"website_url,omitempty"`
}

// CleanName normalizes a display name for matching: lowercase, alphanumeric
// only, capped at 30 characters.
func CleanName(displayName string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(displayName) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() >= 30 {
			break
		}
	}
	return b.String()
}
