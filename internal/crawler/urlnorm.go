package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeURL normalizes a URL for deduplication and identity.
//
// Normalization rules:
//   - The fragment is stripped (#anchor does not change the page)
//   - Scheme and host are lowercased
//   - An empty path becomes "/" (http://example.com and
//     http://example.com/ are the same page)
//
// Trailing slashes on non-root paths are preserved: /docs and /docs/
// can legitimately be different resources, so we do not conflate them.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse URL %q: %w", rawURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q in URL %q", u.Scheme, rawURL)
	}
	if u.Host == "" {
		return "", fmt.Errorf("URL %q has no host", rawURL)
	}

	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Path == "" {
		u.Path = "/"
	}

	return u.String(), nil
}

// ApplyDefaultScheme prepends the given scheme to a URL that has none.
// "example.com/page" becomes "https://example.com/page" with the
// default configuration. URLs that already carry a scheme pass through
// unchanged.
func ApplyDefaultScheme(rawURL, scheme string) string {
	// A structural check rather than url.Parse: bare host:port seeds
	// like "example.com:8080/page" do not parse until a scheme is in
	// front of them.
	if strings.Contains(rawURL, "://") {
		return rawURL
	}
	return scheme + "://" + rawURL
}

// HostOf extracts the host (including any port) from a URL string.
// Returns an empty string for unparseable input. The host is used for
// the same-domain comparison: hosts must match exactly, so subdomains
// and differing ports count as different domains.
func HostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
