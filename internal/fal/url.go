package fal

import (
	"net/url"
	"strings"
)

// CanonicalCDNBase is the host every generated image URL is rewritten to.
const CanonicalCDNBase = "https://v3b.fal.media"

const canonicalHost = "v3b.fal.media"

// CDNHosts are the known hostnames serving the same fal.media assets,
// canonical host first.
var CDNHosts = []string{canonicalHost, "v3.fal.media", "fal.media"}

// IsCDNHost reports whether host belongs to the fal.media CDN family.
func IsCDNHost(host string) bool {
	host = strings.ToLower(host)
	return host == "fal.media" || strings.HasSuffix(host, ".fal.media")
}

// NormalizeImageURL rewrites a generated image URL to the canonical CDN host.
// Bare paths are resolved against CanonicalCDNBase. Absolute URLs whose path
// starts with /files/ on another fal.media host keep their path and query.
// Anything else is returned trimmed but otherwise untouched.
func NormalizeImageURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "/") && !strings.HasPrefix(trimmed, "//") {
		return CanonicalCDNBase + trimmed
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return trimmed
	}
	if strings.HasPrefix(u.Path, "/files/") && IsCDNHost(u.Hostname()) && !strings.EqualFold(u.Hostname(), canonicalHost) {
		out := CanonicalCDNBase + u.EscapedPath()
		if u.RawQuery != "" {
			out += "?" + u.RawQuery
		}
		return out
	}
	return trimmed
}

// IsAbsoluteHTTP reports whether raw parses as an absolute http or https URL
// with a host.
func IsAbsoluteHTTP(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
