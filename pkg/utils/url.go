package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/url"
	"strings"

	"github.com/weppos/publicsuffix-go/publicsuffix"
)

// HashKey creates a SHA256 hash of the joined parts.
// This is useful for creating consistent, safe keys for Redis.
func HashKey(parts ...string) string {
	h := sha256.New()
	h.Write([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(h.Sum(nil))
}

// ToAbsoluteURL converts a relative URL to an absolute URL given a base URL.
func ToAbsoluteURL(base *url.URL, relative string) (string, error) {
	relURL, err := url.Parse(relative)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(relURL).String(), nil
}

// NormalizeHost extracts a lower-cased hostname from a bare host, a
// host:port pair or a full URL.
func NormalizeHost(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	if s == "" {
		return ""
	}
	if strings.Contains(s, "://") {
		if u, err := url.Parse(s); err == nil {
			return strings.TrimSuffix(u.Hostname(), ".")
		}
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, "@"); i >= 0 {
		s = s[i+1:]
	}
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	return strings.TrimSuffix(s, ".")
}

// RegistrableDomain returns the eTLD+1 of host, or host itself for IPs,
// single-label names and public suffixes.
func RegistrableDomain(host string) string {
	host = NormalizeHost(host)
	if host == "" || net.ParseIP(host) != nil || !strings.Contains(host, ".") {
		return host
	}
	domain, err := publicsuffix.Domain(host)
	if err != nil {
		return host
	}
	return domain
}

// IsThirdParty reports whether host belongs to a different site than siteDomain.
func IsThirdParty(host, siteDomain string) bool {
	h := RegistrableDomain(host)
	if h == "" {
		return false
	}
	return h != RegistrableDomain(siteDomain)
}

// NormalizePageURL keeps scheme, host and path of a URL so that query and
// fragment variants of the same page aggregate together.
func NormalizePageURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host) + path
}

// SameSite reports whether rawURL points at domain or one of its subdomains.
func SameSite(rawURL, domain string) bool {
	host := NormalizeHost(rawURL)
	domain = NormalizeHost(domain)
	return host == domain || strings.HasSuffix(host, "."+domain) ||
		strings.TrimPrefix(host, "www.") == strings.TrimPrefix(domain, "www.")
}

// SiteOrigins lists the origins a crawl of domain lands on: both schemes,
// with and without the www label.
func SiteOrigins(domain string) []string {
	host := strings.TrimPrefix(NormalizeHost(domain), "www.")
	if host == "" {
		return nil
	}
	return []string{
		"https://" + host,
		"https://www." + host,
		"http://" + host,
		"http://www." + host,
	}
}
