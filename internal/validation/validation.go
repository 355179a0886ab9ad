// Package validation checks that user supplied URLs are safe for the server
// to fetch.
package validation

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
)

var (
	ErrEmptyURL       = errors.New("URL is required")
	ErrInvalidURL     = errors.New("URL is not valid")
	ErrScheme         = errors.New("URL must use http:// or https:// scheme")
	ErrNoHost         = errors.New("URL must have a valid host")
	ErrUnresolvable   = errors.New("cannot resolve hostname")
	ErrPrivateAddress = errors.New("URL points to a private or reserved IP address")
)

// Cloud metadata endpoints that are not covered by the private ranges.
var metadataIPs = []net.IP{
	net.ParseIP("169.254.169.254"), // AWS, GCP
	net.ParseIP("168.63.129.16"),   // Azure
}

// Resolver looks up the addresses of a host. *net.Resolver satisfies it.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// ParseWebURL parses an absolute http or https URL with a host.
func ParseWebURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, ErrEmptyURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, ErrInvalidURL
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, ErrScheme
	}
	if u.Hostname() == "" {
		return nil, ErrNoHost
	}
	return u, nil
}

// IsPrivateIP reports whether ip is loopback, link-local, private,
// unspecified or a cloud metadata endpoint.
func IsPrivateIP(ip net.IP) bool {
	if ip == nil {
		return false
	}
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsPrivate() || ip.IsUnspecified() {
		return true
	}
	for _, m := range metadataIPs {
		if ip.Equal(m) {
			return true
		}
	}
	return false
}

// CheckPublicURL returns nil if raw is a web URL whose host resolves only to
// public addresses. Hosts that fail to resolve are rejected.
func CheckPublicURL(ctx context.Context, r Resolver, raw string) error {
	u, err := ParseWebURL(raw)
	if err != nil {
		return err
	}

	host := u.Hostname()
	if ip := net.ParseIP(host); ip != nil {
		if IsPrivateIP(ip) {
			return ErrPrivateAddress
		}
		return nil
	}

	addrs, err := r.LookupIPAddr(ctx, host)
	if err != nil || len(addrs) == 0 {
		return ErrUnresolvable
	}
	for _, addr := range addrs {
		if IsPrivateIP(addr.IP) {
			return ErrPrivateAddress
		}
	}
	return nil
}
