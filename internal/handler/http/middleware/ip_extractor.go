package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// IPExtractor extracts the client IP address from a request.
type IPExtractor interface {
	ExtractIP(r *http.Request) (string, error)
}

// RemoteAddrExtractor uses the TCP peer address. Headers are ignored, so a
// client cannot pick its own rate limit bucket.
type RemoteAddrExtractor struct{}

// ExtractIP strips the port from r.RemoteAddr.
func (RemoteAddrExtractor) ExtractIP(r *http.Request) (string, error) {
	return extractIPFromAddr(r.RemoteAddr)
}

// ParseTrustedProxies parses IPs and CIDR ranges. A bare IP becomes a /32 or /128.
func ParseTrustedProxies(values []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		prefix, err := netip.ParsePrefix(v)
		if err != nil {
			ip, ipErr := netip.ParseAddr(v)
			if ipErr != nil {
				return nil, fmt.Errorf("invalid IP or CIDR %q", v)
			}
			prefix = netip.PrefixFrom(ip, ip.BitLen())
		}
		out = append(out, prefix)
	}
	return out, nil
}

// TrustedProxyExtractor reads X-Forwarded-For and X-Real-IP, but only when
// the peer is one of the trusted proxies. Anyone else gets RemoteAddr.
type TrustedProxyExtractor struct {
	proxies []netip.Prefix
}

// NewTrustedProxyExtractor returns an extractor trusting the given ranges.
func NewTrustedProxyExtractor(proxies []netip.Prefix) *TrustedProxyExtractor {
	return &TrustedProxyExtractor{proxies: proxies}
}

func (e *TrustedProxyExtractor) trusted(remoteAddr string) bool {
	ip, err := extractIPFromAddr(remoteAddr)
	if err != nil {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	for _, p := range e.proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ExtractIP returns the forwarded client IP for trusted peers.
func (e *TrustedProxyExtractor) ExtractIP(r *http.Request) (string, error) {
	if !e.trusted(r.RemoteAddr) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			slog.Debug("ignoring X-Forwarded-For from untrusted peer",
				slog.String("remote_addr", r.RemoteAddr))
		}
		return extractIPFromAddr(r.RemoteAddr)
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := parseFirstIP(xff); ip != "" {
			return ip, nil
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(strings.TrimSpace(xri)); ip != nil {
			return ip.String(), nil
		}
	}
	return extractIPFromAddr(r.RemoteAddr)
}

// extractIPFromAddr handles "host:port", "[v6]:port" and a bare IP.
func extractIPFromAddr(addr string) (string, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		if ip := net.ParseIP(addr); ip != nil {
			return ip.String(), nil
		}
		return "", fmt.Errorf("invalid address format: %s", addr)
	}
	return host, nil
}

// parseFirstIP returns the client entry of an X-Forwarded-For list, or "".
func parseFirstIP(s string) string {
	first, _, _ := strings.Cut(s, ",")
	if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
		return ip.String()
	}
	return ""
}
