package utils

import (
	"net"
	"net/url"
	"strings"
	"sync"
)

var (
	extraOriginsMu sync.RWMutex
	extraOrigins   = map[string]struct{}{}
)

// SetAllowedOrigins registers additional exact origins (scheme://host[:port])
// to trust besides local/private ones, e.g. the public recruiter frontend.
func SetAllowedOrigins(origins []string) {
	extraOriginsMu.Lock()
	defer extraOriginsMu.Unlock()
	extraOrigins = make(map[string]struct{}, len(origins))
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			extraOrigins[strings.ToLower(o)] = struct{}{}
		}
	}
}

// IsAllowedOrigin checks whether an Origin header value should be trusted.
// It allows explicitly configured origins, localhost, private/RFC1918 IPs,
// link-local IPs, .local hostnames, and single-label hostnames (no dots).
// Other public internet origins are blocked.
func IsAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}

	extraOriginsMu.RLock()
	_, explicit := extraOrigins[strings.ToLower(strings.TrimRight(origin, "/"))]
	extraOriginsMu.RUnlock()
	if explicit {
		return true
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}

	hostname := parsed.Hostname()

	// Allow localhost
	if hostname == "localhost" {
		return true
	}

	// Allow .local mDNS hostnames (e.g., office-nas.local)
	if strings.HasSuffix(hostname, ".local") {
		return true
	}

	// Allow single-label hostnames (no dots = LAN names)
	if !strings.Contains(hostname, ".") {
		return true
	}

	// Check if it's an IP address
	ip := net.ParseIP(hostname)
	if ip != nil {
		return isPrivateIP(ip)
	}

	return false
}

// isPrivateIP returns true for RFC1918, loopback, and link-local addresses.
func isPrivateIP(ip net.IP) bool {
	privateRanges := []struct {
		network *net.IPNet
	}{
		{mustParseCIDR("10.0.0.0/8")},
		{mustParseCIDR("172.16.0.0/12")},
		{mustParseCIDR("192.168.0.0/16")},
		{mustParseCIDR("127.0.0.0/8")},
		{mustParseCIDR("169.254.0.0/16")}, // link-local IPv4
		{mustParseCIDR("::1/128")},        // loopback IPv6
		{mustParseCIDR("fe80::/10")},      // link-local IPv6
		{mustParseCIDR("fc00::/7")},       // unique local IPv6
	}

	for _, r := range privateRanges {
		if r.network.Contains(ip) {
			return true
		}
	}
	return false
}

func mustParseCIDR(s string) *net.IPNet {
	_, network, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	return network
}
