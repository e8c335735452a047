package tenant

import (
	"net"
	"strings"
)

// Host is a parsed request host.
type Host struct {
	Name      string
	Subdomain string
	Loopback  bool
}

// ParseHost extracts the tenant subdomain from a Host header value: the
// leading label in front of baseDomain, or without a base domain the leading
// label of hosts that have at least three labels.
func ParseHost(raw, baseDomain string) Host {
	name := strings.ToLower(strings.TrimSpace(raw))
	if h, _, err := net.SplitHostPort(name); err == nil {
		name = h
	}
	name = strings.Trim(name, "[]")
	name = strings.TrimSuffix(name, ".")

	h := Host{Name: name}
	if ip := net.ParseIP(name); ip != nil {
		h.Loopback = ip.IsLoopback()
		return h
	}
	if name == "localhost" || strings.HasSuffix(name, ".localhost") {
		h.Loopback = true
		h.Subdomain = leadingLabel(strings.TrimSuffix(strings.TrimSuffix(name, "localhost"), "."))
		return h
	}

	base := strings.Trim(strings.ToLower(baseDomain), ".")
	if base != "" {
		if name == base || !strings.HasSuffix(name, "."+base) {
			return h
		}
		h.Subdomain = leadingLabel(strings.TrimSuffix(name, "."+base))
		return h
	}

	labels := strings.Split(name, ".")
	if len(labels) >= 3 {
		h.Subdomain = labels[0]
	}
	return h
}

func leadingLabel(name string) string {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}
