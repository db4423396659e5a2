package httpapi

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

const unknownClientIP = "unknown"

// clientIPResolver picks the address rate limits are keyed on. Forwarding
// headers are honored only when the socket peer is a trusted proxy, since
// any client can set them.
type clientIPResolver struct {
	trusted []netip.Prefix
}

func newClientIPResolver(trusted []netip.Prefix) clientIPResolver {
	return clientIPResolver{trusted: trusted}
}

func (c clientIPResolver) isTrusted(addr netip.Addr) bool {
	for _, prefix := range c.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func (c clientIPResolver) resolve(r *http.Request) string {
	peer, ok := parseClientAddr(r.RemoteAddr)
	if !ok {
		return unknownClientIP
	}
	if !c.isTrusted(peer) {
		return peer.String()
	}

	if addr, ok := parseClientAddr(r.Header.Get("Fly-Client-IP")); ok {
		return addr.String()
	}
	if addr, ok := c.forwardedFor(r.Header.Values("X-Forwarded-For")); ok {
		return addr.String()
	}
	if addr, ok := parseClientAddr(r.Header.Get("X-Real-IP")); ok {
		return addr.String()
	}
	return peer.String()
}

// forwardedFor walks X-Forwarded-For right to left and returns the first hop
// that is not one of our proxies. Hops left of it are client-controlled.
func (c clientIPResolver) forwardedFor(values []string) (netip.Addr, bool) {
	hops := strings.Split(strings.Join(values, ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		addr, ok := parseClientAddr(hops[i])
		if !ok {
			// An unparsable hop means the chain can't be trusted past here.
			return netip.Addr{}, false
		}
		if !c.isTrusted(addr) {
			return addr, true
		}
	}
	return netip.Addr{}, false
}

func (c clientIPResolver) rateLimitKey(r *http.Request) string {
	return c.resolve(r)
}

func (c clientIPResolver) pathRateLimitKey(r *http.Request) string {
	return c.resolve(r) + ":" + r.URL.Path
}

func parseClientAddr(raw string) (netip.Addr, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return netip.Addr{}, false
	}
	if host, _, err := net.SplitHostPort(raw); err == nil {
		raw = host
	}
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
