package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// TrustedProxies rewrites RemoteAddr from forwarding headers via chi's RealIP,
// but only for requests whose peer address falls inside one of the given
// CIDRs or IPs. Requests from any other peer keep their connection address.
func TrustedProxies(proxies []string) func(http.Handler) http.Handler {
	nets := parseNets(proxies)
	return func(next http.Handler) http.Handler {
		if len(nets) == 0 {
			return next
		}
		forwarded := chimiddleware.RealIP(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if trusted(nets, peerIP(r)) {
				forwarded.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func parseNets(entries []string) []*net.IPNet {
	var nets []*net.IPNet
	for _, e := range entries {
		if !strings.Contains(e, "/") {
			if ip := net.ParseIP(e); ip != nil && ip.To4() != nil {
				e += "/32"
			} else {
				e += "/128"
			}
		}
		_, n, err := net.ParseCIDR(e)
		if err != nil {
			slog.Warn("ignoring invalid trusted proxy", "entry", e, "err", err)
			continue
		}
		nets = append(nets, n)
	}
	return nets
}

func trusted(nets []*net.IPNet, ip net.IP) bool {
	if ip == nil {
		return false
	}
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func peerIP(r *http.Request) net.IP {
	return net.ParseIP(realIP(r))
}

// realIP is the key used by the limiters: the connection peer, or the
// forwarded client once TrustedProxies has rewritten RemoteAddr.
func realIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
