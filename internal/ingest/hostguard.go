package ingest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

const maxRedirects = 10

// ErrBlockedHost is returned when a feed URL or one of its redirects resolves
// to a loopback, private or link-local address.
var ErrBlockedHost = errors.New("blocked non-public host")

var blockedRanges = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("fc00::/7"),
	netip.MustParsePrefix("fe80::/10"),
}

func blockedAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	if !addr.IsValid() || addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() ||
		addr.IsMulticast() || addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() {
		return true
	}
	for _, p := range blockedRanges {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// resolvePublic fails unless every address host resolves to is public.
func resolvePublic(ctx context.Context, host string) error {
	lower := strings.ToLower(strings.TrimSuffix(host, "."))
	if lower == "localhost" || strings.HasSuffix(lower, ".localhost") || strings.HasSuffix(lower, ".local") {
		return fmt.Errorf("%w: %s", ErrBlockedHost, host)
	}

	addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return err
	}
	if len(addrs) == 0 {
		return fmt.Errorf("%s resolved to no addresses", host)
	}
	for _, a := range addrs {
		if blockedAddr(a) {
			return fmt.Errorf("%w: %s (%s)", ErrBlockedHost, host, a)
		}
	}
	return nil
}

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// publicOnly checks the target host before handing the dial to d.
func publicOnly(d *net.Dialer) dialFunc {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		if err := resolvePublic(ctx, host); err != nil {
			return nil, err
		}
		return d.DialContext(ctx, network, addr)
	}
}

// redirectPolicy caps redirect chains. With guard set, each hop must stay on
// http(s) and resolve to public addresses.
func redirectPolicy(guard bool) func(req *http.Request, via []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		if !guard {
			return nil
		}
		if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
			return fmt.Errorf("redirect to %q scheme blocked", req.URL.Scheme)
		}
		host := req.URL.Hostname()
		if host == "" {
			return errors.New("redirect host missing")
		}
		return resolvePublic(req.Context(), host)
	}
}
