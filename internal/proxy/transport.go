package proxy

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"
)

// newTransport builds the http.Transport used for upstream calls. When
// denyPrivate is set, connections to loopback/private/link-local
// addresses are rejected — adapted from the gateway's safehttp transport,
// but opt-in here since proxying to a local mock LLM server on 127.0.0.1
// is the common development workflow this tool is built for.
func newTransport(connectTimeout time.Duration, denyPrivate bool) *http.Transport {
	dialer := &net.Dialer{Timeout: connectTimeout}
	return &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			if !denyPrivate {
				return conn, nil
			}

			host, _, _ := net.SplitHostPort(conn.RemoteAddr().String())
			ip := net.ParseIP(host)
			if ip == nil {
				conn.Close()
				return nil, fmt.Errorf("proxy: could not parse remote IP for %q", addr)
			}
			if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() {
				conn.Close()
				return nil, fmt.Errorf("proxy: target %s is a private address, denied by --deny-private-targets", ip)
			}
			return conn, nil
		},
	}
}
