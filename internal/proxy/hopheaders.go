package proxy

import (
	"net/http"
	"strings"
)

// baseHopByHop headers are connection-scoped and must never be forwarded in
// either direction, per spec: Host, Connection, Transfer-Encoding,
// Keep-Alive, Proxy-*, TE, Trailers, Upgrade.
var baseHopByHop = map[string]bool{
	"Connection":          true,
	"Host":                true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Proxy-Connection":    true,
	"TE":                  true,
	"Trailers":            true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
}

// copyHeaders copies src into dst, omitting hop-by-hop headers and any
// extra header named by src's own Connection header.
func copyHeaders(dst, src http.Header) {
	drop := make(map[string]bool, len(baseHopByHop))
	for k, v := range baseHopByHop {
		drop[k] = v
	}
	for _, v := range src.Values("Connection") {
		for _, name := range strings.Split(v, ",") {
			drop[http.CanonicalHeaderKey(strings.TrimSpace(name))] = true
		}
	}

	for k, vv := range src {
		if drop[http.CanonicalHeaderKey(k)] {
			continue
		}
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}
