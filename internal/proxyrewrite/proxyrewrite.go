// Package proxyrewrite prepares a client request for forwarding to an
// upstream: it strips RFC 7230 hop-by-hop headers, installs the resolved
// target URI, and attaches X-Forwarded-For. Grounded on heimdall's
// proxy.rs (prepare/strip_hbh/HBH_HEADERS): same header list, same
// insert-if-absent X-Forwarded-For policy, both kept as deliberate
// simplifications per spec.
package proxyrewrite

import (
	"net/http"
	"net/url"
)

// hopByHopHeaders are stripped from every forwarded request. The list is
// static: headers named dynamically inside a Connection header are not
// additionally stripped (see DESIGN.md Open Question decisions).
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailers",
	"Transfer-Encoding",
	"Upgrade",
}

// Prepare returns a ForwardableRequest: req with hop-by-hop headers
// removed, its URI replaced by targetURI, and X-Forwarded-For set to
// peerIP if absent. req is mutated in place and returned for convenience.
func Prepare(req *http.Request, peerIP string, targetURI string) (*http.Request, error) {
	stripHopByHop(req.Header)

	u, err := url.Parse(targetURI)
	if err != nil {
		return nil, err
	}
	req.URL = u
	// req.Host is left untouched: the client-facing Host header is
	// forwarded as-is (spec: no explicit Host rewrite). The upstream
	// http.Client dials req.URL.Host regardless of req.Host.
	req.RequestURI = ""

	if req.Header.Get("X-Forwarded-For") == "" {
		req.Header.Set("X-Forwarded-For", peerIP)
	}

	return req, nil
}

func stripHopByHop(h http.Header) {
	for _, name := range hopByHopHeaders {
		h.Del(name)
	}
}
