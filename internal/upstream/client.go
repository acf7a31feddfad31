// Package upstream provides the HTTP client used to forward rewritten
// requests to a route's upstream target. It is deliberately opaque per
// spec §4.7/§7: one shared client, no retries, no redirect-following — the
// dispatcher's job ends at "perform this request and stream back whatever
// came out." Grounded on the teacher's proxy/internal/attacker client
// factory (DefaultClientFactory.CreateMainClient), trimmed from a
// multi-client MITM factory down to the single cleartext HTTP/1.1 client a
// reverse proxy with DNS-less IP:port upstreams needs.
package upstream

import (
	"net"
	"net/http"
	"time"
)

// dialTimeout bounds how long connecting to an upstream IP:port may take.
const dialTimeout = 10 * time.Second

// NewClient builds the shared upstream HTTP client: cleartext HTTP/1.1,
// redirects left to the caller (never auto-followed, since the response is
// streamed back to the original client as-is), compression left untouched
// so the upstream's exact bytes pass through unmodified.
func NewClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: dialTimeout,
			}).DialContext,
			DisableCompression:  true,
			ForceAttemptHTTP2:   false,
			MaxIdleConnsPerHost: 32,
		},
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Do executes req against client and returns the raw upstream response.
// Callers are responsible for copying the response body to the client and
// closing it; Do performs no buffering of its own (spec §4.5: streamed, not
// buffered).
func Do(client *http.Client, req *http.Request) (*http.Response, error) {
	return client.Do(req)
}
