// Package gateway glues the router, proxy rewriter, and upstream client
// into the front-end dispatcher and TLS acceptor pipeline. Its addon
// architecture (Addon interface + AddonRegistry) is kept in shape from the
// teacher's proxy/addon.go and proxy/addon_registry.go, but repointed at
// this gateway's own cross-cutting concerns (structured logging, connection
// accounting) rather than pluggable MITM traffic rewriting — see DESIGN.md.
package gateway

import (
	"net/http"
	"time"
)

// Addon receives lifecycle notifications from the front-end dispatcher and
// acceptor pipeline. Implementations must not block for long: hooks run
// inline with the connection/request they describe.
type Addon interface {
	// ClientConnected fires once the TLS handshake for a new connection
	// completes successfully.
	ClientConnected(*ConnContext)

	// ClientDisconnected fires when a connection is closed, by either
	// side.
	ClientDisconnected(*ConnContext)

	// RequestStart fires after request headers are read, before routing.
	RequestStart(*ConnContext, *http.Request)

	// RequestDone fires after the response (or rejection) has been fully
	// written back to the client.
	RequestDone(*ConnContext, *http.Request, int, time.Duration)
}

// BaseAddon implements Addon with no-op methods; embed it to implement only
// the hooks you care about.
type BaseAddon struct{}

func (BaseAddon) ClientConnected(*ConnContext)    {}
func (BaseAddon) ClientDisconnected(*ConnContext) {}
func (BaseAddon) RequestStart(*ConnContext, *http.Request) {}
func (BaseAddon) RequestDone(*ConnContext, *http.Request, int, time.Duration) {}
