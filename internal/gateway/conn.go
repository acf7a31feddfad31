package gateway

import (
	"context"
	"net"
	"time"

	uuid "github.com/satori/go.uuid"
	"go.uber.org/atomic"
)

// ConnContext carries the per-connection state a dispatcher and its addons
// need while serving requests off a single TLS connection: identity for
// correlating log lines, the negotiated ALPN protocol, and a running count
// of requests served on this connection. Grounded on the teacher's
// proxy/internal/conn.Context / ClientConn pair, trimmed to the fields an
// HTTPS reverse proxy (as opposed to a MITM forward proxy) actually needs.
type ConnContext struct {
	ID                 uuid.UUID
	PeerAddr           string
	NegotiatedProtocol string
	ConnectedAt        time.Time
	RequestCount       atomic.Uint32
}

// NewConnContext builds a ConnContext for a freshly handshaken connection.
func NewConnContext(c net.Conn, negotiatedProtocol string) *ConnContext {
	return &ConnContext{
		ID:                 uuid.NewV4(),
		PeerAddr:           c.RemoteAddr().String(),
		NegotiatedProtocol: negotiatedProtocol,
		ConnectedAt:        time.Now(),
	}
}

type connContextKey struct{}

// WithConnContext attaches cc to ctx for retrieval by GetConnContext.
func WithConnContext(ctx context.Context, cc *ConnContext) context.Context {
	return context.WithValue(ctx, connContextKey{}, cc)
}

// GetConnContext retrieves the ConnContext attached by the acceptor's
// http.Server.ConnContext hook. ok is false for any request context the
// acceptor did not build (for instance, in unit tests).
func GetConnContext(ctx context.Context) (*ConnContext, bool) {
	cc, ok := ctx.Value(connContextKey{}).(*ConnContext)
	return cc, ok
}
