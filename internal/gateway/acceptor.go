package gateway

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"
)

// handshakeTimeout bounds how long a single TLS handshake may take before
// the acceptor gives up on that connection and moves on to the next one.
const handshakeTimeout = 10 * time.Second

// Listener wraps a bound TCP listener and produces a sequence of
// successfully handshaken TLS connections. A failed TCP accept or a failed
// TLS handshake is logged and the offending connection dropped; the
// listener itself keeps running, matching the contract that one yielded
// item is one successfully handshaken stream. Grounded on the teacher's
// proxy/entry.go wrapListener, generalized from MITM connection wrapping to
// plain server-side TLS termination.
type Listener struct {
	inner    net.Listener
	tlsConf  *tls.Config
	registry *AddonRegistry
}

// NewListener builds a Listener around inner, terminating TLS with tlsConf
// and notifying registry's addons of connection lifecycle events.
func NewListener(inner net.Listener, tlsConf *tls.Config, registry *AddonRegistry) *Listener {
	return &Listener{inner: inner, tlsConf: tlsConf, registry: registry}
}

// Accept blocks until a connection completes a TLS handshake, retrying
// past any TCP-accept or handshake failure. It returns an error only once
// the underlying listener has been closed (net.ErrClosed); every other
// accept error is logged and retried. The returned connection is the
// *tls.Conn itself, so net/http can dispatch "h2" via TLSNextProto.
func (l *Listener) Accept() (net.Conn, error) {
	for {
		c, err := l.inner.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil, err
			}
			slog.Error("tcp accept failed", "error", err)
			continue
		}

		tracked := &trackedConn{Conn: c, registry: l.registry}
		tlsConn := tls.Server(tracked, l.tlsConf)
		ctx, cancel := context.WithTimeout(context.Background(), handshakeTimeout)
		err = tlsConn.HandshakeContext(ctx)
		cancel()
		if err != nil {
			slog.Error("tls handshake failed", "peer", c.RemoteAddr().String(), "error", err)
			_ = c.Close()
			continue
		}

		cc := NewConnContext(tlsConn, tlsConn.ConnectionState().NegotiatedProtocol)
		tracked.ctx = cc
		for _, addon := range l.registry.Get() {
			addon.ClientConnected(cc)
		}

		return tlsConn, nil
	}
}

func (l *Listener) Close() error   { return l.inner.Close() }
func (l *Listener) Addr() net.Addr { return l.inner.Addr() }

// trackedConn fires ClientDisconnected exactly once when the connection is
// closed, by either the client or the HTTP server.
type trackedConn struct {
	net.Conn
	ctx      *ConnContext
	registry *AddonRegistry
	once     sync.Once
}

func (c *trackedConn) Close() error {
	err := c.Conn.Close()
	c.once.Do(func() {
		for _, addon := range c.registry.Get() {
			addon.ClientDisconnected(c.ctx)
		}
	})
	return err
}

// ConnContextHook returns the http.Server.ConnContext function that
// attaches the ConnContext built during Accept to each request's context.
func ConnContextHook() func(ctx context.Context, c net.Conn) context.Context {
	return func(ctx context.Context, c net.Conn) context.Context {
		if tlsConn, ok := c.(*tls.Conn); ok {
			if tc, ok := tlsConn.NetConn().(*trackedConn); ok {
				return WithConnContext(ctx, tc.ctx)
			}
		}
		return ctx
	}
}
