package gateway_test

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/edgegateway/edgegateway/internal/acl"
	"github.com/edgegateway/edgegateway/internal/gateway"
	"github.com/edgegateway/edgegateway/internal/router"
)

func TestAddonRegistryAddAndGet(t *testing.T) {
	c := qt.New(t)
	reg := gateway.NewAddonRegistry()
	c.Assert(reg.Get(), qt.HasLen, 0)

	reg.Add(gateway.BaseAddon{})
	reg.Add(gateway.BaseAddon{})
	c.Assert(reg.Get(), qt.HasLen, 2)
}

func TestConnContextRoundTripsThroughContext(t *testing.T) {
	c := qt.New(t)
	cc := &gateway.ConnContext{PeerAddr: "203.0.113.1:9999"}
	ctx := gateway.WithConnContext(context.Background(), cc)

	got, ok := gateway.GetConnContext(ctx)
	c.Assert(ok, qt.IsTrue)
	c.Assert(got, qt.Equals, cc)

	_, ok = gateway.GetConnContext(context.Background())
	c.Assert(ok, qt.IsFalse)
}

func TestDispatcherNotDefinedReturns404(t *testing.T) {
	c := qt.New(t)
	r := router.FromDefinitions(nil)
	d := gateway.NewDispatcher(r, http.DefaultClient, gateway.NewAddonRegistry())

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, req)

	c.Assert(rec.Code, qt.Equals, http.StatusNotFound)
	c.Assert(rec.Body.String(), qt.Equals, "No route defined!")
}

func TestDispatcherNotAllowedMethodReturns403(t *testing.T) {
	c := qt.New(t)
	allowed, err := acl.Parse([]string{"GET"})
	c.Assert(err, qt.IsNil)

	r := router.FromDefinitions([]router.Definition{
		{Source: "/home", TargetIP: "127.0.0.1", TargetPort: 8000, AllowedMethods: allowed},
	})
	d := gateway.NewDispatcher(r, http.DefaultClient, gateway.NewAddonRegistry())

	req := httptest.NewRequest(http.MethodPost, "/home", nil)
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, req)

	c.Assert(rec.Code, qt.Equals, http.StatusForbidden)
	c.Assert(rec.Body.String(), qt.Equals, "Invalid http method!")
}

func TestDispatcherProxiesToUpstream(t *testing.T) {
	c := qt.New(t)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.Assert(r.Header.Get("X-Forwarded-For"), qt.Not(qt.Equals), "")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("upstream body"))
	}))
	defer upstream.Close()

	host, portStr, err := net.SplitHostPort(upstream.Listener.Addr().String())
	c.Assert(err, qt.IsNil)
	port, err := strconv.Atoi(portStr)
	c.Assert(err, qt.IsNil)

	allowed, err := acl.Parse(nil)
	c.Assert(err, qt.IsNil)
	r := router.FromDefinitions([]router.Definition{
		{Source: "/svc", TargetIP: host, TargetPort: port, AllowedMethods: allowed},
	})
	d := gateway.NewDispatcher(r, upstream.Client(), gateway.NewAddonRegistry())

	req := httptest.NewRequest(http.MethodGet, "/svc", nil)
	req.RemoteAddr = "198.51.100.5:1234"
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, req)

	c.Assert(rec.Code, qt.Equals, http.StatusTeapot)
	c.Assert(rec.Body.String(), qt.Equals, "upstream body")
}

func TestListenerDropsFailedHandshakeAndKeepsServing(t *testing.T) {
	c := qt.New(t)

	tcpLn, err := net.Listen("tcp", "127.0.0.1:0")
	c.Assert(err, qt.IsNil)

	tlsConf := &tls.Config{Certificates: nil} // no certs: any handshake attempt fails
	registry := gateway.NewAddonRegistry()
	ln := gateway.NewListener(tcpLn, tlsConf, registry)

	acceptErr := make(chan error, 1)
	go func() {
		_, err := ln.Accept()
		acceptErr <- err
	}()

	plainConn, err := net.DialTimeout("tcp", tcpLn.Addr().String(), time.Second)
	c.Assert(err, qt.IsNil)
	defer plainConn.Close()

	// Write garbage; the server-side TLS handshake will fail and Accept
	// must retry rather than returning an error for this one connection.
	_, _ = plainConn.Write([]byte("not a tls hello"))

	c.Assert(ln.Close(), qt.IsNil)

	select {
	case err := <-acceptErr:
		// Only the listener close may end Accept, not the failed handshake.
		c.Assert(errors.Is(err, net.ErrClosed), qt.IsTrue, qt.Commentf("error %v", err))
	case <-time.After(2 * time.Second):
		c.Fatal("Accept did not return after listener close")
	}
}
