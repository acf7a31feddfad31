// Command edgegateway runs the TLS-terminating reverse proxy: it loads a
// TOML configuration file, builds the TLS context, router, and upstream
// client, then serves the main listener and (if configured) the auxiliary
// plaintext listener concurrently. Grounded on the teacher's
// cmd/go-mitmproxy/main.go wiring style: log/slog set as the global logger
// at startup, and fatal setup errors logged with a phase field then
// os.Exit(1).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edgegateway/edgegateway/internal/auxiliary"
	"github.com/edgegateway/edgegateway/internal/config"
	"github.com/edgegateway/edgegateway/internal/gateway"
	"github.com/edgegateway/edgegateway/internal/router"
	"github.com/edgegateway/edgegateway/internal/tlsctx"
	"github.com/edgegateway/edgegateway/internal/upstream"
	"github.com/edgegateway/edgegateway/version"

	"golang.org/x/net/http2"
)

// shutdownGrace bounds how long in-flight connections get to finish once a
// shutdown signal arrives or a listener fails.
const shutdownGrace = 15 * time.Second

func main() {
	configureLogging()

	if len(os.Args) < 3 {
		usage()
		os.Exit(1)
	}

	verb, filename := os.Args[1], os.Args[2]
	switch verb {
	case "default":
		runDefault(filename)
	case "run":
		runGateway(filename)
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s <default|run> <FILE_NAME>\n", os.Args[0])
}

// configureLogging sets the global slog logger, honoring
// EDGEGATEWAY_LOG_LEVEL (one of debug, info, warn, error; default info).
func configureLogging() {
	level := slog.LevelInfo
	_ = level.UnmarshalText([]byte(os.Getenv("EDGEGATEWAY_LOG_LEVEL")))
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func runDefault(filename string) {
	if err := config.WriteDefault(filename); err != nil {
		slog.Error("failed to write default config", "phase", "default", "error", err)
		os.Exit(1)
	}
	slog.Info("wrote default configuration", "file", filename)
}

func runGateway(filename string) {
	cfg, err := config.Load(filename)
	if err != nil {
		slog.Error("failed to load config", "phase", "config", "error", err)
		os.Exit(1)
	}

	tlsConf, err := tlsctx.Build(cfg.CertFile, cfg.PKeyFile)
	if err != nil {
		slog.Error("failed to build tls context", "phase", "tls", "error", err)
		os.Exit(1)
	}

	defs, err := cfg.RouterDefinitions()
	if err != nil {
		slog.Error("failed to resolve routes", "phase", "router", "error", err)
		os.Exit(1)
	}
	r := router.FromDefinitions(defs)

	registry := gateway.NewAddonRegistry()
	registry.Add(gateway.NewLogAddon(slog.Default()))

	client := upstream.NewClient()
	dispatcher := gateway.NewDispatcher(r, client, registry)

	tcpLn, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		slog.Error("failed to bind main listener", "phase", "bind", "addr", cfg.Listen, "error", err)
		os.Exit(1)
	}

	acceptor := gateway.NewListener(tcpLn, tlsConf, registry)
	mainServer := &http.Server{
		Handler:     dispatcher,
		ConnContext: gateway.ConnContextHook(),
	}
	// Since TLS is terminated explicitly by the acceptor rather than via
	// ServeTLS, h2 support must be wired in manually: ConfigureServer
	// registers the TLSNextProto hook net/http's connection loop consults
	// once it sees a completed handshake negotiating "h2".
	if err := http2.ConfigureServer(mainServer, &http2.Server{}); err != nil {
		slog.Error("failed to configure http2", "phase", "http2", "error", err)
		os.Exit(1)
	}

	slog.Info("edge gateway starting", "version", version.String(), "listen", cfg.Listen)

	errCh := make(chan error, 2)
	go func() {
		errCh <- mainServer.Serve(acceptor)
	}()

	var auxServer *http.Server
	if cfg.AuxiliaryEnabled() {
		auxHandler := auxiliary.NewHandler(cfg.AcmeWebRoot, cfg.RedirectToHTTPS, slog.Default())
		auxServer = &http.Server{Addr: cfg.AuxiliaryAddr(), Handler: auxHandler}
		slog.Info("auxiliary listener starting", "listen", cfg.AuxiliaryAddr())
		go func() {
			errCh <- auxServer.ListenAndServe()
		}()
	}

	waitForShutdown(errCh, mainServer, auxServer)
}

func waitForShutdown(errCh <-chan error, mainServer, auxServer *http.Server) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("listener failed", "phase", "serve", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	_ = mainServer.Shutdown(ctx)
	if auxServer != nil {
		_ = auxServer.Shutdown(ctx)
	}
}
