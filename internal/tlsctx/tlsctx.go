// Package tlsctx builds the server-side TLS configuration for the edge
// gateway's main listener: a single certificate+key identity, advertising
// ALPN h2 then http/1.1. Grounded on heimdall's tls.rs (load a PEM cert
// chain, load exactly one PKCS#8 private key, fail otherwise) and on
// cmd/dummycert's PEM/PKCS8 handling idiom from the teacher.
package tlsctx

import (
	"crypto/tls"
	"encoding/pem"
	"fmt"
	"os"

	"golang.org/x/net/http2"
)

// Build loads certFile (a PEM certificate chain) and keyFile (a PEM file
// containing exactly one PKCS#8 private key) and returns a server-side
// *tls.Config advertising ALPN h2 then http/1.1, TLS 1.2 minimum.
func Build(certFile, keyFile string) (*tls.Config, error) {
	certPEM, err := os.ReadFile(certFile)
	if err != nil {
		return nil, fmt.Errorf("read cert file: %w", err)
	}
	keyPEM, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("read private key file: %w", err)
	}

	if err := requireSingleKey(keyPEM); err != nil {
		return nil, err
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse certificate/key: %w", err)
	}

	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		NextProtos:   []string{http2.NextProtoTLS, "http/1.1"},
	}
	return cfg, nil
}

// requireSingleKey scans keyPEM's PEM blocks and fails unless exactly one
// private-key block is present, matching heimdall's tls.rs
// pkcs8_private_keys().len() != 1 check.
func requireSingleKey(keyPEM []byte) error {
	count := 0
	rest := keyPEM
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if isPrivateKeyBlock(block.Type) {
			count++
		}
	}
	switch count {
	case 0:
		return fmt.Errorf("expected a single private key, found none")
	case 1:
		return nil
	default:
		return fmt.Errorf("expected a single private key, found %d", count)
	}
}

func isPrivateKeyBlock(blockType string) bool {
	// Only PKCS#8 ("PRIVATE KEY") blocks count, as with pkcs8_private_keys.
	return blockType == "PRIVATE KEY"
}
