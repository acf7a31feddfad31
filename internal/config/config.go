// Package config loads, validates, and writes the edge gateway's TOML
// configuration file. Field names and defaults are grounded on heimdall's
// config.rs; the serialization library (BurntSushi/toml) is drawn from the
// caddy example, since the teacher (go-mitmproxy) has no file-based config
// format of its own (see DESIGN.md).
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/edgegateway/edgegateway/internal/acl"
	"github.com/edgegateway/edgegateway/internal/router"
)

// defaultAuxiliaryListen is used when auxiliary services are enabled but no
// explicit auxiliary_listen address was configured.
const defaultAuxiliaryListen = "0.0.0.0:80"

// RouteDefinition is one [[routes]] table as read from TOML.
type RouteDefinition struct {
	Source         string   `toml:"source"`
	Target         string   `toml:"target"`
	TargetPath     string   `toml:"target_path"`
	AllowedMethods []string `toml:"allowed_methods"`
}

// Config is the immutable, validated top-level configuration.
type Config struct {
	Listen           string            `toml:"listen"`
	CertFile         string            `toml:"cert_file"`
	PKeyFile         string            `toml:"pkey_file"`
	AuxiliaryListen  string            `toml:"auxiliary_listen,omitempty"`
	RedirectToHTTPS  bool              `toml:"redirect_to_https"`
	AcmeWebRoot      string            `toml:"acme_web_root,omitempty"`
	Routes           []RouteDefinition `toml:"routes"`
}

// Default returns the default configuration written by the `default` CLI
// verb, mirroring heimdall's Config::default() (same listen address, same
// shape of two illustrative routes).
func Default() Config {
	return Config{
		Listen:   "0.0.0.0:8443",
		CertFile: "cert.pem",
		PKeyFile: "key.pem",
		Routes: []RouteDefinition{
			{Source: "/", Target: "127.0.0.1:8000"},
			{Source: "/stuff", Target: "127.0.0.1:7000", AllowedMethods: []string{"GET", "POST"}},
		},
	}
}

// Load reads and parses a TOML config file, returning a validated Config.
func Load(filename string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(filename, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WriteDefault serializes Default() as TOML to filename.
func WriteDefault(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	if err := enc.Encode(Default()); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// AuxiliaryEnabled reports whether the auxiliary listener should run.
func (c Config) AuxiliaryEnabled() bool {
	return c.RedirectToHTTPS || c.AcmeWebRoot != ""
}

// AuxiliaryAddr returns the configured auxiliary listen address, or the
// default when auxiliary services are enabled without an explicit one.
func (c Config) AuxiliaryAddr() string {
	if c.AuxiliaryListen != "" {
		return c.AuxiliaryListen
	}
	return defaultAuxiliaryListen
}

// RouterDefinitions resolves every RouteDefinition's allowed_methods and
// target ip:port into the form internal/router consumes. Unknown method
// tokens and malformed ip:port pairs are configuration errors, never
// deferred to request time (spec §4.4's "never a runtime error").
func (c Config) RouterDefinitions() ([]router.Definition, error) {
	defs := make([]router.Definition, 0, len(c.Routes))
	for _, rd := range c.Routes {
		allowed, err := acl.Parse(rd.AllowedMethods)
		if err != nil {
			return nil, fmt.Errorf("route %q: %w", rd.Source, err)
		}
		ip, port, err := splitIPPort(rd.Target)
		if err != nil {
			return nil, fmt.Errorf("route %q target: %w", rd.Source, err)
		}
		defs = append(defs, router.Definition{
			Source:         rd.Source,
			TargetIP:       ip,
			TargetPort:     port,
			TargetPath:     rd.TargetPath,
			AllowedMethods: allowed,
		})
	}
	return defs, nil
}

func (c Config) validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen is required")
	}
	if _, _, err := splitIPPort(c.Listen); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	if c.AuxiliaryListen != "" {
		if _, _, err := splitIPPort(c.AuxiliaryListen); err != nil {
			return fmt.Errorf("auxiliary_listen: %w", err)
		}
	}
	if c.CertFile == "" {
		return fmt.Errorf("cert_file is required")
	}
	if c.PKeyFile == "" {
		return fmt.Errorf("pkey_file is required")
	}
	if len(c.Routes) == 0 {
		return fmt.Errorf("at least one route is required")
	}
	if _, err := c.RouterDefinitions(); err != nil {
		return err
	}
	return nil
}

// splitIPPort parses "ip:port" into its components, rejecting hostnames:
// targets are DNS-less (spec §9).
func splitIPPort(addr string) (ip string, port int, err error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("malformed ip:port %q: %w", addr, err)
	}
	if net.ParseIP(host) == nil {
		return "", 0, fmt.Errorf("malformed ip:port %q: %q is not an IP literal", addr, host)
	}
	p, err := strconv.Atoi(portStr)
	if err != nil || p < 0 || p > 65535 {
		return "", 0, fmt.Errorf("malformed ip:port %q: invalid port", addr)
	}
	return host, p, nil
}
