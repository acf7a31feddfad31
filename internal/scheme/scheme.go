// Package scheme provides the auxiliary listener's two small pure
// functions: rewriting a request URI's scheme to https, and recognizing an
// ACME HTTP-01 challenge path. Grounded on heimdall's util.rs (rewrite_uri)
// for the scheme rewrite; the ACME recognizer has no surviving Rust source
// file (filtered by the distillation's size cap) and is built directly from
// spec.md §4.7/§8.
package scheme

import "strings"

// RewriteToHTTPS builds the https URL for a request with the given
// authority and path/query, preserving both. An empty authority is
// replaced by "localhost". Idempotent: taking the authority and path/query
// back out of the result and rewriting again yields the same URL.
func RewriteToHTTPS(authority, pathAndQuery string) string {
	if authority == "" {
		authority = "localhost"
	}
	return "https://" + authority + pathAndQuery
}

// AcmeChallengeToken returns the challenge token and true iff method is GET
// and path has exactly the four components /, .well-known,
// acme-challenge, <token>. Any other method, depth, or a traversal
// attempt (".." as a component) returns ("", false).
func AcmeChallengeToken(method, path string) (string, bool) {
	if method != "GET" {
		return "", false
	}
	if !strings.HasPrefix(path, "/") {
		return "", false
	}
	parts := strings.Split(path, "/")
	// strings.Split("/.well-known/acme-challenge/TOKEN", "/") yields
	// ["", ".well-known", "acme-challenge", "TOKEN"] — four components.
	if len(parts) != 4 {
		return "", false
	}
	if parts[0] != "" || parts[1] != ".well-known" || parts[2] != "acme-challenge" {
		return "", false
	}
	token := parts[3]
	if token == "" || token == ".." || token == "." || strings.Contains(token, "/") {
		return "", false
	}
	return token, true
}
