// Package router compiles a route table into a path-pattern trie and
// evaluates incoming requests against it, producing either a target upstream
// URI or a structured rejection. Grounded on heimdall's router.rs (the
// original_source this spec was distilled from): normalize-then-insert at
// compile time, normalize-then-lookup-then-build-URI at eval time.
package router

import (
	"net/http"
	"strconv"

	"github.com/edgegateway/edgegateway/internal/acl"
)

// Target is the compiled form of a route definition, stored as a trie leaf.
// Owned by the Router; never mutated after compilation.
type Target struct {
	IP             string
	Port           int
	Path           string
	AllowedMethods acl.AllowedMethods
}

// Definition is the input shape used to build a Router: one route as
// configured (source pattern, upstream target, optional path prefix, and
// a parsed method allow-list).
type Definition struct {
	Source         string
	TargetIP       string
	TargetPort     int
	TargetPath     string
	AllowedMethods acl.AllowedMethods
}

// Outcome is the result of evaluating a request against the Router.
type Outcome int

const (
	// Success means the path matched a route and the method was admitted.
	Success Outcome = iota
	// NotDefined means no route pattern matched the request path.
	NotDefined
	// NotAllowedMethod means a route matched but its allow-list rejected
	// the request method.
	NotAllowedMethod
)

// Router holds an immutable trie mapping normalized path patterns to
// Targets. Safe to share across concurrent request handlers: there is no
// interior mutation after FromDefinitions returns.
type Router struct {
	root *node
}

// FromDefinitions compiles an ordered list of route definitions into a
// Router. Definitions are inserted in order; a later source pattern that
// normalizes identically to an earlier one overlays it.
func FromDefinitions(defs []Definition) *Router {
	root := newNode()
	for _, d := range defs {
		root.insert(d.Source, Target{
			IP:             d.TargetIP,
			Port:           d.TargetPort,
			Path:           d.TargetPath,
			AllowedMethods: d.AllowedMethods,
		})
	}
	return &Router{root: root}
}

// Eval evaluates req against the trie and returns the outcome. On Success,
// uri is the upstream URI the request should be forwarded to.
func (r *Router) Eval(req *http.Request) (outcome Outcome, uri string) {
	target, bindings, ok := r.root.find(req.URL.Path)
	if !ok {
		return NotDefined, ""
	}
	if !target.AllowedMethods.Contains(req.Method) {
		return NotAllowedMethod, ""
	}
	return Success, buildURI(target, bindings, req.URL.RawQuery, req.URL.ForceQuery || req.URL.RawQuery != "")
}

// buildURI assembles the upstream URI as raw text rather than via net/url,
// since the query string must pass through byte-for-byte with no
// reencoding (spec: "Query string is passed through verbatim").
func buildURI(target *Target, bindings []paramBinding, rawQuery string, hasQuery bool) string {
	authority := target.IP + ":" + strconv.Itoa(target.Port)
	path := target.Path
	for _, b := range bindings {
		path += "/" + b.value
	}
	if hasQuery && path == "" {
		path = "/"
	}

	out := "http://" + authority + path
	if hasQuery {
		out += "?" + rawQuery
	}
	return out
}
