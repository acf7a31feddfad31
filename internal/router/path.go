package router

import "strings"

// normalizePath collapses "//" sequences, inserts a missing leading "/",
// and trims a trailing "/" (except on the root "/"). Grounded on
// heimdall's router.rs make_path: the same three rewrites, same order.
func normalizePath(path string) string {
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}
	if path == "" {
		path = "/"
	}
	return path
}

// segments splits a normalized path into its non-empty components.
func segments(path string) []string {
	parts := strings.Split(path, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
