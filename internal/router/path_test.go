package router

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestNormalizePathCases(t *testing.T) {
	c := qt.New(t)
	c.Assert(normalizePath(""), qt.Equals, "/")
	c.Assert(normalizePath("/"), qt.Equals, "/")
	c.Assert(normalizePath("home"), qt.Equals, "/home")
	c.Assert(normalizePath("//home"), qt.Equals, "/home")
	c.Assert(normalizePath("/home/"), qt.Equals, "/home")
	c.Assert(normalizePath("/home//stuff/"), qt.Equals, "/home/stuff")
}

func TestNormalizePathIdempotent(t *testing.T) {
	c := qt.New(t)
	for _, p := range []string{"", "/", "//a//b/", "a/b/c", "/a/b/c/", "////"} {
		once := normalizePath(p)
		twice := normalizePath(once)
		c.Assert(twice, qt.Equals, once, qt.Commentf("input %q", p))
	}
}
