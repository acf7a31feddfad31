package scheme_test

import (
	"net/url"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/edgegateway/edgegateway/internal/scheme"
)

func TestRewriteToHTTPS(t *testing.T) {
	c := qt.New(t)
	c.Assert(scheme.RewriteToHTTPS("www.foo.bar", ""), qt.Equals, "https://www.foo.bar")
	c.Assert(scheme.RewriteToHTTPS("www.foo.bar", "/?foo=bar"), qt.Equals, "https://www.foo.bar/?foo=bar")
	c.Assert(scheme.RewriteToHTTPS("", "/install.html"), qt.Equals, "https://localhost/install.html")
	c.Assert(scheme.RewriteToHTTPS("www.rust-lang.org", "/install.html?foo=bar&bar=foo"),
		qt.Equals, "https://www.rust-lang.org/install.html?foo=bar&bar=foo")
}

func TestRewriteToHTTPSIdempotent(t *testing.T) {
	c := qt.New(t)
	once := scheme.RewriteToHTTPS("host", "/install.html?x=1")
	// Re-deriving authority+path from the already-https URL and rewriting
	// again must yield the same string.
	u, err := url.Parse(once)
	c.Assert(err, qt.IsNil)
	twice := scheme.RewriteToHTTPS(u.Host, u.RequestURI())
	c.Assert(twice, qt.Equals, once)
}

func TestAcmeChallengeTokenRecognizesValidPath(t *testing.T) {
	c := qt.New(t)
	token, ok := scheme.AcmeChallengeToken("GET", "/.well-known/acme-challenge/TOKEN123")
	c.Assert(ok, qt.IsTrue)
	c.Assert(token, qt.Equals, "TOKEN123")
}

func TestAcmeChallengeTokenRejectsWrongMethod(t *testing.T) {
	c := qt.New(t)
	_, ok := scheme.AcmeChallengeToken("POST", "/.well-known/acme-challenge/TOKEN123")
	c.Assert(ok, qt.IsFalse)
}

func TestAcmeChallengeTokenRejectsTraversal(t *testing.T) {
	c := qt.New(t)
	_, ok := scheme.AcmeChallengeToken("GET", "/.well-known/acme-challenge/../../etc/passwd")
	c.Assert(ok, qt.IsFalse)
}

func TestAcmeChallengeTokenRejectsWrongDepth(t *testing.T) {
	c := qt.New(t)
	for _, path := range []string{
		"/.well-known/acme-challenge",
		"/.well-known/acme-challenge/",
		"/.well-known/acme-challenge/TOKEN/extra",
		"/acme-challenge/TOKEN",
	} {
		_, ok := scheme.AcmeChallengeToken("GET", path)
		c.Assert(ok, qt.IsFalse, qt.Commentf("path %s", path))
	}
}
