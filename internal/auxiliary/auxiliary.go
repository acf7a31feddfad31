// Package auxiliary implements the gateway's optional plaintext sidecar:
// serving ACME HTTP-01 challenge tokens from a local web root and/or
// redirecting everything else to the https scheme. Enabled iff the config's
// redirect_to_https flag is set or an acme_web_root is configured.
// Grounded on heimdall's acme/redirect handler (resolved from spec.md §4.7,
// since no corresponding source file survived distillation) and on the
// teacher's habit of a small dedicated http.Handler per concern.
package auxiliary

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/edgegateway/edgegateway/internal/scheme"
)

// Handler serves ACME HTTP-01 challenges and/or https redirects.
type Handler struct {
	AcmeWebRoot     string
	RedirectToHTTPS bool
	Logger          *slog.Logger
}

// NewHandler builds a Handler. logger may be nil, in which case
// slog.Default() is used.
func NewHandler(acmeWebRoot string, redirectToHTTPS bool, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{AcmeWebRoot: acmeWebRoot, RedirectToHTTPS: redirectToHTTPS, Logger: logger}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if h.AcmeWebRoot != "" {
		if token, ok := scheme.AcmeChallengeToken(req.Method, req.URL.Path); ok {
			h.serveChallenge(w, token)
			return
		}
	}

	if h.RedirectToHTTPS {
		location := scheme.RewriteToHTTPS(req.Host, requestURI(req))
		w.Header().Set("Location", location)
		w.WriteHeader(http.StatusMovedPermanently)
		return
	}

	w.WriteHeader(http.StatusForbidden)
	_, _ = io.WriteString(w, "Invalid request!")
}

// serveChallenge reads <AcmeWebRoot>/<token> and writes it as the response
// body. The token was already validated by scheme.AcmeChallengeToken to
// contain no path separators or traversal components, so joining it
// directly as a bare filename is safe.
func (h *Handler) serveChallenge(w http.ResponseWriter, token string) {
	data, err := os.ReadFile(filepath.Join(h.AcmeWebRoot, token))
	if err != nil {
		h.Logger.Debug("acme challenge token not found", "token", token, "error", err)
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "Token not found!")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func requestURI(req *http.Request) string {
	if req.URL.RawQuery != "" {
		return req.URL.Path + "?" + req.URL.RawQuery
	}
	return req.URL.Path
}
