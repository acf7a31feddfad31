package gateway

import (
	"log/slog"
	"net/http"
	"time"
)

// LogAddon emits one structured log line per connection lifecycle event and
// per completed request, via log/slog. Grounded on the teacher's
// proxy/instance_log_addon.go event shape (client_connected,
// client_disconnected, request_completed), adapted from the teacher's
// custom InstanceLogger to the stdlib structured logger used across this
// gateway's ambient stack.
type LogAddon struct {
	BaseAddon
	logger *slog.Logger
}

// NewLogAddon builds a LogAddon writing through logger, or slog.Default()
// if logger is nil.
func NewLogAddon(logger *slog.Logger) *LogAddon {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogAddon{logger: logger}
}

func (a *LogAddon) ClientConnected(cc *ConnContext) {
	a.logger.Info("client connected",
		"event", "client_connected",
		"conn_id", cc.ID.String(),
		"peer_addr", cc.PeerAddr,
		"alpn", cc.NegotiatedProtocol,
	)
}

func (a *LogAddon) ClientDisconnected(cc *ConnContext) {
	a.logger.Info("client disconnected",
		"event", "client_disconnected",
		"conn_id", cc.ID.String(),
		"peer_addr", cc.PeerAddr,
		"requests_served", cc.RequestCount.Load(),
	)
}

func (a *LogAddon) RequestStart(cc *ConnContext, req *http.Request) {
	a.logger.Debug("request received",
		"event", "request_start",
		"conn_id", connID(cc),
		"method", req.Method,
		"path", req.URL.Path,
	)
}

func (a *LogAddon) RequestDone(cc *ConnContext, req *http.Request, status int, duration time.Duration) {
	a.logger.Info("request completed",
		"event", "request_done",
		"conn_id", connID(cc),
		"method", req.Method,
		"path", req.URL.Path,
		"status", status,
		"duration_ms", duration.Milliseconds(),
	)
}

func connID(cc *ConnContext) string {
	if cc == nil {
		return ""
	}
	return cc.ID.String()
}
