package observability

import (
	"net"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Audit writes one security audit record for the request. Callers add the
// actor, target and outcome as attrs.
func Audit(r *http.Request, event string, attrs ...any) {
	requestID := chimiddleware.GetReqID(r.Context())
	if requestID == "" {
		requestID = r.Header.Get("X-Request-Id")
	}
	base := []any{
		"audit", true,
		"event", event,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", requestID,
		"client_ip", remoteIP(r),
	}
	NewLogger().InfoContext(r.Context(), "audit", append(base, attrs...)...)
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
