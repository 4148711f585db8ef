package web

import (
	"net"
	"net/http"
	"strings"

	"github.com/JonMunkholm/jobtracker/internal/core"
)

// OwnerHeader carries the owner identity. Requests without it share the
// default owner.
const OwnerHeader = "X-Owner-ID"

// ownerID returns the owner for r.
func ownerID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(OwnerHeader)); id != "" {
		return id
	}
	return core.DefaultOwnerID
}

// clientIP returns the client address without its port. TrustedRealIP has
// already replaced RemoteAddr when the request came through a proxy.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
