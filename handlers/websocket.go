package handlers

import (
	"net/http"
	"net/url"
)

// checkWSOrigin validates the Origin header against the allow-list
// (adapted from the teacher's handlers/websocket.go). A missing Origin
// header (non-browser client) is always allowed; "*" in the allow-list
// allows every origin.
func checkWSOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
			continue
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			allowed[u.Host] = true
		}
	}
	return func(r *http.Request) bool {
		if allowAll {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return allowed[u.Host]
	}
}
