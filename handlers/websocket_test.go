package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func reqWithOrigin(origin string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/ws/abc", nil)
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	return r
}

func TestCheckWSOriginAllowsWildcard(t *testing.T) {
	check := checkWSOrigin([]string{"*"})
	assert.True(t, check(reqWithOrigin("https://evil.example")))
}

func TestCheckWSOriginAllowsMatchingHost(t *testing.T) {
	check := checkWSOrigin([]string{"https://app.example.com"})
	assert.True(t, check(reqWithOrigin("https://app.example.com")))
}

func TestCheckWSOriginRejectsMismatch(t *testing.T) {
	check := checkWSOrigin([]string{"https://app.example.com"})
	assert.False(t, check(reqWithOrigin("https://other.example.com")))
}

func TestCheckWSOriginAllowsMissingOriginHeader(t *testing.T) {
	check := checkWSOrigin([]string{"https://app.example.com"})
	assert.True(t, check(reqWithOrigin("")))
}
