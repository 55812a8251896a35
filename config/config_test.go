package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBasePath(t *testing.T) {
	assert.Equal(t, "", normalizeBasePath(""))
	assert.Equal(t, "/api", normalizeBasePath("api"))
	assert.Equal(t, "/api", normalizeBasePath("/api/"))
	assert.Equal(t, "/api", normalizeBasePath("  /api  "))
}

func TestOriginsSplitsAndTrims(t *testing.T) {
	c := &Config{AllowedOrigins: "https://a.example, https://b.example ,,"}
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.Origins())
}

func TestDurationHelpers(t *testing.T) {
	c := &Config{IdleTimeoutMs: 1000, SweepIntervalMs: 2000, SSEHeartbeatMs: 3000}
	assert.Equal(t, time.Second, c.IdleTimeout())
	assert.Equal(t, 2*time.Second, c.SweepInterval())
	assert.Equal(t, 3*time.Second, c.SSEHeartbeat())
}
