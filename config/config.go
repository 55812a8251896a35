// Package config loads process configuration from the environment.
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the process-wide settings described in spec.md §6.
type Config struct {
	Port            string `envconfig:"PORT" default:"8080"`
	BasePath        string `envconfig:"BASE_PATH" default:""`
	IdleTimeoutMs   int64  `envconfig:"IDLE_TIMEOUT_MS" default:"600000"`
	SweepIntervalMs int64  `envconfig:"SWEEP_INTERVAL_MS" default:"30000"`
	MaxConnections  int    `envconfig:"MAX_CONNECTIONS" default:"100"`
	SSEHeartbeatMs  int64  `envconfig:"SSE_HEARTBEAT_MS" default:"15000"`
	AllowedOrigins  string `envconfig:"ALLOWED_ORIGINS" default:"*"`
}

// Load reads configuration from the environment, optionally seeded by a
// local .env file (development convenience only).
func Load() *Config {
	godotenv.Load()

	var c Config
	if err := envconfig.Process("", &c); err != nil {
		panic(err)
	}
	c.BasePath = normalizeBasePath(c.BasePath)
	return &c
}

// normalizeBasePath ensures a leading slash and strips any trailing one.
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.TrimSuffix(p, "/")
}

// Origins splits the comma-separated ALLOWED_ORIGINS value.
func (c *Config) Origins() []string {
	parts := strings.Split(c.AllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IdleTimeout returns the default idle budget as a time.Duration.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutMs) * time.Millisecond
}

// SweepInterval returns the sweeper tick period as a time.Duration.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMs) * time.Millisecond
}

// SSEHeartbeat returns the subscriber liveness tick period.
func (c *Config) SSEHeartbeat() time.Duration {
	return time.Duration(c.SSEHeartbeatMs) * time.Millisecond
}
