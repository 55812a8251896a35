package middleware

import (
	"github.com/gin-gonic/gin"

	"sshbridge/config"
)

// CORS implements spec.md §6: echo Origin when it matches the allow-list
// (or the list contains "*"), permit GET/POST/DELETE/OPTIONS, and answer
// OPTIONS with a bare 204.
func CORS(cfg *config.Config) gin.HandlerFunc {
	origins := cfg.Origins()
	allowAll := false
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
			continue
		}
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		if origin != "" && (allowAll || allowed[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "content-type, authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
