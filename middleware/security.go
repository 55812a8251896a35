package middleware

import "github.com/gin-gonic/gin"

// SecurityHeaders sets the baseline response headers the teacher's
// proxy applies to every route. The admin facade and the demo UI it
// serves warrant the same defaults even though this system proxies SSH
// rather than a code-server instance.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "SAMEORIGIN")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		c.Header("Content-Security-Policy",
			"default-src 'self'; "+
				"script-src 'self' 'unsafe-inline'; "+
				"style-src 'self' 'unsafe-inline'; "+
				"img-src 'self' data:; "+
				"connect-src 'self' wss: ws:; "+
				"frame-src 'none';")
		c.Next()
	}
}
