package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"sshbridge/config"
)

func newTestRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(cfg))
	r.GET("/connections", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestCORSEchoesAllowedOrigin(t *testing.T) {
	cfg := &config.Config{AllowedOrigins: "https://app.example.com"}
	r := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/connections", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSOmitsHeaderForDisallowedOrigin(t *testing.T) {
	cfg := &config.Config{AllowedOrigins: "https://app.example.com"}
	r := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/connections", nil)
	req.Header.Set("Origin", "https://evil.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSAnswersPreflightWithNoContent(t *testing.T) {
	cfg := &config.Config{AllowedOrigins: "*"}
	r := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodOptions, "/connections", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}
