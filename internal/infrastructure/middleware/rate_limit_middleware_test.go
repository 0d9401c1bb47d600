package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"canvasrelay/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRateLimitedRouter(cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(NewHTTPRateLimitMiddleware(cfg))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func doGet(router http.Handler, remoteAddr string, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	router.ServeHTTP(w, req)
	return w
}

// Test that when rate limiting is disabled, middleware lets all requests through.
func TestHTTPRateLimitMiddleware_Disabled_AllowsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	cfg.RateLimiting.Enabled = false
	router := newRateLimitedRouter(cfg)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doGet(router, "10.0.0.1:1234", nil).Code)
	}
}

// Test basic per-IP rate limiting behaviour.
func TestHTTPRateLimitMiddleware_Enabled_RateLimited(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	cfg.RateLimiting.Enabled = true
	cfg.RateLimiting.HTTP.RequestsPerSecond = 1
	cfg.RateLimiting.HTTP.Burst = 1
	cfg.RateLimiting.HTTP.MaxConcurrent = 0
	router := newRateLimitedRouter(cfg)

	assert.Equal(t, http.StatusOK, doGet(router, "10.0.0.1:1234", nil).Code)

	w := doGet(router, "10.0.0.1:5678", nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", body["error"])

	// A different client has its own budget.
	assert.Equal(t, http.StatusOK, doGet(router, "10.0.0.2:1234", nil).Code)
}

func TestHTTPRateLimitMiddleware_UsesForwardedFor(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	cfg.RateLimiting.Enabled = true
	cfg.RateLimiting.HTTP.RequestsPerSecond = 1
	cfg.RateLimiting.HTTP.Burst = 1
	router := newRateLimitedRouter(cfg)

	proxy := "192.168.0.10:80"
	assert.Equal(t, http.StatusOK, doGet(router, proxy, map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}).Code)
	assert.Equal(t, http.StatusOK, doGet(router, proxy, map[string]string{"X-Forwarded-For": "203.0.113.8"}).Code)
	assert.Equal(t, http.StatusTooManyRequests, doGet(router, proxy, map[string]string{"X-Forwarded-For": "203.0.113.7"}).Code)
}

func TestClientIP(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:4444"
	assert.Equal(t, "10.1.2.3", clientIP(req))

	req.Header.Set("X-Forwarded-For", "not-an-ip")
	assert.Equal(t, "10.1.2.3", clientIP(req))

	req.Header.Set("X-Forwarded-For", " 198.51.100.4 , 10.0.0.1")
	assert.Equal(t, "198.51.100.4", clientIP(req))
}
