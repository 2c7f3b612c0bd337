package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rateLimitedEcho(config RateLimiterConfig) *echo.Echo {
	e := echo.New()
	e.Use(NewRateLimiter(config).Middleware())
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	})
	return e
}

func doRequest(e *echo.Echo, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderXRealIP, ip)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter(t *testing.T) {
	t.Run("Success - Requests within burst pass", func(t *testing.T) {
		e := rateLimitedEcho(RateLimiterConfig{RequestsPerSecond: 1, Burst: 3})

		for i := 0; i < 3; i++ {
			rec := doRequest(e, "10.0.0.1")
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("Failure - Exceeding the burst is rejected", func(t *testing.T) {
		e := rateLimitedEcho(RateLimiterConfig{RequestsPerSecond: 1, Burst: 2})

		doRequest(e, "10.0.0.2")
		doRequest(e, "10.0.0.2")
		rec := doRequest(e, "10.0.0.2")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("Success - Limits are per IP", func(t *testing.T) {
		e := rateLimitedEcho(RateLimiterConfig{RequestsPerSecond: 1, Burst: 1})

		require.Equal(t, http.StatusOK, doRequest(e, "10.0.0.3").Code)
		assert.Equal(t, http.StatusTooManyRequests, doRequest(e, "10.0.0.3").Code)
		assert.Equal(t, http.StatusOK, doRequest(e, "10.0.0.4").Code)
	})

	t.Run("Success - Tokens refill over time", func(t *testing.T) {
		e := rateLimitedEcho(RateLimiterConfig{RequestsPerSecond: 50, Burst: 1})

		require.Equal(t, http.StatusOK, doRequest(e, "10.0.0.5").Code)
		assert.Equal(t, http.StatusTooManyRequests, doRequest(e, "10.0.0.5").Code)

		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, http.StatusOK, doRequest(e, "10.0.0.5").Code)
	})
}

func TestSecurityHeaders(t *testing.T) {
	e := echo.New()
	e.Use(SecurityHeaders(SecurityHeadersConfig{}))
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestAPIVersion(t *testing.T) {
	e := echo.New()
	e.Use(APIVersion("v1"))
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "v1", rec.Header().Get("X-API-Version"))
}
