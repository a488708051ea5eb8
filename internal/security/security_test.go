package security

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type countingRecorder struct {
	blocks       int
	authFailures int
}

func (r *countingRecorder) IncrementRateLimitBlock() { r.blocks++ }
func (r *countingRecorder) IncrementAuthFailure()    { r.authFailures++ }

func TestSecurityConfig(t *testing.T) {
	config := DefaultSecurityConfig()

	assert.Equal(t, 4000, config.MaxInputLength)
	assert.Equal(t, 60, config.MaxRequestsPerMin)
	assert.Equal(t, 10*time.Second, config.RequestTimeout)
	assert.False(t, config.EnableHSTS)
}

func TestValidateInput(t *testing.T) {
	config := DefaultSecurityConfig()
	config.MaxInputLength = 20
	sm := NewSecurityMiddleware(config, nil)

	tests := []struct {
		name        string
		input       string
		expectError bool
		errorMsg    string
	}{
		{
			name:  "numbers",
			input: "1, 2, -3.5, 4",
		},
		{
			name:  "double dash is a valid number separator",
			input: "--4 +5",
		},
		{
			name:  "length counts runes",
			input: strings.Repeat("é", 20),
		},
		{
			name:        "input too long",
			input:       strings.Repeat("1", 21),
			expectError: true,
			errorMsg:    "input exceeds maximum length",
		},
		{
			name:        "null bytes",
			input:       "1\x002",
			expectError: true,
			errorMsg:    "input contains invalid characters",
		},
		{
			name:        "invalid UTF-8",
			input:       "1\xff\xfe2",
			expectError: true,
			errorMsg:    "input contains invalid UTF-8 encoding",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sm.ValidateInput(tt.input)
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateOptions(t *testing.T) {
	config := DefaultSecurityConfig()
	config.MaxInputLength = 5
	sm := NewSecurityMiddleware(config, nil)

	assert.NoError(t, sm.ValidateOptions(map[string]string{"type": "cubic"}))

	err := sm.ValidateOptions(map[string]string{"x": "1 2 3 4 5"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `option "x"`)
}

func TestSecurityHeaders(t *testing.T) {
	sm := NewSecurityMiddleware(DefaultSecurityConfig(), nil)

	router := gin.New()
	router.Use(sm.SecurityHeaders)
	router.GET("/api/v1/commands", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/swagger/index.html", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/commands", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "default-src 'none'; frame-ancestors 'none'", w.Header().Get("Content-Security-Policy"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "'unsafe-inline'")
}

func TestValidateContentType(t *testing.T) {
	sm := NewSecurityMiddleware(DefaultSecurityConfig(), nil)

	router := gin.New()
	router.Use(sm.ValidateContentType)
	router.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name        string
		method      string
		contentType string
		expected    int
	}{
		{"json", http.MethodPost, "application/json", http.StatusOK},
		{"json with charset", http.MethodPost, "application/json; charset=utf-8", http.StatusOK},
		{"form", http.MethodPost, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"missing", http.MethodPost, "", http.StatusUnsupportedMediaType},
		{"get ignores header", http.MethodGet, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestRateLimitByIP(t *testing.T) {
	config := DefaultSecurityConfig()
	config.MaxRequestsPerMin = 6 // burst floor of 5
	recorder := &countingRecorder{}
	sm := NewSecurityMiddleware(config, recorder)

	router := gin.New()
	router.Use(sm.RateLimitByIP)
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, send("10.0.0.1").Code, "request %d", i)
	}

	blocked := send("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "10", blocked.Header().Get("Retry-After"))
	assert.Contains(t, blocked.Body.String(), "RATE_LIMIT_EXCEEDED")
	assert.Equal(t, 1, recorder.blocks)

	// Another client has its own bucket.
	assert.Equal(t, http.StatusOK, send("10.0.0.2").Code)
}

func TestAllowSharesBucketsWithRateLimit(t *testing.T) {
	config := DefaultSecurityConfig()
	config.MaxRequestsPerMin = 1
	recorder := &countingRecorder{}
	sm := NewSecurityMiddleware(config, recorder)

	for i := 0; i < 5; i++ {
		require.True(t, sm.Allow("conn-1"), "call %d", i)
	}
	assert.False(t, sm.Allow("conn-1"))
	assert.True(t, sm.Allow("conn-2"))
	assert.Equal(t, 1, recorder.blocks)
}

func TestCleanupOldLimiters(t *testing.T) {
	sm := NewSecurityMiddleware(DefaultSecurityConfig(), nil)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sm.now = func() time.Time { return now }
	sm.limiterFor("10.0.0.1")

	now = now.Add(30 * time.Minute)
	sm.limiterFor("10.0.0.2")

	now = now.Add(45 * time.Minute)
	assert.Equal(t, 1, sm.cleanupOldLimiters())
	assert.Len(t, sm.ipLimiters, 1)
	assert.Contains(t, sm.ipLimiters, "10.0.0.2")
}

func TestRequestTimeout(t *testing.T) {
	config := DefaultSecurityConfig()
	config.RequestTimeout = 50 * time.Millisecond
	sm := NewSecurityMiddleware(config, nil)

	router := gin.New()
	router.Use(sm.RequestTimeout)
	router.GET("/", func(c *gin.Context) {
		deadline, ok := c.Request.Context().Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 50*time.Millisecond)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCleanupStopsWithContext(t *testing.T) {
	sm := NewSecurityMiddleware(DefaultSecurityConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	sm.Cleanup(ctx, time.Millisecond)
	cancel()
}
