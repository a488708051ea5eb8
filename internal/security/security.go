package security

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	apperrors "github.com/ZanzyTHEbar/calcbot/internal/errors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long an IP's limiter survives without traffic.
const limiterIdleTTL = time.Hour

// SecurityConfig holds security configuration
type SecurityConfig struct {
	MaxInputLength    int           `json:"max_input_length"`
	MaxRequestsPerMin int           `json:"max_requests_per_min"`
	RequestTimeout    time.Duration `json:"request_timeout"`
	EnableHSTS        bool          `json:"enable_hsts"`
}

// DefaultSecurityConfig returns secure defaults
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		MaxInputLength:    4000,
		MaxRequestsPerMin: 60,
		RequestTimeout:    10 * time.Second,
	}
}

// Recorder receives security events for metrics.
type Recorder interface {
	IncrementRateLimitBlock()
	IncrementAuthFailure()
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// SecurityMiddleware provides per-IP rate limiting, input limits and headers
type SecurityMiddleware struct {
	config   SecurityConfig
	recorder Recorder

	mu         sync.Mutex
	ipLimiters map[string]*ipLimiter
	now        func() time.Time
}

// NewSecurityMiddleware creates a new security middleware instance.
// recorder may be nil.
func NewSecurityMiddleware(config SecurityConfig, recorder Recorder) *SecurityMiddleware {
	return &SecurityMiddleware{
		config:     config,
		recorder:   recorder,
		ipLimiters: make(map[string]*ipLimiter),
		now:        time.Now,
	}
}

// ValidateInput rejects option text that is too long, contains NUL bytes or
// is not valid UTF-8. Length is counted in runes.
func (sm *SecurityMiddleware) ValidateInput(input string) error {
	if !utf8.ValidString(input) {
		return fmt.Errorf("input contains invalid UTF-8 encoding")
	}

	if n := utf8.RuneCountInString(input); n > sm.config.MaxInputLength {
		return fmt.Errorf("input exceeds maximum length of %d characters", sm.config.MaxInputLength)
	}

	if strings.Contains(input, "\x00") {
		return fmt.Errorf("input contains invalid characters")
	}

	return nil
}

// ValidateOptions runs ValidateInput over every option value and reports
// the offending option name.
func (sm *SecurityMiddleware) ValidateOptions(options map[string]string) error {
	for name, value := range options {
		if err := sm.ValidateInput(value); err != nil {
			return fmt.Errorf("option %q: %w", name, err)
		}
	}
	return nil
}

func (sm *SecurityMiddleware) limiterFor(ip string) *rate.Limiter {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	entry, exists := sm.ipLimiters[ip]
	if !exists {
		rps := rate.Limit(float64(sm.config.MaxRequestsPerMin) / 60.0)
		// Allow a burst of half the per-minute budget, at least 5
		burst := sm.config.MaxRequestsPerMin / 2
		if burst < 5 {
			burst = 5
		}
		entry = &ipLimiter{limiter: rate.NewLimiter(rps, burst)}
		sm.ipLimiters[ip] = entry
	}
	entry.lastSeen = sm.now()

	return entry.limiter
}

// Allow reports whether key may make another request now, recording a
// block when it may not.
func (sm *SecurityMiddleware) Allow(key string) bool {
	if sm.limiterFor(key).Allow() {
		return true
	}

	if sm.recorder != nil {
		sm.recorder.IncrementRateLimitBlock()
	}
	return false
}

// RateLimitByIP implements per-IP rate limiting
func (sm *SecurityMiddleware) RateLimitByIP(c *gin.Context) {
	if sm.Allow(c.ClientIP()) {
		c.Next()
		return
	}

	retryAfter := 60 / max(sm.config.MaxRequestsPerMin, 1)
	c.Header("Retry-After", strconv.Itoa(max(retryAfter, 1)))

	appErr := apperrors.NewRateLimitError(fmt.Sprintf("%ds", max(retryAfter, 1)))
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.Response(c.GetString("request_id")))
}

// SecurityHeaders adds security headers to responses
func (sm *SecurityMiddleware) SecurityHeaders(c *gin.Context) {
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("X-Frame-Options", "DENY")
	c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
	c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

	if sm.config.EnableHSTS || c.Request.TLS != nil {
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	}

	// Swagger UI needs inline scripts and styles
	if strings.HasPrefix(c.Request.URL.Path, "/swagger/") {
		c.Header("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
	} else {
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
	}

	c.Next()
}

// ValidateContentType rejects request bodies that are not JSON
func (sm *SecurityMiddleware) ValidateContentType(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.Next()
		return
	}

	if !strings.Contains(strings.ToLower(c.GetHeader("Content-Type")), "application/json") {
		c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
			"error":   "UNSUPPORTED_MEDIA_TYPE",
			"message": "request body must be application/json",
		})
		return
	}

	c.Next()
}

// RequestTimeout bounds the request context
func (sm *SecurityMiddleware) RequestTimeout(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), sm.config.RequestTimeout)
	defer cancel()

	c.Request = c.Request.WithContext(ctx)
	c.Next()
}

// Cleanup drops limiters for IPs idle longer than limiterIdleTTL until ctx
// is done.
func (sm *SecurityMiddleware) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sm.cleanupOldLimiters()
			}
		}
	}()
}

func (sm *SecurityMiddleware) cleanupOldLimiters() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	cutoff := sm.now().Add(-limiterIdleTTL)
	removed := 0
	for ip, entry := range sm.ipLimiters {
		if entry.lastSeen.Before(cutoff) {
			delete(sm.ipLimiters, ip)
			removed++
		}
	}
	return removed
}
