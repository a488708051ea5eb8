package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/calcbot/internal/commands"
	"github.com/ZanzyTHEbar/calcbot/internal/config"
	"github.com/ZanzyTHEbar/calcbot/internal/gateway"
	"github.com/ZanzyTHEbar/calcbot/internal/monitoring"
	"github.com/ZanzyTHEbar/calcbot/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) (*server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}

	s := newServer(cfg, monitoring.NewLoggerWithWriter(io.Discard, slog.LevelError), monitoring.NewMetrics())
	return s, s.router()
}

func doRequest(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestHealthEndpoint(t *testing.T) {
	_, r := newTestServer(t, nil)

	tests := []struct {
		name           string
		method         string
		expectedStatus int
	}{
		{"GET /health returns OK status", http.MethodGet, http.StatusOK},
		{"POST /health is not routed", http.MethodPost, http.StatusNotFound},
		{"DELETE /health is not routed", http.MethodDelete, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, tt.method, "/health", "", nil)
			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusOK {
				body := decode(t, w)
				assert.Equal(t, "ok", body["status"])
				assert.Equal(t, version, body["version"])
				assert.Contains(t, body, "metrics")
				assert.NotEmpty(t, w.Header().Get(monitoring.RequestIDHeader))
			}
		})
	}
}

func TestListCommands(t *testing.T) {
	_, r := newTestServer(t, nil)

	w := doRequest(r, http.MethodGet, "/api/v1/commands", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var defs []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &defs))
	require.Len(t, defs, 8)
	assert.Equal(t, "analyze", defs[0]["name"])

	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	w = doRequest(r, http.MethodGet, "/api/v1/commands", "", map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestListCommandsCompressed(t *testing.T) {
	s, r := newTestServer(t, nil)

	w := doRequest(r, http.MethodGet, "/api/v1/commands", "", map[string]string{"Accept-Encoding": "gzip"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	gz, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	raw, err := io.ReadAll(gz)
	require.NoError(t, err)

	var defs []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &defs))
	assert.Len(t, defs, 8)

	assert.Equal(t, int64(1), s.compression.GetStats()["compressed_requests"])
}

func TestRunCommand(t *testing.T) {
	_, r := newTestServer(t, nil)

	tests := []struct {
		name           string
		command        string
		body           string
		expectedStatus int
		check          func(t *testing.T, body map[string]interface{})
	}{
		{
			name:           "analyze replies with an embed",
			command:        "analyze",
			body:           `{"options":{"type":"parameter","data":"1 2 3 4 5"}}`,
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				embeds := body["embeds"].([]interface{})
				require.Len(t, embeds, 1)
				embed := embeds[0].(map[string]interface{})
				assert.Equal(t, "Statistical Analysis for a Parameter", embed["title"])
				assert.Equal(t, false, body["ephemeral"])
			},
		},
		{
			name:           "caesar with shift replies with content",
			command:        "caesar",
			body:           `{"options":{"operation":"encode","input":"abc","shift":"3"}}`,
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Contains(t, body["content"], "def")
			},
		},
		{
			name:           "handler failure is an ephemeral reply",
			command:        "analyze",
			body:           `{"options":{"type":"statistic","data":"42"}}`,
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, true, body["ephemeral"])
				assert.Equal(t, "Please provide at least two numbers.", body["content"])
			},
		},
		{
			name:           "unknown command",
			command:        "median",
			body:           `{"options":{}}`,
			expectedStatus: http.StatusNotFound,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "NOT_FOUND", body["error"])
				assert.NotEmpty(t, body["request_id"])
			},
		},
		{
			name:           "option outside choices",
			command:        "regression",
			body:           `{"options":{"type":"power","x_values":"1 2","y_values":"1 2"}}`,
			expectedStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "VALIDATION_ERROR", body["error"])
			},
		},
		{
			name:           "malformed body",
			command:        "atbash",
			body:           `{"options":`,
			expectedStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "Invalid request body", body["message"])
			},
		},
		{
			name:           "option too long",
			command:        "atbash",
			body:           `{"options":{"input":"` + strings.Repeat("a", 4001) + `"}}`,
			expectedStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Contains(t, body["message"], "maximum length")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, http.MethodPost, "/api/v1/commands/"+tt.command, tt.body, nil)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			tt.check(t, decode(t, w))
		})
	}
}

func TestRunCommandRequiresJSON(t *testing.T) {
	_, r := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/commands/atbash", strings.NewReader("input=abc"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestRunCommandReportsEveryBadOption(t *testing.T) {
	_, r := newTestServer(t, nil)

	body := `{"options":{"operation":"encode","input":"a","shift":"three","key":"b"}}`
	w := doRequest(r, http.MethodPost, "/api/v1/commands/caesar", body, nil)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	resp := decode(t, w)
	assert.Equal(t, "VALIDATION_ERROR", resp["error"])
	details := resp["details"].(map[string]interface{})
	assert.Len(t, details, 2)
	assert.Equal(t, "invalid option: shift must be an integer", details["shift"])
	assert.Equal(t, "invalid option: key is not an option of caesar", details["key"])
}

func TestAnalyzeEndpoint(t *testing.T) {
	_, r := newTestServer(t, nil)

	tests := []struct {
		name           string
		body           string
		expectedStatus int
		check          func(t *testing.T, body map[string]interface{})
	}{
		{
			name:           "population statistics",
			body:           `{"type":"parameter","data":"5, 1, 4, 2, 3"}`,
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, float64(5), body["n"])
				assert.Equal(t, float64(15), body["sum"])
				assert.Equal(t, float64(3), body["mean"])
				assert.Equal(t, []interface{}{1.0, 2.0, 3.0, 4.0, 5.0}, body["sorted"])
			},
		},
		{
			name:           "undefined skewness is null",
			body:           `{"type":"statistic","data":"1 2"}`,
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Contains(t, body, "skewness")
				assert.Nil(t, body["skewness"])
			},
		},
		{
			name:           "too few numbers",
			body:           `{"type":"statistic","data":"hello 7"}`,
			expectedStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "Please provide at least two numbers.", body["message"])
			},
		},
		{
			name:           "unknown type",
			body:           `{"type":"sample","data":"1 2 3"}`,
			expectedStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "Type must be parameter or statistic.", body["message"])
			},
		},
		{
			name:           "missing field",
			body:           `{"type":"statistic"}`,
			expectedStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "VALIDATION_ERROR", body["error"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, http.MethodPost, "/api/v1/analyze", tt.body, nil)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			tt.check(t, decode(t, w))
		})
	}
}

func TestRegressionEndpoint(t *testing.T) {
	_, r := newTestServer(t, nil)

	tests := []struct {
		name           string
		body           string
		expectedStatus int
		check          func(t *testing.T, body map[string]interface{})
	}{
		{
			name:           "exact line",
			body:           `{"type":"linear","x_values":"1 2 3 4","y_values":"3 5 7 9"}`,
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				fit := body["fit"].(map[string]interface{})
				coef := fit["coefficients"].([]interface{})
				require.Len(t, coef, 2)
				assert.InDelta(t, 1.0, coef[0].(float64), 1e-9)
				assert.InDelta(t, 2.0, coef[1].(float64), 1e-9)
				assert.InDelta(t, 1.0, fit["r_squared"].(float64), 1e-9)
				assert.Equal(t, "y = a + bx", fit["formula"])
				assert.Equal(t, []interface{}{1.0, 2.0, 3.0, 4.0}, body["x"])
			},
		},
		{
			name:           "log model with non-positive x",
			body:           `{"type":"loge","x_values":"0 1 2","y_values":"1 2 3"}`,
			expectedStatus: http.StatusUnprocessableEntity,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "DOMAIN_ERROR", body["error"])
			},
		},
		{
			name:           "unequal lengths",
			body:           `{"type":"quadratic","x_values":"1 2 3","y_values":"1 2"}`,
			expectedStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "X and Y must be equal in length and at least 2 pairs.", body["message"])
			},
		},
		{
			name:           "unknown model",
			body:           `{"type":"power","x_values":"1 2 3","y_values":"1 2 3"}`,
			expectedStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "Unknown regression type.", body["message"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, http.MethodPost, "/api/v1/regression", tt.body, nil)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			tt.check(t, decode(t, w))
		})
	}
}

func TestGatewayAuth(t *testing.T) {
	const secret = "gateway-test-secret"
	s, r := newTestServer(t, func(cfg *config.Config) {
		cfg.Security.GatewaySecret = secret
	})

	w := doRequest(r, http.MethodGet, "/api/v1/commands", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, w)["error"])

	w = doRequest(r, http.MethodGet, "/api/v1/commands", "", map[string]string{"Authorization": "Bearer nonsense"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := security.IssueGatewayToken(secret, "discord-shard-0", time.Minute)
	require.NoError(t, err)
	w = doRequest(r, http.MethodGet, "/api/v1/commands", "", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, w.Code)

	// Health stays public.
	w = doRequest(r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, int64(2), s.metrics.GetStats()["auth_failures"])
}

func TestRateLimit(t *testing.T) {
	s, r := newTestServer(t, func(cfg *config.Config) {
		cfg.Security.RatePerMinute = 1
	})

	// A rate of one per minute still allows a burst of five.
	for i := 0; i < 5; i++ {
		w := doRequest(r, http.MethodGet, "/metrics", "", nil)
		require.Equal(t, http.StatusOK, w.Code, "request %d", i)
	}

	w := doRequest(r, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", decode(t, w)["error"])
	assert.Equal(t, int64(1), s.metrics.GetStats()["rate_limit_blocks"])
}

func TestMetricsRecordsCommands(t *testing.T) {
	_, r := newTestServer(t, nil)

	body := `{"options":{"operation":"encode","input":"hello"}}`
	for i := 0; i < 2; i++ {
		w := doRequest(r, http.MethodPost, "/api/v1/commands/binary", body, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	doRequest(r, http.MethodPost, "/api/v1/commands/does-not-exist", `{"options":{}}`, nil)
	doRequest(r, http.MethodPost, "/api/v1/commands/analyze", `{"options":{"type":"parameter","data":"1"}}`, nil)

	w := doRequest(r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)

	commands := stats["commands"].(map[string]interface{})
	binary := commands["binary"].(map[string]interface{})
	assert.Equal(t, float64(2), binary["calls"])
	assert.Equal(t, float64(0), binary["failures"])

	unknown := commands[unknownCommandLabel].(map[string]interface{})
	assert.Equal(t, float64(1), unknown["failures"])
	assert.NotContains(t, commands, "does-not-exist")

	analyze := commands["analyze"].(map[string]interface{})
	byType := analyze["failures_by_type"].(map[string]interface{})
	assert.Equal(t, float64(1), byType["validation"])

	cache := stats["cache"].(map[string]interface{})
	assert.Equal(t, float64(1), cache["hits"])
	assert.Contains(t, stats, "compression")
}

func TestCacheDisabled(t *testing.T) {
	s, r := newTestServer(t, func(cfg *config.Config) {
		cfg.Cache.TTLSeconds = 0
	})
	assert.Nil(t, s.results)

	w := doRequest(r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, decode(t, w), "cache")
}

func TestPanicRecovery(t *testing.T) {
	_, r := newTestServer(t, nil)
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := doRequest(r, http.MethodGet, "/boom", "", map[string]string{"Accept-Encoding": "gzip"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", decode(t, w)["error"])
}

func TestSwaggerServed(t *testing.T) {
	_, r := newTestServer(t, nil)

	w := doRequest(r, http.MethodGet, "/swagger/doc.json", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "2.0", body["swagger"])
	assert.Contains(t, body["paths"], "/api/v1/commands/{name}")
}

func TestWebSocketGateway(t *testing.T) {
	const secret = "gateway-test-secret"
	s, r := newTestServer(t, func(cfg *config.Config) {
		cfg.Security.GatewaySecret = secret
	})

	srv := httptest.NewServer(r)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()

	token, err := security.IssueGatewayToken(secret, "discord-shard-0", time.Minute)
	require.NoError(t, err)
	conn, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Authorization": {"Bearer " + token}})
	require.NoError(t, err)
	_ = resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.WriteJSON(gateway.Frame{
		ID:      "1",
		Type:    gateway.FrameInvoke,
		Name:    "binary",
		Options: commands.Options{"operation": "encode", "input": "A"},
	}))

	var reply gateway.Frame
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, gateway.FrameReply, reply.Type)
	require.NotNil(t, reply.Response)
	assert.Contains(t, reply.Response.Content, "01000001")

	stats := s.metrics.GetStats()
	binary := stats["commands"].(map[string]interface{})["binary"].(map[string]interface{})
	assert.Equal(t, int64(1), binary["calls"])
	assert.Equal(t, int64(1), s.gateway.ActiveConnections())
}
