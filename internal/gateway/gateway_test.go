package gateway

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/calcbot/internal/commands"
	"github.com/ZanzyTHEbar/calcbot/internal/monitoring"
)

type fakeGuard struct {
	deny bool
}

func (g fakeGuard) Allow(string) bool { return !g.deny }

func (g fakeGuard) ValidateOptions(options map[string]string) error {
	for _, v := range options {
		if len(v) > 50 {
			return assert.AnError
		}
	}
	return nil
}

func startGateway(t *testing.T, guard Guard, origins []string) (*Gateway, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gw := New(commands.NewRegistry(), guard, monitoring.NewLoggerWithWriter(io.Discard, slog.LevelError), origins)

	r := gin.New()
	r.Use(monitoring.RequestID())
	r.GET("/ws", gw.Handle)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return gw, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, out interface{}) Frame {
	t.Helper()
	require.NoError(t, conn.SetWriteDeadline(time.Now().Add(5*time.Second)))
	switch v := out.(type) {
	case string:
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(v)))
	default:
		require.NoError(t, conn.WriteJSON(v))
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var in Frame
	require.NoError(t, conn.ReadJSON(&in))
	return in
}

func TestGatewayFrames(t *testing.T) {
	_, url := startGateway(t, fakeGuard{}, nil)
	conn := dial(t, url)

	tests := []struct {
		name      string
		send      interface{}
		wantID    string
		wantType  string
		wantCode  string
		wantReply string
		ephemeral bool
	}{
		{
			name:     "ping",
			send:     Frame{ID: "1", Type: FramePing},
			wantID:   "1",
			wantType: FramePong,
		},
		{
			name:      "invoke",
			send:      Frame{ID: "2", Type: FrameInvoke, Name: "atbash", Options: commands.Options{"input": "abc"}},
			wantID:    "2",
			wantType:  FrameReply,
			wantReply: "zyx",
		},
		{
			name:      "handler failure is an ephemeral reply",
			send:      Frame{ID: "3", Type: FrameInvoke, Name: "analyze", Options: commands.Options{"type": "statistic", "data": "7"}},
			wantID:    "3",
			wantType:  FrameReply,
			wantReply: "Please provide at least two numbers.",
			ephemeral: true,
		},
		{
			name:     "unknown command",
			send:     Frame{ID: "4", Type: FrameInvoke, Name: "median"},
			wantID:   "4",
			wantType: FrameError,
			wantCode: "NOT_FOUND",
		},
		{
			name:     "option too long",
			send:     Frame{ID: "5", Type: FrameInvoke, Name: "atbash", Options: commands.Options{"input": strings.Repeat("a", 60)}},
			wantID:   "5",
			wantType: FrameError,
			wantCode: "VALIDATION_ERROR",
		},
		{
			name:     "unknown frame type",
			send:     Frame{ID: "6", Type: "subscribe"},
			wantID:   "6",
			wantType: FrameError,
			wantCode: "VALIDATION_ERROR",
		},
		{
			name:     "malformed frame",
			send:     "{not json",
			wantType: FrameError,
			wantCode: "VALIDATION_ERROR",
		},
	}

	// One connection serves every frame in order.
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := roundTrip(t, conn, tt.send)
			assert.Equal(t, tt.wantID, got.ID)
			assert.Equal(t, tt.wantType, got.Type)

			if tt.wantCode != "" {
				require.NotNil(t, got.Error)
				assert.Equal(t, tt.wantCode, got.Error.Error)
				assert.NotEmpty(t, got.Error.RequestID)
			}
			if tt.wantReply != "" {
				require.NotNil(t, got.Response)
				assert.Contains(t, got.Response.Content, tt.wantReply)
				assert.Equal(t, tt.ephemeral, got.Response.Ephemeral)
			}
		})
	}
}

func TestGatewayRateLimited(t *testing.T) {
	_, url := startGateway(t, fakeGuard{deny: true}, nil)
	conn := dial(t, url)

	got := roundTrip(t, conn, Frame{ID: "1", Type: FrameInvoke, Name: "atbash", Options: commands.Options{"input": "abc"}})
	assert.Equal(t, FrameError, got.Type)
	require.NotNil(t, got.Error)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", got.Error.Error)

	// Pings are not rate limited.
	got = roundTrip(t, conn, Frame{ID: "2", Type: FramePing})
	assert.Equal(t, FramePong, got.Type)
}

func TestGatewayOrigins(t *testing.T) {
	_, url := startGateway(t, fakeGuard{}, []string{"https://bot.example.com"})

	tests := []struct {
		name   string
		origin string
		ok     bool
	}{
		{"no origin", "", true},
		{"listed origin", "https://bot.example.com", true},
		{"other origin", "https://evil.example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			conn, resp, err := websocket.DefaultDialer.Dial(url, header)
			if resp != nil && resp.Body != nil {
				defer resp.Body.Close()
			}
			if !tt.ok {
				require.Error(t, err)
				require.NotNil(t, resp)
				assert.Equal(t, http.StatusForbidden, resp.StatusCode)
				return
			}
			require.NoError(t, err)
			_ = conn.Close()
		})
	}
}

func TestGatewayTracksConnections(t *testing.T) {
	gw, url := startGateway(t, fakeGuard{}, nil)
	conn := dial(t, url)

	// The connection is registered once a frame has been answered.
	got := roundTrip(t, conn, Frame{ID: "1", Type: FramePing})
	require.Equal(t, FramePong, got.Type)
	assert.Equal(t, int64(1), gw.ActiveConnections())

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	assert.Eventually(t, func() bool { return gw.ActiveConnections() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestOriginAllowed(t *testing.T) {
	assert.True(t, originAllowed("https://a.example", []string{"*"}))
	assert.True(t, originAllowed("https://A.example", []string{"https://a.example"}))
	assert.False(t, originAllowed("https://b.example", []string{"https://a.example"}))
	assert.True(t, originAllowed("", nil))
}
