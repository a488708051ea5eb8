// Package gateway serves commands over a WebSocket so a chat platform
// connector can keep one connection open instead of one HTTP request per
// invocation.
//
// Frames are JSON objects. The connector sends
//
//	{"id": "42", "type": "invoke", "name": "analyze", "options": {...}}
//	{"id": "43", "type": "ping"}
//
// and receives, with the same id,
//
//	{"id": "42", "type": "reply", "response": {...}}
//	{"id": "42", "type": "error", "error": {...}}
//	{"id": "43", "type": "pong"}
//
// A command that fails inside its handler still answers with a reply frame
// carrying the ephemeral message. Error frames are for unknown commands, bad
// options, malformed frames and rate limiting.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ZanzyTHEbar/calcbot/internal/commands"
	apperrors "github.com/ZanzyTHEbar/calcbot/internal/errors"
	"github.com/ZanzyTHEbar/calcbot/internal/monitoring"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
	sendBuffer     = 16
	invokeTimeout  = 10 * time.Second
)

// Frame types.
const (
	FrameInvoke = "invoke"
	FramePing   = "ping"
	FramePong   = "pong"
	FrameReply  = "reply"
	FrameError  = "error"
)

// Frame is one WebSocket message in either direction.
type Frame struct {
	ID       string              `json:"id,omitempty"`
	Type     string              `json:"type"`
	Name     string              `json:"name,omitempty"`
	Options  commands.Options    `json:"options,omitempty"`
	Response *commands.Response  `json:"response,omitempty"`
	Error    *apperrors.Response `json:"error,omitempty"`
}

// Dispatcher runs a command invocation.
type Dispatcher interface {
	Dispatch(ctx context.Context, inv commands.Invocation) (commands.Response, error)
}

// Guard rate limits and validates invocations.
type Guard interface {
	Allow(key string) bool
	ValidateOptions(options map[string]string) error
}

// Gateway upgrades requests to WebSocket connections and dispatches the
// invoke frames they carry.
type Gateway struct {
	dispatcher    Dispatcher
	guard         Guard
	logger        *monitoring.Logger
	upgrader      websocket.Upgrader
	invokeTimeout time.Duration
	active        atomic.Int64
}

type client struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	ip        string
	requestID string
}

// New creates a gateway. Browser origins must appear in allowedOrigins (or
// the list must hold "*"); connectors that send no Origin header are always
// accepted.
func New(dispatcher Dispatcher, guard Guard, logger *monitoring.Logger, allowedOrigins []string) *Gateway {
	g := &Gateway{
		dispatcher:    dispatcher,
		guard:         guard,
		logger:        logger,
		invokeTimeout: invokeTimeout,
	}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(r.Header.Get("Origin"), allowedOrigins)
		},
	}
	return g
}

func originAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return true
	}
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

// ActiveConnections returns the number of open connections.
func (g *Gateway) ActiveConnections() int64 {
	return g.active.Load()
}

// Handle upgrades the request and serves the connection until either side
// closes it.
func (g *Gateway) Handle(c *gin.Context) {
	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already answered with an HTTP error.
		g.logger.Warn("WebSocket upgrade failed", "error", err, "ip", c.ClientIP())
		return
	}

	cl := &client{
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		done:      make(chan struct{}),
		ip:        c.ClientIP(),
		requestID: c.GetString(monitoring.RequestIDKey),
	}

	g.active.Add(1)
	defer g.active.Add(-1)
	g.logger.Info("WebSocket connected", "ip", cl.ip, "request_id", cl.requestID)

	// The request context carries the per-request timeout; a connection
	// outlives it.
	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	defer cancel()

	go g.writePump(cl)
	g.readPump(ctx, cl)

	close(cl.send)
	<-cl.done
	g.logger.Info("WebSocket disconnected", "ip", cl.ip, "request_id", cl.requestID)
}

func (g *Gateway) readPump(ctx context.Context, cl *client) {
	cl.conn.SetReadLimit(maxMessageSize)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				g.logger.Warn("WebSocket read failed", "error", err, "ip", cl.ip)
			}
			return
		}

		data, err := json.Marshal(g.handleFrame(ctx, cl, message))
		if err != nil {
			g.logger.Error("Failed to encode frame", "error", err)
			continue
		}

		select {
		case cl.send <- data:
		case <-cl.done:
			return
		}
	}
}

func (g *Gateway) writePump(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
		close(cl.done)
	}()

	for {
		select {
		case message, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) handleFrame(ctx context.Context, cl *client, message []byte) Frame {
	var in Frame
	if err := json.Unmarshal(message, &in); err != nil {
		return g.errorFrame("", cl, apperrors.NewValidationError("Frames must be JSON objects", err))
	}

	switch in.Type {
	case FramePing:
		return Frame{ID: in.ID, Type: FramePong}
	case FrameInvoke:
		return g.invoke(ctx, cl, in)
	default:
		return g.errorFrame(in.ID, cl, apperrors.NewValidationError("Unknown frame type "+strconv.Quote(in.Type), nil))
	}
}

func (g *Gateway) invoke(ctx context.Context, cl *client, in Frame) Frame {
	if !g.guard.Allow(cl.ip) {
		return g.errorFrame(in.ID, cl, apperrors.NewRateLimitError("60s"))
	}
	if err := g.guard.ValidateOptions(in.Options); err != nil {
		return g.errorFrame(in.ID, cl, apperrors.NewValidationError(err.Error(), err))
	}

	ctx, cancel := context.WithTimeout(ctx, g.invokeTimeout)
	defer cancel()

	resp, err := g.dispatcher.Dispatch(ctx, commands.Invocation{Name: in.Name, Options: in.Options})
	if err != nil && !resp.Ephemeral {
		return g.errorFrame(in.ID, cl, err)
	}
	return Frame{ID: in.ID, Type: FrameReply, Response: &resp}
}

func (g *Gateway) errorFrame(id string, cl *client, err error) Frame {
	appErr := apperrors.ToAppError(err)
	body := appErr.Response(cl.requestID)
	return Frame{ID: id, Type: FrameError, Error: &body}
}
