// Package signal is the browser-facing WebSocket: it carries UI frames to
// the page and the page's control messages back to the client's call.
package signal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/SantaCall/internal/app"
	"github.com/dkeye/SantaCall/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

const (
	sendBuffer = 32
	writeWait  = 5 * time.Second
	// opTimeout bounds a background call operation; Start applies its own
	// connect timeout inside it.
	opTimeout = 2 * time.Minute
)

type SignalWSController struct {
	Registry *app.Registry
	// Starts debounces call starts per client.
	Starts *RateLimiter
	// CallContext is the parent of background Start/Hangup calls.
	CallContext context.Context
	// ReadLimit caps one browser message; zero leaves gorilla's default.
	ReadLimit int64
	// PingPeriod enables keepalive pings; zero disables them.
	PingPeriod time.Duration
}

func NewSignalWSController(reg *app.Registry, starts *RateLimiter) *SignalWSController {
	return &SignalWSController{
		Registry:    reg,
		Starts:      starts,
		CallContext: context.Background(),
	}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	token := c.GetString("client_token")
	client, err := ctl.Registry.GetOrCreate(token)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("no client for ws")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	log.Info().Str("module", "signal").Str("client", token).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}

	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}
	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, sendBuffer),
	}
	ctl.keepAlive(conn)
	client.Hub.Attach(conn)
	ctx, cancel := context.WithCancel(ctx)

	if client.Media != nil {
		client.Media.OnICECandidate(func(ci webrtc.ICECandidateInit) {
			ctl.sendCandidate(client.Hub, ci)
		})
	}

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, client, conn)

	ctl.handleWhoAmI(client, conn)
	ctl.handleState(client, conn)
}

func (ctl *SignalWSController) sendJSON(c core.SignalConnection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *SignalWSController) sendError(c core.SignalConnection, code string) {
	ctl.sendJSON(c, map[string]any{
		"type":  "error",
		"error": code,
	})
}

// background runs fn detached from the read loop so a blocking call
// operation never stalls control messages such as hangup.
func (ctl *SignalWSController) background(timeout time.Duration, fn func(ctx context.Context)) {
	go func() {
		ctx, cancel := context.WithTimeout(ctl.CallContext, timeout)
		defer cancel()
		fn(ctx)
	}()
}
