package rtc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"

	"github.com/dkeye/SantaCall/internal/core"
	"github.com/dkeye/SantaCall/internal/domain"
)

// Agent wire message types.
const (
	msgDial      = "dial"
	msgAccepted  = "accepted"
	msgOffer     = "offer"
	msgAnswer    = "answer"
	msgCandidate = "candidate"
	msgStart     = "start"
	msgHangup    = "hangup"
	msgError     = "error"
)

const writeWait = 5 * time.Second

var ErrSignalingClosed = errors.New("signaling connection closed")

// AgentError is an error message sent by the agent.
type AgentError struct {
	Reason string
}

func (e *AgentError) Error() string { return "agent error: " + e.Reason }

type agentMessage struct {
	Type      string                   `json:"type"`
	CallID    string                   `json:"call_id,omitempty"`
	Target    string                   `json:"target,omitempty"`
	Caller    *domain.Caller           `json:"caller,omitempty"`
	Audio     *domain.AudioSettings    `json:"audio,omitempty"`
	Video     bool                     `json:"video,omitempty"`
	SDP       string                   `json:"sdp,omitempty"`
	Candidate *webrtc.ICECandidateInit `json:"candidate,omitempty"`
	Reason    string                   `json:"reason,omitempty"`
	// Event is the user_event payload, forwarded as-is.
	Event json.RawMessage `json:"event,omitempty"`
}

func dialMessage(target string, opts core.MediaOptions, meta core.CallMeta) agentMessage {
	caller := meta.Caller
	audio := opts.Audio
	return agentMessage{
		Type:   msgDial,
		CallID: meta.CallID,
		Target: target,
		Caller: &caller,
		Audio:  &audio,
		Video:  opts.Video,
	}
}

// lifecycleSignal maps agent message types onto session signals.
func lifecycleSignal(msgType string) (core.Signal, bool) {
	switch msgType {
	case string(core.SignalJoined):
		return core.SignalJoined, true
	case string(core.SignalUpdated):
		return core.SignalUpdated, true
	case string(core.SignalEnded):
		return core.SignalEnded, true
	case string(core.SignalDestroy):
		return core.SignalDestroy, true
	case string(core.SignalRoomLeft), "room_left":
		return core.SignalRoomLeft, true
	case string(core.SignalUserEvent), "app-message":
		return core.SignalUserEvent, true
	}
	return "", false
}

// agentConn serialises writes to the agent socket.
type agentConn struct {
	conn *websocket.Conn

	writeMu   sync.Mutex
	closed    atomic.Bool
	closeOnce sync.Once
}

func dialAgent(ctx context.Context, url string) (*agentConn, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial agent (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial agent: %w", err)
	}
	return &agentConn{conn: conn}, nil
}

func (c *agentConn) send(ctx context.Context, msg agentMessage) error {
	if c.closed.Load() {
		return ErrSignalingClosed
	}
	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.conn.WriteJSON(msg)
}

// awaitAccepted reads the first frame, which must accept the dial.
func (c *agentConn) awaitAccepted(ctx context.Context) error {
	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	_ = c.conn.SetReadDeadline(deadline)
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read dial reply: %w", err)
	}
	_ = c.conn.SetReadDeadline(time.Time{})

	var msg agentMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("decode dial reply: %w", err)
	}
	switch msg.Type {
	case msgAccepted:
		return nil
	case msgError:
		return &AgentError{Reason: msg.Reason}
	default:
		return fmt.Errorf("unexpected dial reply %q", msg.Type)
	}
}

func (c *agentConn) read() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *agentConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}
