package rtc

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"

	"github.com/dkeye/SantaCall/internal/core"
)

var ErrSessionClosed = errors.New("session disconnected")

// Session is one agent call: the signaling socket, the agent-side
// PeerConnection and the local microphone track.
type Session struct {
	id     string
	conn   *agentConn
	pc     *Connection
	mic    *LocalTrack
	bridge *Bridge
	log    zerolog.Logger

	mu       sync.Mutex
	handlers map[core.Signal]map[int]core.Handler
	nextID   int
	remotes  []*Relay

	// local candidates wait here until the offer is on the wire
	offerSent    bool
	pendingLocal []webrtc.ICECandidateInit

	readOnce  sync.Once
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
}

func newSession(id string, conn *agentConn, pc *Connection, mic *LocalTrack, bridge *Bridge, logger zerolog.Logger) *Session {
	return &Session{
		id:       id,
		conn:     conn,
		pc:       pc,
		mic:      mic,
		bridge:   bridge,
		log:      logger,
		handlers: make(map[core.Signal]map[int]core.Handler),
		done:     make(chan struct{}),
	}
}

func (s *Session) On(sig core.Signal, h core.Handler) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handlers[sig] == nil {
		s.handlers[sig] = make(map[int]core.Handler)
	}
	id := s.nextID
	s.nextID++
	s.handlers[sig][id] = h
	return func() {
		s.mu.Lock()
		delete(s.handlers[sig], id)
		s.mu.Unlock()
	}
}

func (s *Session) emit(ev core.Event) {
	s.mu.Lock()
	hs := make([]core.Handler, 0, len(s.handlers[ev.Signal]))
	for _, h := range s.handlers[ev.Signal] {
		hs = append(hs, h)
	}
	s.mu.Unlock()
	for _, h := range hs {
		h(ev)
	}
}

// Start begins reading agent messages and asks the agent to start the call.
// Nothing is emitted before Start, so handlers registered after Open see
// every signal.
func (s *Session) Start(ctx context.Context) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	s.readOnce.Do(func() { go s.readLoop() })
	return s.conn.send(ctx, agentMessage{Type: msgStart, CallID: s.id})
}

func (s *Session) Hangup(ctx context.Context) error {
	return s.conn.send(ctx, agentMessage{Type: msgHangup, CallID: s.id})
}

func (s *Session) LocalTracks() ([]core.Track, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	return []core.Track{s.mic}, nil
}

func (s *Session) LocalStream() (core.Stream, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	return &localStream{id: "call-" + s.id, tracks: []core.Track{s.mic}}, nil
}

// Disconnect releases everything the session owns. Safe to call from a
// signal handler.
func (s *Session) Disconnect() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		if s.bridge != nil {
			s.bridge.DetachMic(s.mic.ID())
		}
		s.mic.Stop()

		s.mu.Lock()
		remotes := s.remotes
		s.remotes = nil
		s.mu.Unlock()
		for _, r := range remotes {
			r.Stop()
		}

		s.closeErr = errors.Join(s.pc.Close(), s.conn.Close())
		s.log.Info().Msg("session disconnected")
	})
	return s.closeErr
}

// Done is closed when the signaling read loop exits. It never closes if
// Start was not called.
func (s *Session) Done() <-chan struct{} { return s.done }

// bindPeer wires PeerConnection callbacks. pion runs them on its own
// goroutines; terminal states are reported as ended.
func (s *Session) bindPeer() {
	s.pc.OnICECandidate(func(ci webrtc.ICECandidateInit) {
		s.mu.Lock()
		if !s.offerSent {
			s.pendingLocal = append(s.pendingLocal, ci)
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
		s.sendCandidate(ci)
	})
	s.pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		s.onRemoteTrack(track)
	})
	s.pc.OnStateChange(func(st webrtc.PeerConnectionState) {
		switch st {
		case webrtc.PeerConnectionStateConnected:
			s.emit(core.Event{Signal: core.SignalMediaConnected})
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed:
			if !s.closed.Load() {
				go s.emit(core.Event{Signal: core.SignalEnded})
			}
		}
	})
}

// sendOffer writes the offer and then releases candidates gathered while it
// was being created.
func (s *Session) sendOffer(ctx context.Context, sdp string) error {
	if err := s.conn.send(ctx, agentMessage{Type: msgOffer, CallID: s.id, SDP: sdp}); err != nil {
		return err
	}
	s.mu.Lock()
	s.offerSent = true
	pending := s.pendingLocal
	s.pendingLocal = nil
	s.mu.Unlock()
	for _, ci := range pending {
		s.sendCandidate(ci)
	}
	return nil
}

func (s *Session) sendCandidate(ci webrtc.ICECandidateInit) {
	if err := s.conn.send(context.Background(), agentMessage{Type: msgCandidate, CallID: s.id, Candidate: &ci}); err != nil {
		s.log.Debug().Err(err).Msg("send candidate")
	}
}

func (s *Session) onRemoteTrack(track *webrtc.TrackRemote) {
	kind := core.TrackKindAudio
	if track.Kind() == webrtc.RTPCodecTypeVideo {
		kind = core.TrackKindVideo
	}
	relay := NewRelay(track)
	if s.bridge != nil {
		relay.AddOutput(s.bridge.Output(kind))
	}

	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		return
	}
	s.remotes = append(s.remotes, relay)
	s.mu.Unlock()

	relay.Start(context.Background(), s.log.With().Str("relay", string(kind)).Logger())
	stream := &RemoteStream{
		id:     track.StreamID(),
		tracks: []core.Track{newRemoteTrack(track.ID(), kind, relay)},
	}
	s.emit(core.Event{Signal: core.SignalStreamStarted, Stream: stream})
}

func (s *Session) readLoop() {
	defer close(s.done)
	for {
		data, err := s.conn.read()
		if err != nil {
			if !s.closed.Load() {
				s.log.Warn().Err(err).Msg("agent signaling lost")
				s.emit(core.Event{Signal: core.SignalEnded})
			}
			return
		}
		s.handleMessage(data)
	}
}

func (s *Session) handleMessage(data []byte) {
	var msg agentMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.log.Warn().Err(err).Msg("bad agent message")
		return
	}

	switch msg.Type {
	case msgAnswer:
		if err := s.pc.ApplyAnswer(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: msg.SDP}); err != nil {
			s.log.Error().Err(err).Msg("apply answer")
		}
		return
	case msgCandidate:
		if msg.Candidate == nil {
			return
		}
		if err := s.pc.AddICECandidate(*msg.Candidate); err != nil {
			s.log.Warn().Err(err).Msg("add ice candidate")
		}
		return
	case msgError:
		s.log.Error().Err(&AgentError{Reason: msg.Reason}).Msg("agent reported error")
		s.emit(core.Event{Signal: core.SignalEnded})
		return
	}

	sig, ok := lifecycleSignal(msg.Type)
	if !ok {
		s.log.Warn().Str("type", msg.Type).Msg("unknown agent message")
		return
	}
	ev := core.Event{Signal: sig}
	if sig == core.SignalUserEvent {
		ev.Payload = userPayload(msg, data)
	}
	s.emit(ev)
}

// userPayload is the agent's event body. A flat message loses its envelope
// type so the event_type discriminator is used.
func userPayload(msg agentMessage, raw []byte) json.RawMessage {
	if len(msg.Event) > 0 && string(msg.Event) != "null" {
		return msg.Event
	}
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(raw, &flat); err != nil {
		return json.RawMessage(raw)
	}
	delete(flat, "type")
	b, err := json.Marshal(flat)
	if err != nil {
		return json.RawMessage(raw)
	}
	return b
}
