package rtc

import (
	"context"
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/SantaCall/internal/core"
)

var ErrBridgeClosed = errors.New("bridge closed")

// Bridge is the browser leg of one client. It outlives calls: the browser
// microphone is relayed into whatever call tracks are attached, and the
// agent's media is relayed back through the bridge's output tracks.
type Bridge struct {
	api *webrtc.API
	cfg webrtc.Configuration
	log zerolog.Logger

	mu         sync.Mutex
	conn       *Connection
	mic        *Relay
	micOutputs map[string]*LocalTrack
	onICE      func(webrtc.ICECandidateInit)
	closed     bool

	audioOut *LocalTrack
	videoOut *LocalTrack
}

func NewBridge(api *webrtc.API, cfg webrtc.Configuration, clientID string) (*Bridge, error) {
	audioOut, err := NewLocalTrack(core.TrackKindAudio, "santa-audio", "santa")
	if err != nil {
		return nil, err
	}
	videoOut, err := NewLocalTrack(core.TrackKindVideo, "santa-video", "santa")
	if err != nil {
		return nil, err
	}
	return &Bridge{
		api:        api,
		cfg:        cfg,
		log:        log.With().Str("module", "rtc.bridge").Str("client", clientID).Logger(),
		micOutputs: make(map[string]*LocalTrack),
		audioOut:   audioOut,
		videoOut:   videoOut,
	}, nil
}

func (b *Bridge) OnICECandidate(fn func(webrtc.ICECandidateInit)) {
	b.mu.Lock()
	b.onICE = fn
	conn := b.conn
	b.mu.Unlock()
	if conn != nil {
		conn.OnICECandidate(fn)
	}
}

// HandleOffer replaces the browser connection and returns the answer SDP.
func (b *Bridge) HandleOffer(sdp string) (string, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return "", ErrBridgeClosed
	}
	old, oldMic := b.conn, b.mic
	b.conn, b.mic = nil, nil
	onICE := b.onICE
	b.mu.Unlock()

	if oldMic != nil {
		oldMic.Stop()
	}
	if old != nil {
		_ = old.Close()
	}

	conn, err := NewConnection(b.api, b.cfg, b.log)
	if err != nil {
		return "", err
	}
	for _, t := range []*LocalTrack{b.audioOut, b.videoOut} {
		sender, err := conn.AddLocalTrack(t)
		if err != nil {
			_ = conn.Close()
			return "", err
		}
		go drainRTCP(sender, b.log)
	}
	conn.OnICECandidate(onICE)
	conn.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		if track.Kind() != webrtc.RTPCodecTypeAudio {
			return
		}
		b.startMic(track)
	})

	answer, err := conn.ApplyOfferAndCreateAnswer(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sdp})
	if err != nil {
		_ = conn.Close()
		return "", err
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		_ = conn.Close()
		return "", ErrBridgeClosed
	}
	b.conn = conn
	b.mu.Unlock()
	return answer.SDP, nil
}

func (b *Bridge) startMic(src packetSource) {
	relay := NewRelay(src)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	if b.mic != nil {
		b.mic.Stop()
	}
	b.mic = relay
	for _, t := range b.micOutputs {
		relay.AddOutput(t)
	}
	b.mu.Unlock()

	b.log.Info().Msg("browser microphone relay started")
	relay.Start(context.Background(), b.log.With().Str("relay", "mic").Logger())
}

func (b *Bridge) AddICECandidate(ci webrtc.ICECandidateInit) error {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return ErrPeerClosed
	}
	return conn.AddICECandidate(ci)
}

// AttachMic routes the browser microphone into t.
func (b *Bridge) AttachMic(t *LocalTrack) {
	b.mu.Lock()
	b.micOutputs[t.ID()] = t
	mic := b.mic
	b.mu.Unlock()
	if mic != nil {
		mic.AddOutput(t)
	}
}

func (b *Bridge) DetachMic(id string) {
	b.mu.Lock()
	delete(b.micOutputs, id)
	mic := b.mic
	b.mu.Unlock()
	if mic != nil {
		mic.RemoveOutput(id)
	}
}

// Output returns the browser-facing track for agent media of kind.
func (b *Bridge) Output(kind core.TrackKind) *LocalTrack {
	if kind == core.TrackKindVideo {
		return b.videoOut
	}
	return b.audioOut
}

func (b *Bridge) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	conn, mic := b.conn, b.mic
	b.conn, b.mic = nil, nil
	clear(b.micOutputs)
	b.mu.Unlock()

	if mic != nil {
		mic.Stop()
	}
	if conn != nil {
		_ = conn.Close()
	}
	b.log.Info().Msg("bridge closed")
}
