package rtc

import (
	"errors"
	"sync/atomic"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"

	"github.com/dkeye/SantaCall/internal/core"
)

var ErrTrackStopped = errors.New("track stopped")

type TrackState int32

const (
	TrackStateOk TrackState = iota
	TrackStateMuted
	TrackStateDelete
)

type rtpWriter interface {
	WriteRTP(p *rtp.Packet) error
}

// LocalTrack is an outgoing RTP track. Muted drops packets; Delete is final.
type LocalTrack struct {
	id    string
	kind  core.TrackKind
	rtp   *webrtc.TrackLocalStaticRTP
	out   rtpWriter
	state atomic.Int32
}

// NewLocalTrack creates an Opus (audio) or VP8 (video) track.
func NewLocalTrack(kind core.TrackKind, id, streamID string) (*LocalTrack, error) {
	codec := webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2}
	if kind == core.TrackKindVideo {
		codec = webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000}
	}
	t, err := webrtc.NewTrackLocalStaticRTP(codec, id, streamID)
	if err != nil {
		return nil, err
	}
	lt := newLocalTrack(t, kind, id)
	lt.rtp = t
	return lt, nil
}

func newLocalTrack(w rtpWriter, kind core.TrackKind, id string) *LocalTrack {
	return &LocalTrack{id: id, kind: kind, out: w}
}

func (t *LocalTrack) ID() string           { return t.id }
func (t *LocalTrack) Kind() core.TrackKind { return t.kind }

func (t *LocalTrack) State() TrackState {
	return TrackState(t.state.Load())
}

func (t *LocalTrack) Enabled() bool { return t.State() == TrackStateOk }

// SetEnabled toggles between Ok and Muted. A stopped track stays stopped.
func (t *LocalTrack) SetEnabled(v bool) {
	from, to := TrackStateMuted, TrackStateOk
	if !v {
		from, to = TrackStateOk, TrackStateMuted
	}
	t.state.CompareAndSwap(int32(from), int32(to))
}

func (t *LocalTrack) Stop() {
	t.state.Store(int32(TrackStateDelete))
}

// WriteRTP forwards pkt unless the track is muted.
func (t *LocalTrack) WriteRTP(pkt *rtp.Packet) error {
	switch t.State() {
	case TrackStateDelete:
		return ErrTrackStopped
	case TrackStateMuted:
		return nil
	}
	return t.out.WriteRTP(pkt)
}

// localStream groups the local tracks of one call.
type localStream struct {
	id     string
	tracks []core.Track
}

func (s *localStream) ID() string           { return s.id }
func (s *localStream) Tracks() []core.Track { return s.tracks }

// drainRTCP consumes sender RTCP so the interceptors keep running, logging
// receiver reports. It returns when the sender is closed.
func drainRTCP(sender *webrtc.RTPSender, lg zerolog.Logger) {
	for {
		pkts, _, err := sender.ReadRTCP()
		if err != nil {
			lg.Debug().Err(err).Msg("rtcp drain stopped")
			return
		}
		if lost, n := receiverLoss(pkts); n > 0 {
			lg.Debug().Uint8("fraction_lost", lost).Int("reports", n).Msg("receiver report")
		}
	}
}

// receiverLoss returns the worst fraction lost across the receiver reports
// in pkts, and how many reception reports were seen.
func receiverLoss(pkts []rtcp.Packet) (uint8, int) {
	var worst uint8
	n := 0
	for _, p := range pkts {
		rr, ok := p.(*rtcp.ReceiverReport)
		if !ok {
			continue
		}
		for _, r := range rr.Reports {
			n++
			if r.FractionLost > worst {
				worst = r.FractionLost
			}
		}
	}
	return worst, n
}
