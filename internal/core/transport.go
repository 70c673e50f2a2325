package core

import (
	"context"
	"encoding/json"

	"github.com/dkeye/SantaCall/internal/domain"
)

// Signal names a lifecycle, media or user event emitted by a Session.
type Signal string

const (
	SignalJoined         Signal = "joined"
	SignalUpdated        Signal = "updated"
	SignalEnded          Signal = "ended"
	SignalDestroy        Signal = "destroy"
	SignalRoomLeft       Signal = "room-left"
	SignalStreamStarted  Signal = "stream-started"
	SignalMediaConnected Signal = "media-connected"
	SignalUserEvent      Signal = "user_event"
)

// Event is delivered to Session handlers. Payload holds the raw agent
// message for user events; Stream is set for stream-started.
type Event struct {
	Signal  Signal
	Payload json.RawMessage
	Stream  Stream
}

type Handler func(Event)

// MediaOptions are the audio processing constraints requested for the
// local microphone.
type MediaOptions struct {
	Audio domain.AudioSettings `json:"audio"`
	Video bool                 `json:"video"`
}

// CallMeta travels with the dial request.
type CallMeta struct {
	CallID string        `json:"call_id"`
	Caller domain.Caller `json:"caller"`
}

// Transport opens sessions to the remote agent.
type Transport interface {
	Open(ctx context.Context, target string, opts MediaOptions, meta CallMeta) (Session, error)
}

// Session is one real-time connection. Handlers may be invoked from any
// goroutine, in any order, possibly after Disconnect.
type Session interface {
	// On registers h for sig and returns a func that removes it.
	On(sig Signal, h Handler) (off func())
	// Start asks the agent to begin the call.
	Start(ctx context.Context) error
	// Hangup ends the call gracefully.
	Hangup(ctx context.Context) error
	// LocalTracks is the primary way to reach the microphone tracks.
	LocalTracks() ([]Track, error)
	// LocalStream is the alternate path when LocalTracks is unavailable.
	LocalStream() (Stream, error)
	// Disconnect releases the underlying client connection.
	Disconnect() error
}

type TrackKind string

const (
	TrackKindAudio TrackKind = "audio"
	TrackKindVideo TrackKind = "video"
)

// Track is a media track handle. Enabled is applied by the track itself,
// independent of any transport mute command.
type Track interface {
	ID() string
	Kind() TrackKind
	Enabled() bool
	SetEnabled(bool)
	Stop()
}

// Stream groups tracks, local or remote.
type Stream interface {
	ID() string
	Tracks() []Track
}

// AudioTracks filters s down to its audio tracks.
func AudioTracks(s Stream) []Track {
	if s == nil {
		return nil
	}
	var out []Track
	for _, t := range s.Tracks() {
		if t != nil && t.Kind() == TrackKindAudio {
			out = append(out, t)
		}
	}
	return out
}
