package rtc

import (
	"github.com/dkeye/SantaCall/internal/core"
)

// RemoteTrack is a track received from the agent. Disabling it pauses its
// relay; stopping it ends the relay.
type RemoteTrack struct {
	id    string
	kind  core.TrackKind
	relay *Relay
}

func newRemoteTrack(id string, kind core.TrackKind, relay *Relay) *RemoteTrack {
	return &RemoteTrack{id: id, kind: kind, relay: relay}
}

func (t *RemoteTrack) ID() string           { return t.id }
func (t *RemoteTrack) Kind() core.TrackKind { return t.kind }
func (t *RemoteTrack) Enabled() bool        { return !t.relay.Paused() }
func (t *RemoteTrack) SetEnabled(v bool)    { t.relay.SetPaused(!v) }
func (t *RemoteTrack) Stop()                { t.relay.Stop() }

// RemoteStream is what stream-started carries.
type RemoteStream struct {
	id     string
	tracks []core.Track
}

func (s *RemoteStream) ID() string           { return s.id }
func (s *RemoteStream) Tracks() []core.Track { return s.tracks }
