package coretest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dkeye/SantaCall/internal/core"
)

var ErrNoTracks = errors.New("no local tracks")

// Track is a fake media track.
type Track struct {
	id   string
	kind core.TrackKind

	enabled atomic.Bool
	stopped atomic.Bool
}

func NewTrack(id string, kind core.TrackKind) *Track {
	t := &Track{id: id, kind: kind}
	t.enabled.Store(true)
	return t
}

func (t *Track) ID() string           { return t.id }
func (t *Track) Kind() core.TrackKind { return t.kind }
func (t *Track) Enabled() bool        { return t.enabled.Load() }
func (t *Track) SetEnabled(v bool)    { t.enabled.Store(v) }
func (t *Track) Stop()                { t.stopped.Store(true) }
func (t *Track) Stopped() bool        { return t.stopped.Load() }

// Stream is a fake media stream.
type Stream struct {
	StreamID string
	List     []core.Track
}

func (s *Stream) ID() string           { return s.StreamID }
func (s *Stream) Tracks() []core.Track { return s.List }

// Session is a scriptable core.Session. Emit delivers signals to the
// registered handlers the way a transport goroutine would.
type Session struct {
	mu       sync.Mutex
	handlers map[core.Signal]map[int]core.Handler
	nextID   int

	// Tracks is returned by LocalTracks unless TracksErr is set.
	Tracks    []core.Track
	TracksErr error
	// Stream is returned by LocalStream; nil means unavailable.
	Stream core.Stream

	// StartFn, when set, runs inside Start (e.g. to emit joined).
	StartFn       func(s *Session) error
	HangupErr     error
	DisconnectErr error

	Started     atomic.Int32
	Hangups     atomic.Int32
	Disconnects atomic.Int32
}

func NewSession(tracks ...core.Track) *Session {
	return &Session{
		handlers: make(map[core.Signal]map[int]core.Handler),
		Tracks:   tracks,
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

// Handlers returns the number of live handlers across all signals.
func (s *Session) Handlers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, hs := range s.handlers {
		n += len(hs)
	}
	return n
}

// Emit calls every handler registered for ev.Signal.
func (s *Session) Emit(ev core.Event) {
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

// EmitSignal is Emit without payload.
func (s *Session) EmitSignal(sig core.Signal) { s.Emit(core.Event{Signal: sig}) }

// EmitUser emits a user_event carrying raw JSON.
func (s *Session) EmitUser(raw string) {
	s.Emit(core.Event{Signal: core.SignalUserEvent, Payload: json.RawMessage(raw)})
}

func (s *Session) Start(context.Context) error {
	s.Started.Add(1)
	if s.StartFn != nil {
		return s.StartFn(s)
	}
	return nil
}

func (s *Session) Hangup(context.Context) error {
	s.Hangups.Add(1)
	return s.HangupErr
}

func (s *Session) LocalTracks() ([]core.Track, error) {
	if s.TracksErr != nil {
		return nil, s.TracksErr
	}
	return s.Tracks, nil
}

func (s *Session) LocalStream() (core.Stream, error) {
	if s.Stream == nil {
		return nil, ErrNoTracks
	}
	return s.Stream, nil
}

func (s *Session) Disconnect() error {
	s.Disconnects.Add(1)
	return s.DisconnectErr
}

// Transport hands out sessions produced by NewSessionFn.
type Transport struct {
	// OpenFn, when set, replaces the default behaviour.
	OpenFn func(ctx context.Context, target string, opts core.MediaOptions, meta core.CallMeta) (core.Session, error)

	mu       sync.Mutex
	opened   []*Session
	LastOpts core.MediaOptions
	LastMeta core.CallMeta
	Target   string
}

func (t *Transport) Open(ctx context.Context, target string, opts core.MediaOptions, meta core.CallMeta) (core.Session, error) {
	t.mu.Lock()
	t.LastOpts, t.LastMeta, t.Target = opts, meta, target
	t.mu.Unlock()
	if t.OpenFn != nil {
		sess, err := t.OpenFn(ctx, target, opts, meta)
		if fs, ok := sess.(*Session); ok && err == nil {
			t.mu.Lock()
			t.opened = append(t.opened, fs)
			t.mu.Unlock()
		}
		return sess, err
	}
	s := NewSession(NewTrack("mic", core.TrackKindAudio))
	s.StartFn = func(s *Session) error {
		s.EmitSignal(core.SignalJoined)
		return nil
	}
	t.mu.Lock()
	t.opened = append(t.opened, s)
	t.mu.Unlock()
	return s, nil
}

// Opened returns every session handed out so far.
func (t *Transport) Opened() []*Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*Session(nil), t.opened...)
}
