// Package call owns the lifecycle of a single call to the agent: opening
// it, reconciling lifecycle signals that arrive in any order, and tearing
// it down exactly once.
package call

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/SantaCall/internal/app/events"
	"github.com/dkeye/SantaCall/internal/core"
	"github.com/dkeye/SantaCall/internal/domain"
)

const (
	DefaultConnectTimeout = 30 * time.Second
	DefaultHangupTimeout  = 5 * time.Second
)

const (
	connectingText = "Calling the North Pole..."
	activeText     = "Connected! Say hello to Santa!"
	idleText       = "Press the button to call Santa"
	failedText     = "Could not reach the North Pole. Please try again."
)

// Dispatcher receives domain events decoded from user events.
type Dispatcher interface {
	Dispatch(ev domain.DomainEvent)
	Reset()
	State() domain.GiftState
}

type Config struct {
	// Target is the fixed address the agent answers on.
	Target         string
	ConnectTimeout time.Duration
	HangupTimeout  time.Duration
}

// Controller is the state machine IDLE → CONNECTING → ACTIVE → ENDING → IDLE
// for one browser client. At most one call exists at a time.
type Controller struct {
	cfg       Config
	transport core.Transport
	sink      core.UISink
	ui        Dispatcher
	settings  core.SettingsSource

	mu     sync.Mutex
	state  State
	muted  bool
	caller domain.Caller
	cur    *callSession

	// muteMu orders mute toggles and the control reset of cleanup so track
	// state and the mute flag move together.
	muteMu sync.Mutex
	// dispatchMu orders domain events against the gift reset of cleanup.
	dispatchMu sync.Mutex
}

// callSession is everything owned by one call. It is never reused.
type callSession struct {
	id  string
	log zerolog.Logger

	// guarded by Controller.mu
	session core.Session
	offs    []func()
	remote  []core.Stream

	joined   chan struct{}
	joinOnce sync.Once
	ended    chan struct{}
	endOnce  sync.Once
}

func newCallSession() *callSession {
	id := uuid.NewString()
	return &callSession{
		id:     id,
		log:    log.With().Str("module", "call").Str("call_id", id).Logger(),
		joined: make(chan struct{}),
		ended:  make(chan struct{}),
	}
}

func (cs *callSession) markJoined() { cs.joinOnce.Do(func() { close(cs.joined) }) }
func (cs *callSession) finish()     { cs.endOnce.Do(func() { close(cs.ended) }) }

func NewController(cfg Config, transport core.Transport, sink core.UISink, ui Dispatcher, settings core.SettingsSource) *Controller {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.HangupTimeout <= 0 {
		cfg.HangupTimeout = DefaultHangupTimeout
	}
	return &Controller{
		cfg:       cfg,
		transport: transport,
		sink:      sink,
		ui:        ui,
		settings:  settings,
		caller:    domain.Caller{Name: domain.DefaultCallerName},
	}
}

// SetCaller changes the metadata sent with the next call.
func (c *Controller) SetCaller(caller domain.Caller) {
	c.mu.Lock()
	c.caller = caller
	c.mu.Unlock()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start opens a call and blocks until the agent has joined, the call was
// torn down, or the connect timeout expired. It returns ErrBusy without side
// effects when a call is already connecting or active.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.cur != nil || c.state != StateIdle {
		st := c.state
		c.mu.Unlock()
		log.Debug().Str("module", "call").Stringer("state", st).Msg("start ignored")
		return ErrBusy
	}
	cs := newCallSession()
	c.cur = cs
	c.state = StateConnecting
	c.muted = false
	meta := core.CallMeta{CallID: cs.id, Caller: c.caller}
	c.mu.Unlock()

	cs.log.Info().Str("target", c.cfg.Target).Msg("connecting")
	c.sink.SetControls(domain.Controls{HangupEnabled: true})
	c.sink.ShowStatus(domain.Banner{Kind: domain.BannerConnecting, Text: connectingText})

	connectCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()

	opts := core.MediaOptions{Audio: c.audioSettings()}
	sess, err := c.transport.Open(connectCtx, c.cfg.Target, opts, meta)
	if err != nil {
		return c.failConnect(cs, err)
	}

	c.mu.Lock()
	if c.cur != cs {
		c.mu.Unlock()
		cs.log.Info().Msg("call torn down while opening, releasing late session")
		releaseLateSession(sess, cs.log)
		return ErrCanceled
	}
	cs.session = sess
	// Listeners go in before Start so no termination signal is missed.
	cs.offs = c.subscribe(cs, sess)
	c.mu.Unlock()

	if err := sess.Start(connectCtx); err != nil {
		return c.failConnect(cs, err)
	}

	select {
	case <-cs.joined:
	case <-cs.ended:
		return ErrCanceled
	case <-connectCtx.Done():
		return c.failConnect(cs, connectCtx.Err())
	}

	c.mu.Lock()
	active := c.cur == cs && c.state == StateActive
	c.mu.Unlock()
	if !active {
		return ErrCanceled
	}
	return nil
}

func (c *Controller) failConnect(cs *callSession, err error) error {
	cerr := &ConnectionError{Err: err}
	cs.log.Error().Err(cerr).Msg("connect failed")
	if c.disconnect(cs, "connect failed") {
		c.sink.ShowStatus(domain.Banner{Kind: domain.BannerError, Text: failedText})
	}
	return cerr
}

// Hangup ends the current call. A failing graceful hangup is logged and
// cleanup proceeds regardless.
func (c *Controller) Hangup(ctx context.Context) {
	c.mu.Lock()
	cs := c.cur
	var sess core.Session
	if cs != nil {
		sess = cs.session
	}
	c.mu.Unlock()
	if cs == nil {
		return
	}

	if sess != nil {
		hctx, cancel := context.WithTimeout(ctx, c.cfg.HangupTimeout)
		err := sess.Hangup(hctx)
		cancel()
		if err != nil {
			cs.log.Warn().Err(&HangupError{Err: err}).Msg("graceful hangup failed, cleaning up anyway")
		}
	}
	c.disconnect(cs, "hangup")
}

// Destroy handles an external destroy request.
func (c *Controller) Destroy() { c.disconnect(nil, "destroy") }

// Unload handles the browser page going away.
func (c *Controller) Unload() { c.disconnect(nil, "page unload") }

// ToggleMute flips the mute flag and applies it to every local audio track
// directly. It returns the resulting flag; without an active call, or when no
// audio track can be reached, nothing changes.
func (c *Controller) ToggleMute() bool {
	c.muteMu.Lock()
	defer c.muteMu.Unlock()

	c.mu.Lock()
	cs := c.cur
	if cs == nil || c.state != StateActive || cs.session == nil {
		muted := c.muted
		c.mu.Unlock()
		return muted
	}
	sess := cs.session
	c.mu.Unlock()

	tracks := localTracks(sess, cs.log, true)
	if len(tracks) == 0 {
		cs.log.Warn().Err(ErrMuteTrackUnavailable).Msg("mute toggle skipped")
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.muted
	}

	c.mu.Lock()
	if c.cur != cs {
		muted := c.muted
		c.mu.Unlock()
		return muted
	}
	c.muted = !c.muted
	muted := c.muted
	c.mu.Unlock()

	for _, t := range tracks {
		t.SetEnabled(!muted)
	}
	cs.log.Info().Bool("muted", muted).Int("tracks", len(tracks)).Msg("mute toggled")
	c.sink.SetControls(domain.Controls{HangupEnabled: true, MuteEnabled: true, Muted: muted})
	return muted
}

// Snapshot is a read-only view for REST and reconnecting browsers.
type Snapshot struct {
	State  State            `json:"state"`
	Muted  bool             `json:"muted"`
	CallID string           `json:"call_id,omitempty"`
	Gifts  domain.GiftState `json:"gifts"`
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	snap := Snapshot{State: c.state, Muted: c.muted}
	if c.cur != nil {
		snap.CallID = c.cur.id
	}
	c.mu.Unlock()
	if c.ui != nil {
		snap.Gifts = c.ui.State()
	}
	return snap
}

func (c *Controller) audioSettings() domain.AudioSettings {
	if c.settings == nil {
		return domain.DefaultAudioSettings()
	}
	return c.settings.AudioSettings()
}

func (c *Controller) onJoined(cs *callSession) {
	c.mu.Lock()
	if c.cur != cs || c.state != StateConnecting {
		c.mu.Unlock()
		return
	}
	c.state = StateActive
	c.mu.Unlock()

	cs.log.Info().Msg("joined")
	c.sink.SetControls(domain.Controls{HangupEnabled: true, MuteEnabled: true})
	c.sink.ShowStatus(domain.Banner{Kind: domain.BannerActive, Text: activeText})
	cs.markJoined()
}

func (c *Controller) onStream(cs *callSession, ev core.Event) {
	if ev.Stream == nil {
		return
	}
	c.mu.Lock()
	if c.cur != cs {
		c.mu.Unlock()
		for _, t := range ev.Stream.Tracks() {
			t.Stop()
		}
		return
	}
	cs.remote = append(cs.remote, ev.Stream)
	c.mu.Unlock()

	kind := string(core.TrackKindAudio)
	for _, t := range ev.Stream.Tracks() {
		if t.Kind() == core.TrackKindVideo {
			kind = string(core.TrackKindVideo)
		}
	}
	c.sink.AttachMedia(domain.MediaInfo{StreamID: ev.Stream.ID(), Kind: kind})
}

func (c *Controller) onUserEvent(cs *callSession, ev core.Event) {
	if c.ui == nil || !c.isCurrent(cs) {
		return
	}
	de, err := events.Parse(ev.Payload)
	if err != nil {
		cs.log.Warn().Err(err).Msg("user event dropped")
		return
	}

	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()
	// cleanup may have reset the gifts while the event was being parsed
	if !c.isCurrent(cs) {
		cs.log.Debug().Msg("user event after teardown dropped")
		return
	}
	c.ui.Dispatch(de)
}

func (c *Controller) isCurrent(cs *callSession) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur == cs
}

// localTracks reaches the local tracks through the primary path and falls
// back to the local stream.
func localTracks(sess core.Session, lg zerolog.Logger, audioOnly bool) []core.Track {
	var out []core.Track
	tracks, err := sess.LocalTracks()
	if err != nil {
		lg.Debug().Err(err).Msg("local tracks unavailable, trying local stream")
	}
	for _, t := range tracks {
		if t != nil && (!audioOnly || t.Kind() == core.TrackKindAudio) {
			out = append(out, t)
		}
	}
	if len(out) > 0 {
		return out
	}

	stream, err := sess.LocalStream()
	if err != nil || stream == nil {
		return nil
	}
	if audioOnly {
		return core.AudioTracks(stream)
	}
	for _, t := range stream.Tracks() {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}
