package call

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dkeye/SantaCall/internal/core"
	"github.com/dkeye/SantaCall/internal/domain"
)

// disconnect tears down cs, or the current call when cs is nil. It reports
// whether this invocation did the teardown; later invocations for the same
// call are no-ops. Every step runs even when an earlier one fails.
func (c *Controller) disconnect(cs *callSession, reason string) bool {
	c.mu.Lock()
	if c.cur == nil || (cs != nil && c.cur != cs) {
		c.mu.Unlock()
		return false
	}
	cs = c.cur
	c.cur = nil
	c.state = StateEnding
	sess := cs.session
	offs := cs.offs
	remote := cs.remote
	cs.session, cs.offs, cs.remote = nil, nil, nil
	c.mu.Unlock()

	lg := cs.log.With().Str("reason", reason).Logger()
	lg.Info().Msg("disconnecting")

	if sess != nil {
		step(lg, "stop local tracks", func() {
			for _, t := range localTracks(sess, lg, false) {
				t.Stop()
			}
		})
	}
	step(lg, "remove listeners", func() {
		for _, off := range offs {
			off()
		}
	})
	if sess != nil {
		step(lg, "disconnect session", func() {
			if err := sess.Disconnect(); err != nil {
				lg.Warn().Err(err).Msg("session disconnect failed")
			}
		})
	}
	step(lg, "clear remote media", func() {
		for _, s := range remote {
			for _, t := range s.Tracks() {
				t.Stop()
			}
		}
		c.sink.ClearMedia()
	})
	step(lg, "reset gifts", func() {
		c.dispatchMu.Lock()
		defer c.dispatchMu.Unlock()
		if c.ui != nil {
			c.ui.Reset()
		}
		c.sink.ShowPlaceholder()
	})
	c.muteMu.Lock()
	step(lg, "reset controls", func() {
		c.sink.SetControls(domain.InitialControls())
		c.sink.ShowStatus(domain.Banner{Kind: domain.BannerIdle, Text: idleText})
	})

	c.mu.Lock()
	c.state = StateIdle
	c.muted = false
	c.mu.Unlock()
	c.muteMu.Unlock()

	cs.finish()
	lg.Info().Msg("call ended")
	return true
}

// step runs fn and turns a panic into a warning so the remaining steps
// still run.
func step(lg zerolog.Logger, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			lg.Warn().Str("step", name).Err(fmt.Errorf("%v", r)).Msg("cleanup step failed")
		}
	}()
	fn()
}

// releaseLateSession frees a session that finished opening after its call
// was already torn down.
func releaseLateSession(sess core.Session, lg zerolog.Logger) {
	step(lg, "stop late tracks", func() {
		for _, t := range localTracks(sess, lg, false) {
			t.Stop()
		}
	})
	step(lg, "disconnect late session", func() {
		if err := sess.Disconnect(); err != nil {
			lg.Warn().Err(err).Msg("late session disconnect failed")
		}
	})
}
