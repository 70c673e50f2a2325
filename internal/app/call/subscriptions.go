package call

import (
	"github.com/dkeye/SantaCall/internal/core"
)

// subscribe registers the lifecycle table for cs and returns the
// unsubscribe funcs. Handlers ignore events once cs is no longer current.
func (c *Controller) subscribe(cs *callSession, sess core.Session) []func() {
	table := []struct {
		sig core.Signal
		h   core.Handler
	}{
		{core.SignalJoined, func(core.Event) { c.onJoined(cs) }},
		{core.SignalUpdated, func(core.Event) {}},
		{core.SignalEnded, func(core.Event) { c.disconnect(cs, "ended") }},
		{core.SignalDestroy, func(core.Event) { c.disconnect(cs, "destroy") }},
		{core.SignalRoomLeft, func(core.Event) { c.disconnect(cs, "room left") }},
		{core.SignalStreamStarted, func(ev core.Event) { c.onStream(cs, ev) }},
		{core.SignalMediaConnected, func(core.Event) { cs.log.Debug().Msg("media connected") }},
		{core.SignalUserEvent, func(ev core.Event) { c.onUserEvent(cs, ev) }},
	}
	offs := make([]func(), 0, len(table))
	for _, e := range table {
		offs = append(offs, sess.On(e.sig, e.h))
	}
	return offs
}
