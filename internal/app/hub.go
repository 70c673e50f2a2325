package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/SantaCall/internal/core"
)

// PublishResult reports delivery stats for one frame.
type PublishResult struct {
	SentTo  int
	Dropped []core.SignalConnection
}

// Hub fans frames out to every browser tab of one client. It never closes
// connections except when Policy says to kick.
type Hub struct {
	token  string
	policy Policy

	mu    sync.RWMutex
	conns map[core.SignalConnection]struct{}
}

func NewHub(token string, policy Policy) *Hub {
	if policy == nil {
		policy = SimplePolicy{}
	}
	return &Hub{
		token:  token,
		policy: policy,
		conns:  make(map[core.SignalConnection]struct{}),
	}
}

func (h *Hub) Attach(c core.SignalConnection) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	n := len(h.conns)
	h.mu.Unlock()
	log.Info().Str("module", "app.hub").Str("client", h.token).Int("conns", n).Msg("signal attached")
}

// Detach removes c and returns how many connections remain.
func (h *Hub) Detach(c core.SignalConnection) int {
	h.mu.Lock()
	delete(h.conns, c)
	n := len(h.conns)
	h.mu.Unlock()
	log.Info().Str("module", "app.hub").Str("client", h.token).Int("conns", n).Msg("signal detached")
	return n
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Publish sends f to all connections without blocking and applies the
// policy to those that could not take it.
func (h *Hub) Publish(kind string, f core.Frame) {
	res := h.broadcast(f)
	for _, slow := range res.Dropped {
		switch h.policy.OnBackPressure(kind) {
		case KickClient:
			log.Warn().Str("module", "app.hub").Str("client", h.token).Str("frame", kind).Msg("kicking slow browser")
			h.Detach(slow)
			slow.Close()
		case DropFrame, NoAction:
			log.Debug().Str("module", "app.hub").Str("client", h.token).Str("frame", kind).Msg("frame dropped")
		}
	}
}

func (h *Hub) broadcast(f core.Frame) PublishResult {
	h.mu.RLock()
	defer h.mu.RUnlock()
	res := PublishResult{}
	for c := range h.conns {
		if err := c.TrySend(f); err != nil {
			res.Dropped = append(res.Dropped, c)
			continue
		}
		res.SentTo++
	}
	return res
}

// CloseAll closes every attached connection.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	conns := make([]core.SignalConnection, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	clear(h.conns)
	h.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}
}
