package rtc

import (
	"context"
	"maps"
	"sync"
	"sync/atomic"

	"github.com/pion/interceptor"
	"github.com/pion/rtp"
	"github.com/rs/zerolog"
)

type packetSource interface {
	ReadRTP() (*rtp.Packet, interceptor.Attributes, error)
}

// Relay copies RTP from one remote track to any number of local tracks.
type Relay struct {
	src packetSource

	mu      sync.RWMutex
	outputs map[string]*LocalTrack

	paused atomic.Bool
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRelay(src packetSource) *Relay {
	return &Relay{
		src:     src,
		outputs: make(map[string]*LocalTrack),
		done:    make(chan struct{}),
	}
}

// Start runs the read loop until ctx is done, Stop is called or the source
// fails.
func (r *Relay) Start(ctx context.Context, logger zerolog.Logger) {
	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()
	go r.loop(ctx, logger)
}

func (r *Relay) loop(ctx context.Context, logger zerolog.Logger) {
	defer close(r.done)
	defer r.detachAll()
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("relay ctx done")
			return
		default:
		}
		pkt, _, err := r.src.ReadRTP()
		if err != nil {
			logger.Debug().Err(err).Msg("relay read RTP stopped")
			return
		}
		if r.paused.Load() {
			continue
		}
		r.forward(pkt, logger)
	}
}

func (r *Relay) forward(pkt *rtp.Packet, logger zerolog.Logger) {
	r.mu.RLock()
	snapshot := maps.Clone(r.outputs)
	r.mu.RUnlock()

	dirty := make([]string, 0, len(snapshot))
	for id, out := range snapshot {
		switch out.State() {
		case TrackStateDelete:
			dirty = append(dirty, id)
		case TrackStateMuted:
		case TrackStateOk:
			if err := out.WriteRTP(pkt); err != nil {
				logger.Error().
					Err(err).
					Str("track_id", id).
					Msg("relay write RTP error, dropping output")
				dirty = append(dirty, id)
			}
		}
	}

	if len(dirty) > 0 {
		r.mu.Lock()
		for _, id := range dirty {
			delete(r.outputs, id)
		}
		r.mu.Unlock()
	}
}

func (r *Relay) AddOutput(t *LocalTrack) {
	r.mu.Lock()
	r.outputs[t.ID()] = t
	r.mu.Unlock()
}

func (r *Relay) RemoveOutput(id string) {
	r.mu.Lock()
	delete(r.outputs, id)
	r.mu.Unlock()
}

func (r *Relay) Outputs() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.outputs)
}

// SetPaused stops forwarding without tearing the relay down.
func (r *Relay) SetPaused(v bool) { r.paused.Store(v) }
func (r *Relay) Paused() bool     { return r.paused.Load() }

// Stop cancels the loop. Outputs are detached, not stopped: they may be
// owned by a longer-lived leg.
func (r *Relay) Stop() {
	r.mu.RLock()
	cancel := r.cancel
	r.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
}

// Done is closed when the loop has exited.
func (r *Relay) Done() <-chan struct{} { return r.done }

func (r *Relay) detachAll() {
	r.mu.Lock()
	clear(r.outputs)
	r.mu.Unlock()
}
