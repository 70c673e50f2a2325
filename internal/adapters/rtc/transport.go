package rtc

import (
	"context"
	"errors"
	"fmt"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/SantaCall/internal/core"
)

type Config struct {
	// AgentURL is the agent gateway WebSocket endpoint.
	AgentURL   string
	ICEServers []string
}

// Transport opens agent calls for one client. Bridge may be nil, in which
// case the call carries no browser media.
type Transport struct {
	cfg    Config
	api    *webrtc.API
	bridge *Bridge
}

func NewTransport(cfg Config, api *webrtc.API, bridge *Bridge) *Transport {
	return &Transport{cfg: cfg, api: api, bridge: bridge}
}

// Open dials the agent, waits for it to accept, and sends the media offer.
// The answer and joined arrive after Session.Start.
func (t *Transport) Open(ctx context.Context, target string, opts core.MediaOptions, meta core.CallMeta) (core.Session, error) {
	logger := log.With().Str("module", "rtc").Str("call_id", meta.CallID).Logger()

	conn, err := dialAgent(ctx, t.cfg.AgentURL)
	if err != nil {
		return nil, err
	}
	if err := conn.send(ctx, dialMessage(target, opts, meta)); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send dial: %w", err)
	}
	if err := conn.awaitAccepted(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}

	pc, err := NewConnection(t.api, DefaultWebRTCConfig(t.cfg.ICEServers), logger)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("new peer connection: %w", err)
	}

	mic, err := NewLocalTrack(core.TrackKindAudio, "mic-"+meta.CallID, "call-"+meta.CallID)
	if err != nil {
		_ = pc.Close()
		_ = conn.Close()
		return nil, err
	}
	sender, err := pc.AddLocalTrack(mic)
	if err != nil {
		_ = pc.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("add local track: %w", err)
	}
	go drainRTCP(sender, logger)
	if opts.Video {
		if err := pc.AddRecvOnly(webrtc.RTPCodecTypeVideo); err != nil {
			logger.Warn().Err(err).Msg("video transceiver")
		}
	}

	sess := newSession(meta.CallID, conn, pc, mic, t.bridge, logger)
	if t.bridge != nil {
		t.bridge.AttachMic(mic)
	}
	sess.bindPeer()

	offer, err := pc.CreateOffer()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create offer: %w", err), sess.Disconnect())
	}
	if err := sess.sendOffer(ctx, offer.SDP); err != nil {
		return nil, errors.Join(fmt.Errorf("send offer: %w", err), sess.Disconnect())
	}

	return sess, nil
}
