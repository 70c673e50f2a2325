package signal

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/SantaCall/internal/app"
	"github.com/dkeye/SantaCall/internal/core"
)

// iceCandidate is the browser's wire shape for a trickled candidate, used in
// both directions.
type iceCandidate struct {
	Type          string  `json:"type"`
	Candidate     string  `json:"candidate"`
	SDPMid        *string `json:"sdpMid,omitempty"`
	SDPMLineIndex *uint16 `json:"sdpMLineIndex,omitempty"`
}

func (p iceCandidate) init() webrtc.ICECandidateInit {
	ci := webrtc.ICECandidateInit{Candidate: p.Candidate, SDPMid: p.SDPMid, SDPMLineIndex: p.SDPMLineIndex}
	if ci.SDPMid != nil && *ci.SDPMid == "" {
		ci.SDPMid = nil
	}
	if ci.SDPMLineIndex == nil {
		var zero uint16
		ci.SDPMLineIndex = &zero
	}
	return ci
}

// sendCandidate trickles a bridge candidate to every tab of the client; the
// tab that owns the peer connection applies it.
func (ctl *SignalWSController) sendCandidate(pub core.Publisher, ci webrtc.ICECandidateInit) {
	b, err := json.Marshal(iceCandidate{
		Type:          "candidate",
		Candidate:     ci.Candidate,
		SDPMid:        ci.SDPMid,
		SDPMLineIndex: ci.SDPMLineIndex,
	})
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("encode candidate")
		return
	}
	pub.Publish("candidate", b)
}

// handleOffer negotiates the browser media leg. It is independent of the
// call: the page may connect its microphone before pressing call.
func (ctl *SignalWSController) handleOffer(client *app.Client, conn core.SignalConnection, data []byte) {
	var p struct {
		SDP string `json:"sdp"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.SDP == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad offer payload")
		ctl.sendError(conn, "bad_offer")
		return
	}
	if client.Media == nil {
		ctl.sendError(conn, "media_unavailable")
		return
	}

	answer, err := client.Media.HandleOffer(p.SDP)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("client", client.Token).Msg("webrtc apply offer")
		ctl.sendError(conn, "bad_offer")
		return
	}
	ctl.sendJSON(conn, map[string]string{"type": "answer", "sdp": answer})
}

func (ctl *SignalWSController) handleCandidate(client *app.Client, data []byte) {
	var p iceCandidate
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad candidate payload")
		return
	}
	if client.Media == nil {
		log.Warn().Str("module", "signal").Str("client", client.Token).Msg("candidate: no media connection")
		return
	}
	if err := client.Media.AddICECandidate(p.init()); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("client", client.Token).Msg("add ice candidate")
	}
}
