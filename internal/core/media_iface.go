package core

import (
	"github.com/pion/webrtc/v4"
)

// MediaConnection is a client's browser media leg. It outlives calls.
type MediaConnection interface {
	// HandleOffer applies the browser's offer and returns the answer SDP.
	HandleOffer(sdp string) (string, error)
	// AddICECandidate applies a remote ICE candidate.
	AddICECandidate(webrtc.ICECandidateInit) error
	// OnICECandidate sets a callback for newly gathered local ICE candidates.
	OnICECandidate(func(webrtc.ICECandidateInit))
	// Close stops all underlying media resources.
	Close()
}
