package domain

// BannerKind selects the styling of the status banner.
type BannerKind string

const (
	BannerIdle       BannerKind = "idle"
	BannerConnecting BannerKind = "connecting"
	BannerActive     BannerKind = "active"
	BannerSearching  BannerKind = "searching"
	BannerSelecting  BannerKind = "selecting"
	BannerConfirmed  BannerKind = "confirmed"
	BannerError      BannerKind = "error"
)

type Banner struct {
	Kind BannerKind `json:"kind"`
	Text string     `json:"text"`
}

// Controls is the enabled/label configuration of the call buttons.
type Controls struct {
	StartEnabled  bool `json:"start_enabled"`
	HangupEnabled bool `json:"hangup_enabled"`
	MuteEnabled   bool `json:"mute_enabled"`
	Muted         bool `json:"muted"`
}

// InitialControls is the configuration shown before any call.
func InitialControls() Controls {
	return Controls{StartEnabled: true}
}

// MediaInfo describes a remote stream attached to the media element.
type MediaInfo struct {
	StreamID string `json:"stream_id"`
	Kind     string `json:"kind"`
}
