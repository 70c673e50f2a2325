package domain

import "encoding/json"

// AudioSettingsKey is the fixed storage key for AudioSettings.
const AudioSettingsKey = "santa.audioSettings"

// AudioSettings are the microphone processing options applied when a call
// is opened. They outlive any single call.
type AudioSettings struct {
	EchoCancellation bool `json:"echoCancellation"`
	NoiseSuppression bool `json:"noiseSuppression"`
	AutoGainControl  bool `json:"autoGainControl"`
}

func DefaultAudioSettings() AudioSettings {
	return AudioSettings{
		EchoCancellation: true,
		NoiseSuppression: true,
		AutoGainControl:  true,
	}
}

// ParseAudioSettings decodes a stored value. Fields missing from the stored
// JSON keep their defaults; unparseable input yields defaults and ok=false.
func ParseAudioSettings(raw []byte) (AudioSettings, bool) {
	s := DefaultAudioSettings()
	if len(raw) == 0 {
		return s, false
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return DefaultAudioSettings(), false
	}
	return s, true
}
