package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/SantaCall/internal/app"
	"github.com/dkeye/SantaCall/internal/core"
	"github.com/dkeye/SantaCall/internal/domain"
)

// handleSettings stores new audio settings when the message carries them and
// always answers with the settings now in effect. They apply to the next call.
func (ctl *SignalWSController) handleSettings(client *app.Client, conn core.SignalConnection, data []byte) {
	var p struct {
		Settings json.RawMessage `json:"settings"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(conn, "bad_payload")
		return
	}
	if len(p.Settings) > 0 {
		s, ok := domain.ParseAudioSettings(p.Settings)
		if !ok {
			ctl.sendError(conn, "bad_settings")
			return
		}
		if err := client.SaveAudioSettings(s); err != nil {
			log.Error().Err(err).Str("module", "signal").Str("client", client.Token).Msg("save settings")
			ctl.sendError(conn, "settings_not_saved")
			return
		}
	}
	resp := struct {
		Type     string               `json:"type"`
		Settings domain.AudioSettings `json:"settings"`
	}{
		Type:     "settings",
		Settings: client.AudioSettings(),
	}
	ctl.sendJSON(conn, resp)
}
