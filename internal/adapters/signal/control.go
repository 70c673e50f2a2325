package signal

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/SantaCall/internal/app"
	"github.com/dkeye/SantaCall/internal/app/call"
	"github.com/dkeye/SantaCall/internal/core"
)

func (ctl *SignalWSController) handlePing(conn core.SignalConnection) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}

func (ctl *SignalWSController) handleStart(client *app.Client, conn core.SignalConnection) {
	if ctl.Starts != nil && !ctl.Starts.Allow(client.Token) {
		log.Warn().Str("module", "signal").Str("client", client.Token).Msg("start rate limited")
		ctl.sendError(conn, "too_many_starts")
		return
	}
	ctl.background(opTimeout, func(ctx context.Context) {
		err := client.Call.Start(ctx)
		switch {
		case err == nil:
		case errors.Is(err, call.ErrBusy), errors.Is(err, call.ErrCanceled):
			log.Debug().Err(err).Str("module", "signal").Str("client", client.Token).Msg("start")
		default:
			log.Warn().Err(err).Str("module", "signal").Str("client", client.Token).Msg("start failed")
		}
	})
}

func (ctl *SignalWSController) handleHangup(client *app.Client) {
	ctl.background(opTimeout, func(ctx context.Context) {
		client.Call.Hangup(ctx)
	})
}

func (ctl *SignalWSController) handleMute(client *app.Client) {
	client.Call.ToggleMute()
}

func (ctl *SignalWSController) handleUnload(client *app.Client) {
	client.Call.Unload()
}

func (ctl *SignalWSController) handleCardClick(client *app.Client, conn core.SignalConnection, data []byte) {
	var p struct {
		Option int `json:"option"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad card_click payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	client.UI.SelectCard(p.Option)
}

// handleState answers with the call snapshot, letting a reloaded page
// render the current call and gifts.
func (ctl *SignalWSController) handleState(client *app.Client, conn core.SignalConnection) {
	resp := struct {
		Type string        `json:"type"`
		Call call.Snapshot `json:"call"`
	}{
		Type: "state",
		Call: client.Call.Snapshot(),
	}
	ctl.sendJSON(conn, resp)
}
