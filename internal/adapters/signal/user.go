package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/SantaCall/internal/app"
	"github.com/dkeye/SantaCall/internal/core"
	"github.com/dkeye/SantaCall/internal/domain"
)

func (ctl *SignalWSController) handleRename(
	client *app.Client,
	conn core.SignalConnection,
	data []byte,
) {
	type renamePayload struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	var p renamePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad rename payload")
		ctl.sendError(conn, "bad_payload")
		return
	}

	if _, err := client.Rename(p.Name); err != nil {
		code := "invalid_name"
		if errors.Is(err, domain.ErrCallerNameEmpty) {
			code = "empty_name"
		}
		ctl.sendError(conn, code)
		return
	}
	ctl.handleWhoAmI(client, conn)
}

func (ctl *SignalWSController) handleWhoAmI(
	client *app.Client,
	conn core.SignalConnection,
) {
	caller := client.Caller()
	resp := struct {
		Type     string          `json:"type"`
		ID       domain.CallerID `json:"id"`
		Username string          `json:"username"`
	}{
		Type:     "whoami",
		ID:       caller.ID,
		Username: caller.Name,
	}
	ctl.sendJSON(conn, resp)
}
