package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/SantaCall/internal/app"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	var ping <-chan time.Time
	if ctl.PingPeriod > 0 {
		ticker := time.NewTicker(ctl.PingPeriod)
		defer ticker.Stop()
		ping = ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			return
		case <-ping:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

// keepAlive makes the read side expect a pong within a little more than one
// ping period.
func (ctl *SignalWSController) keepAlive(c *WsSignalConn) {
	if ctl.PingPeriod <= 0 {
		return
	}
	pongWait := ctl.PingPeriod * 10 / 9
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// readPump owns the connection. When the last tab of a client goes away the
// page is considered unloaded and any call is torn down.
func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, client *app.Client, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("client", client.Token).Msg("readPump closing")
		cancel()
		c.Close()
		if client.Hub.Detach(c) == 0 {
			client.Call.Unload()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("client", client.Token).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("client", client.Token).Msg("readPump read error")
				return
			}
			ctl.handleSignal(client, c, data)
		}
	}
}

func (ctl *SignalWSController) handleSignal(client *app.Client, c *WsSignalConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}

	switch env.Type {
	case "start":
		ctl.handleStart(client, c)
	case "hangup":
		ctl.handleHangup(client)
	case "mute":
		ctl.handleMute(client)
	case "unload":
		ctl.handleUnload(client)
	case "card_click":
		ctl.handleCardClick(client, c, data)
	case "settings":
		ctl.handleSettings(client, c, data)
	case "rename":
		ctl.handleRename(client, c, data)
	case "whoami":
		ctl.handleWhoAmI(client, c)
	case "state":
		ctl.handleState(client, c)
	case "ping":
		ctl.handlePing(c)
	case "offer":
		ctl.handleOffer(client, c, data)
	case "candidate":
		ctl.handleCandidate(client, data)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
	}
}
