package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/SantaCall/internal/adapters/signal"
	"github.com/dkeye/SantaCall/internal/app"
	"github.com/dkeye/SantaCall/internal/app/call"
	"github.com/dkeye/SantaCall/internal/config"
	"github.com/dkeye/SantaCall/internal/domain"
)

type handlers struct {
	cfg    *config.Config
	reg    *app.Registry
	starts *signal.RateLimiter
}

type InfoResponse struct {
	Agent         string   `json:"agent"`
	Version       string   `json:"version"`
	ChristmasYear int      `json:"christmas_year"`
	Status        string   `json:"status"`
	Endpoints     []string `json:"endpoints"`
}

type MuteResponse struct {
	Muted bool `json:"muted"`
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) info(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		Agent:         h.cfg.Agent.Name,
		Version:       h.cfg.Version,
		ChristmasYear: h.cfg.ChristmasYear,
		Status:        "ready",
		Endpoints: []string{
			"/health",
			"/api/info",
			"/api/settings",
			"/api/call/state",
			"/api/call/start",
			"/api/call/hangup",
			"/api/call/mute",
			"/api/ws/ui",
		},
	})
}

// client resolves the caller's Client, answering 401 when it cannot.
func (h *handlers) client(c *gin.Context) (*app.Client, bool) {
	client, err := h.reg.GetOrCreate(c.GetString(tokenKey))
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("no client")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no client"})
		return nil, false
	}
	return client, true
}

func (h *handlers) getSettings(c *gin.Context) {
	client, ok := h.client(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, client.AudioSettings())
}

func (h *handlers) putSettings(c *gin.Context) {
	client, ok := h.client(c)
	if !ok {
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	s, ok := domain.ParseAudioSettings(body)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings"})
		return
	}
	if err := client.SaveAudioSettings(s); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("client", client.Token).Msg("save settings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "settings not saved"})
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *handlers) callState(c *gin.Context) {
	client, ok := h.client(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, client.Call.Snapshot())
}

func (h *handlers) startCall(c *gin.Context) {
	client, ok := h.client(c)
	if !ok {
		return
	}
	if h.starts != nil && !h.starts.Allow(client.Token) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many starts"})
		return
	}

	err := client.Call.Start(c.Request.Context())
	var connErr *call.ConnectionError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, client.Call.Snapshot())
	case errors.Is(err, call.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, call.ErrCanceled):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &connErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": connErr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *handlers) hangupCall(c *gin.Context) {
	client, ok := h.client(c)
	if !ok {
		return
	}
	client.Call.Hangup(c.Request.Context())
	c.JSON(http.StatusOK, client.Call.Snapshot())
}

func (h *handlers) toggleMute(c *gin.Context) {
	client, ok := h.client(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, MuteResponse{Muted: client.Call.ToggleMute()})
}
