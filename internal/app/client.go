package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/SantaCall/internal/app/call"
	"github.com/dkeye/SantaCall/internal/app/ui"
	"github.com/dkeye/SantaCall/internal/core"
	"github.com/dkeye/SantaCall/internal/domain"
)

// SettingsStore persists AudioSettings per client token.
type SettingsStore interface {
	LoadAudioSettings(client string) domain.AudioSettings
	SaveAudioSettings(client string, s domain.AudioSettings) error
}

type ClientDeps struct {
	Transport core.Transport
	// Media is the browser media leg; nil runs calls without browser audio.
	Media            core.MediaConnection
	Settings         SettingsStore
	Call             call.Config
	NiceListDuration time.Duration
	Policy           Policy
	// NewSink encodes UI updates for the hub.
	NewSink func(core.Publisher) core.UISink
}

// Client is everything one browser token owns: its hub of tabs, the call
// controller, the gift dispatcher and the media leg.
type Client struct {
	Token    string
	Hub      *Hub
	Sink     core.UISink
	Call     *call.Controller
	UI       *ui.Dispatcher
	Media    core.MediaConnection
	settings SettingsStore

	mu     sync.Mutex
	caller domain.Caller
}

func NewClient(token string, deps ClientDeps) (*Client, error) {
	caller, err := domain.NewCaller(domain.DefaultCallerName)
	if err != nil {
		return nil, err
	}
	hub := NewHub(token, deps.Policy)
	sink := deps.NewSink(hub)
	c := &Client{
		Token:    token,
		Hub:      hub,
		Sink:     sink,
		Media:    deps.Media,
		settings: deps.Settings,
		caller:   *caller,
	}
	c.UI = ui.NewDispatcher(sink, deps.NiceListDuration)
	c.Call = call.NewController(deps.Call, deps.Transport, sink, c.UI, c)
	c.Call.SetCaller(*caller)
	return c, nil
}

func (c *Client) Caller() domain.Caller {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.caller
}

// Rename validates and applies a new display name for future calls.
func (c *Client) Rename(name string) (domain.Caller, error) {
	c.mu.Lock()
	if err := c.caller.SetName(name); err != nil {
		c.mu.Unlock()
		return domain.Caller{}, err
	}
	caller := c.caller
	c.mu.Unlock()
	c.Call.SetCaller(caller)
	log.Info().Str("module", "app.client").Str("client", c.Token).Str("name", caller.Name).Msg("renamed")
	return caller, nil
}

// AudioSettings makes Client the controller's settings source.
func (c *Client) AudioSettings() domain.AudioSettings {
	if c.settings == nil {
		return domain.DefaultAudioSettings()
	}
	return c.settings.LoadAudioSettings(c.Token)
}

func (c *Client) SaveAudioSettings(s domain.AudioSettings) error {
	if c.settings == nil {
		return nil
	}
	return c.settings.SaveAudioSettings(c.Token, s)
}

// Close destroys any call and releases the media leg and browser sockets.
func (c *Client) Close() {
	c.Call.Destroy()
	c.UI.Reset()
	if c.Media != nil {
		c.Media.Close()
	}
	c.Hub.CloseAll()
}
