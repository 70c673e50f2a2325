package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/dkeye/SantaCall/internal/app/call"
	"github.com/dkeye/SantaCall/internal/core"
	"github.com/dkeye/SantaCall/internal/core/coretest"
	"github.com/dkeye/SantaCall/internal/domain"
)

type memSettings struct {
	saved map[string]domain.AudioSettings
}

func (m *memSettings) LoadAudioSettings(client string) domain.AudioSettings {
	if s, ok := m.saved[client]; ok {
		return s
	}
	return domain.DefaultAudioSettings()
}

func (m *memSettings) SaveAudioSettings(client string, s domain.AudioSettings) error {
	m.saved[client] = s
	return nil
}

type fakeMedia struct{ closed bool }

func (m *fakeMedia) HandleOffer(string) (string, error) { return "", nil }
func (m *fakeMedia) AddICECandidate(webrtc.ICECandidateInit) error {
	return nil
}
func (m *fakeMedia) OnICECandidate(func(webrtc.ICECandidateInit)) {}
func (m *fakeMedia) Close()                                       { m.closed = true }

type testEnv struct {
	transport *coretest.Transport
	settings  *memSettings
	sinks     map[string]*coretest.Sink
	media     map[string]*fakeMedia
}

func newTestRegistry() (*Registry, *testEnv) {
	env := &testEnv{
		transport: &coretest.Transport{},
		settings:  &memSettings{saved: map[string]domain.AudioSettings{}},
		sinks:     map[string]*coretest.Sink{},
		media:     map[string]*fakeMedia{},
	}
	reg := NewRegistry(func(token string) (*Client, error) {
		sink := &coretest.Sink{}
		media := &fakeMedia{}
		env.sinks[token] = sink
		env.media[token] = media
		return NewClient(token, ClientDeps{
			Transport:        env.transport,
			Media:            media,
			Settings:         env.settings,
			Call:             call.Config{Target: "santa"},
			NiceListDuration: time.Second,
			NewSink:          func(core.Publisher) core.UISink { return sink },
		})
	})
	return reg, env
}

func TestRegistry_GetOrCreateReusesClient(t *testing.T) {
	reg, _ := newTestRegistry()

	a, err := reg.GetOrCreate("t1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, _ := reg.GetOrCreate("t1")
	c, _ := reg.GetOrCreate("t2")

	if a != b || a == c || reg.Len() != 2 {
		t.Fatalf("a==b %v, a==c %v, len %d", a == b, a == c, reg.Len())
	}
	if _, err := reg.GetOrCreate(""); !errors.Is(err, ErrNoToken) {
		t.Fatalf("empty token err = %v", err)
	}
}

func TestClient_CallUsesStoredSettingsAndCaller(t *testing.T) {
	reg, env := newTestRegistry()
	c, _ := reg.GetOrCreate("t1")

	want := domain.AudioSettings{EchoCancellation: true}
	if err := c.SaveAudioSettings(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := c.Rename("  Mia "); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if err := c.Call.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	if env.transport.LastOpts.Audio != want {
		t.Fatalf("audio = %+v", env.transport.LastOpts.Audio)
	}
	if env.transport.LastMeta.Caller.Name != "Mia" || env.transport.LastMeta.Caller.ID != c.Caller().ID {
		t.Fatalf("caller = %+v", env.transport.LastMeta.Caller)
	}
}

func TestClient_RenameRejectsInvalid(t *testing.T) {
	reg, _ := newTestRegistry()
	c, _ := reg.GetOrCreate("t1")
	before := c.Caller()

	if _, err := c.Rename("   "); !errors.Is(err, domain.ErrCallerNameEmpty) {
		t.Fatalf("err = %v", err)
	}
	if c.Caller() != before {
		t.Fatalf("caller changed on invalid rename")
	}
}

func TestRegistry_RemoveEndsCallAndClosesMedia(t *testing.T) {
	reg, env := newTestRegistry()
	c, _ := reg.GetOrCreate("t1")
	if err := c.Call.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	reg.Remove("t1")

	if c.Call.State() != call.StateIdle {
		t.Fatalf("state = %s", c.Call.State())
	}
	if !env.media["t1"].closed {
		t.Fatalf("media not closed")
	}
	if env.transport.Opened()[0].Disconnects.Load() != 1 {
		t.Fatalf("session not disconnected")
	}
	if _, ok := reg.Get("t1"); ok {
		t.Fatalf("client still registered")
	}
}

func TestRegistry_CloseAll(t *testing.T) {
	reg, env := newTestRegistry()
	for _, tok := range []string{"a", "b"} {
		if _, err := reg.GetOrCreate(tok); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	reg.CloseAll()
	if reg.Len() != 0 || !env.media["a"].closed || !env.media["b"].closed {
		t.Fatalf("not all clients closed")
	}
}
