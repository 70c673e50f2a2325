package call

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/SantaCall/internal/app/ui"
	"github.com/dkeye/SantaCall/internal/core"
	"github.com/dkeye/SantaCall/internal/core/coretest"
	"github.com/dkeye/SantaCall/internal/domain"
)

// gatedDispatcher parks every Dispatch until released.
type gatedDispatcher struct {
	*ui.Dispatcher
	entered chan struct{}
	release chan struct{}
}

func (g *gatedDispatcher) Dispatch(ev domain.DomainEvent) {
	g.entered <- struct{}{}
	<-g.release
	g.Dispatcher.Dispatch(ev)
}

// gatedTrack parks its first SetEnabled until released.
type gatedTrack struct {
	*coretest.Track
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedTrack) SetEnabled(v bool) {
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	g.Track.SetEnabled(v)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func lastIndex(calls []coretest.Call, method string) int {
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].Method == method {
			return i
		}
	}
	return -1
}

func TestUserEvent_InFlightDuringHangupIsResetAfterwards(t *testing.T) {
	sink := &coretest.Sink{}
	tr := &coretest.Transport{}
	gd := &gatedDispatcher{
		Dispatcher: ui.NewDispatcher(sink, time.Hour),
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	ctrl := NewController(Config{Target: "santa"}, tr, sink, gd, fixedSettings(domain.DefaultAudioSettings()))
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	sess := tr.Opened()[0]

	go sess.EmitUser(`{"type":"gifts_found","query":"robot","gifts":[{"title":"Robot"}]}`)
	<-gd.entered

	hungUp := make(chan struct{})
	go func() {
		ctrl.Hangup(context.Background())
		close(hungUp)
	}()
	waitFor(t, func() bool { return sink.Count("ClearMedia") == 1 })
	time.Sleep(20 * time.Millisecond)
	close(gd.release)
	<-hungUp

	if st := ctrl.State(); st != StateIdle {
		t.Fatalf("state = %s", st)
	}
	if g := ctrl.Snapshot().Gifts; g.Status != domain.GiftStatusWaiting || len(g.Gifts) != 0 {
		t.Fatalf("gifts survived teardown: %+v", g)
	}
	calls := sink.Calls()
	if lastIndex(calls, "RenderGallery") > lastIndex(calls, "ShowPlaceholder") {
		t.Fatalf("gallery rendered over the placeholder: %+v", calls)
	}
}

func TestToggleMute_OverlappingTogglesKeepTrackAndFlagInStep(t *testing.T) {
	h := newHarness(t, Config{})
	mic := &gatedTrack{
		Track:   coretest.NewTrack("mic", core.TrackKindAudio),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	h.transport.OpenFn = func(context.Context, string, core.MediaOptions, core.CallMeta) (core.Session, error) {
		s := coretest.NewSession(mic)
		s.StartFn = func(s *coretest.Session) error { s.EmitSignal(core.SignalJoined); return nil }
		return s, nil
	}
	if err := h.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); h.ctrl.ToggleMute() }()
	<-mic.entered
	go func() { defer wg.Done(); h.ctrl.ToggleMute() }()
	time.Sleep(20 * time.Millisecond)
	close(mic.release)
	wg.Wait()

	muted := h.ctrl.Snapshot().Muted
	if muted {
		t.Fatalf("two toggles left the call muted")
	}
	if mic.Enabled() == muted {
		t.Fatalf("muted=%v but mic enabled=%v", muted, mic.Enabled())
	}
	arg, _ := h.sink.Last("SetControls")
	if arg.(domain.Controls).Muted != muted {
		t.Fatalf("controls show muted=%v, flag is %v", arg.(domain.Controls).Muted, muted)
	}
}

func TestToggleMute_ManyConcurrentToggles(t *testing.T) {
	h := newHarness(t, Config{})
	sess := h.start(t)
	mic := sess.Tracks[0]

	const n = 40
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.ctrl.ToggleMute()
		}()
	}
	wg.Wait()

	muted := h.ctrl.Snapshot().Muted
	if muted || !mic.Enabled() {
		t.Fatalf("after %d toggles muted=%v enabled=%v", n, muted, mic.Enabled())
	}
}
