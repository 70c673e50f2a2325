package app

import (
	"errors"
	"sync"
	"testing"

	"github.com/dkeye/SantaCall/internal/core"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("closed")
	}
	if c.full {
		return errors.New("backpressure")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *fakeConn) sent() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestHub_PublishReachesEveryTab(t *testing.T) {
	h := NewHub("c1", nil)
	a, b := &fakeConn{}, &fakeConn{}
	h.Attach(a)
	h.Attach(b)

	h.Publish(core.FrameGallery, core.Frame(`{}`))

	if a.sent() != 1 || b.sent() != 1 {
		t.Fatalf("sent a=%d b=%d", a.sent(), b.sent())
	}
}

func TestHub_SlowTabDropsRenderFrames(t *testing.T) {
	h := NewHub("c1", SimplePolicy{})
	slow := &fakeConn{full: true}
	h.Attach(slow)

	h.Publish(core.FrameGallery, core.Frame(`{}`))

	if slow.isClosed() || h.Count() != 1 {
		t.Fatalf("slow tab kicked for a render frame")
	}
}

func TestHub_SlowTabKickedForControls(t *testing.T) {
	h := NewHub("c1", SimplePolicy{})
	slow, fast := &fakeConn{full: true}, &fakeConn{}
	h.Attach(slow)
	h.Attach(fast)

	h.Publish(core.FrameControls, core.Frame(`{}`))

	if !slow.isClosed() || h.Count() != 1 {
		t.Fatalf("slow tab not kicked: closed=%v count=%d", slow.isClosed(), h.Count())
	}
	if fast.sent() != 1 {
		t.Fatalf("fast tab missed the frame")
	}
}

func TestHub_DetachAndCloseAll(t *testing.T) {
	h := NewHub("c1", nil)
	a, b := &fakeConn{}, &fakeConn{}
	h.Attach(a)
	h.Attach(b)

	if n := h.Detach(a); n != 1 {
		t.Fatalf("remaining = %d", n)
	}
	h.CloseAll()
	if !b.isClosed() || a.isClosed() || h.Count() != 0 {
		t.Fatalf("a=%v b=%v count=%d", a.isClosed(), b.isClosed(), h.Count())
	}
}

func TestSimplePolicy(t *testing.T) {
	p := SimplePolicy{}
	for kind, want := range map[string]BackpressureAction{
		core.FrameStatus:   KickClient,
		core.FrameControls: KickClient,
		core.FrameGallery:  DropFrame,
		core.FrameMedia:    DropFrame,
	} {
		if got := p.OnBackPressure(kind); got != want {
			t.Errorf("%s: got %d want %d", kind, got, want)
		}
	}
}
