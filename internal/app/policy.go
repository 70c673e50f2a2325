package app

import "github.com/dkeye/SantaCall/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickClient
)

// Policy decides what happens to a browser whose send buffer is full.
type Policy interface {
	OnBackPressure(kind string) BackpressureAction
}

// SimplePolicy drops render frames but kicks a browser that cannot take
// status or control updates, since it would show stale buttons.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(kind string) BackpressureAction {
	switch kind {
	case core.FrameStatus, core.FrameControls:
		return KickClient
	default:
		return DropFrame
	}
}
