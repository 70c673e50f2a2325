package call

import (
	"errors"
	"fmt"
)

type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateActive
	StateEnding
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateEnding:
		return "ending"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*s = StateIdle
	case "connecting":
		*s = StateConnecting
	case "active":
		*s = StateActive
	case "ending":
		*s = StateEnding
	default:
		return fmt.Errorf("unknown call state %q", b)
	}
	return nil
}

var (
	// ErrBusy is returned by Start while a call is connecting or active.
	ErrBusy = errors.New("call already in progress")
	// ErrCanceled is returned by Start when a termination signal tore the
	// call down before it became active.
	ErrCanceled = errors.New("call ended while connecting")
	// ErrMuteTrackUnavailable means neither track path yielded an audio track.
	ErrMuteTrackUnavailable = errors.New("no local audio track available")
)

// ConnectionError reports a failed Open, Start or connect timeout.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string { return "could not connect: " + e.Err.Error() }
func (e *ConnectionError) Unwrap() error { return e.Err }

// HangupError reports a failed graceful hangup. It is never fatal.
type HangupError struct {
	Err error
}

func (e *HangupError) Error() string { return "hangup: " + e.Err.Error() }
func (e *HangupError) Unwrap() error { return e.Err }
