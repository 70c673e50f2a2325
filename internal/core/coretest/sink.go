// Package coretest provides in-memory fakes of the core interfaces.
package coretest

import (
	"sync"

	"github.com/dkeye/SantaCall/internal/domain"
)

// Call is one recorded sink invocation.
type Call struct {
	Method string
	Arg    any
}

// Sink records every render call.
type Sink struct {
	mu    sync.Mutex
	calls []Call
}

func (s *Sink) record(method string, arg any) {
	s.mu.Lock()
	s.calls = append(s.calls, Call{Method: method, Arg: arg})
	s.mu.Unlock()
}

func (s *Sink) RenderGallery(cards []domain.GiftCard) { s.record("RenderGallery", cards) }
func (s *Sink) ClearGallery()                         { s.record("ClearGallery", nil) }
func (s *Sink) HighlightCard(option int)              { s.record("HighlightCard", option) }
func (s *Sink) ShowShowcase(card domain.GiftCard)     { s.record("ShowShowcase", card) }
func (s *Sink) PlayConfirmation()                     { s.record("PlayConfirmation", nil) }
func (s *Sink) ShowNiceList(res domain.NiceListResult) {
	s.record("ShowNiceList", res)
}
func (s *Sink) HideNiceList()                  { s.record("HideNiceList", nil) }
func (s *Sink) ShowRetryPrompt(msg string)     { s.record("ShowRetryPrompt", msg) }
func (s *Sink) ShowStatus(b domain.Banner)     { s.record("ShowStatus", b) }
func (s *Sink) SetControls(c domain.Controls)  { s.record("SetControls", c) }
func (s *Sink) AttachMedia(m domain.MediaInfo) { s.record("AttachMedia", m) }
func (s *Sink) ClearMedia()                    { s.record("ClearMedia", nil) }
func (s *Sink) ShowPlaceholder()               { s.record("ShowPlaceholder", nil) }

// Calls returns a copy of everything recorded so far.
func (s *Sink) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Count returns how many times method was called.
func (s *Sink) Count(method string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Last returns the argument of the most recent call to method.
func (s *Sink) Last(method string) (any, bool) {
	calls := s.Calls()
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].Method == method {
			return calls[i].Arg, true
		}
	}
	return nil, false
}

// Reset forgets recorded calls.
func (s *Sink) Reset() {
	s.mu.Lock()
	s.calls = nil
	s.mu.Unlock()
}
