// Package ui maps agent domain events onto render actions.
package ui

import (
	"sync"
	"time"

	"github.com/dkeye/SantaCall/internal/core"
	"github.com/dkeye/SantaCall/internal/domain"
	"github.com/rs/zerolog/log"
)

const DefaultNiceListDuration = 5 * time.Second

const (
	searchingText = "Santa is checking the workshop..."
	selectingText = "Pick your favorite gift!"
	confirmedText = "The elves are wrapping your gift!"
	retryText     = "Oh dear, the workshop catalog is busy. Tell Santa more about the gift you'd like!"
)

// Dispatcher owns GiftState and is the only writer of gallery, showcase and
// nice-list render targets. It never touches the transport.
type Dispatcher struct {
	sink     core.UISink
	niceFor  time.Duration
	afterFun func(time.Duration, func()) *time.Timer

	mu        sync.Mutex
	state     domain.GiftState
	niceTimer *time.Timer
}

func NewDispatcher(sink core.UISink, niceListDuration time.Duration) *Dispatcher {
	if niceListDuration <= 0 {
		niceListDuration = DefaultNiceListDuration
	}
	return &Dispatcher{
		sink:     sink,
		niceFor:  niceListDuration,
		afterFun: time.AfterFunc,
		state:    domain.NewGiftState(),
	}
}

// Dispatch applies ev. Unrecognized events are logged and ignored.
func (d *Dispatcher) Dispatch(ev domain.DomainEvent) {
	switch e := ev.(type) {
	case domain.GiftsFound:
		d.giftsFound(e)
	case domain.GiftSelected:
		d.giftSelected(e)
	case domain.NiceListChecked:
		d.niceListChecked(e)
	case domain.Searching:
		d.searching(e)
	case domain.SearchFailed:
		d.searchFailed(e)
	default:
		typ := "<nil>"
		if ev != nil {
			typ = ev.EventType()
		}
		log.Warn().Str("module", "ui.dispatcher").Str("type", typ).Msg("unrecognized event ignored")
	}
}

func (d *Dispatcher) giftsFound(e domain.GiftsFound) {
	cards := domain.Cards(e.Gifts)
	if len(cards) == 0 {
		log.Debug().Str("module", "ui.dispatcher").Msg("gifts_found without gifts, gallery unchanged")
		return
	}
	d.mu.Lock()
	d.state.Gifts = append([]domain.Gift(nil), e.Gifts...)
	if e.Query != "" {
		d.state.SearchQuery = e.Query
	}
	d.state.SelectedGift = nil
	d.state.Status = domain.GiftStatusSelecting
	d.mu.Unlock()

	d.sink.RenderGallery(cards)
	d.sink.ShowStatus(domain.Banner{Kind: domain.BannerSelecting, Text: selectingText})
	log.Info().Str("module", "ui.dispatcher").Int("gifts", len(cards)).Msg("gallery rendered")
}

func (d *Dispatcher) giftSelected(e domain.GiftSelected) {
	gift := e.Gift
	d.mu.Lock()
	d.state.SelectedGift = &gift
	d.state.Status = domain.GiftStatusConfirmed
	option := 1
	for i, g := range d.state.Gifts {
		if g.Title != "" && g.Title == gift.Title {
			option = i + 1
			break
		}
	}
	d.mu.Unlock()

	card := gift.Card(option)
	d.sink.ShowShowcase(card)
	d.sink.PlayConfirmation()
	d.sink.ShowStatus(domain.Banner{Kind: domain.BannerConfirmed, Text: confirmedText})
	log.Info().Str("module", "ui.dispatcher").Str("title", card.Title).Msg("gift confirmed")
}

func (d *Dispatcher) niceListChecked(e domain.NiceListChecked) {
	res := domain.NiceListResult{Name: e.Name, Status: e.Status}
	if res.Status == "" {
		res.Status = "nice"
	}

	d.mu.Lock()
	if d.niceTimer != nil {
		d.niceTimer.Stop()
	}
	var t *time.Timer
	t = d.afterFun(d.niceFor, func() {
		d.mu.Lock()
		current := d.niceTimer == t
		if current {
			d.niceTimer = nil
		}
		d.mu.Unlock()
		if current {
			d.sink.HideNiceList()
		}
	})
	d.niceTimer = t
	d.mu.Unlock()

	d.sink.ShowNiceList(res)
}

func (d *Dispatcher) searching(e domain.Searching) {
	d.mu.Lock()
	d.state.Gifts = nil
	d.state.SelectedGift = nil
	if e.Query != "" {
		d.state.SearchQuery = e.Query
	}
	d.state.Status = domain.GiftStatusSearching
	d.mu.Unlock()

	d.sink.ClearGallery()
	d.sink.ShowStatus(domain.Banner{Kind: domain.BannerSearching, Text: searchingText})
}

func (d *Dispatcher) searchFailed(e domain.SearchFailed) {
	d.mu.Lock()
	d.state.Gifts = nil
	d.state.SelectedGift = nil
	if e.Query != "" {
		d.state.SearchQuery = e.Query
	}
	d.state.Status = domain.GiftStatusError
	d.mu.Unlock()

	d.sink.ShowRetryPrompt(retryText)
	d.sink.ShowStatus(domain.Banner{Kind: domain.BannerError, Text: retryText})
	log.Info().Str("module", "ui.dispatcher").Str("query", e.Query).Msg("search failed")
}

// SelectCard is visual feedback for a click. The agent confirms the actual
// choice later with gift_selected.
func (d *Dispatcher) SelectCard(option int) {
	d.mu.Lock()
	n := len(d.state.Gifts)
	d.mu.Unlock()
	if option < 1 || option > n {
		return
	}
	d.sink.HighlightCard(option)
}

// Reset returns to the waiting state and cancels any pending auto-hide.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	d.state = domain.NewGiftState()
	if d.niceTimer != nil {
		d.niceTimer.Stop()
		d.niceTimer = nil
	}
	d.mu.Unlock()
}

// State returns a copy of the current GiftState.
func (d *Dispatcher) State() domain.GiftState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.Clone()
}
