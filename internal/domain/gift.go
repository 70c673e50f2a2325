package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

const (
	FallbackGiftTitle = "Mystery Gift"
	FallbackGiftPrice = "Price upon request"
	FallbackGiftImage = "/static/img/gift-placeholder.png"
	FallbackGiftURL   = "#"
)

// FallbackGiftDescription is used when the agent sends no description.
func FallbackGiftDescription(title string) string {
	return title + " - Perfect for children!"
}

type GiftStatus string

const (
	GiftStatusWaiting   GiftStatus = "waiting"
	GiftStatusSearching GiftStatus = "searching"
	GiftStatusSelecting GiftStatus = "selecting"
	GiftStatusConfirmed GiftStatus = "confirmed"
	GiftStatusError     GiftStatus = "error"
)

// Text is a string field the agent may send as a JSON string or number
// (prices and ratings arrive both ways).
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*t = Text(n.String())
	return nil
}

// Gift is one product the agent proposes. Every field is optional.
type Gift struct {
	ID          Text `json:"id,omitempty"`
	Title       Text `json:"title,omitempty"`
	Price       Text `json:"price,omitempty"`
	Description Text `json:"description,omitempty"`
	Image       Text `json:"image,omitempty"`
	URL         Text `json:"url,omitempty"`
	Rating      Text `json:"rating,omitempty"`
	ASIN        Text `json:"asin,omitempty"`
}

// GiftCard is what the browser renders for a Gift: no field is ever blank.
type GiftCard struct {
	Option      int    `json:"option"`
	Title       string `json:"title"`
	Price       string `json:"price"`
	Description string `json:"description"`
	Image       string `json:"image"`
	URL         string `json:"url"`
	Rating      string `json:"rating,omitempty"`
}

// Card applies the fallback values. option is the 1-based position the
// agent refers to when the child picks "option 2".
func (g Gift) Card(option int) GiftCard {
	title := orDefault(g.Title, FallbackGiftTitle)
	return GiftCard{
		Option:      option,
		Title:       title,
		Price:       orDefault(g.Price, FallbackGiftPrice),
		Description: orDefault(g.Description, FallbackGiftDescription(title)),
		Image:       orDefault(g.Image, FallbackGiftImage),
		URL:         orDefault(g.URL, FallbackGiftURL),
		Rating:      strings.TrimSpace(string(g.Rating)),
	}
}

// Cards renders gifts in order; nil for an empty sequence.
func Cards(gifts []Gift) []GiftCard {
	if len(gifts) == 0 {
		return nil
	}
	out := make([]GiftCard, 0, len(gifts))
	for i, g := range gifts {
		out = append(out, g.Card(i+1))
	}
	return out
}

func orDefault(v Text, def string) string {
	if s := strings.TrimSpace(string(v)); s != "" {
		return s
	}
	return def
}

// GiftState is the gallery model the dispatcher owns.
type GiftState struct {
	SearchQuery  string     `json:"search_query"`
	Gifts        []Gift     `json:"gifts"`
	SelectedGift *Gift      `json:"selected_gift,omitempty"`
	Status       GiftStatus `json:"status"`
}

func NewGiftState() GiftState {
	return GiftState{Status: GiftStatusWaiting}
}

// Clone returns a copy that shares nothing with s.
func (s GiftState) Clone() GiftState {
	out := s
	if s.Gifts != nil {
		out.Gifts = append([]Gift(nil), s.Gifts...)
	}
	if s.SelectedGift != nil {
		g := *s.SelectedGift
		out.SelectedGift = &g
	}
	return out
}

// NiceListResult is shown briefly after the agent checks the nice list.
type NiceListResult struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}
