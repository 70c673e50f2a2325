// Package events turns raw agent messages into typed domain events.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/SantaCall/internal/domain"
)

// ErrMalformedEvent is returned for messages that cannot be typed.
var ErrMalformedEvent = errors.New("malformed event")

// Normalize unwraps one level of a nested "event" envelope and extracts the
// type discriminator. It never panics on unexpected shapes.
func Normalize(raw []byte) (domain.NormalizedEvent, error) {
	var outer map[string]any
	if err := json.Unmarshal(raw, &outer); err != nil {
		return domain.NormalizedEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if outer == nil {
		return domain.NormalizedEvent{}, fmt.Errorf("%w: not an object", ErrMalformedEvent)
	}

	payload := outer
	if inner, ok := outer["event"].(map[string]any); ok {
		payload = inner
	}

	typ := typeOf(payload)
	if typ == "" {
		typ = typeOf(outer)
	}
	if typ == "" {
		return domain.NormalizedEvent{}, fmt.Errorf("%w: missing type", ErrMalformedEvent)
	}
	return domain.NormalizedEvent{Type: typ, Payload: payload}, nil
}

func typeOf(m map[string]any) string {
	for _, key := range []string{"type", "event_type"} {
		if s, ok := m[key].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// Decode maps a normalized event onto the closed DomainEvent set. Unknown
// types become domain.Unrecognized; known types whose fields have the wrong
// shape are malformed.
func Decode(ev domain.NormalizedEvent) (domain.DomainEvent, error) {
	switch ev.Type {
	case domain.EventGiftsFound:
		var p struct {
			Query string        `json:"query"`
			Gifts []domain.Gift `json:"gifts"`
		}
		if err := remarshal(ev.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedEvent, ev.Type, err)
		}
		return domain.GiftsFound{Query: p.Query, Gifts: p.Gifts}, nil
	case domain.EventGiftSelected:
		var p struct {
			Gift *domain.Gift `json:"gift"`
		}
		if err := remarshal(ev.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedEvent, ev.Type, err)
		}
		if p.Gift == nil {
			return nil, fmt.Errorf("%w: %s: missing gift", ErrMalformedEvent, ev.Type)
		}
		return domain.GiftSelected{Gift: *p.Gift}, nil
	case domain.EventNiceListChecked:
		var p struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		}
		if err := remarshal(ev.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedEvent, ev.Type, err)
		}
		return domain.NiceListChecked{Name: p.Name, Status: p.Status}, nil
	case domain.EventSearching, domain.EventSearchFailed:
		var p struct {
			Query string `json:"query"`
		}
		// query is informational only
		if err := remarshal(ev.Payload, &p); err != nil {
			log.Debug().Err(err).Str("module", "events").Str("type", ev.Type).Msg("query ignored")
		}
		if ev.Type == domain.EventSearching {
			return domain.Searching{Query: p.Query}, nil
		}
		return domain.SearchFailed{Query: p.Query}, nil
	default:
		return domain.Unrecognized{Type: ev.Type}, nil
	}
}

// Parse is Normalize followed by Decode.
func Parse(raw []byte) (domain.DomainEvent, error) {
	ev, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	return Decode(ev)
}

func remarshal(in map[string]any, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
