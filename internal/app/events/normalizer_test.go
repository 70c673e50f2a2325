package events

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/SantaCall/internal/domain"
)

func TestNormalize_Shapes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"flat", `{"type":"searching","query":"lego"}`, "searching"},
		{"nested", `{"event":{"type":"gifts_found","gifts":[]}}`, "gifts_found"},
		{"nested outer type", `{"type":"user_event","event":{"gifts":[]}}`, "user_event"},
		{"legacy key", `{"event_type":"search_failed"}`, "search_failed"},
		{"trimmed", `{"type":"  gift_selected "}`, "gift_selected"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := Normalize([]byte(tc.raw))
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if ev.Type != tc.want {
				t.Fatalf("type = %q, want %q", ev.Type, tc.want)
			}
		})
	}
}

func TestNormalize_UnwrapsOnlyOneLevel(t *testing.T) {
	ev, err := Normalize([]byte(`{"event":{"event":{"type":"deep"},"type":"mid"}}`))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if ev.Type != "mid" {
		t.Fatalf("type = %q, want mid", ev.Type)
	}
}

func TestNormalize_Malformed(t *testing.T) {
	for _, raw := range []string{``, `null`, `[]`, `"str"`, `42`, `{}`, `{"type":7}`, `{"event":{"foo":1}}`, `{broken`} {
		if _, err := Normalize([]byte(raw)); !errors.Is(err, ErrMalformedEvent) {
			t.Fatalf("Normalize(%q) err = %v, want ErrMalformedEvent", raw, err)
		}
	}
}

func TestParse_GiftsFound(t *testing.T) {
	ev, err := Parse([]byte(`{"type":"gifts_found","query":"robots","gifts":[{"title":"Robot"},{"price":9}]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	gf, ok := ev.(domain.GiftsFound)
	if !ok {
		t.Fatalf("event = %T, want GiftsFound", ev)
	}
	if gf.Query != "robots" || len(gf.Gifts) != 2 || gf.Gifts[0].Title != "Robot" || gf.Gifts[1].Price != "9" {
		t.Fatalf("unexpected event: %+v", gf)
	}
}

func TestParse_GiftSelectedNeedsGift(t *testing.T) {
	if _, err := Parse([]byte(`{"type":"gift_selected"}`)); !errors.Is(err, ErrMalformedEvent) {
		t.Fatalf("err = %v, want ErrMalformedEvent", err)
	}
	ev, err := Parse([]byte(`{"type":"gift_selected","gift":{"title":"Robot","price":"$19.99"}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if gs := ev.(domain.GiftSelected); gs.Gift.Price != "$19.99" {
		t.Fatalf("unexpected gift: %+v", gs.Gift)
	}
}

func TestParse_WrongShapeIsMalformed(t *testing.T) {
	if _, err := Parse([]byte(`{"type":"gifts_found","gifts":"lots"}`)); !errors.Is(err, ErrMalformedEvent) {
		t.Fatalf("err = %v, want ErrMalformedEvent", err)
	}
}

func TestParse_Unrecognized(t *testing.T) {
	ev, err := Parse([]byte(`{"type":"reindeer_spotted"}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if u, ok := ev.(domain.Unrecognized); !ok || u.Type != "reindeer_spotted" {
		t.Fatalf("event = %#v, want Unrecognized", ev)
	}
}

func TestParse_NiceList(t *testing.T) {
	ev, err := Parse([]byte(`{"event":{"type":"nice_list_checked","name":"Timmy","status":"nice"}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if nl := ev.(domain.NiceListChecked); nl.Name != "Timmy" || nl.Status != "nice" {
		t.Fatalf("unexpected event: %+v", nl)
	}
}

func TestParse_SearchingWithBadQueryIsLogged(t *testing.T) {
	var buf bytes.Buffer
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	log.Logger = zerolog.New(&buf)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	ev, err := Parse([]byte(`{"type":"searching","query":42}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s, ok := ev.(domain.Searching); !ok || s.Query != "" {
		t.Fatalf("event = %#v", ev)
	}
	out := buf.String()
	if !strings.Contains(out, `"level":"debug"`) || !strings.Contains(out, `"module":"events"`) || !strings.Contains(out, "query ignored") {
		t.Fatalf("no debug log for bad query: %q", out)
	}
}
