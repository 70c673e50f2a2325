package domain

import (
	"encoding/json"
	"testing"
)

func TestGiftCard_AllFieldsAbsentUsesFallbacks(t *testing.T) {
	card := Gift{}.Card(1)

	if card.Title != FallbackGiftTitle {
		t.Fatalf("title = %q, want %q", card.Title, FallbackGiftTitle)
	}
	if card.Price != FallbackGiftPrice {
		t.Fatalf("price = %q, want %q", card.Price, FallbackGiftPrice)
	}
	if card.Description != FallbackGiftDescription(FallbackGiftTitle) {
		t.Fatalf("description = %q", card.Description)
	}
	if card.Image != FallbackGiftImage {
		t.Fatalf("image = %q, want %q", card.Image, FallbackGiftImage)
	}
	if card.URL != FallbackGiftURL {
		t.Fatalf("url = %q, want %q", card.URL, FallbackGiftURL)
	}
}

func TestGiftCard_KeepsProvidedFields(t *testing.T) {
	card := Gift{Title: "Robot", Price: "$19.99", Image: "https://x/robot.png"}.Card(2)

	if card.Option != 2 || card.Title != "Robot" || card.Price != "$19.99" {
		t.Fatalf("unexpected card: %+v", card)
	}
	if card.Description != "Robot - Perfect for children!" {
		t.Fatalf("description = %q", card.Description)
	}
}

func TestGiftCard_BlankFieldsCountAsAbsent(t *testing.T) {
	card := Gift{Title: "   ", Price: ""}.Card(1)
	if card.Title != FallbackGiftTitle || card.Price != FallbackGiftPrice {
		t.Fatalf("unexpected card: %+v", card)
	}
}

func TestGift_UnmarshalNumericPrice(t *testing.T) {
	var g Gift
	if err := json.Unmarshal([]byte(`{"title":"Kite","price":12.5,"rating":4,"id":3}`), &g); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if g.Price != "12.5" || g.Rating != "4" || g.ID != "3" {
		t.Fatalf("unexpected gift: %+v", g)
	}
}

func TestCards_EmptyIsNil(t *testing.T) {
	if Cards(nil) != nil {
		t.Fatalf("expected nil cards for nil gifts")
	}
	if Cards([]Gift{}) != nil {
		t.Fatalf("expected nil cards for empty gifts")
	}
}

func TestGiftState_CloneIsIndependent(t *testing.T) {
	sel := Gift{Title: "Robot"}
	s := GiftState{Gifts: []Gift{{Title: "Robot"}}, SelectedGift: &sel, Status: GiftStatusConfirmed}
	c := s.Clone()
	c.Gifts[0].Title = "Kite"
	c.SelectedGift.Title = "Kite"

	if s.Gifts[0].Title != "Robot" || s.SelectedGift.Title != "Robot" {
		t.Fatalf("clone shares memory with original")
	}
}
