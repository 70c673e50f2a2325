package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/SantaCall/internal/core"
	"github.com/dkeye/SantaCall/internal/domain"
)

// frameSink renders UI updates as JSON frames. It never blocks: delivery is
// left to the publisher's TrySend.
type frameSink struct {
	pub core.Publisher
}

// NewSink returns a core.UISink that publishes JSON frames.
func NewSink(pub core.Publisher) core.UISink {
	return &frameSink{pub: pub}
}

func (s *frameSink) send(kind string, body map[string]any) {
	if body == nil {
		body = make(map[string]any, 1)
	}
	body["type"] = kind
	b, err := json.Marshal(body)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("frame", kind).Msg("encode frame")
		return
	}
	s.pub.Publish(kind, b)
}

func (s *frameSink) RenderGallery(cards []domain.GiftCard) {
	s.send(core.FrameGallery, map[string]any{"cards": cards})
}

func (s *frameSink) ClearGallery() { s.send(core.FrameClearGallery, nil) }

func (s *frameSink) HighlightCard(option int) {
	s.send(core.FrameHighlight, map[string]any{"option": option})
}

func (s *frameSink) ShowShowcase(card domain.GiftCard) {
	s.send(core.FrameShowcase, map[string]any{"card": card})
}

func (s *frameSink) PlayConfirmation() { s.send(core.FrameConfirmation, nil) }

func (s *frameSink) ShowNiceList(res domain.NiceListResult) {
	s.send(core.FrameNiceList, map[string]any{"name": res.Name, "status": res.Status})
}

func (s *frameSink) HideNiceList() { s.send(core.FrameHideNiceList, nil) }

func (s *frameSink) ShowRetryPrompt(msg string) {
	s.send(core.FrameRetry, map[string]any{"message": msg})
}

func (s *frameSink) ShowStatus(b domain.Banner) {
	s.send(core.FrameStatus, map[string]any{"kind": b.Kind, "text": b.Text})
}

func (s *frameSink) SetControls(c domain.Controls) {
	s.send(core.FrameControls, map[string]any{"controls": c})
}

func (s *frameSink) AttachMedia(m domain.MediaInfo) {
	s.send(core.FrameMedia, map[string]any{"stream_id": m.StreamID, "kind": m.Kind})
}

func (s *frameSink) ClearMedia() { s.send(core.FrameClearMedia, nil) }

func (s *frameSink) ShowPlaceholder() { s.send(core.FramePlaceholder, nil) }
