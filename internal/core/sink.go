package core

import "github.com/dkeye/SantaCall/internal/domain"

// UISink renders call and gift state. Implementations must not block the
// caller; they are invoked from transport goroutines.
type UISink interface {
	RenderGallery(cards []domain.GiftCard)
	ClearGallery()
	HighlightCard(option int)
	ShowShowcase(card domain.GiftCard)
	PlayConfirmation()
	ShowNiceList(res domain.NiceListResult)
	HideNiceList()
	ShowRetryPrompt(msg string)
	ShowStatus(b domain.Banner)
	SetControls(c domain.Controls)
	AttachMedia(m domain.MediaInfo)
	ClearMedia()
	ShowPlaceholder()
}

// SettingsSource yields the audio settings to apply when a call opens.
type SettingsSource interface {
	AudioSettings() domain.AudioSettings
}

// Frame types pushed to the browser.
const (
	FrameGallery      = "gallery"
	FrameClearGallery = "clear_gallery"
	FrameHighlight    = "highlight"
	FrameShowcase     = "showcase"
	FrameConfirmation = "confirmation"
	FrameNiceList     = "nice_list"
	FrameHideNiceList = "hide_nice_list"
	FrameRetry        = "retry"
	FrameStatus       = "status"
	FrameControls     = "controls"
	FrameMedia        = "media"
	FrameClearMedia   = "clear_media"
	FramePlaceholder  = "placeholder"
)

// Publisher delivers an encoded frame to every browser of a client.
type Publisher interface {
	Publish(kind string, f Frame)
}
