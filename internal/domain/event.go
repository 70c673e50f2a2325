package domain

// Domain event types sent by the agent as user events.
const (
	EventGiftsFound      = "gifts_found"
	EventGiftSelected    = "gift_selected"
	EventNiceListChecked = "nice_list_checked"
	EventSearching       = "searching"
	EventSearchFailed    = "search_failed"
)

// NormalizedEvent is a transport message with its envelope removed.
type NormalizedEvent struct {
	Type    string
	Payload map[string]any
}

// DomainEvent is the closed set of agent events the UI understands.
type DomainEvent interface {
	EventType() string
	domainEvent()
}

type GiftsFound struct {
	Query string
	Gifts []Gift
}

type GiftSelected struct {
	Gift Gift
}

type NiceListChecked struct {
	Name   string
	Status string
}

type Searching struct {
	Query string
}

type SearchFailed struct {
	Query string
}

// Unrecognized carries a type the UI has no action for.
type Unrecognized struct {
	Type string
}

func (GiftsFound) EventType() string      { return EventGiftsFound }
func (GiftSelected) EventType() string    { return EventGiftSelected }
func (NiceListChecked) EventType() string { return EventNiceListChecked }
func (Searching) EventType() string       { return EventSearching }
func (SearchFailed) EventType() string    { return EventSearchFailed }
func (e Unrecognized) EventType() string  { return e.Type }

func (GiftsFound) domainEvent()      {}
func (GiftSelected) domainEvent()    {}
func (NiceListChecked) domainEvent() {}
func (Searching) domainEvent()       {}
func (SearchFailed) domainEvent()    {}
func (Unrecognized) domainEvent()    {}
