package core

// Frame is a raw JSON payload pushed to a browser.
type Frame []byte

// SignalConnection abstracts the browser messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
