package app

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

var ErrNoToken = errors.New("empty client token")

// ClientFactory builds the per-client graph for a new token.
type ClientFactory func(token string) (*Client, error)

type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
	factory ClientFactory
}

func NewRegistry(factory ClientFactory) *Registry {
	return &Registry{
		clients: make(map[string]*Client),
		factory: factory,
	}
}

func (r *Registry) GetOrCreate(token string) (*Client, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	r.mu.RLock()
	c, ok := r.clients[token]
	r.mu.RUnlock()
	if ok {
		return c, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.clients[token]; ok {
		return c, nil
	}
	c, err := r.factory(token)
	if err != nil {
		return nil, err
	}
	r.clients[token] = c
	log.Info().Str("module", "app.registry").Str("client", token).Msg("created new client")
	return c, nil
}

func (r *Registry) Get(token string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[token]
	return c, ok
}

// Remove closes and forgets the client.
func (r *Registry) Remove(token string) {
	r.mu.Lock()
	c, ok := r.clients[token]
	delete(r.clients, token)
	r.mu.Unlock()
	if !ok {
		return
	}
	c.Close()
	log.Info().Str("module", "app.registry").Str("client", token).Msg("removed client")
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// CloseAll tears down every client, ending their calls.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	clients := r.clients
	r.clients = make(map[string]*Client)
	r.mu.Unlock()
	for token, c := range clients {
		c.Close()
		log.Info().Str("module", "app.registry").Str("client", token).Msg("closed client")
	}
}
