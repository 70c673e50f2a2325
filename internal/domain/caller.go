// Package domain contains the call client's entities: callers, gifts,
// audio settings and the events the agent sends about them.
package domain

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const (
	MaxCallerNameLen  = 36
	DefaultCallerName = "little elf"
)

var (
	ErrCallerNameTooLong = errors.New("caller name too long")
	ErrCallerNameEmpty   = errors.New("caller name empty")
)

type CallerID string

// Caller is the person on the browser side of a call. It travels to the
// agent as call metadata.
type Caller struct {
	ID   CallerID `json:"id"`
	Name string   `json:"name"`
}

func NewCaller(name string) (*Caller, error) {
	c := &Caller{ID: CallerID(uuid.NewString())}
	if err := c.SetName(name); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Caller) SetName(name string) error {
	name = strings.TrimSpace(name)
	if len(name) == 0 {
		return ErrCallerNameEmpty
	}
	if len(name) > MaxCallerNameLen {
		return ErrCallerNameTooLong
	}
	c.Name = name
	return nil
}
