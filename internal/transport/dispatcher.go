package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/dailytracker/backend/internal/model/chat"
)

// ErrNoRoute means no channel can currently reach the user.
var ErrNoRoute = errors.New("no delivery route for user")

// Channel is a chat transport that may or may not reach a given user right now.
type Channel interface {
	chat.Sender
	Name() string
	Reaches(userID int64) bool
}

// Dispatcher sends through the first channel that reaches the user.
type Dispatcher struct {
	channels []Channel
}

// NewDispatcher tries channels in the given order. Nil channels are skipped.
func NewDispatcher(channels ...Channel) *Dispatcher {
	d := &Dispatcher{}
	for _, ch := range channels {
		if ch != nil {
			d.channels = append(d.channels, ch)
		}
	}
	return d
}

func (d *Dispatcher) SendText(ctx context.Context, userID int64, text string, menu chat.Menu) error {
	for _, ch := range d.channels {
		if !ch.Reaches(userID) {
			continue
		}
		if err := ch.SendText(ctx, userID, text, menu); err != nil {
			return fmt.Errorf("%s: %w", ch.Name(), err)
		}
		return nil
	}
	return fmt.Errorf("user %d: %w", userID, ErrNoRoute)
}

// Channels lists the configured channel names in priority order.
func (d *Dispatcher) Channels() []string {
	names := make([]string, 0, len(d.channels))
	for _, ch := range d.channels {
		names = append(names, ch.Name())
	}
	return names
}
