package chat

import "context"

// Sender delivers outbound text to a user. A non-nil menu is rendered as selectable buttons.
type Sender interface {
	SendText(ctx context.Context, userID int64, text string, menu Menu) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, userID int64, text string, menu Menu) error

func (f SenderFunc) SendText(ctx context.Context, userID int64, text string, menu Menu) error {
	return f(ctx, userID, text, menu)
}
