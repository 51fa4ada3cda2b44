package chat

import "strings"

// EventKind tells how the chat transport received the input.
type EventKind string

const (
	KindCommand EventKind = "command"
	KindMenu    EventKind = "menu"
	KindText    EventKind = "text"
)

// Command names understood by the assistant.
const (
	CommandStart  = "start"
	CommandCancel = "cancel"
	CommandReset  = "reset"
	CommandHelp   = "help"
)

// Event is one inbound user action, independent of the chat transport.
type Event struct {
	UserID int64     `json:"userId"`
	Kind   EventKind `json:"type"`
	Name   string    `json:"name,omitempty"`
	Token  string    `json:"token,omitempty"`
	Text   string    `json:"text,omitempty"`
}

func Command(userID int64, name string) Event {
	return Event{UserID: userID, Kind: KindCommand, Name: strings.ToLower(strings.TrimPrefix(name, "/"))}
}

func Selection(userID int64, token string) Event {
	return Event{UserID: userID, Kind: KindMenu, Token: token}
}

func Text(userID int64, text string) Event {
	return Event{UserID: userID, Kind: KindText, Text: text}
}
