// Package models defines the chat event and reply structures exchanged
// between the transport adapter and the flow controller.
package models

// EventKind tags the variants of an inbound chat event.
type EventKind string

const (
	// EventCommand is a slash command such as /start or /cancel.
	EventCommand EventKind = "command"
	// EventText is a free-text message.
	EventText EventKind = "text"
	// EventCallback is a button press carrying an opaque data payload.
	EventCallback EventKind = "callback"
)

// Event is an inbound chat event, already parsed by the transport.
type Event struct {
	Kind     EventKind `json:"kind"`
	Command  string    `json:"command,omitempty"`
	Text     string    `json:"text,omitempty"`
	Data     string    `json:"data,omitempty"`
	UserID   int64     `json:"user_id"`
	UserName string    `json:"user_name,omitempty"`
}

// Button is one labeled inline choice.
type Button struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

// Reply is an outbound payload: plain text, or text/photo with a set of
// labeled choice buttons.
type Reply struct {
	Text     string     `json:"text,omitempty"`
	PhotoURL string     `json:"photo_url,omitempty"`
	Buttons  [][]Button `json:"buttons,omitempty"`
}

// Empty reports whether the reply carries nothing to send.
func (r Reply) Empty() bool {
	return r.Text == "" && r.PhotoURL == "" && len(r.Buttons) == 0
}
