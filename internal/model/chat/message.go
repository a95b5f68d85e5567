package chat

import (
	"time"

	"github.com/google/uuid"
)

// Sender 标识消息的发送方。
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Label returns the name shown next to a message in the widget.
func (s Sender) Label() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderBot:
		return "Bot"
	default:
		return string(s)
	}
}

// Message is a single chat turn. It is never modified after creation.
type Message struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewMessage stamps a message with a fresh identifier and the given time.
func NewMessage(sender Sender, text string, at time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Text:      text,
		CreatedAt: at,
	}
}
