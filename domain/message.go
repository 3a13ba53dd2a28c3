package domain

import (
	"time"

	"github.com/samber/lo"
)

// Message is the persisted, immutable form of a direct or group message.
// ReplyTo points to at most one earlier message.
type Message struct {
	ID      int64     `json:"id"`
	From    int64     `json:"from"`
	To      []int64   `json:"to"`
	Text    string    `json:"text"`
	Date    time.Time `json:"date"`
	ReplyTo *int64    `json:"reply_to,omitempty"`
}

func (m Message) IsReply() bool {
	return m.ReplyTo != nil
}

func (m Message) SentTo(id int64) bool {
	return lo.Contains(m.To, id)
}

// Between reports whether m goes from a to b or from b to a.
func (m Message) Between(a, b int64) bool {
	return (m.From == a && m.SentTo(b)) || (m.From == b && m.SentTo(a))
}

// ThreadedMessage is the read model of a message with resolved users
// and its parent inside the same result list.
type ThreadedMessage struct {
	ID     int64
	From   User
	To     []User
	Text   string
	Date   time.Time
	Parent *ThreadedMessage
}

func (m ThreadedMessage) IsRoot() bool {
	return m.Parent == nil
}
