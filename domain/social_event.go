package domain

import (
	"time"

	"github.com/samber/lo"
)

// SocialEvent is a gathering users can subscribe to and be reminded of.
type SocialEvent struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title" validate:"required,max=120"`
	Description string       `json:"description" validate:"max=2000"`
	Location    string       `json:"location"`
	Start       time.Time    `json:"start" validate:"required"`
	End         time.Time    `json:"end" validate:"required,gtfield=Start"`
	Admin       int64        `json:"admin" validate:"required"`
	CreatedAt   time.Time    `json:"created_at"`
	Subscribers []Subscriber `json:"subscribers"`
}

// Subscriber tracks when a user was last reminded of an event.
type Subscriber struct {
	UserID         int64     `json:"user_id"`
	LastNotifiedAt time.Time `json:"last_notified_at"`
}

func (e SocialEvent) Subscriber(userID int64) (Subscriber, bool) {
	return lo.Find(e.Subscribers, func(s Subscriber) bool { return s.UserID == userID })
}

func (e SocialEvent) HasSubscriber(userID int64) bool {
	_, ok := e.Subscriber(userID)
	return ok
}
