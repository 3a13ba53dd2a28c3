// Package event defines the change notifications services publish after a mutation.
package event

import (
	"social-lab/domain"
	"time"
)

type Kind string

const (
	Add    Kind = "ADD"
	Update Kind = "UPDATE"
	Remove Kind = "REMOVE"
)

// ChangeEvent is implemented by every notification a service publishes.
type ChangeEvent interface {
	ChangeKind() Kind
}

// UserChangeEvent is published on user mutations and on friendship changes
// affecting the user's friend list.
type UserChangeEvent struct {
	Kind Kind
	User domain.User
}

func (e UserChangeEvent) ChangeKind() Kind { return e.Kind }

// MessageChangeEvent only ever carries Add.
type MessageChangeEvent struct {
	Kind    Kind
	Message domain.Message
}

func (e MessageChangeEvent) ChangeKind() Kind { return e.Kind }

type SocialEventChangeEvent struct {
	Kind  Kind
	Event domain.SocialEvent
}

func (e SocialEventChangeEvent) ChangeKind() Kind { return e.Kind }

// Reminder tells a subscriber that an event starts soon.
type Reminder struct {
	User  domain.User
	Event domain.SocialEvent
	At    time.Time
}
