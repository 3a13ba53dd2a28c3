package domain

import "github.com/samber/lo"

// Group is a named set of members with its own append-only message log.
// Group message ids are 1-based positions in Messages.
type Group struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name" validate:"required,max=100"`
	Members  []int64   `json:"members" validate:"min=1"`
	Messages []Message `json:"messages"`
}

func (g Group) HasMember(id int64) bool {
	return lo.Contains(g.Members, id)
}

// AddMessage appends m and returns it with its position id.
func (g *Group) AddMessage(m Message) Message {
	m.ID = int64(len(g.Messages) + 1)
	g.Messages = append(g.Messages, m)
	return m
}
