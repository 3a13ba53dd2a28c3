package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGroup_AddMessage_Assigns_Positions(t *testing.T) {
	req := require.New(t)
	group := Group{ID: 1, Name: "climbing", Members: []int64{1, 2}}

	first := group.AddMessage(Message{From: 1, Text: "saturday?", Date: time.Now()})
	second := group.AddMessage(Message{From: 2, Text: "yes", Date: time.Now(), ReplyTo: &first.ID})

	req.Equal(int64(1), first.ID)
	req.Equal(int64(2), second.ID)
	req.Len(group.Messages, 2)
	req.Equal(first.ID, *group.Messages[1].ReplyTo)
}

func TestMessage_Between(t *testing.T) {
	req := require.New(t)
	m := Message{From: 1, To: []int64{2, 3}}

	req.True(m.Between(1, 2))
	req.True(m.Between(3, 1))
	req.False(m.Between(2, 3))
}

func TestUser_MatchesName(t *testing.T) {
	req := require.New(t)
	u := User{FirstName: "Ana", LastName: "Popescu"}

	req.True(u.MatchesName("ana"))
	req.True(u.MatchesName("PESC"))
	req.False(u.MatchesName("ion"))
}
