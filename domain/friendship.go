package domain

import "time"

// Pair is the order-insensitive key of a friendship. Lo <= Hi always holds
// when built with NewPair.
type Pair struct {
	Lo int64 `json:"lo"`
	Hi int64 `json:"hi"`
}

func NewPair(a, b int64) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{Lo: a, Hi: b}
}

// Friendship is a symmetric relation between E1 and E2.
// Endpoints keep the order they were created with; Key is canonical.
type Friendship struct {
	E1   int64     `json:"e1"`
	E2   int64     `json:"e2"`
	Date time.Time `json:"date"`
}

func (f Friendship) Key() Pair {
	return NewPair(f.E1, f.E2)
}

func (f Friendship) Involves(id int64) bool {
	return f.E1 == id || f.E2 == id
}

// Other returns the endpoint that is not id.
func (f Friendship) Other(id int64) int64 {
	if f.E1 == id {
		return f.E2
	}
	return f.E1
}

// FriendshipDTO is the "my friends" view of a friendship: the other party and the date.
type FriendshipDTO struct {
	User User
	Date time.Time
}
