package repositories

import (
	"fmt"
	"log/slog"
	"social-lab/domain"

	"github.com/dgraph-io/badger/v4"
)

// FriendshipRepository keys friendships by their canonical pair, so lookups
// succeed whatever order the caller passes the ids in.
type FriendshipRepository struct {
	store[domain.Pair, domain.Friendship]
}

func NewFriendshipRepository(db *badger.DB, log *slog.Logger) *FriendshipRepository {
	return &FriendshipRepository{store: store[domain.Pair, domain.Friendship]{
		db:     db,
		log:    log,
		entity: "friendship",
		keyOf:  func(f domain.Friendship) domain.Pair { return f.Key() },
		encode: func(p domain.Pair) string {
			p = domain.NewPair(p.Lo, p.Hi)
			return fmt.Sprintf("%019d:%019d", p.Lo, p.Hi)
		},
	}}
}
