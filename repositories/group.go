package repositories

import (
	"log/slog"
	"social-lab/domain"

	"github.com/dgraph-io/badger/v4"
)

// GroupRepository stores a group together with its embedded message log.
type GroupRepository struct {
	store[int64, domain.Group]
}

func NewGroupRepository(db *badger.DB, log *slog.Logger) *GroupRepository {
	return &GroupRepository{store: store[int64, domain.Group]{
		db:     db,
		log:    log,
		entity: "group",
		keyOf:  func(g domain.Group) int64 { return g.ID },
		encode: int64Key,
		assign: func(g domain.Group, id int64) domain.Group {
			g.ID = id
			return g
		},
	}}
}
