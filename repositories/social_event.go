package repositories

import (
	"log/slog"
	"social-lab/domain"

	"github.com/dgraph-io/badger/v4"
)

// SocialEventRepository stores events with their subscribers and
// per-subscriber last notification date.
type SocialEventRepository struct {
	store[int64, domain.SocialEvent]
}

func NewSocialEventRepository(db *badger.DB, log *slog.Logger) *SocialEventRepository {
	return &SocialEventRepository{store: store[int64, domain.SocialEvent]{
		db:     db,
		log:    log,
		entity: "social_event",
		keyOf:  func(e domain.SocialEvent) int64 { return e.ID },
		encode: int64Key,
		assign: func(e domain.SocialEvent, id int64) domain.SocialEvent {
			e.ID = id
			return e
		},
	}}
}
