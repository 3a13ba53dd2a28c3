package repositories

import (
	"log/slog"
	"social-lab/domain"

	"github.com/dgraph-io/badger/v4"
)

type MessageRepository struct {
	store[int64, domain.Message]
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) *MessageRepository {
	return &MessageRepository{store: store[int64, domain.Message]{
		db:     db,
		log:    log,
		entity: "message",
		keyOf:  func(m domain.Message) int64 { return m.ID },
		encode: int64Key,
		assign: func(m domain.Message, id int64) domain.Message {
			m.ID = id
			return m
		},
	}}
}
