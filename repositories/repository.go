//go:generate go run go.uber.org/mock/mockgen -source=repository.go -destination=../mocks/mock_repository.go -package=mocks
package repositories

import (
	"fmt"
	"social-lab/domain"
)

// ErrDuplicateKey is returned by Save when the key is already stored.
var ErrDuplicateKey = fmt.Errorf("duplicate key")

// IRepository is the key-value CRUD contract every store implements.
// FindOne and Remove report absence with a false flag, not an error.
type IRepository[K comparable, V any] interface {
	FindOne(key K) (V, bool, error)
	FindAll() ([]V, error)
	Save(entity V) (V, error)
	Update(entity V) (V, error)
	Remove(key K) (V, bool, error)
}

// Pageable selects page Page (0-based) of Size entries.
type Pageable struct {
	Page int
	Size int
}

func (p Pageable) Offset() int {
	return p.Page * p.Size
}

type IPagingRepository[K comparable, V any] interface {
	IRepository[K, V]
	Page(p Pageable) ([]V, error)
}

type IUserRepository interface {
	IPagingRepository[int64, domain.User]
	FindOneByEmail(email string) (domain.User, bool, error)
}

type IFriendshipRepository interface {
	IPagingRepository[domain.Pair, domain.Friendship]
}

type IMessageRepository interface {
	IPagingRepository[int64, domain.Message]
}

type IGroupRepository interface {
	IRepository[int64, domain.Group]
}

type ISocialEventRepository interface {
	IRepository[int64, domain.SocialEvent]
}
