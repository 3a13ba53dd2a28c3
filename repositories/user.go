package repositories

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"social-lab/domain"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

const emailIndexPrefix = "user:email:"

// UserRepository stores users and keeps a case-insensitive email index
// ("user:email:{lowercase}" -> id) in the same transaction as the record.
type UserRepository struct {
	store[int64, domain.User]
}

func NewUserRepository(db *badger.DB, log *slog.Logger) *UserRepository {
	return &UserRepository{store: store[int64, domain.User]{
		db:     db,
		log:    log,
		entity: "user",
		keyOf:  func(u domain.User) int64 { return u.ID },
		encode: int64Key,
		assign: func(u domain.User, id int64) domain.User {
			u.ID = id
			return u
		},
	}}
}

func emailKey(email string) []byte {
	return []byte(emailIndexPrefix + strings.ToLower(strings.TrimSpace(email)))
}

func encodeID(id int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

func lookupEmail(txn *badger.Txn, email string) (int64, bool, error) {
	item, err := txn.Get(emailKey(email))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	var id int64
	err = item.Value(func(val []byte) error {
		id = int64(binary.BigEndian.Uint64(val))
		return nil
	})
	return id, err == nil, err
}

func (r UserRepository) FindOneByEmail(email string) (domain.User, bool, error) {
	var user domain.User
	var found bool
	err := r.db.View(func(txn *badger.Txn) error {
		id, ok, err := lookupEmail(txn, email)
		if err != nil || !ok {
			return err
		}
		user, found, err = r.get(txn, id)
		return err
	})
	return user, found, err
}

// Save fails with ErrDuplicateKey when the email is already indexed.
func (r UserRepository) Save(user domain.User) (domain.User, error) {
	err := r.db.Update(func(txn *badger.Txn) error {
		_, taken, err := lookupEmail(txn, user.Email)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("email %s: %w", user.Email, ErrDuplicateKey)
		}
		if user, err = r.insert(txn, user); err != nil {
			return err
		}
		return txn.Set(emailKey(user.Email), encodeID(user.ID))
	})
	if err != nil {
		return user, err
	}
	r.log.Debug("Entity stored", "entity", r.entity, "key", user.ID)
	return user, nil
}

func (r UserRepository) Update(user domain.User) (domain.User, error) {
	err := r.db.Update(func(txn *badger.Txn) error {
		previous, found, err := r.get(txn, user.ID)
		if err != nil {
			return err
		}
		if found && !strings.EqualFold(previous.Email, user.Email) {
			if err = txn.Delete(emailKey(previous.Email)); err != nil {
				return err
			}
		}
		if err = r.put(txn, user); err != nil {
			return err
		}
		return txn.Set(emailKey(user.Email), encodeID(user.ID))
	})
	return user, err
}

func (r UserRepository) Remove(id int64) (domain.User, bool, error) {
	var user domain.User
	var found bool
	err := r.db.Update(func(txn *badger.Txn) error {
		var err error
		user, found, err = r.get(txn, id)
		if err != nil || !found {
			return err
		}
		if err = txn.Delete(emailKey(user.Email)); err != nil {
			return err
		}
		return txn.Delete(r.key(id))
	})
	return user, found, err
}
