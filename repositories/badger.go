package repositories

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// store persists one entity type in BadgerDB.
// Records live under "{entity}:id:{key}"; generated ids come from a
// counter stored under "seq:{entity}" and updated in the same transaction.
// Numeric keys are zero padded to 19 digits so a prefix scan returns
// records in insertion order.
type store[K comparable, V any] struct {
	db     *badger.DB
	log    *slog.Logger
	entity string
	keyOf  func(V) K
	encode func(K) string
	// assign sets a generated id on a new entity; nil for natural keys.
	assign func(V, int64) V
}

func int64Key(id int64) string {
	return fmt.Sprintf("%019d", id)
}

func (s store[K, V]) prefix() []byte {
	return []byte(s.entity + ":id:")
}

func (s store[K, V]) key(k K) []byte {
	return append(s.prefix(), s.encode(k)...)
}

func (s store[K, V]) get(txn *badger.Txn, k K) (V, bool, error) {
	var v V
	item, err := txn.Get(s.key(k))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return v, false, nil
	}
	if err != nil {
		return v, false, err
	}
	if err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &v)
	}); err != nil {
		return v, false, fmt.Errorf("decode %s: %w", s.entity, err)
	}
	return v, true, nil
}

func (s store[K, V]) put(txn *badger.Txn, v V) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.entity, err)
	}
	return txn.Set(s.key(s.keyOf(v)), data)
}

func (s store[K, V]) nextID(txn *badger.Txn) (int64, error) {
	seqKey := []byte("seq:" + s.entity)
	var n uint64
	item, err := txn.Get(seqKey)
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
	case err != nil:
		return 0, err
	default:
		if err = item.Value(func(val []byte) error {
			n = binary.BigEndian.Uint64(val)
			return nil
		}); err != nil {
			return 0, err
		}
	}
	n++
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n)
	return int64(n), txn.Set(seqKey, buf)
}

func (s store[K, V]) insert(txn *badger.Txn, v V) (V, error) {
	if s.assign != nil {
		id, err := s.nextID(txn)
		if err != nil {
			return v, err
		}
		v = s.assign(v, id)
	}
	_, found, err := s.get(txn, s.keyOf(v))
	if err != nil {
		return v, err
	}
	if found {
		return v, fmt.Errorf("%s %v: %w", s.entity, s.keyOf(v), ErrDuplicateKey)
	}
	return v, s.put(txn, v)
}

func (s store[K, V]) FindOne(k K) (V, bool, error) {
	var v V
	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		v, found, err = s.get(txn, k)
		return err
	})
	return v, found, err
}

func (s store[K, V]) FindAll() ([]V, error) {
	return s.scan(0, -1)
}

// Page returns at most p.Size records after skipping p.Offset() of them.
func (s store[K, V]) Page(p Pageable) ([]V, error) {
	if p.Page < 0 || p.Size <= 0 {
		return nil, fmt.Errorf("invalid page %d of size %d", p.Page, p.Size)
	}
	return s.scan(p.Offset(), p.Size)
}

// scan walks the entity prefix; limit < 0 means no limit.
func (s store[K, V]) scan(skip, limit int) ([]V, error) {
	values := make([]V, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := s.prefix()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if skip > 0 {
				skip--
				continue
			}
			if limit >= 0 && len(values) == limit {
				break
			}
			var v V
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &v)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", s.entity, err)
			}
			values = append(values, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

func (s store[K, V]) Save(v V) (V, error) {
	err := s.db.Update(func(txn *badger.Txn) error {
		var err error
		v, err = s.insert(txn, v)
		return err
	})
	if err != nil {
		return v, err
	}
	s.log.Debug("Entity stored", "entity", s.entity, "key", s.keyOf(v))
	return v, nil
}

// Update writes v whether or not it was stored before.
func (s store[K, V]) Update(v V) (V, error) {
	err := s.db.Update(func(txn *badger.Txn) error {
		return s.put(txn, v)
	})
	return v, err
}

// Remove deletes the record under k and returns it. Absent keys are a no-op.
func (s store[K, V]) Remove(k K) (V, bool, error) {
	var v V
	var found bool
	err := s.db.Update(func(txn *badger.Txn) error {
		var err error
		v, found, err = s.get(txn, k)
		if err != nil || !found {
			return err
		}
		return txn.Delete(s.key(k))
	})
	if err == nil && found {
		s.log.Debug("Entity removed", "entity", s.entity, "key", k)
	}
	return v, found, err
}
