package runtime

import (
	"social-lab/contract"
	"sync"

	"github.com/google/uuid"
)

type subscription[E any] struct {
	id       uuid.UUID
	observer contract.Observer[E]
}

// Bus is a synchronous, in-process callback list owned by one service.
// Publish blocks until every observer returned, in registration order.
// A slow or panicking observer stalls or aborts the publisher.
type Bus[E any] struct {
	mu            sync.RWMutex
	subscriptions []subscription[E]
}

func NewBus[E any]() *Bus[E] {
	return &Bus[E]{}
}

// Subscribe registers an observer and returns the id needed to unregister it.
func (b *Bus[E]) Subscribe(observer contract.Observer[E]) uuid.UUID {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.New()
	b.subscriptions = append(b.subscriptions, subscription[E]{id: id, observer: observer})
	return id
}

// Unsubscribe removes the observer registered under id. Unknown ids are ignored.
func (b *Bus[E]) Unsubscribe(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subscriptions {
		if s.id == id {
			b.subscriptions = append(b.subscriptions[:i:i], b.subscriptions[i+1:]...)
			return
		}
	}
}

// Publish delivers e to a snapshot of the current observers, so an observer
// may unsubscribe itself while being notified.
func (b *Bus[E]) Publish(e E) {
	b.mu.RLock()
	snapshot := make([]subscription[E], len(b.subscriptions))
	copy(snapshot, b.subscriptions)
	b.mu.RUnlock()

	for _, s := range snapshot {
		s.observer.Update(e)
	}
}

func (b *Bus[E]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscriptions)
}
