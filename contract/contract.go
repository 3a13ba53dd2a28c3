package contract

import "github.com/google/uuid"

// Observer is notified synchronously of every published event.
type Observer[E any] interface {
	Update(e E)
}

// ObserverFunc adapts a plain function to an Observer.
type ObserverFunc[E any] func(e E)

func (f ObserverFunc[E]) Update(e E) { f(e) }

// IObservable lets observers register and unregister by subscription id.
type IObservable[E any] interface {
	Subscribe(observer Observer[E]) uuid.UUID
	Unsubscribe(id uuid.UUID)
}
