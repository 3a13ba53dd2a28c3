// Package projection builds local timelines from observed events.
// Handles ordering and deduplication.
// Does not emit events or interact with UI directly.
package projection

import (
	"social-lab/domain"
	"social-lab/domain/event"
	"sort"
	"sync"
)

// Timeline holds the messages one user sent or received, oldest first.
type Timeline struct {
	mu       sync.RWMutex
	Owner    int64
	messages []domain.Message
}

func NewTimeline(owner int64) *Timeline {
	return &Timeline{Owner: owner}
}

// Update implements contract.Observer for message change events.
// Group messages reuse position ids, so a message is identified by sender, id and date.
func (t *Timeline) Update(e event.MessageChangeEvent) {
	if e.Kind != event.Add {
		return
	}
	m := e.Message
	if m.From != t.Owner && !m.SentTo(t.Owner) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, known := range t.messages {
		if known.ID == m.ID && known.From == m.From && known.Date.Equal(m.Date) {
			return
		}
	}
	t.messages = append(t.messages, m)
	sort.SliceStable(t.messages, func(i, j int) bool {
		return t.messages[i].Date.Before(t.messages[j].Date)
	})
}

// Messages returns a copy of the timeline.
func (t *Timeline) Messages() []domain.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.Message, len(t.messages))
	copy(out, t.messages)
	return out
}
