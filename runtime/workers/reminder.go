package workers

import (
	"context"
	"fmt"
	"log/slog"
	"social-lab/contract"
	"social-lab/domain"
	"social-lab/domain/event"
	"time"
)

type userLister interface {
	GetUsers() ([]domain.User, error)
}

type reminderSource interface {
	DueNotifications(userID int64, now time.Time) ([]domain.SocialEvent, error)
	MarkNotified(eventID, userID int64, at time.Time) error
}

// ReminderWorker scans subscribers every interval and hands one Reminder per
// due event to the observer, then marks the subscriber as notified.
type ReminderWorker struct {
	log      *slog.Logger
	users    userLister
	events   reminderSource
	observer contract.Observer[event.Reminder]
	interval time.Duration
	now      func() time.Time
}

func NewReminderWorker(log *slog.Logger, users userLister, events reminderSource,
	observer contract.Observer[event.Reminder], interval time.Duration) *ReminderWorker {
	return &ReminderWorker{
		log:      log,
		users:    users,
		events:   events,
		observer: observer,
		interval: interval,
		now:      time.Now,
	}
}

func (w *ReminderWorker) Run(ctx context.Context) error {
	w.log.Info("Starting reminder worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.Tick(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Tick performs one scan and returns the first storage failure.
func (w *ReminderWorker) Tick() error {
	now := w.now().UTC()
	users, err := w.users.GetUsers()
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	sent := 0
	for _, user := range users {
		due, err := w.events.DueNotifications(user.ID, now)
		if err != nil {
			return fmt.Errorf("due notifications of %d: %w", user.ID, err)
		}
		for _, e := range due {
			w.observer.Update(event.Reminder{User: user, Event: e, At: now})
			if err = w.events.MarkNotified(e.ID, user.ID, now); err != nil {
				return fmt.Errorf("mark notified %d/%d: %w", e.ID, user.ID, err)
			}
			sent++
		}
	}
	if sent > 0 {
		w.log.Debug("Reminders sent", "count", sent)
	}
	return nil
}
