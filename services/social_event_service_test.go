package services

import (
	"log/slog"
	"social-lab/domain"
	"social-lab/domain/event"
	"social-lab/errors"
	"social-lab/mocks"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestSocialEventService_CreateEvent_Validation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	events := mocks.NewMockISocialEventRepository(ctrl)
	users := mocks.NewMockIUserRepository(ctrl)
	svc := NewSocialEventService(slog.New(slog.DiscardHandler), events, users, time.Hour, nil)
	start := epoch.Add(48 * time.Hour)

	tests := []struct {
		name  string
		input domain.SocialEvent
	}{
		{"missing title", domain.SocialEvent{Start: start, End: start.Add(time.Hour), Admin: 1}},
		{"end before start", domain.SocialEvent{Title: "Picnic", Start: start, End: start.Add(-time.Hour), Admin: 1}},
		{"missing admin", domain.SocialEvent{Title: "Picnic", Start: start, End: start.Add(time.Hour)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			users.EXPECT().FindOne(gomock.Any()).Times(0)
			events.EXPECT().Save(gomock.Any()).Times(0)

			_, err := svc.CreateEvent(tt.input)

			req.ErrorIs(err, errors.ErrInvalidArgument)
		})
	}

	t.Run("unknown admin", func(t *testing.T) {
		req := require.New(t)
		users.EXPECT().FindOne(int64(5)).Return(domain.User{}, false, nil)
		events.EXPECT().Save(gomock.Any()).Times(0)

		_, err := svc.CreateEvent(domain.SocialEvent{Title: "Picnic", Start: start, End: start.Add(time.Hour), Admin: 5})

		req.ErrorIs(err, errors.ErrNotFound)
	})
}

func TestSocialEventService_Lifecycle(t *testing.T) {
	req := require.New(t)
	e := setupEnv(t)
	ana := e.addUser(t, "Ana", "Pop")
	bob := e.addUser(t, "Bob", "Ion")
	rec := &recorder[event.SocialEventChangeEvent]{}
	e.eventService.Subscribe(rec)

	// Given two events created out of order
	late, err := e.eventService.CreateEvent(domain.SocialEvent{
		Title: "Concert", Start: epoch.Add(72 * time.Hour), End: epoch.Add(75 * time.Hour), Admin: ana.ID,
	})
	req.NoError(err)
	req.False(late.CreatedAt.IsZero())
	early, err := e.eventService.CreateEvent(domain.SocialEvent{
		Title: "Picnic", Start: epoch.Add(12 * time.Hour), End: epoch.Add(16 * time.Hour), Admin: ana.ID,
	})
	req.NoError(err)

	all, err := e.eventService.GetEvents()
	req.NoError(err)
	req.Equal([]int64{early.ID, late.ID}, []int64{all[0].ID, all[1].ID})

	// When bob subscribes to the concert
	subscribed, err := e.eventService.SubscribeToEvent(late.ID, bob.ID)
	req.NoError(err)
	req.True(subscribed.HasSubscriber(bob.ID))
	_, err = e.eventService.SubscribeToEvent(late.ID, bob.ID)
	req.ErrorIs(err, errors.ErrAlreadyExists)
	_, err = e.eventService.SubscribeToEvent(late.ID, 99)
	req.ErrorIs(err, errors.ErrNotFound)

	mine, err := e.eventService.MyEvents(bob.ID)
	req.NoError(err)
	req.Len(mine, 1)
	req.Equal(late.ID, mine[0].ID)

	// Then unsubscribing twice fails the second time
	_, err = e.eventService.UnsubscribeFromEvent(late.ID, bob.ID)
	req.NoError(err)
	_, err = e.eventService.UnsubscribeFromEvent(late.ID, bob.ID)
	req.ErrorIs(err, errors.ErrNotFound)

	removed, err := e.eventService.RemoveEvent(early.ID)
	req.NoError(err)
	req.Equal(early.ID, removed.ID)
	_, err = e.eventService.RemoveEvent(early.ID)
	req.ErrorIs(err, errors.ErrNotFound)
	_, err = e.eventService.FindEvent(early.ID)
	req.ErrorIs(err, errors.ErrNotFound)

	kinds := make([]event.Kind, 0, len(rec.events))
	for _, ev := range rec.events {
		kinds = append(kinds, ev.Kind)
	}
	req.Equal([]event.Kind{event.Add, event.Add, event.Update, event.Update, event.Remove}, kinds)
}

func TestSocialEventService_DueNotifications(t *testing.T) {
	req := require.New(t)
	e := setupEnv(t)
	ana := e.addUser(t, "Ana", "Pop")
	now := epoch.Add(time.Hour)

	soon, err := e.eventService.CreateEvent(domain.SocialEvent{
		Title: "Brunch", Start: now.Add(3 * time.Hour), End: now.Add(5 * time.Hour), Admin: ana.ID,
	})
	req.NoError(err)
	later, err := e.eventService.CreateEvent(domain.SocialEvent{
		Title: "Trip", Start: now.Add(48 * time.Hour), End: now.Add(72 * time.Hour), Admin: ana.ID,
	})
	req.NoError(err)
	_, err = e.eventService.CreateEvent(domain.SocialEvent{
		Title: "Not subscribed", Start: now.Add(2 * time.Hour), End: now.Add(3 * time.Hour), Admin: ana.ID,
	})
	req.NoError(err)
	_, err = e.eventService.SubscribeToEvent(soon.ID, ana.ID)
	req.NoError(err)
	_, err = e.eventService.SubscribeToEvent(later.ID, ana.ID)
	req.NoError(err)

	// Only the subscribed event inside the 24h window is due
	due, err := e.eventService.DueNotifications(ana.ID, now)
	req.NoError(err)
	req.Len(due, 1)
	req.Equal(soon.ID, due[0].ID)

	// Once notified it is not due again within the window
	req.NoError(e.eventService.MarkNotified(soon.ID, ana.ID, now))
	due, err = e.eventService.DueNotifications(ana.ID, now.Add(time.Hour))
	req.NoError(err)
	req.Empty(due)

	// Past events are never due
	due, err = e.eventService.DueNotifications(ana.ID, now.Add(4*time.Hour))
	req.NoError(err)
	req.Empty(due)

	req.ErrorIs(e.eventService.MarkNotified(soon.ID, 99, now), errors.ErrNotFound)
	_, err = e.eventService.DueNotifications(99, now)
	req.ErrorIs(err, errors.ErrNotFound)
}
