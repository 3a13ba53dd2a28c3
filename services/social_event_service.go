package services

import (
	"fmt"
	"log/slog"
	"social-lab/contract"
	"social-lab/domain"
	"social-lab/domain/event"
	"social-lab/errors"
	"social-lab/repositories"
	"social-lab/runtime"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
)

type ISocialEventService interface {
	contract.IObservable[event.SocialEventChangeEvent]
	CreateEvent(e domain.SocialEvent) (domain.SocialEvent, error)
	FindEvent(id int64) (domain.SocialEvent, error)
	GetEvents() ([]domain.SocialEvent, error)
	SubscribeToEvent(eventID, userID int64) (domain.SocialEvent, error)
	UnsubscribeFromEvent(eventID, userID int64) (domain.SocialEvent, error)
	RemoveEvent(id int64) (domain.SocialEvent, error)
	MyEvents(userID int64) ([]domain.SocialEvent, error)
	DueNotifications(userID int64, now time.Time) ([]domain.SocialEvent, error)
	MarkNotified(eventID, userID int64, at time.Time) error
}

// SocialEventService manages events and the reminders owed to their subscribers.
type SocialEventService struct {
	*runtime.Bus[event.SocialEventChangeEvent]
	log    *slog.Logger
	events repositories.ISocialEventRepository
	users  repositories.IUserRepository
	window time.Duration
	now    func() time.Time
}

// NewSocialEventService reminds subscribers of events starting within window.
func NewSocialEventService(log *slog.Logger, events repositories.ISocialEventRepository,
	users repositories.IUserRepository, window time.Duration,
	bus *runtime.Bus[event.SocialEventChangeEvent]) *SocialEventService {
	if bus == nil {
		bus = runtime.NewBus[event.SocialEventChangeEvent]()
	}
	return &SocialEventService{Bus: bus, log: log, events: events, users: users, window: window, now: time.Now}
}

func (s *SocialEventService) WithClock(now func() time.Time) *SocialEventService {
	s.now = now
	return s
}

func (s *SocialEventService) CreateEvent(e domain.SocialEvent) (domain.SocialEvent, error) {
	e.Title = strings.TrimSpace(e.Title)
	if err := validateEntity("social event", e); err != nil {
		return domain.SocialEvent{}, err
	}
	if _, err := findUser(s.users, e.Admin); err != nil {
		return domain.SocialEvent{}, err
	}
	e.CreatedAt = s.now().UTC()
	e.Subscribers = nil
	stored, err := s.events.Save(e)
	if err != nil {
		return domain.SocialEvent{}, fmt.Errorf("save social event: %w", err)
	}
	s.log.Debug("Social event created", "id", stored.ID, "title", stored.Title, "admin", stored.Admin)
	s.Publish(event.SocialEventChangeEvent{Kind: event.Add, Event: stored})
	return stored, nil
}

func (s *SocialEventService) FindEvent(id int64) (domain.SocialEvent, error) {
	e, found, err := s.events.FindOne(id)
	if err != nil {
		return domain.SocialEvent{}, fmt.Errorf("find social event %d: %w", id, err)
	}
	if !found {
		return domain.SocialEvent{}, errors.NotFound("social event %d does not exist", id)
	}
	return e, nil
}

// GetEvents lists every event by ascending start date.
func (s *SocialEventService) GetEvents() ([]domain.SocialEvent, error) {
	all, err := s.events.FindAll()
	if err != nil {
		return nil, fmt.Errorf("list social events: %w", err)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Start.Before(all[j].Start) })
	return all, nil
}

func (s *SocialEventService) SubscribeToEvent(eventID, userID int64) (domain.SocialEvent, error) {
	e, err := s.FindEvent(eventID)
	if err != nil {
		return domain.SocialEvent{}, err
	}
	if _, err = findUser(s.users, userID); err != nil {
		return domain.SocialEvent{}, err
	}
	if e.HasSubscriber(userID) {
		return domain.SocialEvent{}, errors.AlreadyExists("user %d already subscribed to social event %d", userID, eventID)
	}
	e.Subscribers = append(e.Subscribers, domain.Subscriber{UserID: userID})
	return s.update(e, "Subscribed to social event", userID)
}

func (s *SocialEventService) UnsubscribeFromEvent(eventID, userID int64) (domain.SocialEvent, error) {
	e, err := s.FindEvent(eventID)
	if err != nil {
		return domain.SocialEvent{}, err
	}
	if !e.HasSubscriber(userID) {
		return domain.SocialEvent{}, errors.NotFound("user %d is not subscribed to social event %d", userID, eventID)
	}
	e.Subscribers = lo.Reject(e.Subscribers, func(sub domain.Subscriber, _ int) bool { return sub.UserID == userID })
	return s.update(e, "Unsubscribed from social event", userID)
}

func (s *SocialEventService) update(e domain.SocialEvent, msg string, userID int64) (domain.SocialEvent, error) {
	stored, err := s.events.Update(e)
	if err != nil {
		return domain.SocialEvent{}, fmt.Errorf("update social event %d: %w", e.ID, err)
	}
	s.log.Debug(msg, "id", e.ID, "user", userID)
	s.Publish(event.SocialEventChangeEvent{Kind: event.Update, Event: stored})
	return stored, nil
}

func (s *SocialEventService) RemoveEvent(id int64) (domain.SocialEvent, error) {
	removed, found, err := s.events.Remove(id)
	if err != nil {
		return domain.SocialEvent{}, fmt.Errorf("remove social event %d: %w", id, err)
	}
	if !found {
		return domain.SocialEvent{}, errors.NotFound("social event %d does not exist", id)
	}
	s.log.Debug("Social event removed", "id", id)
	s.Publish(event.SocialEventChangeEvent{Kind: event.Remove, Event: removed})
	return removed, nil
}

// MyEvents lists the events userID subscribed to by ascending start date.
func (s *SocialEventService) MyEvents(userID int64) ([]domain.SocialEvent, error) {
	all, err := s.GetEvents()
	if err != nil {
		return nil, err
	}
	return lo.Filter(all, func(e domain.SocialEvent, _ int) bool { return e.HasSubscriber(userID) }), nil
}

// DueNotifications returns the subscribed events starting in (now, now+window]
// that userID was not reminded of during the last window.
func (s *SocialEventService) DueNotifications(userID int64, now time.Time) ([]domain.SocialEvent, error) {
	if _, err := findUser(s.users, userID); err != nil {
		return nil, err
	}
	mine, err := s.MyEvents(userID)
	if err != nil {
		return nil, err
	}
	horizon := now.Add(s.window)
	return lo.Filter(mine, func(e domain.SocialEvent, _ int) bool {
		if !e.Start.After(now) || e.Start.After(horizon) {
			return false
		}
		sub, _ := e.Subscriber(userID)
		return sub.LastNotifiedAt.IsZero() || now.Sub(sub.LastNotifiedAt) >= s.window
	}), nil
}

// MarkNotified records that userID was reminded of eventID at the given time.
func (s *SocialEventService) MarkNotified(eventID, userID int64, at time.Time) error {
	e, err := s.FindEvent(eventID)
	if err != nil {
		return err
	}
	_, i, ok := lo.FindIndexOf(e.Subscribers, func(sub domain.Subscriber) bool { return sub.UserID == userID })
	if !ok {
		return errors.NotFound("user %d is not subscribed to social event %d", userID, eventID)
	}
	e.Subscribers[i].LastNotifiedAt = at.UTC()
	if _, err = s.events.Update(e); err != nil {
		return fmt.Errorf("update social event %d: %w", eventID, err)
	}
	return nil
}
