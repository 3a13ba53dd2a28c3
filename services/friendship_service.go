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
	"time"
)

type IFriendshipService interface {
	contract.IObservable[event.UserChangeEvent]
	Add(friendship domain.Friendship) (domain.Friendship, error)
	Exists(id1, id2 int64) (domain.Friendship, bool, error)
	RemoveFriendship(id1, id2 int64) error
	GetFriendships(id int64) ([]domain.FriendshipDTO, error)
	GetMyFriendsOnPage(left, right int, id int64) ([]domain.FriendshipDTO, error)
	FriendIDs(id int64) ([]int64, error)
}

// FriendshipService publishes an UPDATE for each endpoint whenever a friend
// list changes. Pass the user service bus to observe both on one channel.
type FriendshipService struct {
	*runtime.Bus[event.UserChangeEvent]
	log         *slog.Logger
	users       repositories.IUserRepository
	friendships repositories.IFriendshipRepository
	now         func() time.Time
}

func NewFriendshipService(log *slog.Logger, users repositories.IUserRepository,
	friendships repositories.IFriendshipRepository, bus *runtime.Bus[event.UserChangeEvent]) *FriendshipService {
	if bus == nil {
		bus = runtime.NewBus[event.UserChangeEvent]()
	}
	return &FriendshipService{Bus: bus, log: log, users: users, friendships: friendships, now: time.Now}
}

// WithClock replaces the source of friendship dates.
func (s *FriendshipService) WithClock(now func() time.Time) *FriendshipService {
	s.now = now
	return s
}

// Add befriends E1 and E2. The date is stamped here, any given one is ignored.
func (s *FriendshipService) Add(friendship domain.Friendship) (domain.Friendship, error) {
	if friendship.E1 == friendship.E2 {
		return domain.Friendship{}, errors.InvalidArgument("user %d cannot befriend themselves", friendship.E1)
	}
	u1, err := findUser(s.users, friendship.E1)
	if err != nil {
		return domain.Friendship{}, err
	}
	u2, err := findUser(s.users, friendship.E2)
	if err != nil {
		return domain.Friendship{}, err
	}
	_, exists, err := s.friendships.FindOne(friendship.Key())
	if err != nil {
		return domain.Friendship{}, fmt.Errorf("find friendship: %w", err)
	}
	if exists {
		return domain.Friendship{}, errors.AlreadyExists("users %d and %d are already friends", friendship.E1, friendship.E2)
	}

	friendship.Date = s.now().UTC()
	stored, err := s.friendships.Save(friendship)
	if err != nil {
		return domain.Friendship{}, fmt.Errorf("save friendship: %w", err)
	}
	s.log.Debug("Friendship added", "e1", stored.E1, "e2", stored.E2)
	s.Publish(event.UserChangeEvent{Kind: event.Update, User: u1})
	s.Publish(event.UserChangeEvent{Kind: event.Update, User: u2})
	return stored, nil
}

// Exists returns the stored friendship of id1 and id2 in either order.
func (s *FriendshipService) Exists(id1, id2 int64) (domain.Friendship, bool, error) {
	friendship, found, err := s.friendships.FindOne(domain.NewPair(id1, id2))
	if err != nil {
		return domain.Friendship{}, false, fmt.Errorf("find friendship: %w", err)
	}
	return friendship, found, nil
}

// RemoveFriendship is a no-op when the two users are not friends.
func (s *FriendshipService) RemoveFriendship(id1, id2 int64) error {
	u1, err := findUser(s.users, id1)
	if err != nil {
		return err
	}
	u2, err := findUser(s.users, id2)
	if err != nil {
		return err
	}
	_, removed, err := s.friendships.Remove(domain.NewPair(id1, id2))
	if err != nil {
		return fmt.Errorf("remove friendship: %w", err)
	}
	if !removed {
		return nil
	}
	s.log.Debug("Friendship removed", "e1", id1, "e2", id2)
	s.Publish(event.UserChangeEvent{Kind: event.Update, User: u1})
	s.Publish(event.UserChangeEvent{Kind: event.Update, User: u2})
	return nil
}

func (s *FriendshipService) GetFriendships(id int64) ([]domain.FriendshipDTO, error) {
	return listFriendships(s.log, s.users, s.friendships, id)
}

func (s *FriendshipService) GetMyFriendsOnPage(left, right int, id int64) ([]domain.FriendshipDTO, error) {
	friends, err := s.GetFriendships(id)
	if err != nil {
		return nil, err
	}
	return window(friends, left, right)
}

func (s *FriendshipService) FriendIDs(id int64) ([]int64, error) {
	return friendIDs(s.friendships, id)
}
