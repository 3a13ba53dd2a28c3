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
	"strings"

	"github.com/samber/lo"
)

type IUserService interface {
	contract.IObservable[event.UserChangeEvent]
	Add(user domain.User) (domain.User, error)
	Remove(id int64) (domain.User, error)
	Update(user domain.User) (domain.User, error)
	Exists(email string) (domain.User, bool, error)
	Filter(id int64, query string) ([]domain.User, error)
	Get(id int64) (domain.User, error)
	GetUsers() ([]domain.User, error)
	GetUsersOnPage(page repositories.Pageable) ([]domain.User, error)
}

type UserService struct {
	*runtime.Bus[event.UserChangeEvent]
	log         *slog.Logger
	users       repositories.IUserRepository
	friendships repositories.IFriendshipRepository
}

// NewUserService builds the service on top of bus, or a fresh bus when nil.
// The friendship service may share the same bus.
func NewUserService(log *slog.Logger, users repositories.IUserRepository,
	friendships repositories.IFriendshipRepository, bus *runtime.Bus[event.UserChangeEvent]) *UserService {
	if bus == nil {
		bus = runtime.NewBus[event.UserChangeEvent]()
	}
	return &UserService{Bus: bus, log: log, users: users, friendships: friendships}
}

func (s *UserService) Add(user domain.User) (domain.User, error) {
	user.Email = strings.TrimSpace(user.Email)
	if err := validateEntity("user", user); err != nil {
		return domain.User{}, err
	}
	_, taken, err := s.users.FindOneByEmail(user.Email)
	if err != nil {
		return domain.User{}, fmt.Errorf("lookup email: %w", err)
	}
	if taken {
		return domain.User{}, errors.AlreadyExists("email %s is already registered", user.Email)
	}
	stored, err := s.users.Save(user)
	if err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	s.log.Debug("User added", "id", stored.ID, "email", stored.Email)
	s.Publish(event.UserChangeEvent{Kind: event.Add, User: stored})
	return stored, nil
}

// Remove deletes the user and every friendship touching it.
func (s *UserService) Remove(id int64) (domain.User, error) {
	user, err := findUser(s.users, id)
	if err != nil {
		return domain.User{}, err
	}
	friendships, err := s.friendships.FindAll()
	if err != nil {
		return domain.User{}, fmt.Errorf("list friendships: %w", err)
	}
	for _, f := range lo.Filter(friendships, func(f domain.Friendship, _ int) bool { return f.Involves(id) }) {
		if _, _, err := s.friendships.Remove(f.Key()); err != nil {
			return domain.User{}, fmt.Errorf("remove friendship %v: %w", f.Key(), err)
		}
	}
	if _, _, err := s.users.Remove(id); err != nil {
		return domain.User{}, fmt.Errorf("remove user %d: %w", id, err)
	}
	s.log.Debug("User removed", "id", id)
	s.Publish(event.UserChangeEvent{Kind: event.Remove, User: user})
	return user, nil
}

func (s *UserService) Update(user domain.User) (domain.User, error) {
	user.Email = strings.TrimSpace(user.Email)
	if err := validateEntity("user", user); err != nil {
		return domain.User{}, err
	}
	if _, err := findUser(s.users, user.ID); err != nil {
		return domain.User{}, err
	}
	owner, taken, err := s.users.FindOneByEmail(user.Email)
	if err != nil {
		return domain.User{}, fmt.Errorf("lookup email: %w", err)
	}
	if taken && owner.ID != user.ID {
		return domain.User{}, errors.AlreadyExists("email %s is already registered", user.Email)
	}
	stored, err := s.users.Update(user)
	if err != nil {
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
	s.Publish(event.UserChangeEvent{Kind: event.Update, User: stored})
	return stored, nil
}

// Exists looks a user up by email, ignoring case.
func (s *UserService) Exists(email string) (domain.User, bool, error) {
	return s.users.FindOneByEmail(strings.TrimSpace(email))
}

// Filter returns the users, other than id and its friends, whose first or
// last name contains query.
func (s *UserService) Filter(id int64, query string) ([]domain.User, error) {
	friends, err := friendIDs(s.friendships, id)
	if err != nil {
		return nil, err
	}
	all, err := s.users.FindAll()
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return lo.Filter(all, func(u domain.User, _ int) bool {
		return u.ID != id && !lo.Contains(friends, u.ID) && u.MatchesName(query)
	}), nil
}

func (s *UserService) Get(id int64) (domain.User, error) {
	return findUser(s.users, id)
}

func (s *UserService) GetUsers() ([]domain.User, error) {
	return s.users.FindAll()
}

func (s *UserService) GetUsersOnPage(page repositories.Pageable) ([]domain.User, error) {
	if page.Page < 0 || page.Size < 0 {
		return nil, errors.InvalidArgument("invalid page %d of size %d", page.Page, page.Size)
	}
	if page.Size == 0 {
		return []domain.User{}, nil
	}
	return s.users.Page(page)
}
