package services

import (
	"log/slog"
	"social-lab/contract"
	"social-lab/domain"
	"social-lab/repositories"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

// tickingClock returns a strictly increasing time on every call.
type tickingClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *tickingClock {
	return &tickingClock{t: epoch}
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Minute)
	return c.t
}

// recorder collects every event it is notified of.
type recorder[E any] struct {
	events []E
}

func (r *recorder[E]) Update(e E) {
	r.events = append(r.events, e)
}

var _ contract.Observer[int] = (*recorder[int])(nil)

type env struct {
	users       *repositories.UserRepository
	friendships *repositories.FriendshipRepository
	messages    *repositories.MessageRepository
	groups      *repositories.GroupRepository
	events      *repositories.SocialEventRepository

	userService       *UserService
	friendshipService *FriendshipService
	messageService    *MessageService
	eventService      *SocialEventService
}

func setupEnv(t *testing.T) *env {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.New(slog.DiscardHandler)
	clock := newClock()
	e := &env{
		users:       repositories.NewUserRepository(db, log),
		friendships: repositories.NewFriendshipRepository(db, log),
		messages:    repositories.NewMessageRepository(db, log),
		groups:      repositories.NewGroupRepository(db, log),
		events:      repositories.NewSocialEventRepository(db, log),
	}
	e.userService = NewUserService(log, e.users, e.friendships, nil)
	e.friendshipService = NewFriendshipService(log, e.users, e.friendships, e.userService.Bus).WithClock(clock.Now)
	e.messageService = NewMessageService(log, e.messages, e.users, e.friendships, e.groups, nil).WithClock(clock.Now)
	e.eventService = NewSocialEventService(log, e.events, e.users, 24*time.Hour, nil).WithClock(clock.Now)
	return e
}

func (e *env) addUser(t *testing.T, first, last string) domain.User {
	user, err := e.userService.Add(domain.User{FirstName: first, LastName: last, Email: first + "." + last + "@example.com"})
	require.NoError(t, err)
	return user
}

func (e *env) befriend(t *testing.T, a, b domain.User) {
	_, err := e.friendshipService.Add(domain.Friendship{E1: a.ID, E2: b.ID})
	require.NoError(t, err)
}
