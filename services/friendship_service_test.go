package services

import (
	"log/slog"
	"social-lab/domain"
	"social-lab/domain/event"
	"social-lab/errors"
	"social-lab/mocks"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestFriendshipService_Add_Validation_Order(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	users := mocks.NewMockIUserRepository(ctrl)
	friendships := mocks.NewMockIFriendshipRepository(ctrl)
	svc := NewFriendshipService(slog.New(slog.DiscardHandler), users, friendships, nil)

	t.Run("should refuse self friendship without any lookup", func(t *testing.T) {
		req := require.New(t)
		users.EXPECT().FindOne(gomock.Any()).Times(0)

		_, err := svc.Add(domain.Friendship{E1: 3, E2: 3})

		req.ErrorIs(err, errors.ErrInvalidArgument)
	})

	t.Run("should fail when an endpoint does not exist", func(t *testing.T) {
		req := require.New(t)
		users.EXPECT().FindOne(int64(1)).Return(domain.User{ID: 1}, true, nil)
		users.EXPECT().FindOne(int64(2)).Return(domain.User{}, false, nil)
		friendships.EXPECT().Save(gomock.Any()).Times(0)

		_, err := svc.Add(domain.Friendship{E1: 1, E2: 2})

		req.ErrorIs(err, errors.ErrNotFound)
	})
}

func TestFriendshipService_Add_Is_Symmetric(t *testing.T) {
	req := require.New(t)
	e := setupEnv(t)
	ana := e.addUser(t, "Ana", "Pop")
	bob := e.addUser(t, "Bob", "Ion")
	rec := &recorder[event.UserChangeEvent]{}
	e.friendshipService.Subscribe(rec)

	// When ana befriends bob
	stored, err := e.friendshipService.Add(domain.Friendship{E1: ana.ID, E2: bob.ID})
	req.NoError(err)
	req.False(stored.Date.IsZero())

	// Then both directions return the same stored friendship
	forward, ok, err := e.friendshipService.Exists(ana.ID, bob.ID)
	req.NoError(err)
	req.True(ok)
	backward, ok, err := e.friendshipService.Exists(bob.ID, ana.ID)
	req.NoError(err)
	req.True(ok)
	req.Equal(forward, backward)
	req.Equal(ana.ID, backward.E1)
	req.Equal(bob.ID, backward.E2)
	req.True(stored.Date.Equal(backward.Date))

	// And one UPDATE per endpoint was published, e1 first
	req.Equal([]event.UserChangeEvent{
		{Kind: event.Update, User: ana},
		{Kind: event.Update, User: bob},
	}, rec.events)

	// And adding it again in any direction fails
	_, err = e.friendshipService.Add(domain.Friendship{E1: bob.ID, E2: ana.ID})
	req.ErrorIs(err, errors.ErrAlreadyExists)
	req.Len(rec.events, 2)
}

func TestFriendshipService_Shares_Bus_With_UserService(t *testing.T) {
	req := require.New(t)
	e := setupEnv(t)
	rec := &recorder[event.UserChangeEvent]{}
	e.userService.Subscribe(rec)

	ana := e.addUser(t, "Ana", "Pop")
	bob := e.addUser(t, "Bob", "Ion")
	e.befriend(t, ana, bob)

	req.Equal([]event.Kind{event.Add, event.Add, event.Update, event.Update},
		[]event.Kind{rec.events[0].Kind, rec.events[1].Kind, rec.events[2].Kind, rec.events[3].Kind})
}

func TestFriendshipService_RemoveFriendship(t *testing.T) {
	req := require.New(t)
	e := setupEnv(t)
	ana := e.addUser(t, "Ana", "Pop")
	bob := e.addUser(t, "Bob", "Ion")
	e.befriend(t, ana, bob)
	rec := &recorder[event.UserChangeEvent]{}
	e.friendshipService.Subscribe(rec)

	req.NoError(e.friendshipService.RemoveFriendship(bob.ID, ana.ID))

	_, ok, err := e.friendshipService.Exists(ana.ID, bob.ID)
	req.NoError(err)
	req.False(ok)
	friends, err := e.friendshipService.GetFriendships(ana.ID)
	req.NoError(err)
	req.Empty(friends)
	req.Len(rec.events, 2)

	// Removing a missing friendship is a silent no-op
	req.NoError(e.friendshipService.RemoveFriendship(ana.ID, bob.ID))
	req.Len(rec.events, 2)

	req.ErrorIs(e.friendshipService.RemoveFriendship(ana.ID, 99), errors.ErrNotFound)
}

func TestFriendshipService_GetFriendships(t *testing.T) {
	req := require.New(t)
	e := setupEnv(t)
	ana := e.addUser(t, "Ana", "Pop")
	bob := e.addUser(t, "Bob", "Ion")
	carl := e.addUser(t, "Carl", "Dan")
	dan := e.addUser(t, "Dan", "Mihai")
	e.befriend(t, ana, bob)
	e.befriend(t, carl, ana)
	e.befriend(t, bob, dan)

	friends, err := e.friendshipService.GetFriendships(ana.ID)
	req.NoError(err)
	req.ElementsMatch([]int64{bob.ID, carl.ID}, []int64{friends[0].User.ID, friends[1].User.ID})
	for _, f := range friends {
		req.False(f.Date.IsZero())
	}

	ids, err := e.friendshipService.FriendIDs(bob.ID)
	req.NoError(err)
	req.ElementsMatch([]int64{ana.ID, dan.ID}, ids)

	_, err = e.friendshipService.GetFriendships(99)
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestFriendshipService_GetMyFriendsOnPage(t *testing.T) {
	req := require.New(t)
	e := setupEnv(t)
	ana := e.addUser(t, "Ana", "Pop")
	for _, name := range []string{"Bob", "Carl", "Dan"} {
		e.befriend(t, ana, e.addUser(t, name, "Ion"))
	}
	all, err := e.friendshipService.GetFriendships(ana.ID)
	req.NoError(err)
	req.Len(all, 3)

	page, err := e.friendshipService.GetMyFriendsOnPage(0, 2, ana.ID)
	req.NoError(err)
	req.Len(page, 2)
	req.Equal(all[:2], page)

	tail, err := e.friendshipService.GetMyFriendsOnPage(2, 5, ana.ID)
	req.NoError(err)
	req.Equal(all[2:], tail)

	empty, err := e.friendshipService.GetMyFriendsOnPage(3, 2, ana.ID)
	req.NoError(err)
	req.Empty(empty)

	_, err = e.friendshipService.GetMyFriendsOnPage(-1, 2, ana.ID)
	req.ErrorIs(err, errors.ErrInvalidArgument)
}
