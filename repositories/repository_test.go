package repositories

import (
	"log/slog"
	"social-lab/domain"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

// SetupTestDB initializes an in-memory Badger instance for testing
func SetupTestDB(t *testing.T) *badger.DB {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUserRepository_Save_Assigns_Sequential_IDs(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(SetupTestDB(t), slog.Default())

	alice, err := repo.Save(domain.User{FirstName: "Alice", LastName: "Pop", Email: "alice@example.com"})
	req.NoError(err)
	bob, err := repo.Save(domain.User{FirstName: "Bob", LastName: "Ion", Email: "bob@example.com"})
	req.NoError(err)

	req.Equal(int64(1), alice.ID)
	req.Equal(int64(2), bob.ID)

	fetched, found, err := repo.FindOne(bob.ID)
	req.NoError(err)
	req.True(found)
	req.Equal(bob, fetched)

	all, err := repo.FindAll()
	req.NoError(err)
	req.Equal([]domain.User{alice, bob}, all)
}

func TestUserRepository_Email_Index(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(SetupTestDB(t), slog.Default())

	// Given a stored user
	alice, err := repo.Save(domain.User{FirstName: "Alice", Email: "Alice@Example.com"})
	req.NoError(err)

	// Then the email lookup is case-insensitive
	found, ok, err := repo.FindOneByEmail("alice@example.com")
	req.NoError(err)
	req.True(ok)
	req.Equal(alice.ID, found.ID)

	// And a second user with the same email is rejected
	_, err = repo.Save(domain.User{FirstName: "Other", Email: "ALICE@example.com"})
	req.ErrorIs(err, ErrDuplicateKey)

	// When the email changes
	alice.Email = "alice@new.org"
	_, err = repo.Update(alice)
	req.NoError(err)

	// Then the old address is released
	_, ok, err = repo.FindOneByEmail("alice@example.com")
	req.NoError(err)
	req.False(ok)
	_, ok, err = repo.FindOneByEmail("alice@new.org")
	req.NoError(err)
	req.True(ok)

	// When the user is removed the index goes with it
	removed, ok, err := repo.Remove(alice.ID)
	req.NoError(err)
	req.True(ok)
	req.Equal(alice, removed)
	_, ok, err = repo.FindOneByEmail("alice@new.org")
	req.NoError(err)
	req.False(ok)
}

func TestUserRepository_Remove_Absent_Is_Noop(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(SetupTestDB(t), slog.Default())

	_, found, err := repo.Remove(42)
	req.NoError(err)
	req.False(found)
}

func TestUserRepository_Page(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(SetupTestDB(t), slog.Default())
	for _, email := range []string{"a@x.io", "b@x.io", "c@x.io", "d@x.io", "e@x.io"} {
		_, err := repo.Save(domain.User{Email: email})
		req.NoError(err)
	}

	page0, err := repo.Page(Pageable{Page: 0, Size: 2})
	req.NoError(err)
	req.Len(page0, 2)
	req.Equal("a@x.io", page0[0].Email)

	page2, err := repo.Page(Pageable{Page: 2, Size: 2})
	req.NoError(err)
	req.Len(page2, 1)
	req.Equal("e@x.io", page2[0].Email)

	page5, err := repo.Page(Pageable{Page: 5, Size: 2})
	req.NoError(err)
	req.Empty(page5)

	_, err = repo.Page(Pageable{Page: 0, Size: 0})
	req.Error(err)
}

func TestFriendshipRepository_Pair_Lookup_Is_Order_Insensitive(t *testing.T) {
	req := require.New(t)
	repo := NewFriendshipRepository(SetupTestDB(t), slog.Default())
	date := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	saved, err := repo.Save(domain.Friendship{E1: 7, E2: 3, Date: date})
	req.NoError(err)

	// Both orderings, canonical or not, resolve to the same record
	for _, key := range []domain.Pair{domain.NewPair(3, 7), domain.NewPair(7, 3), {Lo: 7, Hi: 3}} {
		found, ok, err := repo.FindOne(key)
		req.NoError(err)
		req.True(ok)
		req.Equal(saved, found)
	}

	// The reversed pair is a duplicate
	_, err = repo.Save(domain.Friendship{E1: 3, E2: 7, Date: date})
	req.ErrorIs(err, ErrDuplicateKey)

	_, ok, err := repo.Remove(domain.Pair{Lo: 7, Hi: 3})
	req.NoError(err)
	req.True(ok)
	_, ok, err = repo.FindOne(domain.NewPair(3, 7))
	req.NoError(err)
	req.False(ok)
}

func TestMessageRepository_Store_Reply(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(SetupTestDB(t), slog.Default())
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	root, err := repo.Save(domain.Message{From: 1, To: []int64{2}, Text: "hi", Date: at})
	req.NoError(err)
	reply, err := repo.Save(domain.Message{From: 2, To: []int64{1}, Text: "hello", Date: at.Add(time.Minute), ReplyTo: &root.ID})
	req.NoError(err)

	fetched, found, err := repo.FindOne(reply.ID)
	req.NoError(err)
	req.True(found)
	req.Equal(reply, fetched)
	req.Equal(root.ID, *fetched.ReplyTo)
}

func TestGroupRepository_Update_Keeps_Messages(t *testing.T) {
	req := require.New(t)
	repo := NewGroupRepository(SetupTestDB(t), slog.Default())

	group, err := repo.Save(domain.Group{Name: "book club", Members: []int64{1, 2, 3}})
	req.NoError(err)
	req.Equal(int64(1), group.ID)

	group.AddMessage(domain.Message{From: 1, To: []int64{2, 3}, Text: "next book?", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})
	_, err = repo.Update(group)
	req.NoError(err)

	fetched, found, err := repo.FindOne(group.ID)
	req.NoError(err)
	req.True(found)
	req.Len(fetched.Messages, 1)
	req.Equal("next book?", fetched.Messages[0].Text)
}

func TestRepositories_Share_A_Database(t *testing.T) {
	req := require.New(t)
	db := SetupTestDB(t)
	users := NewUserRepository(db, slog.Default())
	messages := NewMessageRepository(db, slog.Default())
	events := NewSocialEventRepository(db, slog.Default())

	_, err := users.Save(domain.User{Email: "a@x.io"})
	req.NoError(err)
	_, err = messages.Save(domain.Message{From: 1, Text: "x"})
	req.NoError(err)
	_, err = events.Save(domain.SocialEvent{Title: "picnic", Admin: 1})
	req.NoError(err)

	// Each entity has its own prefix and counter, the email index is not a user record
	allUsers, err := users.FindAll()
	req.NoError(err)
	req.Len(allUsers, 1)
	allMessages, err := messages.FindAll()
	req.NoError(err)
	req.Len(allMessages, 1)
	req.Equal(int64(1), allMessages[0].ID)
	allEvents, err := events.FindAll()
	req.NoError(err)
	req.Len(allEvents, 1)
}
