package main

import (
	"bytes"
	"log/slog"
	"social-lab/errors"
	"social-lab/internal"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func setupApp(t *testing.T) (*app, *bytes.Buffer) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var out bytes.Buffer
	config := internal.Config{PageSize: 10, NotificationWindow: 24 * time.Hour}
	return newApp(db, slog.New(slog.DiscardHandler), config, &out), &out
}

func TestApp_Dispatch_Social_Flow(t *testing.T) {
	req := require.New(t)
	a, out := setupApp(t)

	steps := [][]string{
		{"user", "add", "Ana", "Pop", "ana@example.com"},
		{"user", "add", "Bob", "Ion", "bob@example.com"},
		{"friend", "add", "1", "2"},
		{"msg", "send", "1", "2", "see", "you", "tonight"},
		{"msg", "reply", "1", "2", "sure"},
		{"group", "create", "Climbing", "1,2"},
		{"group", "post", "1", "2", "saturday?"},
		{"event", "create", "1", "Picnic", "2030-06-01T10:00:00Z", "2030-06-01T16:00:00Z"},
		{"event", "subscribe", "1", "2"},
	}
	for _, step := range steps {
		req.NoError(a.dispatch(step), step)
	}

	out.Reset()
	req.NoError(a.dispatch([]string{"msg", "conversation", "1", "2"}))
	req.Contains(out.String(), "see you tonight")
	req.Contains(out.String(), "sure")

	out.Reset()
	req.NoError(a.dispatch([]string{"msg", "timeline", "2"}))
	req.Contains(out.String(), "Timeline of 2")
	req.Contains(out.String(), "see you tonight")
	req.Contains(out.String(), "sure")
	req.ErrorIs(a.dispatch([]string{"msg", "timeline", "9"}), errors.ErrNotFound)

	out.Reset()
	req.NoError(a.dispatch([]string{"friend", "list", "1"}))
	req.Contains(out.String(), "Bob Ion")

	out.Reset()
	req.NoError(a.dispatch([]string{"group", "messages", "1"}))
	req.Contains(out.String(), "saturday?")
}

func TestApp_Dispatch_Errors(t *testing.T) {
	req := require.New(t)
	a, _ := setupApp(t)

	req.ErrorIs(a.dispatch([]string{"planet", "add"}), errors.ErrInvalidArgument)
	req.ErrorIs(a.dispatch([]string{"user", "fly"}), errors.ErrInvalidArgument)
	req.ErrorIs(a.dispatch([]string{"user", "rm", "abc"}), errors.ErrInvalidArgument)
	req.ErrorIs(a.dispatch([]string{"user", "rm", "9"}), errors.ErrNotFound)
	req.ErrorIs(a.dispatch([]string{"event", "create", "1", "x", "tomorrow", "later"}), errors.ErrInvalidArgument)
}

func TestEntityMapper(t *testing.T) {
	req := require.New(t)

	row := EntityMapper("user:id:0000000000000000001", []byte(`{"id":1}`))
	req.Equal("USER", row.Type)
	req.Equal(`{"id":1}`, row.Detail)

	row = EntityMapper("seq:user", []byte{0, 0, 0, 0, 0, 0, 0, 3})
	req.Equal("SEQ", row.Type)
	req.Equal("3", row.Detail)

	row = EntityMapper("user:email:ana@example.com", []byte{0, 0, 0, 0, 0, 0, 0, 1})
	req.Equal("USER", row.Type)
	req.Equal("1", row.Detail)

	row = EntityMapper("group:id:0000000000000000002", []byte(`{"id":2}`))
	req.Equal("GROUP", row.Type)
	req.Equal(`{"id":2}`, row.Detail)
}
