package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"social-lab/domain/event"
	"social-lab/internal"
	"social-lab/repositories"
	"social-lab/runtime"
	"social-lab/services"
	"social-lab/sink"
	"strconv"
	"strings"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the shell.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
	exitUsage   = 3
)

const usage = `socialctl - social network console

Usage:
  socialctl [-page N] <resource> <command> [arguments]

Resources and commands:
  user   add <first> <last> <email> | list | search <id> <query> | rm <id>
  friend add <id1> <id2> | rm <id1> <id2> | list <id>
  msg    send <from> <to,to,...> <text> | reply <messageID> <from> <text> | reply-all <messageID> <from> <text>
         conversation <id1> <id2> | talking <id> | timeline <id>
  group  create <name> <id,id,...> | list <id> | search <id> <text> | post <groupID> <from> <text> | messages <groupID>
  event  create <admin> <title> <start> <end> | list | subscribe <eventID> <userID>
         unsubscribe <eventID> <userID> | rm <eventID> | due <userID> | watch

Dates use RFC3339, e.g. 2024-06-01T18:00:00Z.
`

func main() {
	code, err := run(os.Args[1:], os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "socialctl: %v\n", err)
	}
	os.Exit(code)
}

// run wires storage and services and executes one command.
// It returns instead of exiting so deferred cleanup always runs.
func run(args []string, out io.Writer) (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(strings.ToUpper(config.LogLevel))

	fs := flag.NewFlagSet("socialctl", flag.ContinueOnError)
	fs.SetOutput(out)
	page := fs.Int("page", 0, "page to display (0-based)")
	fs.Usage = func() { fmt.Fprint(out, usage) }
	if err := fs.Parse(args); err != nil {
		return exitUsage, err
	}
	if fs.NArg() < 2 {
		fs.Usage()
		return exitUsage, nil
	}

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Debug("Closing BadgerDB...")
		_ = db.Close()
	}()

	if strings.EqualFold(config.LogLevel, "DEBUG") {
		url := fmt.Sprintf("http://localhost:%d/inspect", config.DebugPort)
		log.Info("Debug Badger inspector available", "url", url)
		database.StartDebugServer(db, config.DebugPort, "/inspect", EntityMapper)
	}

	// 3. Services and sinks
	a := newApp(db, log, config, out)
	a.page = *page
	if err = a.dispatch(fs.Args()); err != nil {
		return exitRuntime, err
	}
	return exitOK, nil
}

func newApp(db *badger.DB, log *slog.Logger, config internal.Config, out io.Writer) *app {
	users := repositories.NewUserRepository(db, log)
	friendships := repositories.NewFriendshipRepository(db, log)
	messages := repositories.NewMessageRepository(db, log)
	groups := repositories.NewGroupRepository(db, log)
	events := repositories.NewSocialEventRepository(db, log)

	userBus := runtime.NewBus[event.UserChangeEvent]()
	logSink := sink.NewLogSink(log)

	a := &app{
		users:    services.NewUserService(log, users, friendships, userBus),
		friends:  services.NewFriendshipService(log, users, friendships, userBus),
		messages: services.NewMessageService(log, messages, users, friendships, groups, nil),
		events:   services.NewSocialEventService(log, events, users, config.NotificationWindow, nil),
		history:  messages,
		log:      log,
		config:   config,
		pageSize: config.PageSize,
		colours:  config.Colours,
		out:      out,
	}
	a.users.Subscribe(observe(logSink.OnUser))
	a.messages.Subscribe(observe(logSink.OnMessage))
	a.events.Subscribe(observe(logSink.OnSocialEvent))
	return a
}

// EntityMapper shows the entity name and the JSON document of every stored record.
// Counters and the email index hold big-endian ids instead.
func EntityMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)
	row.Type = strings.ToUpper(strings.SplitN(key, ":", 2)[0])
	binaryID := strings.HasPrefix(key, "seq:") || strings.HasPrefix(key, "user:email:")
	if binaryID && len(val) == 8 {
		row.Detail = strconv.FormatUint(binary.BigEndian.Uint64(val), 10)
		return row
	}
	row.Detail = string(val)
	return row
}
