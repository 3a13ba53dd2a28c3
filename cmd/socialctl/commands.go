package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"social-lab/contract"
	"social-lab/domain"
	"social-lab/domain/event"
	"social-lab/errors"
	"social-lab/internal"
	"social-lab/projection"
	"social-lab/repositories"
	"social-lab/runtime/workers"
	"social-lab/services"
	"social-lab/sink"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

type app struct {
	users    services.IUserService
	friends  services.IFriendshipService
	messages services.IMessageService
	events   services.ISocialEventService
	history  repositories.IMessageRepository
	log      *slog.Logger
	config   internal.Config
	page     int
	pageSize int
	colours  bool
	out      io.Writer
}

func observe[E any](fn func(E)) contract.Observer[E] {
	return contract.ObserverFunc[E](fn)
}

func (a *app) dispatch(args []string) error {
	resource, command, rest := args[0], args[1], args[2:]
	switch resource {
	case "user":
		return a.user(command, rest)
	case "friend":
		return a.friend(command, rest)
	case "msg":
		return a.message(command, rest)
	case "group":
		return a.group(command, rest)
	case "event":
		return a.event(command, rest)
	}
	return errors.InvalidArgument("unknown resource %q", resource)
}

func (a *app) user(command string, args []string) error {
	switch command {
	case "add":
		if err := arity(args, 3); err != nil {
			return err
		}
		user, err := a.users.Add(domain.User{FirstName: args[0], LastName: args[1], Email: args[2]})
		if err != nil {
			return err
		}
		a.printUsers("New user", []domain.User{user})
		return nil
	case "list":
		users, err := a.users.GetUsersOnPage(repositories.Pageable{Page: a.page, Size: a.pageSize})
		if err != nil {
			return err
		}
		a.printUsers(fmt.Sprintf("Users, page %d", a.page), users)
		return nil
	case "search":
		if err := arity(args, 2); err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		users, err := a.users.Filter(id, args[1])
		if err != nil {
			return err
		}
		a.printUsers(fmt.Sprintf("People matching %q", args[1]), users)
		return nil
	case "rm":
		ids, err := parseIDs(args, 1)
		if err != nil {
			return err
		}
		user, err := a.users.Remove(ids[0])
		if err != nil {
			return err
		}
		a.printUsers("Removed user", []domain.User{user})
		return nil
	}
	return unknown("user", command)
}

func (a *app) friend(command string, args []string) error {
	switch command {
	case "add":
		ids, err := parseIDs(args, 2)
		if err != nil {
			return err
		}
		if _, err = a.friends.Add(domain.Friendship{E1: ids[0], E2: ids[1]}); err != nil {
			return err
		}
		a.title(fmt.Sprintf("Users %d and %d are now friends", ids[0], ids[1]))
		return nil
	case "rm":
		ids, err := parseIDs(args, 2)
		if err != nil {
			return err
		}
		if err = a.friends.RemoveFriendship(ids[0], ids[1]); err != nil {
			return err
		}
		a.title(fmt.Sprintf("Users %d and %d are no longer friends", ids[0], ids[1]))
		return nil
	case "list":
		ids, err := parseIDs(args, 1)
		if err != nil {
			return err
		}
		friends, err := a.friends.GetMyFriendsOnPage(a.offset(), a.pageSize, ids[0])
		if err != nil {
			return err
		}
		a.printFriends(fmt.Sprintf("Friends of %d", ids[0]), friends)
		return nil
	}
	return unknown("friend", command)
}

func (a *app) message(command string, args []string) error {
	switch command {
	case "send":
		if err := arity(args, 3); err != nil {
			return err
		}
		from, err := parseID(args[0])
		if err != nil {
			return err
		}
		to, err := parseList(args[1])
		if err != nil {
			return err
		}
		sent, sendErr := a.messages.SendMessage(from, to, strings.Join(args[2:], " "))
		if sent.ID != 0 {
			a.printMessages("Sent", []domain.Message{sent})
		}
		return sendErr
	case "reply", "reply-all":
		if err := arity(args, 3); err != nil {
			return err
		}
		ids, err := parseIDs(args[:2], 2)
		if err != nil {
			return err
		}
		reply := a.messages.ReplyToOne
		if command == "reply-all" {
			reply = a.messages.ReplyToAll
		}
		sent, err := reply(ids[0], ids[1], strings.Join(args[2:], " "))
		if err != nil {
			return err
		}
		a.printMessages("Reply sent", []domain.Message{sent})
		return nil
	case "conversation":
		ids, err := parseIDs(args, 2)
		if err != nil {
			return err
		}
		messages, err := a.messages.GetMyMessagesOnPage(a.offset(), a.pageSize, ids[0], ids[1])
		if err != nil {
			return err
		}
		a.printThread(fmt.Sprintf("Conversation %d <-> %d", ids[0], ids[1]), messages)
		return nil
	case "talking":
		ids, err := parseIDs(args, 1)
		if err != nil {
			return err
		}
		friends, err := a.messages.GetMyConversationPage(a.offset(), a.pageSize, ids[0])
		if err != nil {
			return err
		}
		a.printFriends(fmt.Sprintf("Conversations of %d", ids[0]), friends)
		return nil
	case "timeline":
		ids, err := parseIDs(args, 1)
		if err != nil {
			return err
		}
		timeline, err := a.timeline(ids[0])
		if err != nil {
			return err
		}
		a.printMessages(fmt.Sprintf("Timeline of %d", ids[0]), timeline.Messages())
		return nil
	}
	return unknown("msg", command)
}

// timeline replays the stored direct messages into a projection owned by id.
func (a *app) timeline(id int64) (*projection.Timeline, error) {
	owner, err := a.users.Get(id)
	if err != nil {
		return nil, err
	}
	stored, err := a.history.FindAll()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	timeline := projection.NewTimeline(owner.ID)
	for _, m := range stored {
		timeline.Update(event.MessageChangeEvent{Kind: event.Add, Message: m})
	}
	return timeline, nil
}

func (a *app) group(command string, args []string) error {
	switch command {
	case "create":
		if err := arity(args, 2); err != nil {
			return err
		}
		members, err := parseList(args[1])
		if err != nil {
			return err
		}
		group, err := a.messages.SaveGroup(domain.Group{Name: args[0], Members: members})
		if err != nil {
			return err
		}
		a.printGroups("New group", []domain.Group{group})
		return nil
	case "list":
		ids, err := parseIDs(args, 1)
		if err != nil {
			return err
		}
		groups, err := a.messages.GetGroupsOnPage(a.offset(), a.pageSize, ids[0])
		if err != nil {
			return err
		}
		a.printGroups(fmt.Sprintf("Groups of %d", ids[0]), groups)
		return nil
	case "search":
		if err := arity(args, 2); err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		groups, err := a.messages.GetSearchingGroupsOnPage(a.offset(), a.pageSize, id, args[1])
		if err != nil {
			return err
		}
		a.printGroups(fmt.Sprintf("Groups matching %q", args[1]), groups)
		return nil
	case "post":
		if err := arity(args, 3); err != nil {
			return err
		}
		ids, err := parseIDs(args[:2], 2)
		if err != nil {
			return err
		}
		sent, err := a.messages.SendMessageGroup(ids[0], domain.Message{From: ids[1], Text: strings.Join(args[2:], " ")})
		if err != nil {
			return err
		}
		a.printMessages(fmt.Sprintf("Posted in group %d", ids[0]), []domain.Message{sent})
		return nil
	case "messages":
		ids, err := parseIDs(args, 1)
		if err != nil {
			return err
		}
		messages, err := a.messages.GetGroupMessagesOnPage(a.offset(), a.pageSize, ids[0])
		if err != nil {
			return err
		}
		a.printThread(fmt.Sprintf("Group %d", ids[0]), messages)
		return nil
	}
	return unknown("group", command)
}

func (a *app) event(command string, args []string) error {
	switch command {
	case "create":
		if err := arity(args, 4); err != nil {
			return err
		}
		admin, err := parseID(args[0])
		if err != nil {
			return err
		}
		start, err := parseDate(args[2])
		if err != nil {
			return err
		}
		end, err := parseDate(args[3])
		if err != nil {
			return err
		}
		created, err := a.events.CreateEvent(domain.SocialEvent{
			Title: args[1],
			Start: start,
			End:   end,
			Admin: admin,
		})
		if err != nil {
			return err
		}
		a.printEvents("New event", []domain.SocialEvent{created})
		return nil
	case "list":
		events, err := a.events.GetEvents()
		if err != nil {
			return err
		}
		a.printEvents("Events", events)
		return nil
	case "subscribe", "unsubscribe":
		ids, err := parseIDs(args, 2)
		if err != nil {
			return err
		}
		change := a.events.SubscribeToEvent
		if command == "unsubscribe" {
			change = a.events.UnsubscribeFromEvent
		}
		updated, err := change(ids[0], ids[1])
		if err != nil {
			return err
		}
		a.printEvents(fmt.Sprintf("User %d %sd", ids[1], command), []domain.SocialEvent{updated})
		return nil
	case "rm":
		ids, err := parseIDs(args, 1)
		if err != nil {
			return err
		}
		removed, err := a.events.RemoveEvent(ids[0])
		if err != nil {
			return err
		}
		a.printEvents("Removed event", []domain.SocialEvent{removed})
		return nil
	case "due":
		ids, err := parseIDs(args, 1)
		if err != nil {
			return err
		}
		now := time.Now()
		due, err := a.events.DueNotifications(ids[0], now)
		if err != nil {
			return err
		}
		a.printEvents(fmt.Sprintf("Reminders for %d", ids[0]), due)
		for _, e := range due {
			if err = a.events.MarkNotified(e.ID, ids[0], now); err != nil {
				return err
			}
		}
		return nil
	case "watch":
		return a.watch()
	}
	return unknown("event", command)
}

// watch prints reminders as they become due until interrupted.
func (a *app) watch() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.title("Watching reminders, Ctrl+C to stop")
	logSink := sink.NewLogSink(a.log)
	notify := observe(func(r event.Reminder) {
		a.printReminder(r)
		logSink.OnReminder(r)
	})
	worker := workers.NewReminderWorker(a.log, a.users, a.events, notify, a.config.ReminderInterval)
	workers.NewSupervisor(a.log, a.config.RestartInterval).Add(worker).Run(ctx)
	return nil
}

func (a *app) printReminder(r event.Reminder) {
	line := fmt.Sprintf("%s  %s starts at %s (%s)", r.At.Format(time.TimeOnly), r.Event.Title,
		r.Event.Start.Format(time.DateTime), r.User.FullName())
	if a.colours {
		line = color.New(color.FgYellow).Render(line)
	}
	fmt.Fprintln(a.out, line)
}

func (a *app) offset() int {
	return a.page * a.pageSize
}

func (a *app) title(text string) {
	header := fmt.Sprintf("  ====== %s ======", text)
	if a.colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	fmt.Fprintln(a.out, header)
}

func (a *app) table(header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(a.out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func (a *app) printUsers(title string, users []domain.User) {
	a.title(title)
	table := a.table("ID", "Name", "Email")
	for _, u := range users {
		table.Append([]string{strconv.FormatInt(u.ID, 10), u.FullName(), u.Email})
	}
	table.Render()
}

func (a *app) printFriends(title string, friends []domain.FriendshipDTO) {
	a.title(title)
	table := a.table("ID", "Name", "Friends since")
	for _, f := range friends {
		table.Append([]string{strconv.FormatInt(f.User.ID, 10), f.User.FullName(), f.Date.Format(time.DateTime)})
	}
	table.Render()
}

func (a *app) printMessages(title string, messages []domain.Message) {
	a.title(title)
	table := a.table("ID", "From", "To", "Date", "Reply to", "Text")
	for _, m := range messages {
		replyTo := ""
		if m.IsReply() {
			replyTo = strconv.FormatInt(*m.ReplyTo, 10)
		}
		to := lo.Map(m.To, func(id int64, _ int) string { return strconv.FormatInt(id, 10) })
		table.Append([]string{strconv.FormatInt(m.ID, 10), strconv.FormatInt(m.From, 10),
			strings.Join(to, ","), m.Date.Format(time.DateTime), replyTo, m.Text})
	}
	table.Render()
}

func (a *app) printThread(title string, messages []domain.ThreadedMessage) {
	a.title(title)
	table := a.table("ID", "From", "Date", "In reply to", "Text")
	for _, m := range messages {
		parent := ""
		if !m.IsRoot() {
			parent = fmt.Sprintf("#%d %s", m.Parent.ID, m.Parent.From.FullName())
		}
		table.Append([]string{strconv.FormatInt(m.ID, 10), m.From.FullName(), m.Date.Format(time.DateTime), parent, m.Text})
	}
	table.Render()
}

func (a *app) printGroups(title string, groups []domain.Group) {
	a.title(title)
	table := a.table("ID", "Name", "Members", "Messages")
	for _, g := range groups {
		table.Append([]string{strconv.FormatInt(g.ID, 10), g.Name,
			strconv.Itoa(len(g.Members)), strconv.Itoa(len(g.Messages))})
	}
	table.Render()
}

func (a *app) printEvents(title string, events []domain.SocialEvent) {
	a.title(title)
	table := a.table("ID", "Title", "Start", "End", "Admin", "Subscribers")
	for _, e := range events {
		table.Append([]string{strconv.FormatInt(e.ID, 10), e.Title, e.Start.Format(time.DateTime),
			e.End.Format(time.DateTime), strconv.FormatInt(e.Admin, 10), strconv.Itoa(len(e.Subscribers))})
	}
	table.Render()
}

func unknown(resource, command string) error {
	return errors.InvalidArgument("unknown %s command %q", resource, command)
}

func arity(args []string, n int) error {
	if len(args) < n {
		return errors.InvalidArgument("expected at least %d arguments, got %d", n, len(args))
	}
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.InvalidArgument("invalid id %q", s)
	}
	return id, nil
}

func parseIDs(args []string, n int) ([]int64, error) {
	if err := arity(args, n); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, n)
	for _, arg := range args[:n] {
		id, err := parseID(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseList reads a comma separated list of ids.
func parseList(s string) ([]int64, error) {
	parts := strings.Split(s, ",")
	return parseIDs(parts, len(parts))
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.InvalidArgument("invalid date %q, expected RFC3339", s)
	}
	return t.UTC(), nil
}
