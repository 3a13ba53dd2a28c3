package services

import (
	"fmt"
	"log/slog"
	"slices"
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

type IMessageService interface {
	contract.IObservable[event.MessageChangeEvent]
	SendMessage(from int64, to []int64, text string) (domain.Message, error)
	ReplyToOne(toMessageID, from int64, text string) (domain.Message, error)
	ReplyToAll(toMessageID, from int64, text string) (domain.Message, error)
	GetConversation(id1, id2 int64) ([]domain.ThreadedMessage, error)
	GetConversationGroup(from int64, members []int64) ([]domain.ThreadedMessage, error)
	GetMessagesByDate(start, end time.Time, loggedUser int64) ([]domain.Message, error)
	GetMessagesFromAFriend(start, end time.Time, loggedUser, friend int64) ([]domain.Message, error)
	SaveGroup(group domain.Group) (domain.Group, error)
	GetGroups() ([]domain.Group, error)
	FindGroup(id int64) (domain.Group, error)
	SendMessageGroup(groupID int64, message domain.Message) (domain.Message, error)
	GetGroupMessages(groupID int64) ([]domain.ThreadedMessage, error)
	MyGroups(id int64) ([]domain.Group, error)
	FilterName(text string, id int64) ([]domain.Group, error)
	GetGroupsOnPage(left, right int, id int64) ([]domain.Group, error)
	GetSearchingGroupsOnPage(left, right int, id int64, text string) ([]domain.Group, error)
	GetGroupMessagesOnPage(left, right int, groupID int64) ([]domain.ThreadedMessage, error)
	GetFriendships(id int64) ([]domain.FriendshipDTO, error)
	GetMyFriendsWithMessages(id int64) ([]domain.FriendshipDTO, error)
	GetMyConversationPage(left, right int, id int64) ([]domain.FriendshipDTO, error)
	GetMyMessagesOnPage(left, right int, id1, id2 int64) ([]domain.ThreadedMessage, error)
}

type MessageService struct {
	*runtime.Bus[event.MessageChangeEvent]
	log         *slog.Logger
	messages    repositories.IMessageRepository
	users       repositories.IUserRepository
	friendships repositories.IFriendshipRepository
	groups      repositories.IGroupRepository
	now         func() time.Time
}

func NewMessageService(log *slog.Logger, messages repositories.IMessageRepository, users repositories.IUserRepository,
	friendships repositories.IFriendshipRepository, groups repositories.IGroupRepository,
	bus *runtime.Bus[event.MessageChangeEvent]) *MessageService {
	if bus == nil {
		bus = runtime.NewBus[event.MessageChangeEvent]()
	}
	return &MessageService{
		Bus:         bus,
		log:         log,
		messages:    messages,
		users:       users,
		friendships: friendships,
		groups:      groups,
		now:         time.Now,
	}
}

// WithClock replaces the source of message dates.
func (s *MessageService) WithClock(now func() time.Time) *MessageService {
	s.now = now
	return s
}

// SendMessage delivers text to the recipients that are friends of from.
// When some recipients are dropped the message is still stored and published,
// and the call then fails with ErrPartialDelivery. Nothing is rolled back.
func (s *MessageService) SendMessage(from int64, to []int64, text string) (domain.Message, error) {
	if _, err := findUser(s.users, from); err != nil {
		return domain.Message{}, err
	}
	friends := make([]int64, 0, len(to))
	for _, id := range to {
		_, ok, err := s.friendships.FindOne(domain.NewPair(from, id))
		if err != nil {
			return domain.Message{}, fmt.Errorf("find friendship: %w", err)
		}
		if ok && id != from {
			friends = append(friends, id)
		}
	}
	if len(friends) == 0 {
		return domain.Message{}, errors.PermissionDenied("none of the recipients is a friend of user %d", from)
	}
	if isBlank(text) {
		return domain.Message{}, errors.InvalidArgument("the message is empty")
	}

	stored, err := s.messages.Save(domain.Message{
		From: from,
		To:   lo.Uniq(friends),
		Text: text,
		Date: s.now().UTC(),
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("save message: %w", err)
	}
	s.log.Debug("Message sent", "id", stored.ID, "from", from, "recipients", len(stored.To))
	s.Publish(event.MessageChangeEvent{Kind: event.Add, Message: stored})

	if len(friends) != len(to) {
		s.log.Warn("Message delivered to friends only", "id", stored.ID, "requested", len(to), "delivered", len(stored.To))
		return stored, errors.PartialDelivery("message %d was sent to %d of %d recipients", stored.ID, len(stored.To), len(to))
	}
	return stored, nil
}

// replyTarget returns the message being answered once the replier is allowed to answer it.
func (s *MessageService) replyTarget(toMessageID, from int64, text string) (domain.Message, error) {
	original, found, err := s.messages.FindOne(toMessageID)
	if err != nil {
		return domain.Message{}, fmt.Errorf("find message %d: %w", toMessageID, err)
	}
	if !found {
		return domain.Message{}, errors.NotFound("message %d does not exist", toMessageID)
	}
	if _, err = findUser(s.users, from); err != nil {
		return domain.Message{}, err
	}
	if isBlank(text) {
		return domain.Message{}, errors.InvalidArgument("the reply is empty")
	}
	if !original.SentTo(from) {
		return domain.Message{}, errors.PermissionDenied("user %d did not receive message %d", from, toMessageID)
	}
	return original, nil
}

func (s *MessageService) reply(original domain.Message, from int64, to []int64, text string) (domain.Message, error) {
	stored, err := s.messages.Save(domain.Message{
		From:    from,
		To:      to,
		Text:    text,
		Date:    s.now().UTC(),
		ReplyTo: &original.ID,
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("save reply: %w", err)
	}
	s.log.Debug("Reply sent", "id", stored.ID, "reply_to", original.ID, "from", from)
	s.Publish(event.MessageChangeEvent{Kind: event.Add, Message: stored})
	return stored, nil
}

// ReplyToOne answers the original sender only.
func (s *MessageService) ReplyToOne(toMessageID, from int64, text string) (domain.Message, error) {
	original, err := s.replyTarget(toMessageID, from, text)
	if err != nil {
		return domain.Message{}, err
	}
	return s.reply(original, from, []int64{original.From}, text)
}

// ReplyToAll answers the original sender and every other original recipient.
func (s *MessageService) ReplyToAll(toMessageID, from int64, text string) (domain.Message, error) {
	original, err := s.replyTarget(toMessageID, from, text)
	if err != nil {
		return domain.Message{}, err
	}
	to := lo.Uniq(append([]int64{original.From}, lo.Without(original.To, from)...))
	return s.reply(original, from, to, text)
}

// GetConversation returns the messages exchanged between id1 and id2, newest first.
// A reply whose parent is outside this list is rendered as a root.
func (s *MessageService) GetConversation(id1, id2 int64) ([]domain.ThreadedMessage, error) {
	all, err := s.messages.FindAll()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	conversation := lo.Filter(all, func(m domain.Message, _ int) bool { return m.Between(id1, id2) })
	sort.SliceStable(conversation, func(i, j int) bool {
		return conversation[i].Date.After(conversation[j].Date)
	})
	return s.thread(conversation)
}

// GetConversationGroup returns, oldest first, the messages from sent to all of
// members and the messages any member sent to from.
func (s *MessageService) GetConversationGroup(from int64, members []int64) ([]domain.ThreadedMessage, error) {
	all, err := s.messages.FindAll()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	conversation := lo.Filter(all, func(m domain.Message, _ int) bool {
		return (m.From == from && lo.Every(m.To, members)) || (lo.Contains(members, m.From) && m.SentTo(from))
	})
	sort.SliceStable(conversation, func(i, j int) bool {
		return conversation[i].Date.Before(conversation[j].Date)
	})
	return s.thread(conversation)
}

// thread resolves users and links a reply to its parent only when the parent
// was placed earlier in list. Any other reply is rendered as a root.
func (s *MessageService) thread(list []domain.Message) ([]domain.ThreadedMessage, error) {
	cache := make(map[int64]domain.User)
	resolve := func(id int64) (domain.User, error) {
		if u, ok := cache[id]; ok {
			return u, nil
		}
		u, found, err := s.users.FindOne(id)
		if err != nil {
			return domain.User{}, fmt.Errorf("find user %d: %w", id, err)
		}
		if !found {
			u = domain.User{ID: id}
		}
		cache[id] = u
		return u, nil
	}

	nodes := make([]*domain.ThreadedMessage, len(list))
	byID := make(map[int64]*domain.ThreadedMessage, len(list))
	for i, m := range list {
		from, err := resolve(m.From)
		if err != nil {
			return nil, err
		}
		to := make([]domain.User, 0, len(m.To))
		for _, id := range m.To {
			u, err := resolve(id)
			if err != nil {
				return nil, err
			}
			to = append(to, u)
		}
		nodes[i] = &domain.ThreadedMessage{ID: m.ID, From: from, To: to, Text: m.Text, Date: m.Date}
		if m.IsReply() {
			if parent, ok := byID[*m.ReplyTo]; ok {
				nodes[i].Parent = parent
			}
		}
		byID[m.ID] = nodes[i]
	}
	return lo.Map(nodes, func(n *domain.ThreadedMessage, _ int) domain.ThreadedMessage { return *n }), nil
}

func inRange(date, start, end time.Time) bool {
	return date.After(start) && (date.Before(end) || date.Equal(end))
}

// GetMessagesByDate returns the messages loggedUser received in (start, end].
// Each result is addressed to loggedUser alone.
func (s *MessageService) GetMessagesByDate(start, end time.Time, loggedUser int64) ([]domain.Message, error) {
	return s.received(loggedUser, func(m domain.Message) bool { return inRange(m.Date, start, end) })
}

// GetMessagesFromAFriend is GetMessagesByDate restricted to messages sent by friend.
func (s *MessageService) GetMessagesFromAFriend(start, end time.Time, loggedUser, friend int64) ([]domain.Message, error) {
	return s.received(loggedUser, func(m domain.Message) bool {
		return m.From == friend && inRange(m.Date, start, end)
	})
}

func (s *MessageService) received(loggedUser int64, keep func(domain.Message) bool) ([]domain.Message, error) {
	all, err := s.messages.FindAll()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return lo.FilterMap(all, func(m domain.Message, _ int) (domain.Message, bool) {
		if !m.SentTo(loggedUser) || !keep(m) {
			return domain.Message{}, false
		}
		m.To = []int64{loggedUser}
		return m, true
	}), nil
}

// SaveGroup creates a group. Members must exist; duplicates are dropped.
func (s *MessageService) SaveGroup(group domain.Group) (domain.Group, error) {
	group.Name = strings.TrimSpace(group.Name)
	group.Members = lo.Uniq(group.Members)
	if err := validateEntity("group", group); err != nil {
		return domain.Group{}, err
	}
	for _, id := range group.Members {
		if _, err := findUser(s.users, id); err != nil {
			return domain.Group{}, err
		}
	}
	group.Messages = nil
	stored, err := s.groups.Save(group)
	if err != nil {
		return domain.Group{}, fmt.Errorf("save group: %w", err)
	}
	s.log.Debug("Group created", "id", stored.ID, "name", stored.Name, "members", len(stored.Members))
	return stored, nil
}

func (s *MessageService) GetGroups() ([]domain.Group, error) {
	groups, err := s.groups.FindAll()
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

func (s *MessageService) FindGroup(id int64) (domain.Group, error) {
	group, found, err := s.groups.FindOne(id)
	if err != nil {
		return domain.Group{}, fmt.Errorf("find group %d: %w", id, err)
	}
	if !found {
		return domain.Group{}, errors.NotFound("group %d does not exist", id)
	}
	return group, nil
}

// SendMessageGroup appends message to the group log. Recipients are the
// other members; id and date are set here.
func (s *MessageService) SendMessageGroup(groupID int64, message domain.Message) (domain.Message, error) {
	group, err := s.FindGroup(groupID)
	if err != nil {
		return domain.Message{}, err
	}
	if !group.HasMember(message.From) {
		return domain.Message{}, errors.PermissionDenied("user %d is not a member of group %d", message.From, groupID)
	}
	if isBlank(message.Text) {
		return domain.Message{}, errors.InvalidArgument("the message is empty")
	}
	if message.IsReply() && (*message.ReplyTo < 1 || *message.ReplyTo > int64(len(group.Messages))) {
		return domain.Message{}, errors.NotFound("message %d does not exist in group %d", *message.ReplyTo, groupID)
	}

	message.To = lo.Without(group.Members, message.From)
	message.Date = s.now().UTC()
	stored := group.AddMessage(message)
	if _, err = s.groups.Update(group); err != nil {
		return domain.Message{}, fmt.Errorf("update group %d: %w", groupID, err)
	}
	s.log.Debug("Group message sent", "group", groupID, "id", stored.ID, "from", stored.From)
	s.Publish(event.MessageChangeEvent{Kind: event.Add, Message: stored})
	return stored, nil
}

// GetGroupMessages returns the group log oldest first with replies linked.
func (s *MessageService) GetGroupMessages(groupID int64) ([]domain.ThreadedMessage, error) {
	group, err := s.FindGroup(groupID)
	if err != nil {
		return nil, err
	}
	return s.thread(group.Messages)
}

// MyGroups lists the groups id belongs to, most recent first.
func (s *MessageService) MyGroups(id int64) ([]domain.Group, error) {
	all, err := s.groups.FindAll()
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	mine := lo.Filter(all, func(g domain.Group, _ int) bool { return g.HasMember(id) })
	slices.Reverse(mine)
	return mine, nil
}

// FilterName lists the groups of id whose name contains text, ignoring case.
func (s *MessageService) FilterName(text string, id int64) ([]domain.Group, error) {
	all, err := s.groups.FindAll()
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	query := strings.ToLower(text)
	return lo.Filter(all, func(g domain.Group, _ int) bool {
		return g.HasMember(id) && strings.Contains(strings.ToLower(g.Name), query)
	}), nil
}

func (s *MessageService) GetGroupsOnPage(left, right int, id int64) ([]domain.Group, error) {
	groups, err := s.MyGroups(id)
	if err != nil {
		return nil, err
	}
	return window(groups, left, right)
}

func (s *MessageService) GetSearchingGroupsOnPage(left, right int, id int64, text string) ([]domain.Group, error) {
	groups, err := s.FilterName(text, id)
	if err != nil {
		return nil, err
	}
	return window(groups, left, right)
}

// GetGroupMessagesOnPage windows the group log newest first.
func (s *MessageService) GetGroupMessagesOnPage(left, right int, groupID int64) ([]domain.ThreadedMessage, error) {
	messages, err := s.GetGroupMessages(groupID)
	if err != nil {
		return nil, err
	}
	slices.Reverse(messages)
	return window(messages, left, right)
}

func (s *MessageService) GetFriendships(id int64) ([]domain.FriendshipDTO, error) {
	return listFriendships(s.log, s.users, s.friendships, id)
}

// GetMyFriendsWithMessages keeps the friends id exchanged at least one message with.
func (s *MessageService) GetMyFriendsWithMessages(id int64) ([]domain.FriendshipDTO, error) {
	friends, err := s.GetFriendships(id)
	if err != nil {
		return nil, err
	}
	all, err := s.messages.FindAll()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return lo.Filter(friends, func(f domain.FriendshipDTO, _ int) bool {
		return lo.SomeBy(all, func(m domain.Message) bool { return m.Between(id, f.User.ID) })
	}), nil
}

func (s *MessageService) GetMyConversationPage(left, right int, id int64) ([]domain.FriendshipDTO, error) {
	friends, err := s.GetMyFriendsWithMessages(id)
	if err != nil {
		return nil, err
	}
	return window(friends, left, right)
}

func (s *MessageService) GetMyMessagesOnPage(left, right int, id1, id2 int64) ([]domain.ThreadedMessage, error) {
	messages, err := s.GetConversation(id1, id2)
	if err != nil {
		return nil, err
	}
	return window(messages, left, right)
}
