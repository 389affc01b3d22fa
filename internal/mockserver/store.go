package mockserver

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	chatdomain "social_network_client/internal/chat/domain"
	notifydomain "social_network_client/internal/notification/domain"
	"social_network_client/pkg/encrypt"
)

// historyPage message_history page size
const historyPage = 10

// feedPage posts per feed page
const feedPage = 10

var (
	// ErrEmailTaken signup conflict on email
	ErrEmailTaken = errors.New("email")
	// ErrNicknameTaken signup conflict on nickname
	ErrNicknameTaken = errors.New("nickname")
	// ErrUnknownUser login with unknown email or nickname
	ErrUnknownUser = errors.New("unknown user")
	// ErrNotFound missing resource
	ErrNotFound = errors.New("not found")
)

// User registered account
type User struct {
	ID        int64
	Email     string
	Nickname  string
	FirstName string
	LastName  string
	About     string
	Birthday  string
	IsPublic  bool
	Hash      string
	CreatedAt time.Time
}

// Name nickname or full name
func (u User) Name() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.FirstName + " " + u.LastName
}

// Group chat / feed group
type Group struct {
	ID          int64
	Title       string
	Description string
	CreatorID   int64
	Members     map[int64]bool
}

// Post feed post
type Post struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	UserName  string    `json:"userName"`
	Content   string    `json:"content"`
	GroupID   int64     `json:"groupId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store in-memory state of the mock backend
type Store struct {
	mu sync.Mutex

	nextID int64
	now    func() time.Time

	users    map[int64]*User
	groups   map[int64]*Group
	messages []chatdomain.Message
	// lastRead user → thread key → last read message id
	lastRead      map[int64]map[chatdomain.ThreadKey]int64
	notifications map[int64][]notifydomain.Notification
	followers     map[int64]map[int64]bool
	posts         []Post
}

// NewStore create empty Store
func NewStore() *Store {
	return &Store{
		now:           time.Now,
		users:         make(map[int64]*User),
		groups:        make(map[int64]*Group),
		lastRead:      make(map[int64]map[chatdomain.ThreadKey]int64),
		notifications: make(map[int64][]notifydomain.Notification),
		followers:     make(map[int64]map[int64]bool),
	}
}

func (s *Store) idLocked() int64 {
	s.nextID++
	return s.nextID
}

// SignupInput /signup body
type SignupInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth"`
	Nickname    string `json:"nickname"`
	About       string `json:"about"`
}

// Signup create a user, conflicts return ErrEmailTaken / ErrNicknameTaken / encrypt.ErrWeakPassword
func (s *Store) Signup(in SignupInput) (*User, error) {
	hash, err := encrypt.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, in.Email) {
			return nil, ErrEmailTaken
		}
		if in.Nickname != "" && strings.EqualFold(u.Nickname, in.Nickname) {
			return nil, ErrNicknameTaken
		}
	}
	u := &User{
		ID:        s.idLocked(),
		Email:     in.Email,
		Nickname:  in.Nickname,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		About:     in.About,
		Birthday:  in.DateOfBirth,
		IsPublic:  true,
		Hash:      hash,
		CreatedAt: s.now(),
	}
	s.users[u.ID] = u
	return u, nil
}

// Authenticate username is the email or the nickname
func (s *Store) Authenticate(username, password string) (*User, error) {
	s.mu.Lock()
	var found *User
	for _, u := range s.users {
		if strings.EqualFold(u.Email, username) || (u.Nickname != "" && strings.EqualFold(u.Nickname, username)) {
			found = u
			break
		}
	}
	s.mu.Unlock()

	if found == nil {
		return nil, ErrUnknownUser
	}
	if err := encrypt.CheckPassword(found.Hash, password); err != nil {
		return nil, err
	}
	return found, nil
}

// User lookup by id
func (s *Store) User(id int64) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, false
	}
	return *u, true
}

// CreateGroup creator is the first member
func (s *Store) CreateGroup(creatorID int64, title, description string) *Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := &Group{
		ID:          s.idLocked(),
		Title:       title,
		Description: description,
		CreatorID:   creatorID,
		Members:     map[int64]bool{creatorID: true},
	}
	s.groups[g.ID] = g
	return g
}

// AddMember join userID to the group
func (s *Store) AddMember(groupID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return ErrNotFound
	}
	g.Members[userID] = true
	return nil
}

// GroupMembers member ids of a group
func (s *Store) GroupMembers(groupID int64) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return nil
	}
	out := make([]int64, 0, len(g.Members))
	for id := range g.Members {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SaveMessage assign id and timestamp, fill names from the store
func (s *Store) SaveMessage(senderID int64, in chatdomain.OutgoingMessage) (chatdomain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sender, ok := s.users[senderID]
	if !ok {
		return chatdomain.Message{}, ErrUnknownUser
	}
	msg := chatdomain.Message{
		ID:         s.idLocked(),
		SenderID:   senderID,
		SenderName: sender.Name(),
		Body:       in.Body,
		Timestamp:  s.now(),
	}
	if in.GroupID > 0 {
		g, ok := s.groups[in.GroupID]
		if !ok || !g.Members[senderID] {
			return chatdomain.Message{}, fmt.Errorf("group %d: %w", in.GroupID, ErrNotFound)
		}
		msg.GroupID = g.ID
		msg.GroupName = g.Title
	} else {
		r, ok := s.users[in.RecipientID]
		if !ok {
			return chatdomain.Message{}, fmt.Errorf("recipient %d: %w", in.RecipientID, ErrNotFound)
		}
		msg.RecipientID = r.ID
		msg.RecipientName = r.Name()
	}
	s.messages = append(s.messages, msg)
	return msg, nil
}

// threadOf thread key of msg from the point of view of userID
func threadOf(msg chatdomain.Message, userID int64) chatdomain.ThreadKey {
	if msg.GroupID > 0 {
		return chatdomain.Group(msg.GroupID)
	}
	if msg.SenderID == userID {
		return chatdomain.Direct(msg.RecipientID)
	}
	return chatdomain.Direct(msg.SenderID)
}

func (s *Store) visibleLocked(msg chatdomain.Message, userID int64) bool {
	if msg.GroupID > 0 {
		g, ok := s.groups[msg.GroupID]
		return ok && g.Members[userID]
	}
	return msg.SenderID == userID || msg.RecipientID == userID
}

// Chatlist both thread lists of userID, most recent first
func (s *Store) Chatlist(userID int64) chatdomain.ChatlistPayload {
	s.mu.Lock()
	defer s.mu.Unlock()

	type agg struct {
		entry chatdomain.ThreadEntry
		ts    time.Time
	}
	threads := make(map[chatdomain.ThreadKey]*agg)
	read := s.lastRead[userID]

	for _, m := range s.messages {
		if !s.visibleLocked(m, userID) {
			continue
		}
		key := threadOf(m, userID)
		a, ok := threads[key]
		if !ok {
			a = &agg{}
			if key.IsGroup() {
				a.entry = chatdomain.ThreadEntry{GroupID: key.ID(), Name: m.GroupName}
			} else if u, ok := s.users[key.ID()]; ok {
				a.entry = chatdomain.ThreadEntry{UserID: key.ID(), Name: u.Name()}
			}
			threads[key] = a
		}
		a.ts = m.Timestamp
		a.entry.Timestamp = m.Timestamp
		if m.SenderID != userID && m.ID > read[key] {
			a.entry.UnreadCount++
		}
	}
	// 沒有訊息的群組也列出
	for _, g := range s.groups {
		key := chatdomain.Group(g.ID)
		if _, ok := threads[key]; ok || !g.Members[userID] {
			continue
		}
		threads[key] = &agg{entry: chatdomain.ThreadEntry{GroupID: g.ID, Name: g.Title}}
	}

	out := chatdomain.ChatlistPayload{
		UserID:        userID,
		UserChatlist:  []chatdomain.ThreadEntry{},
		GroupChatlist: []chatdomain.ThreadEntry{},
	}
	keys := make([]chatdomain.ThreadKey, 0, len(threads))
	for k := range threads {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := threads[keys[i]], threads[keys[j]]
		if !a.ts.Equal(b.ts) {
			return a.ts.After(b.ts)
		}
		return keys[i].ID() < keys[j].ID()
	})
	for _, k := range keys {
		if k.IsGroup() {
			out.GroupChatlist = append(out.GroupChatlist, threads[k].entry)
		} else {
			out.UserChatlist = append(out.UserChatlist, threads[k].entry)
		}
	}
	return out
}

// History up to historyPage messages of the thread older than before (0 = newest), newest first
func (s *Store) History(userID int64, key chatdomain.ThreadKey, before int64) []chatdomain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []chatdomain.Message{}
	for i := len(s.messages) - 1; i >= 0 && len(out) < historyPage; i-- {
		m := s.messages[i]
		if before > 0 && m.ID >= before {
			continue
		}
		if !s.visibleLocked(m, userID) || threadOf(m, userID) != key {
			continue
		}
		out = append(out, m)
	}
	return out
}

// MarkRead remember the last read id of a thread
func (s *Store) MarkRead(userID int64, key chatdomain.ThreadKey, lastID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.lastRead[userID]
	if !ok {
		m = make(map[chatdomain.ThreadKey]int64)
		s.lastRead[userID] = m
	}
	if lastID > m[key] {
		m[key] = lastID
	}
}

// AddNotification prepend n to userID's pending list, id is assigned
func (s *Store) AddNotification(userID int64, n notifydomain.Notification) notifydomain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = s.idLocked()
	s.notifications[userID] = append([]notifydomain.Notification{n}, s.notifications[userID]...)
	return n
}

// Notifications pending list of userID, newest first
func (s *Store) Notifications(userID int64) []notifydomain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notifydomain.Notification{}, s.notifications[userID]...)
}

// TakeNotification remove and return a pending notification
func (s *Store) TakeNotification(userID, id int64) (notifydomain.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.notifications[userID]
	for i, n := range list {
		if n.ID == id {
			s.notifications[userID] = append(list[:i:i], list[i+1:]...)
			return n, true
		}
	}
	return notifydomain.Notification{}, false
}

// Follow record follower → target
func (s *Store) Follow(follower, target int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.followers[target]
	if !ok {
		m = make(map[int64]bool)
		s.followers[target] = m
	}
	m[follower] = true
}

// Unfollow drop follower → target
func (s *Store) Unfollow(follower, target int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.followers[target], follower)
}

// IsFollowing follower follows target
func (s *Store) IsFollowing(follower, target int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.followers[target][follower]
}

// Followers user ids following target
func (s *Store) Followers(target int64) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0, len(s.followers[target]))
	for id := range s.followers[target] {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Group lookup by id
func (s *Store) Group(id int64) (Group, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return Group{}, false
	}
	return *g, true
}

// AddPost append a feed post
func (s *Store) AddPost(userID, groupID int64, content string) Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := ""
	if u, ok := s.users[userID]; ok {
		name = u.Name()
	}
	p := Post{
		ID:        s.idLocked(),
		UserID:    userID,
		UserName:  name,
		Content:   content,
		GroupID:   groupID,
		CreatedAt: s.now(),
	}
	s.posts = append(s.posts, p)
	return p
}

// Feed up to feedPage posts older than offset (0 = newest), newest first
func (s *Store) Feed(offset int64, keep func(Post) bool) []Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Post{}
	for i := len(s.posts) - 1; i >= 0 && len(out) < feedPage; i-- {
		p := s.posts[i]
		if offset > 0 && p.ID >= offset {
			continue
		}
		if keep != nil && !keep(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Authors distinct user ids that have posted
func (s *Store) Authors() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[int64]bool)
	out := []int64{}
	for _, p := range s.posts {
		if !seen[p.UserID] {
			seen[p.UserID] = true
			out = append(out, p.UserID)
		}
	}
	return out
}
