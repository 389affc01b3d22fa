package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"social_network_client/internal/chat/domain"
	rtdomain "social_network_client/internal/realtime/domain"

	"github.com/cucumber/godog"
)

type chatFeature struct {
	sender  *recordingSender
	list    *ChatList
	box     *Chatbox
	handler *ChatWebsocketHandler
	nextID  int64
}

func parseIDs(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *chatFeature) deliver(msgType string, data any) error {
	env, err := rtdomain.NewEnvelope(msgType, data)
	if err != nil {
		return err
	}
	return f.handler.Handle(env)
}

func (f *chatFeature) iAmUserWithDirectChats(me int64, peers string) error {
	ids, err := parseIDs(peers)
	if err != nil {
		return err
	}
	entries := make([]domain.ThreadEntry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, domain.ThreadEntry{UserID: id, Name: fmt.Sprintf("user %d", id)})
	}
	return f.deliver(rtdomain.TypeChatlist, domain.ChatlistPayload{UserID: me, UserChatlist: entries})
}

func (f *chatFeature) userSendsMe(from int64, body string) error {
	f.nextID++
	return f.deliver(rtdomain.TypeMessage, domain.Message{
		ID:          1000 + f.nextID,
		SenderID:    from,
		RecipientID: f.list.CurrentUserID(),
		Body:        body,
	})
}

func (f *chatFeature) directChatOrderIs(order string) error {
	want, err := parseIDs(order)
	if err != nil {
		return err
	}
	threads := f.list.UserThreads()
	if len(threads) != len(want) {
		return fmt.Errorf("expected %d chats, got %d", len(want), len(threads))
	}
	for i, t := range threads {
		if t.Key != domain.Direct(want[i]) {
			return fmt.Errorf("position %d: expected %s, got %s", i, domain.Direct(want[i]), t.Key)
		}
	}
	return nil
}

func (f *chatFeature) chatHasUnread(user int64, unread int) error {
	t, ok := f.list.Thread(domain.Direct(user))
	if !ok {
		return fmt.Errorf("no chat with user %d", user)
	}
	if t.UnreadCount != unread {
		return fmt.Errorf("expected %d unread, got %d", unread, t.UnreadCount)
	}
	return nil
}

func (f *chatFeature) newMessagesFlagIsRaised() error {
	if !f.list.HasNewMessages() {
		return fmt.Errorf("new messages flag not raised")
	}
	return nil
}

func (f *chatFeature) iOpenChatWith(user int64) error {
	t, ok := f.list.Thread(domain.Direct(user))
	if !ok {
		t = domain.ChatThread{Key: domain.Direct(user)}
	}
	return f.box.Open(context.Background(), t)
}

func (f *chatFeature) historyPageArrives(ids string) error {
	th, _ := f.box.Thread()
	return f.historyPageFromArrives(th.Key.ID(), ids)
}

func (f *chatFeature) historyPageFromArrives(user int64, ids string) error {
	parsed, err := parseIDs(ids)
	if err != nil {
		return err
	}
	msgs := make([]domain.Message, 0, len(parsed))
	for _, id := range parsed {
		msgs = append(msgs, domain.Message{ID: id, SenderID: user, RecipientID: f.list.CurrentUserID()})
	}
	return f.deliver(rtdomain.TypeMessageHistory, msgs)
}

func (f *chatFeature) openChatShowsNoMessages() error {
	if n := len(f.box.History()); n != 0 {
		return fmt.Errorf("expected empty history, got %d messages", n)
	}
	return nil
}

func (f *chatFeature) openChatShowsIDs(ids string) error {
	want, err := parseIDs(ids)
	if err != nil {
		return err
	}
	got := idsOf(f.box.History())
	if fmt.Sprint(got) != fmt.Sprint(want) {
		return fmt.Errorf("expected ids %v, got %v", want, got)
	}
	return nil
}

func (f *chatFeature) iScrollTo(top, height, view int) error {
	_, err := f.box.OnScroll(context.Background(), float64(height), float64(view), float64(top))
	return err
}

func (f *chatFeature) messagesReadSent(last, user int64) error {
	reads := f.sender.ofType(rtdomain.TypeMessagesRead)
	if len(reads) == 0 {
		return fmt.Errorf("no messages_read sent")
	}
	want := rtdomain.HistoryRequest{ID: user, LastMessage: last}
	if got := reads[len(reads)-1].Data; got != want {
		return fmt.Errorf("expected %+v, got %+v", want, got)
	}
	return nil
}

func (f *chatFeature) iSend(body string) error {
	_, err := f.box.Send(context.Background(), body)
	return err
}

func (f *chatFeature) openChatHasPending(n int) error {
	pending := 0
	for _, m := range f.box.History() {
		if m.Optimistic() {
			pending++
		}
	}
	if pending != n {
		return fmt.Errorf("expected %d pending messages, got %d", n, pending)
	}
	return nil
}

func InitializeChatScenario(ctx *godog.ScenarioContext) {
	f := &chatFeature{}
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		f.sender = &recordingSender{}
		f.list = NewChatList(f.sender)
		f.box = NewChatbox(f.sender, f.list, DefaultPageSize)
		f.handler = NewChatWebsocketHandler(f.list, f.box)
		f.nextID = 0
		return c, nil
	})

	ctx.Step(`^I am user (\d+) with direct chats "([^"]*)"$`, f.iAmUserWithDirectChats)
	ctx.Step(`^user (\d+) sends me "([^"]*)"$`, f.userSendsMe)
	ctx.Step(`^the direct chat order is "([^"]*)"$`, f.directChatOrderIs)
	ctx.Step(`^chat with user (\d+) has (\d+) unread$`, f.chatHasUnread)
	ctx.Step(`^the new messages flag is raised$`, f.newMessagesFlagIsRaised)
	ctx.Step(`^I open the chat with user (\d+)$`, f.iOpenChatWith)
	ctx.Step(`^a history page with ids "([^"]*)" arrives$`, f.historyPageArrives)
	ctx.Step(`^a history page from user (\d+) with ids "([^"]*)" arrives$`, f.historyPageFromArrives)
	ctx.Step(`^the open chat shows no messages$`, f.openChatShowsNoMessages)
	ctx.Step(`^the open chat shows ids "([^"]*)"$`, f.openChatShowsIDs)
	ctx.Step(`^I scroll to (\d+) of (\d+) with a (\d+) high view$`, f.iScrollTo)
	ctx.Step(`^a messages_read up to (\d+) is sent for user (\d+)$`, f.messagesReadSent)
	ctx.Step(`^I send "([^"]*)"$`, f.iSend)
	ctx.Step(`^the open chat has (\d+) pending message$`, f.openChatHasPending)
}

func TestChatFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeChatScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
