package handlers

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/pulsechat/gateway/module/chat/model"
	chatservice "github.com/pulsechat/gateway/module/chat/service"
	"github.com/pulsechat/gateway/service/chat"
	"github.com/pulsechat/gateway/tools/errs"
	"github.com/pulsechat/gateway/tools/ids"
)

// ---- fakes ----

type stubWS struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

type stubAddr struct{}

func (stubAddr) Network() string { return "stub" }
func (stubAddr) String() string  { return "stub" }

func (s *stubWS) WriteMessage(_ int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return net.ErrClosed
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.frames = append(s.frames, cp)
	return nil
}

func (s *stubWS) SetWriteDeadline(time.Time) error { return nil }

func (s *stubWS) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *stubWS) RemoteAddr() net.Addr { return stubAddr{} }

func (s *stubWS) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *stubWS) snapshot() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.frames))
	copy(out, s.frames)
	return out
}

func (s *stubWS) eventTypes() []string {
	var types []string
	for _, raw := range s.snapshot() {
		var env chat.Envelope
		if err := json.Unmarshal(raw, &env); err == nil {
			types = append(types, env.Type)
		}
	}
	return types
}

func waitFrames(t *testing.T, s *stubWS, n int) [][]byte {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if frames := s.snapshot(); len(frames) >= n {
			return frames
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d frames, got %d", n, len(s.snapshot()))
	return nil
}

type fakePresence struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakePresence) UpdateUserAvailability(_ context.Context, userID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, userID+":"+status)
	return nil
}

func (f *fakePresence) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// fakeStore is an in-memory ConversationStore.
type fakeStore struct {
	mu       sync.Mutex
	users    map[string]*model.User
	convs    map[string]*model.Conversation
	members  map[string][]*model.Membership
	messages map[string]*model.Message
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[string]*model.User),
		convs:    make(map[string]*model.Conversation),
		members:  make(map[string][]*model.Membership),
		messages: make(map[string]*model.Message),
	}
}

func (f *fakeStore) addUser(id string) {
	f.users[id] = &model.User{UserID: id, Name: id}
}

func (f *fakeStore) addConversation(id string, memberIDs ...string) {
	f.convs[id] = &model.Conversation{ConversationID: id, ConversationType: model.ConversationGroup}
	for _, uid := range memberIDs {
		f.members[id] = append(f.members[id], &model.Membership{
			ConversationID: id, UserID: uid, CanMessage: true,
		})
	}
}

func (f *fakeStore) GetUser(_ context.Context, userID string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok {
		return u, nil
	}
	return nil, errs.ErrNotFound.WithDetail("user " + userID)
}

func (f *fakeStore) GetConversation(_ context.Context, id string) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.convs[id]; ok {
		return c, nil
	}
	return nil, errs.ErrNotFound.WithDetail("conversation " + id)
}

func (f *fakeStore) GetConversationMembers(_ context.Context, id string) ([]*model.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ms, ok := f.members[id]; ok {
		return ms, nil
	}
	return nil, errs.ErrNotFound.WithDetail("conversation " + id)
}

func (f *fakeStore) GetMembership(_ context.Context, convID, userID string) (*model.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.members[convID] {
		if m.UserID == userID {
			return m, nil
		}
	}
	return nil, errs.ErrPermissionDenied.WithDetail("not a member of " + convID)
}

func (f *fakeStore) CreateMessage(_ context.Context, convID, senderID, content string, attachments []string) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.convs[convID]; !ok {
		return nil, errs.ErrNotFound.WithDetail("conversation " + convID)
	}
	msg := &model.Message{
		MsgID:          ids.GenerateString(),
		ConversationID: convID,
		SenderID:       senderID,
		Content:        content,
		Attachments:    attachments,
		CreateTime:     time.Now().UnixMilli(),
	}
	f.messages[msg.MsgID] = msg
	return msg, nil
}

func (f *fakeStore) GetMessage(_ context.Context, msgID string) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.messages[msgID]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, errs.ErrNotFound.WithDetail("message " + msgID)
}

func (f *fakeStore) EditMessage(_ context.Context, msgID, content string) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[msgID]
	if !ok {
		return nil, errs.ErrNotFound.WithDetail("message " + msgID)
	}
	if m.IsDeleted {
		return nil, errs.ErrPermissionDenied.WithDetail("message " + msgID + " is deleted")
	}
	m.Content = content
	m.EditedAt = time.Now().UnixMilli()
	cp := *m
	return &cp, nil
}

func (f *fakeStore) DeleteMessage(_ context.Context, msgID string) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[msgID]
	if !ok {
		return nil, errs.ErrNotFound.WithDetail("message " + msgID)
	}
	m.IsDeleted = true
	cp := *m
	return &cp, nil
}

func (f *fakeStore) CreateDirectConversation(_ context.Context, a, b string) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := model.DirectKey(a, b)
	for _, c := range f.convs {
		if c.DirectKey == key {
			return c, nil
		}
	}
	c := &model.Conversation{
		ConversationID:   ids.GenerateString(),
		ConversationType: model.ConversationDirect,
		DirectKey:        key,
	}
	f.convs[c.ConversationID] = c
	f.members[c.ConversationID] = []*model.Membership{
		{ConversationID: c.ConversationID, UserID: a, CanMessage: true},
		{ConversationID: c.ConversationID, UserID: b, CanMessage: true},
	}
	return c, nil
}

func (f *fakeStore) CreateGroupConversation(_ context.Context, name, creatorID string, memberIDs []string) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &model.Conversation{
		ConversationID:   ids.GenerateString(),
		ConversationType: model.ConversationGroup,
		Name:             name,
	}
	f.convs[c.ConversationID] = c
	f.members[c.ConversationID] = append(f.members[c.ConversationID],
		&model.Membership{ConversationID: c.ConversationID, UserID: creatorID, IsAdmin: true, CanMessage: true})
	for _, id := range memberIDs {
		f.members[c.ConversationID] = append(f.members[c.ConversationID],
			&model.Membership{ConversationID: c.ConversationID, UserID: id, CanMessage: true})
	}
	return c, nil
}

// newTestServer wires a server with fakes and all handlers registered.
func newTestServer(store *fakeStore) (*chat.Server, *fakePresence) {
	presence := &fakePresence{}
	s := chat.NewServer("gw-test", store, presence, 16)
	svc := chatservice.NewMessageService(store, s.Broadcaster())
	RegisterAll(s, svc)
	return s, presence
}

// connect opens an authenticated fake connection on the server.
func connect(t *testing.T, s *chat.Server, userID string) (*chat.Conn, *stubWS) {
	t.Helper()
	ws := &stubWS{}
	c := chat.NewConn(userID+"-conn-"+ids.GenerateString(), ws, 16)
	env := &chat.Envelope{Type: chat.EventAuth, Payload: map[string]any{"userId": userID}}
	if err := s.Disp().Dispatch(&chat.Context{S: s}, env, c); err != nil {
		t.Fatalf("auth dispatch: %v", err)
	}
	if !c.Authorized() {
		t.Fatalf("connection for %s did not authenticate", userID)
	}
	return c, ws
}
