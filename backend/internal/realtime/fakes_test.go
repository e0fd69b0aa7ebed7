package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"soceyo/backend/internal/graph"
	apperrors "soceyo/backend/pkg/errors"
)

var errBrokenPipe = errors.New("broken pipe")

// fakeTransport feeds queued frames to ReadMessage and records writes
type fakeTransport struct {
	inbound chan []byte

	mu         sync.Mutex
	written    [][]byte
	closed     bool
	closeCh    chan struct{}
	failWrites bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		inbound: make(chan []byte, 16),
		closeCh: make(chan struct{}),
	}
}

func (f *fakeTransport) ReadMessage() (int, []byte, error) {
	select {
	case data, ok := <-f.inbound:
		if !ok {
			return 0, nil, io.EOF
		}
		return 1, data, nil
	case <-f.closeCh:
		return 0, nil, errors.New("use of closed connection")
	}
}

func (f *fakeTransport) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.failWrites {
		return errBrokenPipe
	}
	f.written = append(f.written, append([]byte(nil), data...))
	return nil
}

func (f *fakeTransport) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.closeCh)
	}
	return nil
}

func (f *fakeTransport) send(v interface{}) {
	switch data := v.(type) {
	case string:
		f.inbound <- []byte(data)
	default:
		raw, _ := json.Marshal(data)
		f.inbound <- raw
	}
}

func (f *fakeTransport) frames() []map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]interface{}, 0, len(f.written))
	for _, raw := range f.written {
		var m map[string]interface{}
		_ = json.Unmarshal(raw, &m)
		out = append(out, m)
	}
	return out
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// mockChatStore is an in-memory conversation lookup and message writer
type mockChatStore struct {
	mu            sync.Mutex
	conversations map[string]*graph.Conversation
	users         map[string]graph.User
	created       []graph.NewMessage
	createErr     error
}

func newMockChatStore() *mockChatStore {
	return &mockChatStore{
		conversations: map[string]*graph.Conversation{
			"c1": {ID: "c1", MemberIDs: []string{"u1", "u2"}},
		},
		users: map[string]graph.User{
			"u1": {ID: "u1", Username: "alice", ProfilePhoto: "https://cdn/alice.png"},
			"u2": {ID: "u2", Username: "bob"},
			"u3": {ID: "u3", Username: "mallory"},
		},
	}
}

func (m *mockChatStore) GetConversation(ctx context.Context, conversationID string) (*graph.Conversation, error) {
	conv, ok := m.conversations[conversationID]
	if !ok {
		return nil, apperrors.NewNotFound("conversation", conversationID)
	}
	return conv, nil
}

func (m *mockChatStore) CreateMessage(ctx context.Context, msg graph.NewMessage) (*graph.MessageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = append(m.created, msg)
	sender := m.users[msg.SenderID]
	return &graph.MessageRecord{
		ID:             "m" + string(rune('0'+len(m.created))),
		Content:        msg.Content,
		Timestamp:      time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		SenderUsername: sender.Username,
		SenderPhoto:    sender.ProfilePhoto,
	}, nil
}

func (m *mockChatStore) createdCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.created)
}

// mockPresence records MarkActive calls
type mockPresence struct {
	mu     sync.Mutex
	marked []string
	err    error
}

func (m *mockPresence) MarkActive(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marked = append(m.marked, userID)
	return m.err
}

func (m *mockPresence) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.marked...)
}
