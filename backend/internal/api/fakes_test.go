package api

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"soceyo/backend/internal/graph"
	apperrors "soceyo/backend/pkg/errors"
)

// mockRepository is an in-memory stand-in for the graph repository
type mockRepository struct {
	mu            sync.Mutex
	users         map[string]*graph.User
	conversations map[string]*graph.Conversation
	messages      map[string]*graph.MessageRecord
	files         map[string]*graph.File
	seq           int
	pingErr       error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:         make(map[string]*graph.User),
		conversations: make(map[string]*graph.Conversation),
		messages:      make(map[string]*graph.MessageRecord),
		files:         make(map[string]*graph.File),
	}
}

func (m *mockRepository) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s%d", prefix, m.seq)
}

func (m *mockRepository) Ping(ctx context.Context) error {
	return m.pingErr
}

func (m *mockRepository) CreateUser(ctx context.Context, in graph.NewUser) (*graph.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == in.Email {
			return nil, apperrors.NewConflict("email", "Email already registered")
		}
		if u.Username == in.Username {
			return nil, apperrors.NewConflict("username", "Username already taken")
		}
	}
	u := &graph.User{ID: m.nextID("u"), Username: in.Username, Email: in.Email, PasswordHash: in.PasswordHash, CreatedAt: time.Now().UTC()}
	m.users[u.ID] = u
	cp := *u
	return &cp, nil
}

// addUser inserts a user with a fixed id
func (m *mockRepository) addUser(id, username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = &graph.User{ID: id, Username: username, Email: username + "@test.local"}
}

func (m *mockRepository) GetUserByID(ctx context.Context, userID string) (*graph.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, apperrors.NewNotFound("user", userID)
	}
	cp := *u
	return &cp, nil
}

func (m *mockRepository) GetUserByEmail(ctx context.Context, email string) (*graph.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NewNotFound("user", email)
}

func (m *mockRepository) GetUsersByIDs(ctx context.Context, ids []string) ([]graph.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []graph.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockRepository) UpdateUser(ctx context.Context, userID string, update graph.UserUpdate) (*graph.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, apperrors.NewNotFound("user", userID)
	}
	if update.FullName != nil {
		u.FullName = *update.FullName
	}
	if update.Bio != nil {
		u.Bio = *update.Bio
	}
	if update.ProfilePhoto != nil {
		u.ProfilePhoto = *update.ProfilePhoto
	}
	cp := *u
	return &cp, nil
}

func (m *mockRepository) CreateConversation(ctx context.Context, in graph.NewConversation) (*graph.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool)
	var members []string
	for _, id := range in.MemberIDs {
		if _, ok := m.users[id]; !ok {
			return nil, apperrors.NewNotFound("user", id)
		}
		if !seen[id] {
			seen[id] = true
			members = append(members, id)
		}
	}
	conv := &graph.Conversation{ID: m.nextID("c"), IsGroup: in.IsGroup, MemberIDs: members, CreatedAt: time.Now().UTC()}
	m.conversations[conv.ID] = conv
	return m.copyConversation(conv), nil
}

// addConversation inserts a conversation with a fixed id
func (m *mockRepository) addConversation(id string, members ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversations[id] = &graph.Conversation{ID: id, MemberIDs: members}
}

func (m *mockRepository) copyConversation(c *graph.Conversation) *graph.Conversation {
	cp := *c
	cp.MemberIDs = append([]string(nil), c.MemberIDs...)
	return &cp
}

func (m *mockRepository) GetConversation(ctx context.Context, conversationID string) (*graph.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[conversationID]
	if !ok {
		return nil, apperrors.NewNotFound("conversation", conversationID)
	}
	return m.copyConversation(c), nil
}

func (m *mockRepository) ListUserConversations(ctx context.Context, userID string) ([]graph.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []graph.Conversation
	for _, c := range m.conversations {
		if c.HasMember(userID) {
			out = append(out, *m.copyConversation(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockRepository) AddMember(ctx context.Context, conversationID, userID string) (*graph.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[conversationID]
	if !ok {
		return nil, apperrors.NewNotFound("conversation", conversationID)
	}
	if _, ok := m.users[userID]; !ok {
		return nil, apperrors.NewNotFound("user", userID)
	}
	if !c.HasMember(userID) {
		c.MemberIDs = append(c.MemberIDs, userID)
	}
	return m.copyConversation(c), nil
}

func (m *mockRepository) RemoveMember(ctx context.Context, conversationID, userID string) (*graph.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[conversationID]
	if !ok {
		return nil, apperrors.NewNotFound("conversation", conversationID)
	}
	kept := c.MemberIDs[:0]
	for _, id := range c.MemberIDs {
		if id != userID {
			kept = append(kept, id)
		}
	}
	c.MemberIDs = kept
	return m.copyConversation(c), nil
}

func (m *mockRepository) DeleteConversation(ctx context.Context, conversationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.conversations[conversationID]; !ok {
		return apperrors.NewNotFound("conversation", conversationID)
	}
	delete(m.conversations, conversationID)
	return nil
}

func (m *mockRepository) CreateMessage(ctx context.Context, in graph.NewMessage) (*graph.MessageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sender, ok := m.users[in.SenderID]
	if !ok {
		return nil, apperrors.NewNotFound("user", in.SenderID)
	}
	if _, ok := m.conversations[in.ConversationID]; !ok {
		return nil, apperrors.NewNotFound("conversation", in.ConversationID)
	}
	files := []graph.File{}
	for _, id := range in.FileIDs {
		f, ok := m.files[id]
		if !ok {
			return nil, apperrors.NewNotFound("file", id)
		}
		files = append(files, *f)
	}
	msg := &graph.MessageRecord{
		ID:             m.nextID("m"),
		Content:        in.Content,
		Timestamp:      time.Now().UTC(),
		ConversationID: in.ConversationID,
		SenderID:       sender.ID,
		SenderUsername: sender.Username,
		SenderPhoto:    sender.ProfilePhoto,
		Files:          files,
	}
	m.messages[msg.ID] = msg
	cp := *msg
	return &cp, nil
}

func (m *mockRepository) ListMessages(ctx context.Context, conversationID string, limit int) ([]graph.MessageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.conversations[conversationID]; !ok {
		return nil, apperrors.NewNotFound("conversation", conversationID)
	}
	var out []graph.MessageRecord
	for _, msg := range m.messages {
		if msg.ConversationID == conversationID {
			out = append(out, *msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *mockRepository) UpdateMessage(ctx context.Context, messageID, senderID, content string) (*graph.MessageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[messageID]
	if !ok || msg.SenderID != senderID {
		return nil, apperrors.NewNotFound("message", messageID)
	}
	now := time.Now().UTC()
	msg.Content = content
	msg.EditedAt = &now
	cp := *msg
	return &cp, nil
}

func (m *mockRepository) DeleteMessage(ctx context.Context, messageID, senderID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[messageID]
	if !ok || msg.SenderID != senderID {
		return "", apperrors.NewNotFound("message", messageID)
	}
	delete(m.messages, messageID)
	return msg.ConversationID, nil
}

func (m *mockRepository) CreateFile(ctx context.Context, file graph.File) (*graph.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if strings.TrimSpace(file.ID) == "" {
		return nil, apperrors.NewValidation("file id required", nil)
	}
	file.CreatedAt = time.Now().UTC()
	m.files[file.ID] = &file
	cp := file
	return &cp, nil
}

func (m *mockRepository) GetFile(ctx context.Context, fileID string) (*graph.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[fileID]
	if !ok {
		return nil, apperrors.NewNotFound("file", fileID)
	}
	cp := *f
	return &cp, nil
}

func (m *mockRepository) DeleteFile(ctx context.Context, fileID, uploaderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[fileID]
	if !ok || f.UploaderID != uploaderID {
		return apperrors.NewNotFound("file", fileID)
	}
	delete(m.files, fileID)
	return nil
}

func (m *mockRepository) messageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}
