package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialChat(t *testing.T, env *testEnv, srv *httptest.Server, conversationID string) *websocket.Conn {
	t.Helper()
	before := env.registry.SessionCount()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/conversations/" + conversationID
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return env.registry.SessionCount() > before }, 2*time.Second, 5*time.Millisecond)
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame map[string]interface{}
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func newChatServer(t *testing.T) (*testEnv, *httptest.Server) {
	env := newTestEnv(t)
	env.repo.addUser("u1", "alice")
	env.repo.addUser("u2", "bob")
	env.repo.addUser("u3", "mallory")
	env.repo.addConversation("c1", "u1", "u2")

	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)
	return env, srv
}

func TestChatSocket_MemberBroadcast(t *testing.T) {
	env, srv := newChatServer(t)
	alice := dialChat(t, env, srv, "c1")
	bob := dialChat(t, env, srv, "c1")

	require.NoError(t, alice.WriteJSON(gin.H{"sender_id": "u1", "content": "hi"}))

	for _, conn := range []*websocket.Conn{alice, bob} {
		frame := readFrame(t, conn)
		assert.Equal(t, "hi", frame["content"])
		assert.Equal(t, "c1", frame["conversation_id"])
		assert.Equal(t, "alice", frame["username"])
		assert.Equal(t, []interface{}{}, frame["files"])
	}
	assert.Equal(t, 1, env.repo.messageCount())
	assert.True(t, env.mr.Exists("presence:user:u1"))
}

func TestChatSocket_NonMemberRejected(t *testing.T) {
	env, srv := newChatServer(t)
	intruder := dialChat(t, env, srv, "c1")

	require.NoError(t, intruder.WriteJSON(gin.H{"sender_id": "u3", "content": "let me in"}))

	frame := readFrame(t, intruder)
	assert.Equal(t, map[string]interface{}{"error": "Not a member of this conversation"}, frame)
	assert.Equal(t, 0, env.repo.messageCount())
	assert.Equal(t, 1, env.registry.SessionCount(), "rejection keeps the socket open")
}

func TestChatSocket_ClientCloseUnregisters(t *testing.T) {
	env, srv := newChatServer(t)
	conn := dialChat(t, env, srv, "c1")

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool { return env.registry.RoomCount() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestChatSocket_RESTMessageReachesSocket(t *testing.T) {
	env, srv := newChatServer(t)
	bob := dialChat(t, env, srv, "c1")

	w := env.do("POST", "/api/messages", gin.H{"conversation_id": "c1", "content": "over http"}, env.token(t, "u1"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	frame := readFrame(t, bob)
	assert.Equal(t, "over http", frame["content"])
	assert.Equal(t, "u1", frame["sender_id"])
}

func TestChatSocket_DeleteConversationClosesRoom(t *testing.T) {
	env, srv := newChatServer(t)
	dialChat(t, env, srv, "c1")

	w := env.do("DELETE", "/api/conversations/c1", nil, env.token(t, "u1"))
	require.Equal(t, http.StatusOK, w.Code)

	require.Eventually(t, func() bool { return env.registry.SessionCount() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestChatSocket_ForeignOriginRefused(t *testing.T) {
	_, srv := newChatServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/conversations/c1"
	header := http.Header{"Origin": []string{"https://evil.test"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
