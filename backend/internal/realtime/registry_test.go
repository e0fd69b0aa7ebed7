package realtime

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ConnectCreatesRoom(t *testing.T) {
	reg := NewRegistry()
	s1 := NewSession(newFakeTransport())
	s2 := NewSession(newFakeTransport())

	reg.Connect("c1", s1)
	reg.Connect("c1", s2)
	reg.Connect("c1", s2)

	assert.Equal(t, 1, reg.RoomCount())
	assert.ElementsMatch(t, []*Session{s1, s2}, reg.Members("c1"))
}

func TestRegistry_DisconnectThenBroadcastSkipsSession(t *testing.T) {
	reg := NewRegistry()
	tr := newFakeTransport()
	s := NewSession(tr)

	reg.Connect("c1", s)
	reg.Disconnect("c1", s)

	delivered, err := reg.Broadcast(context.Background(), "c1", map[string]string{"content": "hi"})
	require.NoError(t, err)
	assert.Equal(t, 0, delivered)
	assert.Empty(t, tr.frames())
	assert.True(t, tr.isClosed())
}

func TestRegistry_EmptyRoomIsRemoved(t *testing.T) {
	reg := NewRegistry()
	s1 := NewSession(newFakeTransport())
	s2 := NewSession(newFakeTransport())
	reg.Connect("c1", s1)
	reg.Connect("c2", s2)

	reg.Disconnect("c1", s1)

	assert.Equal(t, 1, reg.RoomCount())
	assert.Empty(t, reg.Members("c1"))
}

func TestRegistry_DisconnectUnknownIsNoop(t *testing.T) {
	reg := NewRegistry()
	tr := newFakeTransport()
	s := NewSession(tr)

	reg.Disconnect("missing", s)
	reg.Connect("c1", s)
	reg.Disconnect("c2", s)

	assert.Equal(t, 1, reg.SessionCount())
	assert.False(t, tr.isClosed())
}

func TestRegistry_ConnectMovesSessionBetweenRooms(t *testing.T) {
	reg := NewRegistry()
	s := NewSession(newFakeTransport())

	reg.Connect("c1", s)
	reg.Connect("c2", s)

	assert.Equal(t, 1, reg.RoomCount())
	assert.Empty(t, reg.Members("c1"))
	assert.Equal(t, []*Session{s}, reg.Members("c2"))
}

func TestRegistry_BroadcastPrunesDeadSession(t *testing.T) {
	reg := NewRegistry()
	alive := newFakeTransport()
	dead := newFakeTransport()
	dead.failWrites = true

	sAlive := NewSession(alive)
	sDead := NewSession(dead)
	reg.Connect("c1", sAlive)
	reg.Connect("c1", sDead)

	delivered, err := reg.Broadcast(context.Background(), "c1", map[string]string{"content": "hi"})
	require.NoError(t, err)

	assert.Equal(t, 1, delivered)
	assert.Equal(t, []*Session{sAlive}, reg.Members("c1"))
	assert.True(t, dead.isClosed())
	require.Len(t, alive.frames(), 1)
	assert.Equal(t, "hi", alive.frames()[0]["content"])
}

func TestRegistry_BroadcastManySessions(t *testing.T) {
	reg := NewRegistry()
	transports := make([]*fakeTransport, 50)
	for i := range transports {
		transports[i] = newFakeTransport()
		reg.Connect("c1", NewSession(transports[i]))
	}

	delivered, err := reg.Broadcast(context.Background(), "c1", map[string]int{"n": 1})
	require.NoError(t, err)
	assert.Equal(t, 50, delivered)
	for _, tr := range transports {
		assert.Len(t, tr.frames(), 1)
	}
}

func TestRegistry_BroadcastUnencodablePayload(t *testing.T) {
	reg := NewRegistry()
	reg.Connect("c1", NewSession(newFakeTransport()))

	_, err := reg.Broadcast(context.Background(), "c1", math.Inf(1))
	assert.Error(t, err)
	assert.Equal(t, 1, reg.SessionCount())
}

func TestSession_SendAfterCloseFails(t *testing.T) {
	tr := newFakeTransport()
	s := NewSession(tr)
	s.Close()
	s.Close()

	assert.True(t, s.Closed())
	assert.Error(t, s.Send([]byte("x")))
	assert.Empty(t, tr.frames())
}

func TestRegistry_CloseRoom(t *testing.T) {
	reg := NewRegistry()
	t1, t2 := newFakeTransport(), newFakeTransport()
	reg.Connect("c1", NewSession(t1))
	reg.Connect("c1", NewSession(t2))
	reg.Connect("c2", NewSession(newFakeTransport()))

	assert.Equal(t, 2, reg.CloseRoom("c1"))
	assert.Equal(t, 1, reg.RoomCount())
	assert.True(t, t1.isClosed())
	assert.True(t, t2.isClosed())
	assert.Equal(t, 0, reg.CloseRoom("c1"))
}
