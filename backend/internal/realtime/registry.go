// Package realtime keeps track of live chat connections per conversation and
// fans messages out to them.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"soceyo/backend/internal/constants"
	apperrors "soceyo/backend/pkg/errors"
	"soceyo/backend/pkg/logger"
)

// Registry maps conversation ids to the sessions currently viewing them.
// A session belongs to at most one room and a room exists only while it has
// at least one session.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[*Session]struct{}
	index map[*Session]string

	concurrency int
	logger      *zap.Logger
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		rooms:       make(map[string]map[*Session]struct{}),
		index:       make(map[*Session]string),
		concurrency: constants.BroadcastConcurrency,
		logger:      logger.Named("realtime"),
	}
}

// Connect adds the session to the room, creating the room if needed. A session
// already registered elsewhere is moved.
func (r *Registry) Connect(conversationID string, session *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if previous, ok := r.index[session]; ok {
		if previous == conversationID {
			return
		}
		r.removeLocked(previous, session)
	}

	room, ok := r.rooms[conversationID]
	if !ok {
		room = make(map[*Session]struct{})
		r.rooms[conversationID] = room
	}
	room[session] = struct{}{}
	r.index[session] = conversationID

	r.logger.Debug("Session connected",
		zap.String("conversation_id", conversationID),
		zap.String("session_id", session.ID()),
		zap.Int("room_size", len(room)))
}

// Disconnect removes the session from the room and closes it. Unknown rooms or
// sessions are ignored.
func (r *Registry) Disconnect(conversationID string, session *Session) {
	r.mu.Lock()
	removed := r.removeLocked(conversationID, session)
	r.mu.Unlock()

	if !removed {
		return
	}
	session.Close()
	r.logger.Debug("Session disconnected",
		zap.String("conversation_id", conversationID),
		zap.String("session_id", session.ID()))
}

func (r *Registry) removeLocked(conversationID string, session *Session) bool {
	room, ok := r.rooms[conversationID]
	if !ok {
		return false
	}
	if _, ok := room[session]; !ok {
		return false
	}
	delete(room, session)
	delete(r.index, session)
	if len(room) == 0 {
		delete(r.rooms, conversationID)
	}
	return true
}

// CloseRoom disconnects every session in the room
func (r *Registry) CloseRoom(conversationID string) int {
	members := r.Members(conversationID)
	for _, session := range members {
		r.Disconnect(conversationID, session)
	}
	return len(members)
}

// Members returns a snapshot of the sessions in a room
func (r *Registry) Members(conversationID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room := r.rooms[conversationID]
	members := make([]*Session, 0, len(room))
	for s := range room {
		members = append(members, s)
	}
	return members
}

// RoomCount returns the number of rooms with at least one session
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// SessionCount returns the number of registered sessions across all rooms
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.index)
}

// Broadcast sends payload to every session in the room and returns how many
// sends succeeded. Sessions whose send fails are disconnected once all sends
// have finished. Only an unencodable payload yields an error.
func (r *Registry) Broadcast(ctx context.Context, conversationID string, payload interface{}) (int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, apperrors.NewProtocol("encode broadcast", err)
	}

	members := r.Members(conversationID)
	if len(members) == 0 {
		return 0, nil
	}

	var (
		delivered atomic.Int64
		failedMu  sync.Mutex
		failed    []*Session
	)

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for _, session := range members {
		if ctx.Err() != nil {
			break
		}
		session := session
		g.Go(func() error {
			if err := session.Send(data); err != nil {
				r.logger.Warn("Dropping session after failed send",
					zap.String("conversation_id", conversationID),
					zap.String("session_id", session.ID()),
					zap.Error(err))
				failedMu.Lock()
				failed = append(failed, session)
				failedMu.Unlock()
				return nil
			}
			delivered.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	for _, session := range failed {
		r.Disconnect(conversationID, session)
	}

	return int(delivered.Load()), nil
}
