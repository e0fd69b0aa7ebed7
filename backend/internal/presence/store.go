// Package presence tracks which users were recently active. Records live in a
// shared Redis instance so every backend process sees the same set; expiry is
// left to Redis key TTLs, so no sweeper runs here.
package presence

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"soceyo/backend/internal/constants"
	"soceyo/backend/internal/graph"
	apperrors "soceyo/backend/pkg/errors"
	"soceyo/backend/pkg/logger"
)

// UserLookup resolves user ids to profiles for presence listings
type UserLookup interface {
	GetUsersByIDs(ctx context.Context, ids []string) ([]graph.User, error)
}

// Member is an active user as shown in presence listings
type Member struct {
	UserID         string `json:"user_id"`
	Username       string `json:"username"`
	UserProfileURL string `json:"user_profile_url,omitempty"`
	IsActive       bool   `json:"is_active"`
}

// Store reads and writes presence records
type Store struct {
	client redis.Cmdable
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// NewStore creates a presence store; a non-positive ttl falls back to the default window
func NewStore(client redis.Cmdable, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = constants.PresenceTTL
	}
	return &Store{
		client: client,
		ttl:    ttl,
		prefix: constants.PresenceKeyPrefix,
		logger: logger.Named("presence"),
	}
}

// TTL returns the inactivity window
func (s *Store) TTL() time.Duration {
	return s.ttl
}

func (s *Store) key(userID string) string {
	return s.prefix + ":" + userID
}

// MarkActive creates or refreshes the user's record. Repeated calls overwrite
// the same key, so the expiry moves forward instead of stacking.
func (s *Store) MarkActive(ctx context.Context, userID string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.client.Set(ctx, s.key(userID), now, s.ttl).Err(); err != nil {
		return apperrors.NewPresenceUnavailable("set", err)
	}
	return nil
}

// MarkInactive drops the user's record immediately
func (s *Store) MarkInactive(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return apperrors.NewPresenceUnavailable("delete", err)
	}
	return nil
}

// IsActive reports whether the user has an unexpired record
func (s *Store) IsActive(ctx context.Context, userID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(userID)).Result()
	if err != nil {
		return false, apperrors.NewPresenceUnavailable("exists", err)
	}
	return n == 1, nil
}

// LastSeen returns when the user was last marked active. ok is false when no
// record exists.
func (s *Store) LastSeen(ctx context.Context, userID string) (time.Time, bool, error) {
	val, err := s.client.Get(ctx, s.key(userID)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, apperrors.NewPresenceUnavailable("get", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, false, nil
	}
	return ts, true, nil
}

// ListActiveUserIDs scans the presence namespace. This walks every presence
// key, which is acceptable while the active set stays small.
func (s *Store) ListActiveUserIDs(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	iter := s.client.Scan(ctx, 0, s.prefix+":*", constants.PresenceScanCount).Iterator()
	for iter.Next(ctx) {
		id := strings.TrimPrefix(iter.Val(), s.prefix+":")
		if id != "" {
			seen[id] = struct{}{}
		}
	}
	if err := iter.Err(); err != nil {
		return nil, apperrors.NewPresenceUnavailable("scan", err)
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// ActiveMembers lists active users with their profiles. Ids that no longer
// resolve to a user are dropped.
func (s *Store) ActiveMembers(ctx context.Context, users UserLookup) ([]Member, error) {
	ids, err := s.ListActiveUserIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []Member{}, nil
	}

	profiles, err := users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	members := make([]Member, 0, len(profiles))
	for _, u := range profiles {
		members = append(members, Member{
			UserID:         u.ID,
			Username:       u.Username,
			UserProfileURL: u.ProfilePhoto,
			IsActive:       true,
		})
	}
	return members, nil
}

// Touch marks the user active and only logs on failure. Use it on paths where
// presence must never block the primary action.
func (s *Store) Touch(ctx context.Context, userID string) {
	if err := s.MarkActive(ctx, userID); err != nil {
		s.logger.Warn("Failed to refresh presence", zap.String("user_id", userID), zap.Error(err))
	}
}

// Status reports activity, degrading to inactive when the cache is unreachable
func (s *Store) Status(ctx context.Context, userID string) bool {
	active, err := s.IsActive(ctx, userID)
	if err != nil {
		s.logger.Warn("Presence check failed, reporting inactive", zap.String("user_id", userID), zap.Error(err))
		return false
	}
	return active
}
