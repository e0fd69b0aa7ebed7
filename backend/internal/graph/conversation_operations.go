package graph

import (
	"context"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	apperrors "soceyo/backend/pkg/errors"
)

// ============================================================================
// Conversation Operations
// ============================================================================

const conversationReturn = `
	OPTIONAL MATCH (member:User)-[:MEMBER_OF]->(c)
	WITH c, collect(member.user_id) AS member_ids
	RETURN c.conversation_id AS conversation_id, c.is_group AS is_group,
	       c.created_at AS created_at, member_ids
`

// CreateConversation opens a conversation between existing users
func (r *Repository) CreateConversation(ctx context.Context, in NewConversation) (*Conversation, error) {
	memberIDs := dedupe(in.MemberIDs)
	if len(memberIDs) == 0 {
		return nil, apperrors.NewValidation("a conversation needs at least one member", nil)
	}

	query := `
		MATCH (u:User)
		WHERE u.user_id IN $memberIDs
		WITH collect(u) AS users
		WHERE size(users) = size($memberIDs)
		CREATE (c:Conversation {
			conversation_id: $conversationID,
			is_group: $isGroup,
			created_at: datetime($now)
		})
		FOREACH (u IN users | CREATE (u)-[:MEMBER_OF {joined_at: datetime($now)}]->(c))
		WITH c
	` + conversationReturn

	records, err := r.write(ctx, "create conversation", query, map[string]interface{}{
		"conversationID": uuid.New().String(),
		"memberIDs":      memberIDs,
		"isGroup":        in.IsGroup,
		"now":            nowString(),
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.NewNotFound("user", "one or more members")
	}

	conv := conversationFromRecord(records[0])
	r.logger.Info("Conversation created",
		zap.String("conversation_id", conv.ID),
		zap.Int("members", len(conv.MemberIDs)),
	)
	return conv, nil
}

// GetConversation fetches a conversation with its member ids
func (r *Repository) GetConversation(ctx context.Context, conversationID string) (*Conversation, error) {
	query := `MATCH (c:Conversation {conversation_id: $conversationID})` + conversationReturn

	record, err := r.single(ctx, "get conversation", query, map[string]interface{}{
		"conversationID": conversationID,
	})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, apperrors.NewNotFound("conversation", conversationID)
	}
	return conversationFromRecord(record), nil
}

// ListUserConversations returns every conversation userID belongs to, newest first
func (r *Repository) ListUserConversations(ctx context.Context, userID string) ([]Conversation, error) {
	query := `
		MATCH (:User {user_id: $userID})-[:MEMBER_OF]->(c:Conversation)
		WITH c
	` + conversationReturn + `
		ORDER BY created_at DESC
	`

	records, err := r.collect(ctx, "list conversations", query, map[string]interface{}{
		"userID": userID,
	})
	if err != nil {
		return nil, err
	}

	conversations := make([]Conversation, 0, len(records))
	for _, record := range records {
		conversations = append(conversations, *conversationFromRecord(record))
	}
	return conversations, nil
}

// AddMember links a user to a conversation; adding an existing member is a no-op
func (r *Repository) AddMember(ctx context.Context, conversationID, userID string) (*Conversation, error) {
	query := `
		MATCH (c:Conversation {conversation_id: $conversationID})
		MATCH (u:User {user_id: $userID})
		MERGE (u)-[m:MEMBER_OF]->(c)
		ON CREATE SET m.joined_at = datetime($now)
		WITH c
	` + conversationReturn

	records, err := r.write(ctx, "add member", query, map[string]interface{}{
		"conversationID": conversationID,
		"userID":         userID,
		"now":            nowString(),
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.NewNotFound("conversation or user", conversationID+"/"+userID)
	}
	return conversationFromRecord(records[0]), nil
}

// RemoveMember unlinks a user from a conversation
func (r *Repository) RemoveMember(ctx context.Context, conversationID, userID string) (*Conversation, error) {
	query := `
		MATCH (c:Conversation {conversation_id: $conversationID})
		OPTIONAL MATCH (:User {user_id: $userID})-[m:MEMBER_OF]->(c)
		DELETE m
		WITH DISTINCT c
	` + conversationReturn

	records, err := r.write(ctx, "remove member", query, map[string]interface{}{
		"conversationID": conversationID,
		"userID":         userID,
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.NewNotFound("conversation", conversationID)
	}
	return conversationFromRecord(records[0]), nil
}

// DeleteConversation removes a conversation together with its messages
func (r *Repository) DeleteConversation(ctx context.Context, conversationID string) error {
	query := `
		MATCH (c:Conversation {conversation_id: $conversationID})
		OPTIONAL MATCH (m:Message)-[:IN_CONVERSATION]->(c)
		DETACH DELETE m, c
		RETURN count(*) AS deleted
	`

	records, err := r.write(ctx, "delete conversation", query, map[string]interface{}{
		"conversationID": conversationID,
	})
	if err != nil {
		return err
	}
	if len(records) == 0 || getCount(records[0], "deleted") == 0 {
		return apperrors.NewNotFound("conversation", conversationID)
	}

	r.logger.Info("Conversation deleted", zap.String("conversation_id", conversationID))
	return nil
}

func conversationFromRecord(record *neo4j.Record) *Conversation {
	return &Conversation{
		ID:        getStringFromRecord(record, "conversation_id"),
		IsGroup:   getBoolFromRecord(record, "is_group"),
		MemberIDs: getStringSliceFromRecord(record, "member_ids"),
		CreatedAt: getTimeFromRecord(record, "created_at"),
	}
}

func getCount(record *neo4j.Record, key string) int64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	if i, ok := val.(int64); ok {
		return i
	}
	return 0
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
