package graph

import (
	"context"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	apperrors "soceyo/backend/pkg/errors"
)

// ============================================================================
// Message Operations
// ============================================================================

const messageReturn = `
	OPTIONAL MATCH (m)-[:ATTACHED_TO]->(f:File)
	WITH m, c, u, collect(f {.file_id, .url, .file_type, .size}) AS files
	RETURN m.message_id AS message_id, m.content AS content, m.timestamp AS timestamp,
	       m.edited_at AS edited_at, c.conversation_id AS conversation_id,
	       u.user_id AS sender_id, u.username AS username, u.profile_photo AS profile_photo,
	       files
`

// CreateMessage persists a message, linking sender, conversation and attachments
// in one transaction. Nothing is written unless the sender, the conversation and
// every file id resolve.
func (r *Repository) CreateMessage(ctx context.Context, in NewMessage) (*MessageRecord, error) {
	fileIDs := dedupe(in.FileIDs)

	query := `
		MATCH (u:User {user_id: $senderID})
		MATCH (c:Conversation {conversation_id: $conversationID})
		OPTIONAL MATCH (attachment:File)
		WHERE attachment.file_id IN $fileIDs
		WITH u, c, collect(attachment) AS attachments
		WHERE size(attachments) = size($fileIDs)
		CREATE (m:Message {
			message_id: $messageID,
			content: $content,
			timestamp: datetime($now)
		})
		CREATE (u)-[:SENT]->(m)
		CREATE (m)-[:IN_CONVERSATION]->(c)
		FOREACH (a IN attachments | CREATE (m)-[:ATTACHED_TO]->(a))
		WITH m, c, u
	` + messageReturn

	records, err := r.write(ctx, "create message", query, map[string]interface{}{
		"senderID":       in.SenderID,
		"conversationID": in.ConversationID,
		"fileIDs":        fileIDs,
		"messageID":      uuid.New().String(),
		"content":        in.Content,
		"now":            nowString(),
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.NewNotFound("sender, conversation or attachment", in.ConversationID)
	}

	msg := messageFromRecord(records[0])
	r.logger.Debug("Message created",
		zap.String("message_id", msg.ID),
		zap.String("conversation_id", msg.ConversationID),
		zap.Int("attachments", len(msg.Files)),
	)
	return msg, nil
}

// ListMessages returns the latest limit messages of a conversation in chronological order
func (r *Repository) ListMessages(ctx context.Context, conversationID string, limit int) ([]MessageRecord, error) {
	if _, err := r.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}

	query := `
		MATCH (u:User)-[:SENT]->(m:Message)-[:IN_CONVERSATION]->(c:Conversation {conversation_id: $conversationID})
		WITH m, c, u
		ORDER BY m.timestamp DESC
		LIMIT $limit
	` + messageReturn + `
		ORDER BY timestamp ASC
	`

	records, err := r.collect(ctx, "list messages", query, map[string]interface{}{
		"conversationID": conversationID,
		"limit":          limit,
	})
	if err != nil {
		return nil, err
	}

	messages := make([]MessageRecord, 0, len(records))
	for _, record := range records {
		messages = append(messages, *messageFromRecord(record))
	}
	return messages, nil
}

// UpdateMessage edits the content of a message sent by senderID
func (r *Repository) UpdateMessage(ctx context.Context, messageID, senderID, content string) (*MessageRecord, error) {
	query := `
		MATCH (u:User {user_id: $senderID})-[:SENT]->(m:Message {message_id: $messageID})-[:IN_CONVERSATION]->(c:Conversation)
		SET m.content = $content, m.edited_at = datetime($now)
		WITH m, c, u
	` + messageReturn

	records, err := r.write(ctx, "update message", query, map[string]interface{}{
		"messageID": messageID,
		"senderID":  senderID,
		"content":   content,
		"now":       nowString(),
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.NewNotFound("message", messageID)
	}
	return messageFromRecord(records[0]), nil
}

// DeleteMessage removes a message sent by senderID and returns its conversation id
func (r *Repository) DeleteMessage(ctx context.Context, messageID, senderID string) (string, error) {
	query := `
		MATCH (:User {user_id: $senderID})-[:SENT]->(m:Message {message_id: $messageID})-[:IN_CONVERSATION]->(c:Conversation)
		WITH m, c.conversation_id AS conversation_id
		DETACH DELETE m
		RETURN conversation_id
	`

	records, err := r.write(ctx, "delete message", query, map[string]interface{}{
		"messageID": messageID,
		"senderID":  senderID,
	})
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", apperrors.NewNotFound("message", messageID)
	}
	return getStringFromRecord(records[0], "conversation_id"), nil
}

func messageFromRecord(record *neo4j.Record) *MessageRecord {
	msg := &MessageRecord{
		ID:             getStringFromRecord(record, "message_id"),
		Content:        getStringFromRecord(record, "content"),
		Timestamp:      getTimeFromRecord(record, "timestamp"),
		ConversationID: getStringFromRecord(record, "conversation_id"),
		SenderID:       getStringFromRecord(record, "sender_id"),
		SenderUsername: getStringFromRecord(record, "username"),
		SenderPhoto:    getStringFromRecord(record, "profile_photo"),
		Files:          filesFromRecord(record, "files"),
	}
	if edited := getTimeFromRecord(record, "edited_at"); !edited.IsZero() {
		msg.EditedAt = &edited
	}
	return msg
}
