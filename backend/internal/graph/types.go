package graph

import "time"

// ============================================================================
// Graph Types
// ============================================================================

// User represents a user node
type User struct {
	ID           string    `json:"user_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	ProfilePhoto string    `json:"profile_photo,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUser carries the fields required to register a user
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
}

// UserUpdate is a partial profile update; nil fields are left untouched
type UserUpdate struct {
	FullName     *string
	Bio          *string
	ProfilePhoto *string
}

// Conversation represents a conversation node and its members
type Conversation struct {
	ID        string    `json:"conversation_id"`
	IsGroup   bool      `json:"is_group"`
	MemberIDs []string  `json:"member_ids"`
	CreatedAt time.Time `json:"created_at"`
}

// HasMember reports whether userID is a member of the conversation
func (c *Conversation) HasMember(userID string) bool {
	for _, id := range c.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// NewConversation carries the fields required to open a conversation
type NewConversation struct {
	IsGroup   bool
	MemberIDs []string
}

// File represents an uploaded media file
type File struct {
	ID         string    `json:"file_id"`
	URL        string    `json:"url"`
	FileType   string    `json:"file_type"`
	Size       int64     `json:"size"`
	UploaderID string    `json:"uploader_id,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// NewMessage carries the fields required to persist a message
type NewMessage struct {
	SenderID       string
	ConversationID string
	Content        string
	FileIDs        []string
}

// MessageRecord is a persisted message with its sender and attachments resolved
type MessageRecord struct {
	ID             string
	Content        string
	Timestamp      time.Time
	EditedAt       *time.Time
	ConversationID string
	SenderID       string
	SenderUsername string
	SenderPhoto    string
	Files          []File
}
