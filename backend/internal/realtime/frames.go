package realtime

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"soceyo/backend/internal/constants"
	"soceyo/backend/internal/graph"
	apperrors "soceyo/backend/pkg/errors"
)

var validate = validator.New()

// InboundFrame is a chat message sent by a client over the socket
type InboundFrame struct {
	SenderID string   `json:"sender_id" validate:"required,max=128"`
	Content  string   `json:"content" validate:"max=4000"`
	FileIDs  []string `json:"file_ids" validate:"omitempty,dive,required,max=128"`
}

// FileFrame describes an attachment in an outbound frame
type FileFrame struct {
	FileID   string `json:"file_id"`
	URL      string `json:"url"`
	FileType string `json:"file_type"`
	Size     int64  `json:"size"`
}

// OutboundFrame is a persisted message as pushed to every room member
type OutboundFrame struct {
	MessageID      string      `json:"message_id"`
	Content        string      `json:"content"`
	Timestamp      time.Time   `json:"timestamp"`
	SenderID       string      `json:"sender_id"`
	Username       string      `json:"username,omitempty"`
	UserProfileURL string      `json:"user_profile_url,omitempty"`
	ConversationID string      `json:"conversation_id"`
	Files          []FileFrame `json:"files"`
}

// ErrorFrame is sent only to the client whose frame was rejected
type ErrorFrame struct {
	Error string `json:"error"`
}

// DecodeInbound parses and validates a raw client frame. The returned
// *apperrors.ErrProtocol carries the text to send back to the client.
func DecodeInbound(data []byte) (*InboundFrame, error) {
	var frame InboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, apperrors.NewProtocol(constants.ErrTextInvalidFrame, err)
	}

	if err := validate.Struct(frame); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Field() == "Content" && fe.Tag() == "max" {
					return nil, apperrors.NewProtocol(constants.ErrTextMessageTooLong, err)
				}
			}
		}
		return nil, apperrors.NewProtocol(constants.ErrTextInvalidFrame, err)
	}

	if err := ValidateContent(frame.Content, frame.FileIDs); err != nil {
		return nil, err
	}

	return &frame, nil
}

// ValidateContent checks that a message carries text or attachments and that
// the text is not too long
func ValidateContent(content string, fileIDs []string) error {
	if strings.TrimSpace(content) == "" && len(fileIDs) == 0 {
		return apperrors.NewProtocol(constants.ErrTextEmptyMessage, nil)
	}
	if utf8.RuneCountInString(content) > constants.MaxMessageLength {
		return apperrors.NewProtocol(constants.ErrTextMessageTooLong, nil)
	}
	for _, id := range fileIDs {
		if strings.TrimSpace(id) == "" {
			return apperrors.NewProtocol(constants.ErrTextInvalidFrame, nil)
		}
	}
	return nil
}

// NewOutboundFrame builds the broadcast shape of a persisted message
func NewOutboundFrame(msg *graph.MessageRecord) OutboundFrame {
	files := make([]FileFrame, 0, len(msg.Files))
	for _, f := range msg.Files {
		files = append(files, FileFrame{
			FileID:   f.ID,
			URL:      f.URL,
			FileType: f.FileType,
			Size:     f.Size,
		})
	}

	return OutboundFrame{
		MessageID:      msg.ID,
		Content:        msg.Content,
		Timestamp:      msg.Timestamp,
		SenderID:       msg.SenderID,
		Username:       msg.SenderUsername,
		UserProfileURL: msg.SenderPhoto,
		ConversationID: msg.ConversationID,
		Files:          files,
	}
}
