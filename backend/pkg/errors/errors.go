package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeGraph represents graph database errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypePresence represents presence cache errors
	ErrorTypePresence ErrorType = "presence"
	// ErrorTypeTransport represents websocket send/receive errors
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeProtocol represents malformed client frames or requests
	ErrorTypeProtocol ErrorType = "protocol"
	// ErrorTypeAuth represents authentication and authorization errors
	ErrorTypeAuth ErrorType = "auth"
	// ErrorTypeValidation represents rejected input
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeStorage represents media storage errors
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeContext represents context cancellation/timeout errors
	ErrorTypeContext ErrorType = "context"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// ErrType returns the error category; embedded errors inherit it
func (e *BaseError) ErrType() ErrorType {
	return e.Type
}

// Detail returns the message without the type prefix or wrapped cause
func (e *BaseError) Detail() string {
	return e.Message
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Graph Errors

// ErrNotFound is returned when a node (user, conversation, message, file) does not exist
type ErrNotFound struct {
	*BaseError
	Kind string
	ID   string
}

func NewNotFound(kind, id string) *ErrNotFound {
	return &ErrNotFound{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("%s not found: %s", kind, id), nil),
		Kind:      kind,
		ID:        id,
	}
}

// ErrConflict is returned when a unique property is already taken
type ErrConflict struct {
	*BaseError
	Field string
}

func NewConflict(field, reason string) *ErrConflict {
	return &ErrConflict{
		BaseError: NewBaseError(ErrorTypeValidation, reason, nil),
		Field:     field,
	}
}

// ErrGraphConnectionFailed is returned when Neo4j connection fails
type ErrGraphConnectionFailed struct {
	*BaseError
	URI string
}

func NewGraphConnectionFailed(uri string, err error) *ErrGraphConnectionFailed {
	return &ErrGraphConnectionFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("failed to connect to Neo4j: %s", uri), err),
		URI:       uri,
	}
}

// ErrGraphQueryFailed is returned when a graph query fails
type ErrGraphQueryFailed struct {
	*BaseError
	Operation string
}

func NewGraphQueryFailed(operation string, err error) *ErrGraphQueryFailed {
	return &ErrGraphQueryFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("query failed: %s", operation), err),
		Operation: operation,
	}
}

// Membership / Auth Errors

// ErrNotMember is returned when a user acts on a conversation they do not belong to
type ErrNotMember struct {
	*BaseError
	UserID         string
	ConversationID string
}

func NewNotMember(userID, conversationID string) *ErrNotMember {
	return &ErrNotMember{
		BaseError:      NewBaseError(ErrorTypeAuth, "Not a member of this conversation", nil),
		UserID:         userID,
		ConversationID: conversationID,
	}
}

// ErrUnauthorized is returned when credentials or tokens are missing or invalid
var ErrUnauthorized = NewBaseError(ErrorTypeAuth, "not authenticated", nil)

func NewUnauthorized(reason string, err error) *BaseError {
	return NewBaseError(ErrorTypeAuth, reason, err)
}

// Protocol Errors

// ErrProtocol is returned when a client frame cannot be understood
type ErrProtocol struct {
	*BaseError
	Reason string
}

func NewProtocol(reason string, err error) *ErrProtocol {
	return &ErrProtocol{
		BaseError: NewBaseError(ErrorTypeProtocol, reason, err),
		Reason:    reason,
	}
}

// NewValidation wraps rejected user input
func NewValidation(reason string, err error) *BaseError {
	return NewBaseError(ErrorTypeValidation, reason, err)
}

// Presence Errors

// ErrPresenceUnavailable is returned when the presence cache cannot be reached
type ErrPresenceUnavailable struct {
	*BaseError
	Operation string
}

func NewPresenceUnavailable(operation string, err error) *ErrPresenceUnavailable {
	return &ErrPresenceUnavailable{
		BaseError: NewBaseError(ErrorTypePresence, fmt.Sprintf("presence %s failed", operation), err),
		Operation: operation,
	}
}

// Transport Errors

// ErrSessionClosed is returned when writing to a session that was already closed
var ErrSessionClosed = NewBaseError(ErrorTypeTransport, "session closed", nil)

func NewTransportFailed(sessionID string, err error) *BaseError {
	return NewBaseError(ErrorTypeTransport, fmt.Sprintf("send to session %s failed", sessionID), err)
}

// Storage Errors

// ErrStorageFailed is returned when the media store rejects an operation
type ErrStorageFailed struct {
	*BaseError
	Operation string
}

func NewStorageFailed(operation string, err error) *ErrStorageFailed {
	return &ErrStorageFailed{
		BaseError: NewBaseError(ErrorTypeStorage, fmt.Sprintf("storage %s failed", operation), err),
		Operation: operation,
	}
}

// Context Errors

// ErrContextCancelled is returned when context is cancelled
type ErrContextCancelled struct {
	*BaseError
	Operation string
}

func NewContextCancelled(operation string, err error) *ErrContextCancelled {
	return &ErrContextCancelled{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context cancelled: %s", operation), err),
		Operation: operation,
	}
}

// Config Errors

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// ErrConfigValidationFailed is returned when a config value is present but unusable
type ErrConfigValidationFailed struct {
	*BaseError
	Field string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("invalid config %s: %s", field, reason), nil),
		Field:     field,
	}
}

// Helper functions

// IsErrorType checks if an error, or anything it wraps, is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if typed, ok := err.(interface{ ErrType() ErrorType }); ok && typed.ErrType() == errType {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsNotFound reports whether err is (or wraps) an ErrNotFound
func IsNotFound(err error) bool {
	var nf *ErrNotFound
	return errors.As(err, &nf)
}

// IsConflict reports whether err is (or wraps) an ErrConflict
func IsConflict(err error) bool {
	var c *ErrConflict
	return errors.As(err, &c)
}

// IsNotMember reports whether err is (or wraps) an ErrNotMember
func IsNotMember(err error) bool {
	var nm *ErrNotMember
	return errors.As(err, &nm)
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	// Context errors are not retryable
	if IsErrorType(err, ErrorTypeContext) {
		return false
	}
	if IsNotFound(err) || IsConflict(err) {
		return false
	}
	// Connectivity to the graph or the cache may come back
	if IsErrorType(err, ErrorTypeGraph) || IsErrorType(err, ErrorTypePresence) {
		return true
	}
	return false
}
