package attachment

import (
	"fmt"
)

// ErrorType represents the type of error that occurred
type ErrorType int

const (
	// ErrorTypeUnknown is for unknown errors
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeNotFound is when the ticket has no attachment to fetch
	ErrorTypeNotFound
	// ErrorTypeAmbiguousAttachment is when no name was given and the ticket has several attachments
	ErrorTypeAmbiguousAttachment
	// ErrorTypeTransport is for HTTP and RPC failures
	ErrorTypeTransport
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrorTypeNotFound:
		return "NotFound"
	case ErrorTypeAmbiguousAttachment:
		return "AmbiguousAttachment"
	case ErrorTypeTransport:
		return "Transport"
	default:
		return "Unknown"
	}
}

// Error represents an attachment error with additional context
type Error struct {
	Type    ErrorType
	Message string
	Err     error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap allows errors.Is and errors.As to work
func (e *Error) Unwrap() error {
	return e.Err
}

// Is allows comparison with error types
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithContext adds context information to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Sentinels for errors.Is
var (
	ErrNotFound            = &Error{Type: ErrorTypeNotFound}
	ErrAmbiguousAttachment = &Error{Type: ErrorTypeAmbiguousAttachment}
	ErrTransport           = &Error{Type: ErrorTypeTransport}
)

// NewNotFoundError creates an error for a ticket without attachments
func NewNotFoundError(ticket int) *Error {
	return (&Error{
		Type:    ErrorTypeNotFound,
		Message: fmt.Sprintf("ticket #%d has no attachments", ticket),
	}).WithContext("ticket", ticket)
}

// NewAmbiguousAttachmentError creates an error for a ticket with several attachments
func NewAmbiguousAttachmentError(ticket int, names []string) *Error {
	return (&Error{
		Type:    ErrorTypeAmbiguousAttachment,
		Message: fmt.Sprintf("ticket #%d has %d attachments, name one of them", ticket, len(names)),
	}).WithContext("ticket", ticket).WithContext("attachments", names)
}

// NewTransportError wraps a failed request
func NewTransportError(url string, err error) *Error {
	return (&Error{
		Type:    ErrorTypeTransport,
		Message: fmt.Sprintf("request to %s failed", url),
		Err:     err,
	}).WithContext("url", url)
}
