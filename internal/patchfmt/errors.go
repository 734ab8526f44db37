package patchfmt

import (
	"fmt"
)

// ErrorType represents the kind of failure raised by the format engine
type ErrorType int

const (
	// ErrorTypeUnknownFormat is when no recognizable marker was found on an axis
	ErrorTypeUnknownFormat ErrorType = iota
	// ErrorTypeMixedFormat is when lines of one input classify differently on the same axis
	ErrorTypeMixedFormat
	// ErrorTypeMalformedHeader is when a header dialect was identified but its fixed lines are wrong
	ErrorTypeMalformedHeader
	// ErrorTypeUnsupportedConversion is when a valid request names a conversion the engine does not define
	ErrorTypeUnsupportedConversion
	// ErrorTypeInvalidArgument is for empty input or unknown format tokens
	ErrorTypeInvalidArgument
)

// String returns the string representation of ErrorType
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeUnknownFormat:
		return "UnknownFormat"
	case ErrorTypeMixedFormat:
		return "MixedFormat"
	case ErrorTypeMalformedHeader:
		return "MalformedHeader"
	case ErrorTypeUnsupportedConversion:
		return "UnsupportedConversion"
	case ErrorTypeInvalidArgument:
		return "InvalidArgument"
	default:
		return "Unknown"
	}
}

// Axis names the classification axis an error refers to
type Axis string

const (
	AxisDiff   Axis = "diff"
	AxisPath   Axis = "path"
	AxisHeader Axis = "header"
)

// Error represents a format engine failure with additional context
type Error struct {
	Type    ErrorType
	Message string
	Err     error
	Context map[string]interface{}
}

// Sentinel values for errors.Is. Comparison is by Type only.
var (
	ErrUnknownFormat         = &Error{Type: ErrorTypeUnknownFormat}
	ErrMixedFormat           = &Error{Type: ErrorTypeMixedFormat}
	ErrMalformedHeader       = &Error{Type: ErrorTypeMalformedHeader}
	ErrUnsupportedConversion = &Error{Type: ErrorTypeUnsupportedConversion}
	ErrInvalidArgument       = &Error{Type: ErrorTypeInvalidArgument}
)

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

// NewError creates a new Error
func NewError(errType ErrorType, message string, err error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Err:     err,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	e.Context[key] = value
	return e
}

// GetContext retrieves context information from the error
func (e *Error) GetContext(key string) (interface{}, bool) {
	value, exists := e.Context[key]
	return value, exists
}

// NewUnknownFormatError creates an error for an axis with no recognizable marker
func NewUnknownFormatError(axis Axis, description string) *Error {
	return NewError(ErrorTypeUnknownFormat,
		fmt.Sprintf("failed to detect %s format: %s", axis, description), nil).
		WithContext("axis", axis)
}

// NewMixedFormatError creates an error for an input exhibiting two formats on one axis
func NewMixedFormatError(axis Axis, first, second fmt.Stringer, line string) *Error {
	return NewError(ErrorTypeMixedFormat,
		fmt.Sprintf("patch appears to have mixed %s formats (%s and %s)", axis, first, second), nil).
		WithContext("axis", axis).
		WithContext("line", line)
}

// NewMalformedHeaderError creates an error for a header line that does not match its fixed position
func NewMalformedHeaderError(dialect HeaderDialect, lineNumber int, line, pattern string) *Error {
	return NewError(ErrorTypeMalformedHeader,
		fmt.Sprintf("malformed %s header: line %d %q does not match %q", dialect, lineNumber+1, line, pattern), nil).
		WithContext("dialect", dialect).
		WithContext("line", line)
}

// NewUnsupportedConversionError creates an error for a conversion the engine does not define
func NewUnsupportedConversionError(description string) *Error {
	return NewError(ErrorTypeUnsupportedConversion,
		fmt.Sprintf("unsupported conversion: %s", description), nil).
		WithContext("description", description)
}

// NewInvalidArgumentError creates an invalid argument error
func NewInvalidArgumentError(description string) *Error {
	return NewError(ErrorTypeInvalidArgument, description, nil).
		WithContext("description", description)
}
