// Package errors provides the coded error taxonomy shared by the analysis flow.
//
// Usage:
//
//	if !validate.APIKey(provider, key) {
//	    return errors.Configf("Invalid %s API key format", provider)
//	}
//
//	if errors.Is(err, errors.ErrExtractionFailed) {
//	    // every transcript strategy failed
//	}
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
	New    = errors.New
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeConfig             Code = "CONFIG"
	CodeExtractionFailed   Code = "EXTRACTION_FAILED"
	CodeAPI                Code = "API"
	CodeParse              Code = "PARSE"
	CodeContextInvalidated Code = "CONTEXT_INVALIDATED"
	CodeBusy               Code = "BUSY"
	CodeNoVideo            Code = "NO_VIDEO"
)

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrConfig             = &Error{Code: CodeConfig, Message: "configuration error"}
	ErrExtractionFailed   = &Error{Code: CodeExtractionFailed, Message: "transcript extraction failed"}
	ErrAPI                = &Error{Code: CodeAPI, Message: "AI API error"}
	ErrParse              = &Error{Code: CodeParse, Message: "unparseable AI response"}
	ErrContextInvalidated = &Error{Code: CodeContextInvalidated, Message: "extension context invalidated"}
	ErrBusy               = &Error{Code: CodeBusy, Message: "Analysis already in progress"}
	ErrNoVideo            = &Error{Code: CodeNoVideo, Message: "No video ID found"}
)

// APIDetails carries the upstream failure of an AI backend call.
type APIDetails struct {
	Provider   string `json:"provider"`
	StatusCode int    `json:"status_code"`
	Upstream   string `json:"upstream,omitempty"`
}

// Config creates a configuration error.
func Config(msg string) *Error {
	return &Error{Code: CodeConfig, Message: msg}
}

// Configf creates a configuration error with formatted message.
func Configf(format string, args ...any) *Error {
	return &Error{Code: CodeConfig, Message: fmt.Sprintf(format, args...)}
}

// ExtractionFailed creates an extraction error wrapping every strategy failure.
func ExtractionFailed(causes ...error) *Error {
	return &Error{
		Code:    CodeExtractionFailed,
		Message: "Transcript extraction failed: All transcript extraction methods failed",
		cause:   errors.Join(causes...),
	}
}

// API creates an upstream error for the named provider. A zero status means
// the request never produced an HTTP response.
func API(provider string, status int, upstream string) *Error {
	msg := upstream
	if msg == "" {
		msg = "Unknown error"
	}
	return &Error{
		Code:    CodeAPI,
		Message: fmt.Sprintf("%s API error: %d - %s", provider, status, msg),
		Details: APIDetails{Provider: provider, StatusCode: status, Upstream: upstream},
	}
}

// Parse creates a parse error.
func Parse(msg string) *Error {
	return &Error{Code: CodeParse, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}

// CodeOf returns the code of the first coded error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
