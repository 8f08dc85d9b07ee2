package errors

import (
	"fmt"
)

// SyncError carries everything a sync failure needs downstream: a
// stable code, a category and severity derived from it, and optional
// details the renderer and log formatter surface per file.
type SyncError struct {
	Code     string
	Message  string
	Category Category
	Severity Severity

	// Details are free-form key/value pairs, usually the path and the
	// operation that failed.
	Details map[string]string

	// Cause is the wrapped underlying error, nil for errors photosync
	// raises itself.
	Cause error

	// Retryable marks failures a second invocation may clear, such as
	// a catalog held by another process.
	Retryable bool

	// Suggestion is shown to the user under the message.
	Suggestion string
}

// New builds a SyncError for the given code. Category, severity, and
// the retryable flag follow from the code alone, so call sites only
// ever pick a code and a message.
func New(code string, message string, cause error) *SyncError {
	return &SyncError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap lifts an arbitrary error into a coded SyncError, keeping it as
// the cause. A nil error wraps to nil so call sites can wrap
// unconditionally.
func Wrap(code string, err error) *SyncError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *SyncError) Unwrap() error {
	return e.Cause
}

// Is matches SyncErrors by code, so errors.Is works against a sentinel
// built with New and any message.
func (e *SyncError) Is(target error) bool {
	t, ok := target.(*SyncError)
	return ok && e.Code == t.Code
}

// WithDetail attaches one key/value pair and returns the error, so
// details chain at the raise site.
func (e *SyncError) WithDetail(key, value string) *SyncError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion attaches a next-step hint for the user.
func (e *SyncError) WithSuggestion(suggestion string) *SyncError {
	e.Suggestion = suggestion
	return e
}

// GetCode returns the code of a SyncError, or "" for any other error.
func GetCode(err error) string {
	if se, ok := err.(*SyncError); ok {
		return se.Code
	}
	return ""
}

// IsFatal reports whether err must abort the current run. Plain errors
// are never fatal; they come from per-file operations.
func IsFatal(err error) bool {
	se, ok := err.(*SyncError)
	return ok && se.Severity == SeverityFatal
}

// IsRetryable reports whether a second invocation may succeed.
func IsRetryable(err error) bool {
	se, ok := err.(*SyncError)
	return ok && se.Retryable
}
