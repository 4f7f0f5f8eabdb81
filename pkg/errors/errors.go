package errors

import (
	"fmt"
)

// ParseError represents a YAML parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures configuration validation issues.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NetworkError indicates a remote resource could not be fetched, either
// because the transport failed or because the response body is unusable
// (an HTML error page where a script or config file was expected).
type NetworkError struct {
	URL     string
	Message string
	Err     error
}

// NewNetworkError constructs a NetworkError for the given resource URL.
func NewNetworkError(url string, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &NetworkError{URL: url, Message: message, Err: err}
}

func (e *NetworkError) Error() string {
	if e == nil {
		return ""
	}
	if e.URL != "" {
		return fmt.Sprintf("network error: %s: %s", e.URL, e.Message)
	}
	return fmt.Sprintf("network error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *NetworkError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// SubprocessError represents an installer or package-manager invocation that
// exited non-zero while executing a step.
type SubprocessError struct {
	StepID string
	Err    error
}

// NewSubprocessError constructs a SubprocessError.
func NewSubprocessError(stepID string, err error) error {
	return &SubprocessError{StepID: stepID, Err: err}
}

func (e *SubprocessError) Error() string {
	if e == nil {
		return ""
	}
	if e.StepID != "" {
		return fmt.Sprintf("subprocess failed on step %s: %v", e.StepID, e.Err)
	}
	return fmt.Sprintf("subprocess failed: %v", e.Err)
}

// Unwrap exposes the root error.
func (e *SubprocessError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PermissionError indicates a privileged operation was rejected by the host.
type PermissionError struct {
	Op  string
	Err error
}

// NewPermissionError constructs a PermissionError for the given operation.
func NewPermissionError(op string, err error) error {
	return &PermissionError{Op: op, Err: err}
}

func (e *PermissionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Op != "" {
		return fmt.Sprintf("permission denied: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("permission denied: %v", e.Err)
}

// Unwrap exposes the underlying error.
func (e *PermissionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
