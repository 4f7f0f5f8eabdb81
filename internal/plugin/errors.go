package plugin

import (
	"errors"
	"fmt"
)

// ErrPluginNotFound is returned when the requested step type is not
// registered.
type ErrPluginNotFound struct {
	Type string
}

func (e ErrPluginNotFound) Error() string {
	return fmt.Sprintf("no plugin registered for step type %q", e.Type)
}

// PluginError is the base interface for structured plugin errors. The engine
// uses it to attribute failures to a step when deciding between fatal and
// tolerated outcomes.
type PluginError interface {
	error
	StepID() string
	Unwrap() error
}

// ValidationError represents malformed or missing step configuration.
type ValidationError struct {
	ID  string
	Err error
}

// NewValidationError creates a new ValidationError.
func NewValidationError(stepID string, err error) *ValidationError {
	return &ValidationError{ID: stepID, Err: err}
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return "validation error in step " + e.ID
	}
	return "validation error in step " + e.ID + ": " + e.Err.Error()
}

// StepID returns the identifier of the step where the error occurred.
func (e *ValidationError) StepID() string { return e.ID }

// Unwrap returns the underlying validation error.
func (e *ValidationError) Unwrap() error { return e.Err }

// Is matches any other ValidationError.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// ExecutionError represents an external operation failure while applying a
// step: a subprocess exiting non-zero, file I/O errors, or a failed fetch.
type ExecutionError struct {
	ID  string
	Err error
}

// NewExecutionError creates a new ExecutionError.
func NewExecutionError(stepID string, err error) *ExecutionError {
	return &ExecutionError{ID: stepID, Err: err}
}

func (e *ExecutionError) Error() string {
	if e.Err == nil {
		return "execution error in step " + e.ID
	}
	return "execution error in step " + e.ID + ": " + e.Err.Error()
}

// StepID returns the identifier of the step where the error occurred.
func (e *ExecutionError) StepID() string { return e.ID }

// Unwrap returns the underlying execution error.
func (e *ExecutionError) Unwrap() error { return e.Err }

// Is matches any other ExecutionError.
func (e *ExecutionError) Is(target error) bool {
	_, ok := target.(*ExecutionError)
	return ok
}

// StateError represents inability to determine the current machine state
// during evaluation, such as an unreadable file or an unavailable package
// manager.
type StateError struct {
	ID  string
	Err error
}

// NewStateError creates a new StateError.
func NewStateError(stepID string, err error) *StateError {
	return &StateError{ID: stepID, Err: err}
}

func (e *StateError) Error() string {
	if e.Err == nil {
		return "state error in step " + e.ID
	}
	return "state error in step " + e.ID + ": " + e.Err.Error()
}

// StepID returns the identifier of the step where the error occurred.
func (e *StateError) StepID() string { return e.ID }

// Unwrap returns the underlying state detection error.
func (e *StateError) Unwrap() error { return e.Err }

// Is matches any other StateError.
func (e *StateError) Is(target error) bool {
	_, ok := target.(*StateError)
	return ok
}

// AsPluginError attempts to convert any error to a PluginError.
func AsPluginError(err error) (PluginError, bool) {
	var pluginErr PluginError
	if errors.As(err, &pluginErr) {
		return pluginErr, true
	}
	return nil, false
}
