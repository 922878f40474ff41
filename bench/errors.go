package bench

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of a pipeline error
type ErrorType string

const (
	ErrorTypeConfiguration     ErrorType = "configuration"
	ErrorTypeMissingDependency ErrorType = "missing_dependency"
	ErrorTypeSink              ErrorType = "sink"
	ErrorTypeTelemetry         ErrorType = "telemetry"
	ErrorTypeEncoding          ErrorType = "encoding"
)

// BenchError represents a structured error with additional context
type BenchError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *BenchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *BenchError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *BenchError) Is(target error) bool {
	t, ok := target.(*BenchError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *BenchError) WithDetail(key string, value interface{}) *BenchError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewBenchError creates a new pipeline error
func NewBenchError(errType ErrorType, message string, err error) *BenchError {
	return &BenchError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Pipeline error variables

var (
	// Configuration errors, raised when a pipeline is constructed or first invoked
	ErrInvalidConfig     = NewBenchError(ErrorTypeConfiguration, "invalid pipeline configuration", nil)
	ErrHookNotCallable   = NewBenchError(ErrorTypeConfiguration, "hook is not callable", nil)
	ErrDuplicateHook     = NewBenchError(ErrorTypeConfiguration, "hook already registered", nil)
	ErrInvalidIterations = NewBenchError(ErrorTypeConfiguration, "iteration count must be positive", nil)
	ErrNoSink            = NewBenchError(ErrorTypeConfiguration, "no sink configured", nil)

	// Missing optional dependency, fatal for the hook or mode that needs it
	ErrMissingDependency = NewBenchError(ErrorTypeMissingDependency, "optional dependency not available", nil)

	// Sink errors, fatal: a record that cannot be persisted is a failed run
	ErrSinkWrite = NewBenchError(ErrorTypeSink, "failed to persist benchmark record", nil)

	// Telemetry errors
	ErrSamplerFailed  = NewBenchError(ErrorTypeTelemetry, "telemetry sampling function failed", nil)
	ErrSamplerTimeout = NewBenchError(ErrorTypeTelemetry, "telemetry sampler did not stop in time", nil)
)

// IsMissingDependency reports whether err is a missing-dependency failure.
func IsMissingDependency(err error) bool {
	return errors.Is(err, ErrMissingDependency)
}
