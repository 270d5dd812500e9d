// Package errors provides typed errors for migeval operations.
//
// Sentinel Errors:
//   - ErrConnectionFailed: the connectivity check failed
//   - ErrInvalidConfig: configuration validation failed
//   - ErrNoData: a probe produced no usable value
//
// Typed Errors:
//   - ValidationError: wraps configuration/input validation errors
//   - QueryError: wraps database client errors
//   - ProbeError: ties a failure to the probe that produced it
//   - ReportError: wraps report output errors
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrConnectionFailed indicates the database could not be reached.
	ErrConnectionFailed = errors.New("database connection failed")

	// ErrInvalidConfig indicates configuration validation failed.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNoData indicates a probe ran but returned nothing.
	ErrNoData = errors.New("no data available")
)

// ValidationError represents a configuration or input validation error.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   string // Value that was invalid
	Message string // Human-readable validation message
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, value, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Message)
}

// Unwrap returns ErrInvalidConfig for errors.Is support.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// QueryError represents a failed database client call.
type QueryError struct {
	Query string // SQL text (truncated for long scripts)
	Err   error  // Underlying client error
}

// queryMaxLen is the maximum length of a query string in error messages.
const queryMaxLen = 100

// NewQueryError creates a new QueryError.
// Long queries are truncated and collapsed to a single line.
func NewQueryError(query string, err error) *QueryError {
	query = collapseSpace(query)
	if len(query) > queryMaxLen {
		query = query[:queryMaxLen] + "..."
	}
	return &QueryError{Query: query, Err: err}
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed [%s]: %v", e.Query, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// ProbeError records which probe failed and why.
type ProbeError struct {
	Probe string
	Err   error
}

// NewProbeError creates a new ProbeError.
func NewProbeError(probe string, err error) *ProbeError {
	return &ProbeError{Probe: probe, Err: err}
}

// Error implements the error interface.
func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %q: %v", e.Probe, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ProbeError) Unwrap() error {
	return e.Err
}

// ReportError represents an error while writing the report.
type ReportError struct {
	Phase string // Phase that failed (e.g., "open", "write")
	Path  string // Output path (if applicable)
	Err   error  // Underlying error
}

// NewReportError creates a new ReportError.
func NewReportError(phase, path string, err error) *ReportError {
	return &ReportError{Phase: phase, Path: path, Err: err}
}

// Error implements the error interface.
func (e *ReportError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("report %s error: %v", e.Phase, e.Err)
	}
	return fmt.Sprintf("report %s error for %s: %v", e.Phase, e.Path, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ReportError) Unwrap() error {
	return e.Err
}

func collapseSpace(s string) string {
	b := make([]byte, 0, len(s))
	space := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' || c == '\n' || c == '\t' || c == '\r' {
			if !space && len(b) > 0 {
				b = append(b, ' ')
			}
			space = true
			continue
		}
		b = append(b, c)
		space = false
	}
	if len(b) > 0 && b[len(b)-1] == ' ' {
		b = b[:len(b)-1]
	}
	return string(b)
}
