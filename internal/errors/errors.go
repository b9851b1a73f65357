package errors

import (
	"errors"
	"fmt"
	"time"
)

// Error types for the tagsense system
type ErrorType string

const (
	// Document errors
	ErrorTypeParse  ErrorType = "parse"
	ErrorTypeSchema ErrorType = "schema"

	// Reference errors
	ErrorTypeUnsupportedBind ErrorType = "unsupported_bind"
	ErrorTypeInvalidName     ErrorType = "invalid_name"

	// File errors
	ErrorTypeFileNotFound ErrorType = "file_not_found"
	ErrorTypeFileTooLarge ErrorType = "file_too_large"
	ErrorTypePermission   ErrorType = "permission"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"

	// Internal errors
	ErrorTypeInternal ErrorType = "internal"
)

// ErrUnsupportedOperation is matched by errors.Is for every UnsupportedBindError
var ErrUnsupportedOperation = errors.New("unsupported operation")

// ParseError represents a recoverable problem found while building a syntax tree
type ParseError struct {
	Type       ErrorType
	FilePath   string
	Offset     int
	Line       int
	Column     int
	Token      string
	Underlying error
	Timestamp  time.Time
}

// NewParseError creates a new parse error
func NewParseError(path string, offset, line, column int, token string, err error) *ParseError {
	return &ParseError{
		Type:       ErrorTypeParse,
		FilePath:   path,
		Offset:     offset,
		Line:       line,
		Column:     column,
		Token:      token,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s:%d:%d (near token %q): %v",
		e.FilePath, e.Line, e.Column, e.Token, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ParseError) Unwrap() error {
	return e.Underlying
}

// SchemaError represents a failure to load or interpret a schema document
type SchemaError struct {
	Type       ErrorType
	Namespace  string
	Location   string
	Underlying error
	Timestamp  time.Time
}

// NewSchemaError creates a new schema error
func NewSchemaError(namespace, location string, err error) *SchemaError {
	return &SchemaError{
		Type:       ErrorTypeSchema,
		Namespace:  namespace,
		Location:   location,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	if e.Namespace != "" {
		return fmt.Sprintf("schema %s (%s) failed: %v", e.Location, e.Namespace, e.Underlying)
	}
	return fmt.Sprintf("schema %s failed: %v", e.Location, e.Underlying)
}

// Unwrap returns the underlying error
func (e *SchemaError) Unwrap() error {
	return e.Underlying
}

// UnsupportedBindError is returned when a tag name reference is asked to bind
// to something that is neither an element definition nor a file
type UnsupportedBindError struct {
	Type      ErrorType
	Target    string
	MetaData  string
	Timestamp time.Time
}

// NewUnsupportedBindError creates a new bind error carrying the offending target's description
func NewUnsupportedBindError(target, metaData string) *UnsupportedBindError {
	return &UnsupportedBindError{
		Type:      ErrorTypeUnsupportedBind,
		Target:    target,
		MetaData:  metaData,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface
func (e *UnsupportedBindError) Error() string {
	if e.MetaData != "" {
		return fmt.Sprintf("cannot bind to %s: not an xml element definition (metadata %s)", e.Target, e.MetaData)
	}
	return fmt.Sprintf("cannot bind to %s: not an xml element definition", e.Target)
}

// Is lets errors.Is(err, ErrUnsupportedOperation) match
func (e *UnsupportedBindError) Is(target error) bool {
	return target == ErrUnsupportedOperation
}

// InvalidNameError is returned when a rename would produce a malformed XML name
type InvalidNameError struct {
	Type      ErrorType
	Name      string
	Timestamp time.Time
}

// NewInvalidNameError creates a new invalid name error
func NewInvalidNameError(name string) *InvalidNameError {
	return &InvalidNameError{
		Type:      ErrorTypeInvalidName,
		Name:      name,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface
func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("%q is not a valid xml tag name", e.Name)
}

// FileError represents a file-related error
type FileError struct {
	Type       ErrorType
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewFileError creates a new file error
func NewFileError(op, path string, err error) *FileError {
	errorType := ErrorTypeFileNotFound
	if isPermissionError(err) {
		errorType = ErrorTypePermission
	}

	return &FileError{
		Type:       errorType,
		Path:       path,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// NewFileTooLargeError creates a file error for inputs above the configured size limit
func NewFileTooLargeError(path string, size, limit int64) *FileError {
	return &FileError{
		Type:       ErrorTypeFileTooLarge,
		Path:       path,
		Operation:  "read",
		Underlying: fmt.Errorf("%d bytes exceeds limit of %d", size, limit),
		Timestamp:  time.Now(),
	}
}

// isPermissionError checks if the error is a permission error
func isPermissionError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return errStr == "permission denied" || errStr == "access denied"
}

// Error implements the error interface
func (e *FileError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *FileError) Unwrap() error {
	return e.Underlying
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error
func NewMultiError(errs []error) *MultiError {
	// Filter out nil errors
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// ErrorOrNil returns nil when no errors were collected
func (e *MultiError) ErrorOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}
