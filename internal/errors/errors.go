// Package errors provides the typed errors shared by the pipeline stages.
package errors

import (
	"errors"
	"fmt"
)

// Type identifies the category of error
type Type string

const (
	// TypeRegionList means the region list could not be obtained. Fatal.
	TypeRegionList Type = "REGION_LIST_ERROR"

	// TypeNetwork indicates a page could not be retrieved
	TypeNetwork Type = "NETWORK_ERROR"

	// TypeExtraction indicates the page has no embedded tariff block
	TypeExtraction Type = "EXTRACTION_ERROR"

	// TypeParsing indicates the embedded block is not valid structured data
	TypeParsing Type = "PARSING_ERROR"

	// TypePricing indicates no price could be derived for a tariff
	TypePricing Type = "PRICING_ERROR"

	// TypeCache indicates a cache read or write failure
	TypeCache Type = "CACHE_ERROR"

	// TypeConfig indicates a configuration error
	TypeConfig Type = "CONFIG_ERROR"

	// TypeOutput indicates the consolidated output could not be written
	TypeOutput Type = "OUTPUT_ERROR"
)

// Error represents a domain error with context
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new formatted error
func Newf(errType Type, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with context
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// IsType reports whether any error in err's chain is an *Error of type t.
func IsType(err error, t Type) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Type == t {
			return true
		}
		err = e.Cause
	}
	return false
}

// Fatal reports whether the error must abort the whole run.
func Fatal(err error) bool {
	return IsType(err, TypeRegionList) || IsType(err, TypeConfig) || IsType(err, TypeOutput)
}
