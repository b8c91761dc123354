package domain

import (
	"errors"
	"fmt"
)

// APIError represents a standardized API error with HTTP status code
type APIError struct {
	Type   string            `json:"type"`
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Code   string            `json:"code,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Title
}

// ValidationMessages provides human-readable validation error messages
// These map validator tags to user-friendly messages
var ValidationMessages = map[string]string{
	"required": "This field is required",
	"email":    "Must be a valid email address",
	"max":      "Exceeds maximum length",
	"min":      "Below minimum length",
	"gte":      "Must be greater than or equal to minimum value",
	"gt":       "Must be greater than minimum value",
	"lte":      "Must be less than or equal to maximum value",
	"url":      "Must be a valid URL",
	"oneof":    "Must be one of the allowed values",
	"numeric":  "Must be a numeric value",
	"len":      "Must be exactly the specified length",
}

// GetValidationMessage returns a human-readable message for a validation tag
func GetValidationMessage(tag string) string {
	if msg, ok := ValidationMessages[tag]; ok {
		return msg
	}
	return "Validation failed: " + tag
}

// Common error types for RFC 7807 Problem Details
const (
	ErrorTypeValidation      = "validation_error"
	ErrorTypeNotFound        = "not_found"
	ErrorTypeBadRequest      = "bad_request"
	ErrorTypeConflict        = "conflict"
	ErrorTypeUnauthorized    = "unauthorized"
	ErrorTypeForbidden       = "forbidden"
	ErrorTypeGone            = "gone"
	ErrorTypeTooManyRequests = "too_many_requests"
	ErrorTypeUpstream        = "upstream_error"
	ErrorTypeInternal        = "internal_error"
)

// Machine-readable codes carried on public error bodies
const (
	CodeNotFound        = "NOT_FOUND"
	CodeExpired         = "EXPIRED"
	CodeAlreadyPaid     = "ALREADY_PAID"
	CodeUpstreamTimeout = "UPSTREAM_TIMEOUT"
	CodeUpstreamFailed  = "UPSTREAM_FAILED"
	CodeQuotaExceeded   = "QUOTA_EXCEEDED"
	CodeSessionLimit    = "SESSION_LIMIT"
)

var (
	// ErrMissingDetails is returned when a proposal lacks the detail object its type requires.
	// It signals a broken invariant, never a zero total.
	ErrMissingDetails = errors.New("proposal is missing details for its type")

	// ErrAlreadyPaid is returned when a checkout is requested for a settled proposal
	ErrAlreadyPaid = errors.New("proposal has already been paid")
)

// ValidationError reports a rejected input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for the given field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError is returned when a proposal (or one of its records) does not exist
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.Resource == "" {
		return fmt.Sprintf("%s not found", e.ID)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ExpiredError is returned when a proposal exists but its validity window has closed
type ExpiredError struct {
	ID string
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("proposal %s has expired", e.ID)
}

// UpstreamTimeoutError is returned when a collaborator did not answer within its deadline
type UpstreamTimeoutError struct {
	Service string
	Err     error
}

func (e *UpstreamTimeoutError) Error() string {
	return fmt.Sprintf("%s timed out", e.Service)
}

func (e *UpstreamTimeoutError) Unwrap() error {
	return e.Err
}

// UpstreamRejectedError is returned when a collaborator answered with an error
type UpstreamRejectedError struct {
	Service string
	Detail  string
	Err     error
}

func (e *UpstreamRejectedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s rejected the request", e.Service)
	}
	return fmt.Sprintf("%s rejected the request: %s", e.Service, e.Detail)
}

func (e *UpstreamRejectedError) Unwrap() error {
	return e.Err
}

// SignatureError is returned when an inbound webhook fails authenticity checks
type SignatureError struct {
	Reason string
}

func (e *SignatureError) Error() string {
	if e.Reason == "" {
		return "invalid webhook signature"
	}
	return "invalid webhook signature: " + e.Reason
}

// IsValidationError reports whether err wraps a ValidationError
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFound reports whether err wraps a NotFoundError
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsExpired reports whether err wraps an ExpiredError
func IsExpired(err error) bool {
	var target *ExpiredError
	return errors.As(err, &target)
}
