package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports a missing or malformed request parameter.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validation builds a ValidationError for the given field.
func Validation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports that a referenced resource does not exist.
type NotFoundError struct {
	Resource string
	Message  string
}

func (e *NotFoundError) Error() string { return e.Message }

// NotFound builds a NotFoundError for the given resource.
func NotFound(resource, message string) *NotFoundError {
	return &NotFoundError{Resource: resource, Message: message}
}

// RemoteFetchError reports a non-success response from the Shopify Admin
// API. Body carries the raw response body so operators see exactly what
// Shopify said.
type RemoteFetchError struct {
	Resource   string
	StatusCode int
	Body       string
}

func (e *RemoteFetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: status %d, body: %s", e.Resource, e.StatusCode, e.Body)
}

// SignatureError reports a webhook whose HMAC did not verify.
type SignatureError struct {
	Reason string
}

func (e *SignatureError) Error() string {
	return "webhook verification failed: " + e.Reason
}

// UnreachableDependencyError reports that a required backing service
// (the database) cannot be reached at all, as opposed to a transient
// pool timeout that the retry wrapper handles.
type UnreachableDependencyError struct {
	Dependency string
	Err        error
}

func (e *UnreachableDependencyError) Error() string {
	return fmt.Sprintf("%s is unreachable: %v", e.Dependency, e.Err)
}

func (e *UnreachableDependencyError) Unwrap() error { return e.Err }

// ForbiddenError reports that the authenticated user does not own the
// resource they are querying.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
