package domain

import "fmt"

// Error types for consistent error handling across the backend.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates a validation error (bad input). Validation is
// rejected synchronously before any state mutation.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrRateLimited indicates the document parsing service rejected a request
// for quota reasons. Retryable with backoff.
type ErrRateLimited struct {
	Service string
	Err     error
}

func (e *ErrRateLimited) Error() string {
	return fmt.Sprintf("rate limited by %s: %v", e.Service, e.Err)
}

func (e *ErrRateLimited) Unwrap() error {
	return e.Err
}

// ErrParse indicates the document parsing service returned an unusable
// response for a file. Terminal for that file.
type ErrParse struct {
	File   string
	Reason string
}

func (e *ErrParse) Error() string {
	return fmt.Sprintf("could not parse document %q: %s", e.File, e.Reason)
}

// ErrParserUnavailable indicates document parsing has not been configured
// on this server. Terminal; retrying cannot help.
type ErrParserUnavailable struct{}

func (e *ErrParserUnavailable) Error() string {
	return "document parser not configured"
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrForbidden indicates the caller lacks permission for the operation.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}

// ErrConflict indicates a resource already exists.
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}
