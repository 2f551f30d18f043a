package apperrors

import (
	"errors"
	"fmt"
)

// NotFound marks a record or document that does not exist. Recoverable: the
// orchestrator reacts by taking the create path instead of failing.
type NotFound struct {
	Kind string // "user", "document", ...
	ID   string
}

func (e *NotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// UpstreamUnavailable marks a collaborator that timed out, refused the
// connection, or answered with an unexpected status. The fragment it was
// fetching degrades to empty; the sync continues.
type UpstreamUnavailable struct {
	Service string
	Cause   error
}

func (e *UpstreamUnavailable) Error() string {
	return fmt.Sprintf("upstream %s unavailable: %v", e.Service, e.Cause)
}

func (e *UpstreamUnavailable) Unwrap() error { return e.Cause }

// ValidationError marks malformed caller input, rejected before any fetch.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ConflictError marks an optimistic-concurrency version mismatch on an index
// update. The orchestrator retries a bounded number of times before
// surfacing it.
type ConflictError struct {
	DocumentID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict updating document %s", e.DocumentID)
}

// ConfigurationError marks a missing or unusable piece of startup
// configuration. Fatal: initialization halts.
type ConfigurationError struct {
	Key     string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s: %s", e.Key, e.Message)
}

// IsNotFound reports whether err is (or wraps) a NotFound.
func IsNotFound(err error) bool {
	var nf *NotFound
	return errors.As(err, &nf)
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsUpstreamUnavailable reports whether err is (or wraps) an
// UpstreamUnavailable.
func IsUpstreamUnavailable(err error) bool {
	var ue *UpstreamUnavailable
	return errors.As(err, &ue)
}
