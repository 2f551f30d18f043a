package search

import "fmt"

// DocumentMissingError is returned by Update and Delete when the target
// document does not exist. The orchestrator distinguishes it from other
// failures so it can fall back to the create path mid-flight.
type DocumentMissingError struct {
	ID string
}

func (e *DocumentMissingError) Error() string {
	return fmt.Sprintf("document %s missing from index", e.ID)
}

// VersionConflictError is returned by Index and Update when the store
// rejects a write because the document version moved underneath it.
type VersionConflictError struct {
	ID string
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict on document %s", e.ID)
}

// RequestError covers every other non-2xx answer from the index.
type RequestError struct {
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("index request failed with status %d: %s", e.StatusCode, e.Body)
}
