package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the ingestion pipeline
var (
	// ErrInvalidInput indicates the submitted document was rejected before chunking
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyDocument indicates the document has no words
	ErrEmptyDocument = fmt.Errorf("%w: document is empty", ErrInvalidInput)

	// ErrUnsupportedType indicates the document is not a .txt file
	ErrUnsupportedType = fmt.Errorf("%w: only .txt files are allowed", ErrInvalidInput)

	// ErrInvalidEncoding indicates the document is not valid UTF-8 text
	ErrInvalidEncoding = fmt.Errorf("%w: document is not valid utf-8 text", ErrInvalidInput)

	// ErrInvalidChunk indicates a chunk failed validation at the summarizer boundary
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrBackendUnavailable indicates the summarizer could not be reached
	ErrBackendUnavailable = errors.New("summarizer backend unavailable")

	// ErrBackendRejected indicates the summarizer answered with a non-success status
	ErrBackendRejected = errors.New("summarizer backend rejected request")

	// ErrInternal indicates an unexpected failure while processing a chunk
	ErrInternal = errors.New("internal error")
)

// BackendUnavailableError is returned when a chunk could not be delivered to the
// summarizer, including timeouts.
type BackendUnavailableError struct {
	ChunkIndex int
	Err        error
}

func (e *BackendUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("chunk %d: %s", e.ChunkIndex, ErrBackendUnavailable)
	}
	return fmt.Sprintf("chunk %d: %s: %v", e.ChunkIndex, ErrBackendUnavailable, e.Err)
}

func (e *BackendUnavailableError) Unwrap() error { return e.Err }

func (e *BackendUnavailableError) Is(target error) bool { return target == ErrBackendUnavailable }

// BackendRejectedError is returned when the summarizer answered a chunk with a
// non-success status.
type BackendRejectedError struct {
	ChunkIndex int
	Status     int
	Body       string
	Err        error
}

func (e *BackendRejectedError) Error() string {
	return fmt.Sprintf("chunk %d: %s with status %d", e.ChunkIndex, ErrBackendRejected, e.Status)
}

func (e *BackendRejectedError) Unwrap() error { return e.Err }

func (e *BackendRejectedError) Is(target error) bool { return target == ErrBackendRejected }

// InternalError tags an unexpected per-chunk failure with the offending chunk.
type InternalError struct {
	ChunkIndex int
	Cause      error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("unexpected error processing chunk %d: %v", e.ChunkIndex, e.Cause)
}

func (e *InternalError) Unwrap() error { return e.Cause }

func (e *InternalError) Is(target error) bool { return target == ErrInternal }

// HTTPStatus maps an error from the taxonomy to the status class exposed to
// clients.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	// A rejection wrapping ErrInvalidChunk is still the backend's answer.
	case errors.Is(err, ErrBackendRejected):
		return http.StatusBadGateway
	case errors.Is(err, ErrInvalidChunk):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// IsCancellation reports whether err comes from the caller giving up rather
// than from the pipeline.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
