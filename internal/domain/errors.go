package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing instance, collection or record.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateName signals an instance registration conflict.
	ErrDuplicateName = errors.New("instance with this name already exists")
	// ErrConnectionConfig signals a bad URL, an unknown engine kind or a failed connectivity probe.
	ErrConnectionConfig = errors.New("connection config error")
	// ErrBackendOperation signals a native engine failure during a normalized call.
	ErrBackendOperation = errors.New("backend operation failed")
	// ErrInvalidInput signals a malformed request.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingNotConfigured signals a text query without an embedding provider.
	ErrEmbeddingNotConfigured = errors.New("embedding provider not configured")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// BackendError wraps a native engine error with the engine and operation that produced it.
// The original message is kept verbatim for diagnostics.
type BackendError struct {
	Engine EngineKind
	Op     string
	Err    error
	// Missing is set when the engine reported the target as absent.
	Missing bool
}

// NewBackendError creates a BackendError.
func NewBackendError(engine EngineKind, op string, err error) *BackendError {
	return &BackendError{Engine: engine, Op: op, Err: err}
}

// NewMissingError creates a BackendError that also matches ErrNotFound.
func NewMissingError(engine EngineKind, op string, err error) *BackendError {
	return &BackendError{Engine: engine, Op: op, Err: err, Missing: true}
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Engine, e.Op, e.Err.Error())
}

func (e *BackendError) Unwrap() error { return e.Err }

// Is makes every BackendError match ErrBackendOperation, and missing-target
// errors match ErrNotFound as well.
func (e *BackendError) Is(target error) bool {
	return target == ErrBackendOperation || (e.Missing && target == ErrNotFound)
}
