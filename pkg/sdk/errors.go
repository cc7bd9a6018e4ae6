package vecscope

import "github.com/kailas-cloud/vecscope/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound               = domain.ErrNotFound
	ErrDuplicateName          = domain.ErrDuplicateName
	ErrConnectionConfig       = domain.ErrConnectionConfig
	ErrBackendOperation       = domain.ErrBackendOperation
	ErrInvalidInput           = domain.ErrInvalidInput
	ErrEmbeddingNotConfigured = domain.ErrEmbeddingNotConfigured
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
)
