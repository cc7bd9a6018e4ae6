package chi

import (
	"github.com/kailas-cloud/vecscope/internal/domain/instance"
	"github.com/kailas-cloud/vecscope/internal/domain/record"
)

// ErrorCode classifies an error response.
type ErrorCode string

const (
	ErrorCodeBadRequest             ErrorCode = "bad_request"
	ErrorCodeValidationFailed       ErrorCode = "validation_failed"
	ErrorCodeUnauthorized           ErrorCode = "unauthorized"
	ErrorCodeNotFound               ErrorCode = "not_found"
	ErrorCodeDuplicateName          ErrorCode = "duplicate_name"
	ErrorCodeConnectionFailed       ErrorCode = "connection_failed"
	ErrorCodeEmbeddingNotConfigured ErrorCode = "embedding_not_configured"
	ErrorCodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	ErrorCodeBackendError           ErrorCode = "backend_error"
	ErrorCodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// MessageResponse acknowledges a mutation.
type MessageResponse struct {
	Message string `json:"message"`
	Name    string `json:"name,omitempty"`
}

// RootResponse is returned by GET /.
type RootResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// InstanceRequest registers an instance.
type InstanceRequest struct {
	Name   string  `json:"name"`
	URL    string  `json:"url"`
	APIKey *string `json:"api_key"`
	Type   string  `json:"type"`
}

// ConfigRequest registers a legacy qdrant configuration.
type ConfigRequest struct {
	Name   string  `json:"name"`
	URL    string  `json:"url"`
	APIKey *string `json:"api_key"`
}

// Instance describes a stored instance. The credential itself is never returned.
type Instance struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	Type      string `json:"type"`
	HasAPIKey bool   `json:"has_api_key"`
	Legacy    bool   `json:"legacy,omitempty"`
}

// InstanceList is returned by GET /instances.
type InstanceList struct {
	Instances []Instance `json:"instances"`
}

// ConfigList is returned by GET /configs.
type ConfigList struct {
	Configs []string `json:"configs"`
}

// Config is returned by GET /configs/{name}.
type Config struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	HasAPIKey bool   `json:"has_api_key"`
}

// CollectionInfo describes one collection.
type CollectionInfo struct {
	Name          string `json:"name"`
	VectorSize    int    `json:"vector_size"`
	Distance      string `json:"distance"`
	PointsCount   int    `json:"points_count"`
	SegmentsCount int    `json:"segments_count"`
	Status        string `json:"status"`
}

// CollectionList is returned by GET /collections/{instance}.
type CollectionList struct {
	Collections []CollectionInfo `json:"collections"`
}

// PointInfo is one record. Vector and score are null unless requested or searched.
type PointInfo struct {
	ID      string         `json:"id"`
	Payload map[string]any `json:"payload"`
	Vector  []float32      `json:"vector"`
	Score   *float64       `json:"score"`
}

// PointsParams are the query parameters of GET /points/{instance}/{collection}.
type PointsParams struct {
	Limit       *int  `form:"limit" json:"limit,omitempty"`
	Offset      *int  `form:"offset" json:"offset,omitempty"`
	WithPayload *bool `form:"with_payload" json:"with_payload,omitempty"`
	WithVector  *bool `form:"with_vector" json:"with_vector,omitempty"`
}

// PointsResponse is one page of records.
type PointsResponse struct {
	Points    []PointInfo `json:"points"`
	Total     int         `json:"total"`
	Limit     int         `json:"limit"`
	Offset    int         `json:"offset"`
	Truncated bool        `json:"truncated"`
}

// ClearResponse is returned by DELETE /points/{instance}/{collection}.
type ClearResponse struct {
	Message string `json:"message"`
	Cleared int    `json:"cleared"`
}

// SearchRequest is a similarity query. Exactly one of QueryVector and
// QueryText must be set.
type SearchRequest struct {
	CollectionName string    `json:"collection_name"`
	QueryVector    []float32 `json:"query_vector"`
	QueryText      string    `json:"query_text"`
	Limit          *int      `json:"limit"`
	ScoreThreshold *float64  `json:"score_threshold"`
}

// SearchResponse holds records ordered by descending score.
type SearchResponse struct {
	Results []PointInfo `json:"results"`
}

// TextSearchRequest is a substring query over payload fields.
type TextSearchRequest struct {
	CollectionName string `json:"collection_name"`
	SearchText     string `json:"search_text"`
	Limit          *int   `json:"limit"`
	CaseSensitive  bool   `json:"case_sensitive"`
}

// TextSearchResponse reports matches and how many records were scanned.
type TextSearchResponse struct {
	Results       []PointInfo `json:"results"`
	Total         int         `json:"total"`
	SearchedTotal int         `json:"searched_total"`
	Truncated     bool        `json:"truncated"`
}

// ExportParams are the query parameters of GET /export/{instance}/{collection}.
type ExportParams struct {
	WithVectors *bool `form:"with_vectors" json:"with_vectors,omitempty"`
}

func instanceToAPI(d instance.Descriptor) Instance {
	return Instance{
		Name:      d.Name(),
		URL:       d.URL(),
		Type:      d.Kind().String(),
		HasAPIKey: d.HasCredential(),
		Legacy:    d.Legacy(),
	}
}

func collectionToAPI(c record.CollectionSummary) CollectionInfo {
	return CollectionInfo{
		Name:          c.Name,
		VectorSize:    c.VectorSize,
		Distance:      c.Distance,
		PointsCount:   c.PointsCount,
		SegmentsCount: c.SegmentsCount,
		Status:        c.Status,
	}
}

func pointsToAPI(records []record.Record) []PointInfo {
	out := make([]PointInfo, len(records))
	for i, r := range records {
		payload := r.Payload
		if payload == nil {
			payload = map[string]any{}
		}
		out[i] = PointInfo{ID: r.ID, Payload: payload, Vector: r.Vector, Score: r.Score}
	}
	return out
}

func deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
