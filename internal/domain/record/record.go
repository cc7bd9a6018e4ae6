package record

import "fmt"

// Record is one stored vector entry, normalized across engines.
// ID is always rendered as a string whatever the native id type is.
type Record struct {
	ID      string
	Payload map[string]any
	// Vector is set only when explicitly requested.
	Vector []float32
	// Score is set only by similarity search, higher is more similar.
	Score *float64
}

// New creates a record, replacing a nil payload with an empty one.
func New(id string, payload map[string]any, vector []float32) Record {
	if payload == nil {
		payload = map[string]any{}
	}
	return Record{ID: id, Payload: payload, Vector: vector}
}

// Scored returns a copy of r carrying a similarity score.
func (r Record) Scored(score float64) Record {
	r.Score = &score
	return r
}

// HasScore reports whether the record came from a similarity search.
func (r Record) HasScore() bool { return r.Score != nil }

// CollectionSummary describes one collection. Recomputed on every query.
type CollectionSummary struct {
	Name string
	// VectorSize is 0 when the engine cannot report it.
	VectorSize  int
	Distance    string
	PointsCount int
	// SegmentsCount is 1 for engines without a segment concept.
	SegmentsCount int
	Status        string
}

// PageQuery selects a window of records.
type PageQuery struct {
	Limit       int
	Offset      int
	WithPayload bool
	WithVector  bool
}

// NewPageQuery validates a listing window.
func NewPageQuery(limit, offset int, withPayload, withVector bool) (PageQuery, error) {
	if limit <= 0 {
		return PageQuery{}, fmt.Errorf("limit must be positive, got %d", limit)
	}
	if offset < 0 {
		return PageQuery{}, fmt.Errorf("offset must not be negative, got %d", offset)
	}
	return PageQuery{Limit: limit, Offset: offset, WithPayload: withPayload, WithVector: withVector}, nil
}

// Page is one window of a collection listing.
type Page struct {
	Records []Record
	// Total is the engine-reported collection size, not len(Records).
	Total  int
	Limit  int
	Offset int
	// Truncated is set when Total exceeds what the listing path can enumerate.
	Truncated bool
}

// Window returns the [start, end) bounds of a page over n locally held records.
func Window(n, offset, limit int) (start, end int) {
	start = min(offset, n)
	end = min(start+limit, n)
	return start, end
}

// SearchQuery is a vector similarity query. Either Vector or Text is set;
// Text is embedded before the engine is called.
type SearchQuery struct {
	Vector         []float32
	Text           string
	Limit          int
	ScoreThreshold *float64
}

// NewSearchQuery validates a similarity query.
func NewSearchQuery(vector []float32, text string, limit int, threshold *float64) (SearchQuery, error) {
	if len(vector) == 0 && text == "" {
		return SearchQuery{}, fmt.Errorf("query_vector or query_text is required")
	}
	if len(vector) > 0 && text != "" {
		return SearchQuery{}, fmt.Errorf("query_vector and query_text are mutually exclusive")
	}
	if limit <= 0 {
		return SearchQuery{}, fmt.Errorf("limit must be positive, got %d", limit)
	}
	return SearchQuery{Vector: vector, Text: text, Limit: limit, ScoreThreshold: threshold}, nil
}

// SearchResult holds records ordered by non-increasing Score.
type SearchResult struct {
	Records []Record
}

// AboveThreshold drops records scoring below threshold, preserving order.
func AboveThreshold(records []Record, threshold *float64) []Record {
	if threshold == nil {
		return records
	}
	out := records[:0]
	for _, r := range records {
		if r.Score != nil && *r.Score >= *threshold {
			out = append(out, r)
		}
	}
	return out
}
