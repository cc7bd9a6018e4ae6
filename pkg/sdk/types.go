package vecscope

import (
	"github.com/kailas-cloud/vecscope/internal/domain"
	"github.com/kailas-cloud/vecscope/internal/domain/instance"
	"github.com/kailas-cloud/vecscope/internal/domain/record"
)

// EngineKind names the database engine behind an instance.
type EngineKind string

// Engine kinds.
const (
	EngineQdrant EngineKind = "qdrant"
	EngineChroma EngineKind = "chromadb"
)

// Instance is a registered database. The API key is never exposed.
type Instance struct {
	Name      string
	URL       string
	Kind      EngineKind
	HasAPIKey bool
	Legacy    bool
}

// CollectionInfo describes one collection.
type CollectionInfo struct {
	Name          string
	VectorSize    int
	Distance      string
	PointsCount   int
	SegmentsCount int
	Status        string
}

// Record is one stored vector entry. Score is nil outside similarity search.
type Record struct {
	ID      string
	Payload map[string]any
	Vector  []float32
	Score   *float64
}

// PageOptions selects a window of records.
type PageOptions struct {
	Offset      int
	Limit       int
	WithVectors bool
	// SkipPayload leaves Record.Payload empty.
	SkipPayload bool
}

// Page returns PageOptions for the window [offset, offset+limit).
func Page(offset, limit int) PageOptions {
	return PageOptions{Offset: offset, Limit: limit}
}

// RecordPage is one window of a collection listing.
type RecordPage struct {
	Records []Record
	Total   int
	Limit   int
	Offset  int
	// Truncated is set when the engine could not enumerate the whole collection.
	Truncated bool
}

// TextSearchResult holds substring matches.
type TextSearchResult struct {
	Records []Record
	// Scanned is the number of records fetched for the scan.
	Scanned   int
	Truncated bool
}

func fromInternalInstance(d instance.Descriptor) Instance {
	return Instance{
		Name:      d.Name(),
		URL:       d.URL(),
		Kind:      EngineKind(d.Kind()),
		HasAPIKey: d.HasCredential(),
		Legacy:    d.Legacy(),
	}
}

func fromInternalCollection(c record.CollectionSummary) CollectionInfo {
	return CollectionInfo{
		Name:          c.Name,
		VectorSize:    c.VectorSize,
		Distance:      c.Distance,
		PointsCount:   c.PointsCount,
		SegmentsCount: c.SegmentsCount,
		Status:        c.Status,
	}
}

func fromInternalRecords(in []record.Record) []Record {
	out := make([]Record, len(in))
	for i, r := range in {
		out[i] = Record{ID: r.ID, Payload: r.Payload, Vector: r.Vector, Score: r.Score}
	}
	return out
}

func (k EngineKind) internal() domain.EngineKind { return domain.EngineKind(k) }
