package chroma

import (
	"context"
	"fmt"
	"maps"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecscope/internal/domain"
	"github.com/kailas-cloud/vecscope/internal/domain/record"
	"github.com/kailas-cloud/vecscope/internal/logger"
	"github.com/kailas-cloud/vecscope/internal/metrics"
)

// ListRecords has no server-side paging to lean on: it fetches up to the
// safety cap and slices locally. Total comes from a separate count call;
// Truncated is set when the collection is larger than the cap.
func (c *Conn) ListRecords(ctx context.Context, collection string, q record.PageQuery) (record.Page, error) {
	col, err := c.collection(ctx, collection)
	if err != nil {
		return record.Page{}, err
	}
	total, err := c.count(ctx, col.ID)
	if err != nil {
		return record.Page{}, err
	}

	include := make([]string, 0, 3)
	if q.WithPayload {
		include = append(include, includeMetadatas, includeDocuments)
	}
	if q.WithVector {
		include = append(include, includeEmbeddings)
	}
	res, err := c.fetch(ctx, col.ID, include)
	if err != nil {
		return record.Page{}, err
	}

	start, end := record.Window(len(res.IDs), q.Offset, q.Limit)
	records := make([]record.Record, 0, end-start)
	for i := start; i < end; i++ {
		records = append(records, res.record(i, q.WithVector))
	}
	return record.Page{
		Records:   records,
		Total:     total,
		Limit:     q.Limit,
		Offset:    q.Offset,
		Truncated: total > c.safetyCap,
	}, nil
}

// Search converts distances to similarity (1 - distance) and applies the
// score threshold locally: Chroma has no server-side equivalent.
func (c *Conn) Search(ctx context.Context, collection string, q record.SearchQuery) (record.SearchResult, error) {
	col, err := c.collection(ctx, collection)
	if err != nil {
		return record.SearchResult{}, err
	}

	var res queryResponse
	req := queryRequest{
		QueryEmbeddings: [][]float32{q.Vector},
		NResults:        q.Limit,
		Include:         []string{includeMetadatas, includeDocuments, includeDistances},
	}
	if err := c.do(ctx, "query", http.MethodPost, c.dbPath("collections", col.ID, "query"), req, &res); err != nil {
		return record.SearchResult{}, err
	}

	records := make([]record.Record, 0)
	if len(res.IDs) > 0 {
		for i, id := range res.IDs[0] {
			distance, ok := distanceAt(res.Distances, i)
			if !ok {
				continue
			}
			payload := payloadAt(firstRow(res.Metadatas), i)
			mergeDocument(payload, firstRow(res.Documents), i)
			records = append(records, record.New(id, payload, nil).Scored(1-distance))
		}
	}
	return record.SearchResult{Records: record.AboveThreshold(records, q.ScoreThreshold)}, nil
}

// TextSearch scans metadata and document text of up to the safety cap of records.
func (c *Conn) TextSearch(ctx context.Context, collection string, q record.TextQuery) (record.TextSearchResult, error) {
	col, err := c.collection(ctx, collection)
	if err != nil {
		return record.TextSearchResult{}, err
	}
	res, err := c.fetch(ctx, col.ID, []string{includeMetadatas, includeDocuments})
	if err != nil {
		return record.TextSearchResult{}, err
	}

	records := make([]record.Record, len(res.IDs))
	for i := range res.IDs {
		records[i] = res.record(i, false)
	}

	log := logger.FromContext(ctx)
	skip := func(r record.Record, err error) {
		metrics.SkippedRecordsTotal.WithLabelValues("text_search").Inc()
		log.Warn("Skipping record in text search",
			zap.String("engine", domain.EngineChroma.String()),
			zap.String("collection", collection),
			zap.String("id", r.ID),
			zap.Error(err),
		)
	}
	return record.Scan(records, q, c.safetyCap, skip), nil
}

// ClearCollection fetches ids only and deletes them in one call.
func (c *Conn) ClearCollection(ctx context.Context, collection string) (int, error) {
	col, err := c.collection(ctx, collection)
	if err != nil {
		return 0, err
	}
	res, err := c.fetch(ctx, col.ID, []string{})
	if err != nil {
		return 0, err
	}
	if len(res.IDs) == 0 {
		return 0, nil
	}
	if err := c.deleteIDs(ctx, col.ID, res.IDs); err != nil {
		return 0, err
	}
	return len(res.IDs), nil
}

// DeleteRecord deletes one record. Chroma ignores unknown ids.
func (c *Conn) DeleteRecord(ctx context.Context, collection, id string) error {
	col, err := c.collection(ctx, collection)
	if err != nil {
		return err
	}
	return c.deleteIDs(ctx, col.ID, []string{id})
}

// ExportRecords fetches up to the safety cap of records with document text
// folded into the payload.
func (c *Conn) ExportRecords(ctx context.Context, collection string, withVectors bool) ([]record.Record, error) {
	col, err := c.collection(ctx, collection)
	if err != nil {
		return nil, err
	}
	include := []string{includeMetadatas, includeDocuments}
	if withVectors {
		include = append(include, includeEmbeddings)
	}
	res, err := c.fetch(ctx, col.ID, include)
	if err != nil {
		return nil, err
	}
	if len(res.IDs) == 0 {
		return nil, fmt.Errorf("no points found in collection %q: %w", collection, domain.ErrNotFound)
	}

	records := make([]record.Record, len(res.IDs))
	for i := range res.IDs {
		records[i] = res.record(i, withVectors)
	}
	return records, nil
}

// fetch is the bulk get, bounded by the safety cap.
func (c *Conn) fetch(ctx context.Context, id string, include []string) (getResponse, error) {
	var res getResponse
	req := getRequest{Limit: c.safetyCap, Include: include}
	if err := c.do(ctx, "get", http.MethodPost, c.dbPath("collections", id, "get"), req, &res); err != nil {
		return getResponse{}, err
	}
	return res, nil
}

func (c *Conn) deleteIDs(ctx context.Context, id string, ids []string) error {
	return c.do(ctx, "delete records", http.MethodPost, c.dbPath("collections", id, "delete"), deleteRequest{IDs: ids}, nil)
}

// record normalizes row i. Metadata is copied so the document merge never
// aliases the decoded response.
func (r getResponse) record(i int, withVector bool) record.Record {
	payload := payloadAt(r.Metadatas, i)
	mergeDocument(payload, r.Documents, i)
	rec := record.New(r.IDs[i], payload, nil)
	if withVector && i < len(r.Embeddings) {
		rec.Vector = r.Embeddings[i]
	}
	return rec
}

func payloadAt(metadatas []map[string]any, i int) map[string]any {
	payload := map[string]any{}
	if i < len(metadatas) {
		maps.Copy(payload, metadatas[i])
	}
	return payload
}

// mergeDocument folds separately stored document text into the payload.
func mergeDocument(payload map[string]any, documents []*string, i int) {
	if i < len(documents) && documents[i] != nil {
		payload[record.DocumentKey] = *documents[i]
	}
}

// distanceAt reports false for a missing or null distance; such rows are
// dropped from search results rather than ranked.
func distanceAt(distances [][]*float64, i int) (float64, bool) {
	if len(distances) == 0 || i >= len(distances[0]) || distances[0][i] == nil {
		return 0, false
	}
	return *distances[0][i], true
}

func firstRow[T any](rows [][]T) []T {
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}
