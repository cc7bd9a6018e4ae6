package qdrant

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecscope/internal/domain"
	"github.com/kailas-cloud/vecscope/internal/domain/record"
	"github.com/kailas-cloud/vecscope/internal/logger"
	"github.com/kailas-cloud/vecscope/internal/metrics"
)

// ListRecords pages server-side. Total is the collection's points_count.
func (c *Conn) ListRecords(ctx context.Context, collection string, q record.PageQuery) (record.Page, error) {
	info, err := c.collectionInfo(ctx, collection)
	if err != nil {
		return record.Page{}, err
	}

	limit := uint64(q.Limit)
	offset := uint64(q.Offset)
	resp, err := c.points.Query(ctx, &pb.QueryPoints{
		CollectionName: collection,
		Limit:          &limit,
		Offset:         &offset,
		WithPayload:    payloadSelector(q.WithPayload),
		WithVectors:    vectorsSelector(q.WithVector),
	})
	if err != nil {
		return record.Page{}, wrapErr("query points", err)
	}

	records := make([]record.Record, 0, len(resp.GetResult()))
	for _, p := range resp.GetResult() {
		records = append(records, scoredToRecord(p, q.WithVector))
	}
	return record.Page{
		Records: records,
		Total:   int(info.GetPointsCount()),
		Limit:   q.Limit,
		Offset:  q.Offset,
	}, nil
}

// Search runs a similarity query. The score threshold is applied by the server.
func (c *Conn) Search(ctx context.Context, collection string, q record.SearchQuery) (record.SearchResult, error) {
	req := &pb.SearchPoints{
		CollectionName: collection,
		Vector:         q.Vector,
		Limit:          uint64(q.Limit),
		WithPayload:    payloadSelector(true),
	}
	if q.ScoreThreshold != nil {
		threshold := float32(*q.ScoreThreshold)
		req.ScoreThreshold = &threshold
	}

	resp, err := c.points.Search(ctx, req)
	if err != nil {
		return record.SearchResult{}, wrapErr("search points", err)
	}

	records := make([]record.Record, 0, len(resp.GetResult()))
	for _, p := range resp.GetResult() {
		records = append(records, scoredToRecord(p, false).Scored(float64(p.GetScore())))
	}
	return record.SearchResult{Records: records}, nil
}

// TextSearch scans payloads of up to the safety cap of records.
func (c *Conn) TextSearch(ctx context.Context, collection string, q record.TextQuery) (record.TextSearchResult, error) {
	points, err := c.scroll(ctx, collection, true, false)
	if err != nil {
		return record.TextSearchResult{}, err
	}
	records := make([]record.Record, len(points))
	for i, p := range points {
		records[i] = retrievedToRecord(p, false)
	}
	return record.Scan(records, q, c.safetyCap, skipLogger(ctx, collection)), nil
}

// ClearCollection deletes the ids of up to the safety cap of records in one call.
func (c *Conn) ClearCollection(ctx context.Context, collection string) (int, error) {
	points, err := c.scroll(ctx, collection, false, false)
	if err != nil {
		return 0, err
	}
	if len(points) == 0 {
		return 0, nil
	}

	ids := make([]*pb.PointId, len(points))
	for i, p := range points {
		ids[i] = p.GetId()
	}
	if err := c.deletePoints(ctx, collection, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// DeleteRecord deletes one point. Qdrant treats an unknown id as a no-op.
func (c *Conn) DeleteRecord(ctx context.Context, collection, id string) error {
	return c.deletePoints(ctx, collection, []*pb.PointId{parsePointID(id)})
}

// ExportRecords fetches up to the safety cap of records.
func (c *Conn) ExportRecords(ctx context.Context, collection string, withVectors bool) ([]record.Record, error) {
	points, err := c.scroll(ctx, collection, true, withVectors)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("no points found in collection %q: %w", collection, domain.ErrNotFound)
	}
	records := make([]record.Record, len(points))
	for i, p := range points {
		records[i] = retrievedToRecord(p, withVectors)
	}
	return records, nil
}

// scroll is the bulk fetch: one call bounded by the safety cap.
func (c *Conn) scroll(ctx context.Context, collection string, withPayload, withVectors bool) ([]*pb.RetrievedPoint, error) {
	limit := uint32(c.safetyCap)
	resp, err := c.points.Scroll(ctx, &pb.ScrollPoints{
		CollectionName: collection,
		Limit:          &limit,
		WithPayload:    payloadSelector(withPayload),
		WithVectors:    vectorsSelector(withVectors),
	})
	if err != nil {
		return nil, wrapErr("scroll points", err)
	}
	return resp.GetResult(), nil
}

func (c *Conn) deletePoints(ctx context.Context, collection string, ids []*pb.PointId) error {
	wait := true
	_, err := c.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: collection,
		Wait:           &wait,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{Ids: ids},
			},
		},
	})
	if err != nil {
		return wrapErr("delete points", err)
	}
	return nil
}

func skipLogger(ctx context.Context, collection string) func(record.Record, error) {
	log := logger.FromContext(ctx)
	return func(r record.Record, err error) {
		metrics.SkippedRecordsTotal.WithLabelValues("text_search").Inc()
		log.Warn("Skipping record in text search",
			zap.String("engine", domain.EngineQdrant.String()),
			zap.String("collection", collection),
			zap.String("id", r.ID),
			zap.Error(err),
		)
	}
}
