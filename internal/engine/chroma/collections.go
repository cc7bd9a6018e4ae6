package chroma

import (
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/vecscope/internal/domain"
	"github.com/kailas-cloud/vecscope/internal/domain/record"
)

// Defaults reported in place of collection metadata.
const (
	defaultDistance = "cosine"
	defaultSegments = 1
	defaultStatus   = "green"

	countConcurrency = 8
)

// ListCollections describes every collection, substituting defaults for
// metadata Chroma lacks. Each collection costs one extra count call.
func (c *Conn) ListCollections(ctx context.Context) ([]record.CollectionSummary, error) {
	var cols []collectionModel
	if err := c.do(ctx, "list collections", http.MethodGet, c.dbPath("collections"), nil, &cols); err != nil {
		return nil, err
	}

	out := make([]record.CollectionSummary, len(cols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(countConcurrency)
	for i, col := range cols {
		g.Go(func() error {
			count, err := c.count(gctx, col.ID)
			if err != nil {
				return err
			}
			out[i] = summarize(col, count)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteCollection drops the collection by name.
func (c *Conn) DeleteCollection(ctx context.Context, collection string) error {
	return c.do(ctx, "delete collection", http.MethodDelete, c.dbPath("collections", collection), nil, nil)
}

// collection resolves a name to its model; record operations address collections by id.
func (c *Conn) collection(ctx context.Context, name string) (collectionModel, error) {
	var col collectionModel
	if err := c.do(ctx, "get collection", http.MethodGet, c.dbPath("collections", name), nil, &col); err != nil {
		return collectionModel{}, err
	}
	if col.ID == "" {
		return collectionModel{}, domain.NewBackendError(domain.EngineChroma, "get collection", errMissingID)
	}
	return col, nil
}

func (c *Conn) count(ctx context.Context, id string) (int, error) {
	var n countResponse
	if err := c.do(ctx, "count", http.MethodGet, c.dbPath("collections", id, "count"), nil, &n); err != nil {
		return 0, err
	}
	v, err := n.Int64()
	if err != nil {
		return 0, domain.NewBackendError(domain.EngineChroma, "count", err)
	}
	return int(v), nil
}

// summarize reports fixed defaults for everything but the name and count,
// whatever dimension or space the collection was created with.
func summarize(col collectionModel, count int) record.CollectionSummary {
	return record.CollectionSummary{
		Name:          col.Name,
		Distance:      defaultDistance,
		PointsCount:   count,
		SegmentsCount: defaultSegments,
		Status:        defaultStatus,
	}
}
