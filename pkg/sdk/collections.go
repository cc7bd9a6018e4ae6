package vecscope

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecscope/internal/domain"
	"github.com/kailas-cloud/vecscope/internal/domain/record"
)

// CollectionService browses the collections of one instance.
type CollectionService struct {
	instance string
	svc      browseUseCase
	obs      *observer
}

// SearchOption configures a similarity search.
type SearchOption func(*searchConfig)

type searchConfig struct {
	threshold *float64
}

// WithScoreThreshold drops hits scoring below min.
func WithScoreThreshold(minScore float64) SearchOption {
	return func(c *searchConfig) { c.threshold = &minScore }
}

func (s *CollectionService) observe(op string, start time.Time, err error, collection string) {
	s.obs.observe(op, start, err, "instance", s.instance, "collection", collection)
}

// List returns every collection on the instance.
func (s *CollectionService) List(ctx context.Context) (_ []CollectionInfo, err error) {
	start := time.Now()
	defer func() { s.observe("collection.list", start, err, "") }()

	cols, err := s.svc.ListCollections(ctx, s.instance)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	out := make([]CollectionInfo, len(cols))
	for i, c := range cols {
		out[i] = fromInternalCollection(c)
	}
	return out, nil
}

// Delete drops a collection.
func (s *CollectionService) Delete(ctx context.Context, collection string) (err error) {
	start := time.Now()
	defer func() { s.observe("collection.delete", start, err, collection) }()

	if err = s.svc.DeleteCollection(ctx, s.instance, collection); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return nil
}

// Records returns one window of a collection.
func (s *CollectionService) Records(ctx context.Context, collection string, opts PageOptions) (_ RecordPage, err error) {
	start := time.Now()
	defer func() { s.observe("collection.records", start, err, collection) }()

	q, err := record.NewPageQuery(opts.Limit, opts.Offset, !opts.SkipPayload, opts.WithVectors)
	if err != nil {
		return RecordPage{}, fmt.Errorf("list records: %w: %w", domain.ErrInvalidInput, err)
	}
	page, err := s.svc.ListRecords(ctx, s.instance, collection, q)
	if err != nil {
		return RecordPage{}, fmt.Errorf("list records: %w", err)
	}
	return RecordPage{
		Records:   fromInternalRecords(page.Records),
		Total:     page.Total,
		Limit:     page.Limit,
		Offset:    page.Offset,
		Truncated: page.Truncated,
	}, nil
}

// Search returns the records nearest to vector, best first.
func (s *CollectionService) Search(
	ctx context.Context, collection string, vector []float32, limit int, opts ...SearchOption,
) (_ []Record, err error) {
	start := time.Now()
	defer func() { s.observe("collection.search", start, err, collection) }()

	return s.search(ctx, collection, vector, "", limit, opts)
}

// SearchText embeds text with the configured Embedder and searches by the
// resulting vector. Fails with ErrEmbeddingNotConfigured without one.
func (s *CollectionService) SearchText(
	ctx context.Context, collection, text string, limit int, opts ...SearchOption,
) (_ []Record, err error) {
	start := time.Now()
	defer func() { s.observe("collection.search_text", start, err, collection) }()

	return s.search(ctx, collection, nil, text, limit, opts)
}

func (s *CollectionService) search(
	ctx context.Context, collection string, vector []float32, text string, limit int, opts []SearchOption,
) ([]Record, error) {
	cfg := &searchConfig{}
	for _, o := range opts {
		o(cfg)
	}

	q, err := record.NewSearchQuery(vector, text, limit, cfg.threshold)
	if err != nil {
		return nil, fmt.Errorf("search: %w: %w", domain.ErrInvalidInput, err)
	}
	res, err := s.svc.Search(ctx, s.instance, collection, q)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return fromInternalRecords(res.Records), nil
}

// FindText returns records with a payload field containing needle.
func (s *CollectionService) FindText(
	ctx context.Context, collection, needle string, limit int, caseSensitive bool,
) (_ TextSearchResult, err error) {
	start := time.Now()
	defer func() { s.observe("collection.find_text", start, err, collection) }()

	q, err := record.NewTextQuery(needle, limit, caseSensitive)
	if err != nil {
		return TextSearchResult{}, fmt.Errorf("text search: %w: %w", domain.ErrInvalidInput, err)
	}
	res, err := s.svc.TextSearch(ctx, s.instance, collection, q)
	if err != nil {
		return TextSearchResult{}, fmt.Errorf("text search: %w", err)
	}
	return TextSearchResult{
		Records:   fromInternalRecords(res.Records),
		Scanned:   res.ScannedCount,
		Truncated: res.Truncated,
	}, nil
}

// Clear deletes the records of a collection, keeping the collection.
// Returns how many records were deleted.
func (s *CollectionService) Clear(ctx context.Context, collection string) (_ int, err error) {
	start := time.Now()
	defer func() { s.observe("collection.clear", start, err, collection) }()

	n, err := s.svc.ClearCollection(ctx, s.instance, collection)
	if err != nil {
		return 0, fmt.Errorf("clear collection: %w", err)
	}
	return n, nil
}

// DeleteRecord deletes one record. Deleting a missing id succeeds.
func (s *CollectionService) DeleteRecord(ctx context.Context, collection, id string) (err error) {
	start := time.Now()
	defer func() { s.observe("collection.delete_record", start, err, collection) }()

	if err = s.svc.DeleteRecord(ctx, s.instance, collection, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// ExportCSV writes the collection to w as CSV and returns the number of
// data rows. Records that cannot be encoded are skipped.
func (s *CollectionService) ExportCSV(
	ctx context.Context, w io.Writer, collection string, withVectors bool,
) (_ int, err error) {
	start := time.Now()
	defer func() { s.observe("collection.export", start, err, collection) }()

	table, err := s.svc.Export(ctx, s.instance, collection, withVectors)
	if err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}
	rows, err := table.WriteCSV(w, zap.NewNop())
	if err != nil {
		return rows, fmt.Errorf("export: %w", err)
	}
	return rows, nil
}
