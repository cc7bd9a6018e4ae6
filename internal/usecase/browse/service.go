// Package browse dispatches normalized read and delete operations to the
// engine adapter serving a named instance.
package browse

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/vecscope/internal/domain"
	"github.com/kailas-cloud/vecscope/internal/domain/record"
	"github.com/kailas-cloud/vecscope/internal/engine"
	"github.com/kailas-cloud/vecscope/internal/export"
)

// Service runs one operation per call against a freshly built connection.
type Service struct {
	resolver  Resolver
	connector Connector
	embed     Embedder
}

// New creates a browse service. embed may be nil when no embedding provider
// is configured; text queries then fail with domain.ErrEmbeddingNotConfigured.
func New(resolver Resolver, connector Connector, embed Embedder) *Service {
	return &Service{resolver: resolver, connector: connector, embed: embed}
}

// ListCollections returns summaries of every collection on the instance.
func (s *Service) ListCollections(ctx context.Context, inst string) ([]record.CollectionSummary, error) {
	var out []record.CollectionSummary
	err := s.with(ctx, inst, func(c engine.Conn) error {
		var err error
		out, err = c.ListCollections(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return out, nil
}

// DeleteCollection drops a collection.
func (s *Service) DeleteCollection(ctx context.Context, inst, collection string) error {
	err := s.with(ctx, inst, func(c engine.Conn) error {
		return c.DeleteCollection(ctx, collection)
	})
	if err != nil {
		return fmt.Errorf("delete collection %q: %w", collection, err)
	}
	return nil
}

// ListRecords returns one page of a collection.
func (s *Service) ListRecords(ctx context.Context, inst, collection string, q record.PageQuery) (record.Page, error) {
	var page record.Page
	err := s.with(ctx, inst, func(c engine.Conn) error {
		var err error
		page, err = c.ListRecords(ctx, collection, q)
		return err
	})
	if err != nil {
		return record.Page{}, fmt.Errorf("list records: %w", err)
	}
	return page, nil
}

// Search runs a similarity query. A text query is embedded first.
func (s *Service) Search(ctx context.Context, inst, collection string, q record.SearchQuery) (record.SearchResult, error) {
	if q.Text != "" {
		vec, err := s.embedQuery(ctx, q.Text)
		if err != nil {
			return record.SearchResult{}, err
		}
		q.Vector, q.Text = vec, ""
	}

	var res record.SearchResult
	err := s.with(ctx, inst, func(c engine.Conn) error {
		var err error
		res, err = c.Search(ctx, collection, q)
		return err
	})
	if err != nil {
		return record.SearchResult{}, fmt.Errorf("search: %w", err)
	}
	return res, nil
}

// TextSearch runs a substring scan over record payloads.
func (s *Service) TextSearch(ctx context.Context, inst, collection string, q record.TextQuery) (record.TextSearchResult, error) {
	var res record.TextSearchResult
	err := s.with(ctx, inst, func(c engine.Conn) error {
		var err error
		res, err = c.TextSearch(ctx, collection, q)
		return err
	})
	if err != nil {
		return record.TextSearchResult{}, fmt.Errorf("text search: %w", err)
	}
	return res, nil
}

// ClearCollection deletes the records of a collection and returns how many were removed.
func (s *Service) ClearCollection(ctx context.Context, inst, collection string) (int, error) {
	var n int
	err := s.with(ctx, inst, func(c engine.Conn) error {
		var err error
		n, err = c.ClearCollection(ctx, collection)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("clear collection %q: %w", collection, err)
	}
	return n, nil
}

// DeleteRecord deletes one record. A missing id is not an error.
func (s *Service) DeleteRecord(ctx context.Context, inst, collection, id string) error {
	if id == "" {
		return fmt.Errorf("delete record: %w: id is required", domain.ErrInvalidInput)
	}
	err := s.with(ctx, inst, func(c engine.Conn) error {
		return c.DeleteRecord(ctx, collection, id)
	})
	if err != nil {
		return fmt.Errorf("delete record %q: %w", id, err)
	}
	return nil
}

// Export fetches a collection for rendering.
func (s *Service) Export(ctx context.Context, inst, collection string, withVectors bool) (export.Table, error) {
	var records []record.Record
	err := s.with(ctx, inst, func(c engine.Conn) error {
		var err error
		records, err = c.ExportRecords(ctx, collection, withVectors)
		return err
	})
	if err != nil {
		return export.Table{}, fmt.Errorf("export %q: %w", collection, err)
	}
	return export.Table{Collection: collection, WithVectors: withVectors, Records: records}, nil
}

// with resolves inst, connects and runs fn. The connection is closed afterwards.
func (s *Service) with(ctx context.Context, inst string, fn func(engine.Conn) error) error {
	d, err := s.resolver.Resolve(ctx, inst)
	if err != nil {
		return err
	}
	conn, err := s.connector.Connect(d)
	if err != nil {
		return fmt.Errorf("connect %q: %w", inst, err)
	}
	defer func() { _ = conn.Close() }()

	return fn(conn)
}

func (s *Service) embedQuery(ctx context.Context, text string) ([]float32, error) {
	if s.embed == nil {
		return nil, domain.ErrEmbeddingNotConfigured
	}
	res, err := s.embed.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingProviderError) {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		return nil, fmt.Errorf("embed query: %w: %w", domain.ErrEmbeddingProviderError, err)
	}
	if len(res.Embedding) == 0 {
		return nil, fmt.Errorf("embed query: %w: empty embedding", domain.ErrEmbeddingProviderError)
	}
	domain.UsageFrom(ctx).Add(res.TotalTokens)
	return res.Embedding, nil
}
