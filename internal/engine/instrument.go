package engine

import (
	"context"
	"time"

	"github.com/kailas-cloud/vecscope/internal/domain"
	"github.com/kailas-cloud/vecscope/internal/domain/record"
	"github.com/kailas-cloud/vecscope/internal/metrics"
)

// Operation names used as metric labels.
const (
	OpProbe            = "probe"
	OpListCollections  = "list_collections"
	OpListRecords      = "list_records"
	OpSearch           = "search"
	OpTextSearch       = "text_search"
	OpClearCollection  = "clear_collection"
	OpDeleteRecord     = "delete_record"
	OpDeleteCollection = "delete_collection"
	OpExport           = "export"
)

// instrumented records per-operation metrics and applies the operation timeout.
type instrumented struct {
	inner   Conn
	engine  string
	timeout time.Duration
}

// Instrument wraps c with metrics and, when timeout > 0, a per-operation deadline.
func Instrument(c Conn, timeout time.Duration) Conn {
	return &instrumented{inner: c, engine: c.Kind().String(), timeout: timeout}
}

func (i *instrumented) begin(ctx context.Context) (context.Context, context.CancelFunc, time.Time) {
	if i.timeout > 0 {
		ctx, cancel := context.WithTimeout(ctx, i.timeout)
		return ctx, cancel, time.Now()
	}
	return ctx, func() {}, time.Now()
}

func (i *instrumented) observe(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.BackendOperationDuration.WithLabelValues(i.engine, op).Observe(time.Since(start).Seconds())
	metrics.BackendOperationsTotal.WithLabelValues(i.engine, op, status).Inc()
}

func (i *instrumented) fetched(op string, n int) {
	metrics.BackendRecordsFetched.WithLabelValues(i.engine, op).Add(float64(n))
}

func (i *instrumented) Kind() domain.EngineKind { return i.inner.Kind() }

func (i *instrumented) Probe(ctx context.Context) error {
	ctx, cancel, start := i.begin(ctx)
	defer cancel()
	err := i.inner.Probe(ctx)
	i.observe(OpProbe, start, err)
	return err
}

func (i *instrumented) ListCollections(ctx context.Context) ([]record.CollectionSummary, error) {
	ctx, cancel, start := i.begin(ctx)
	defer cancel()
	out, err := i.inner.ListCollections(ctx)
	i.observe(OpListCollections, start, err)
	return out, err
}

func (i *instrumented) ListRecords(ctx context.Context, collection string, q record.PageQuery) (record.Page, error) {
	ctx, cancel, start := i.begin(ctx)
	defer cancel()
	page, err := i.inner.ListRecords(ctx, collection, q)
	i.observe(OpListRecords, start, err)
	return page, err
}

func (i *instrumented) Search(ctx context.Context, collection string, q record.SearchQuery) (record.SearchResult, error) {
	ctx, cancel, start := i.begin(ctx)
	defer cancel()
	res, err := i.inner.Search(ctx, collection, q)
	i.observe(OpSearch, start, err)
	return res, err
}

func (i *instrumented) TextSearch(ctx context.Context, collection string, q record.TextQuery) (record.TextSearchResult, error) {
	ctx, cancel, start := i.begin(ctx)
	defer cancel()
	res, err := i.inner.TextSearch(ctx, collection, q)
	i.observe(OpTextSearch, start, err)
	if err == nil {
		i.fetched(OpTextSearch, res.ScannedCount)
	}
	return res, err
}

func (i *instrumented) ClearCollection(ctx context.Context, collection string) (int, error) {
	ctx, cancel, start := i.begin(ctx)
	defer cancel()
	n, err := i.inner.ClearCollection(ctx, collection)
	i.observe(OpClearCollection, start, err)
	if err == nil {
		i.fetched(OpClearCollection, n)
	}
	return n, err
}

func (i *instrumented) DeleteRecord(ctx context.Context, collection, id string) error {
	ctx, cancel, start := i.begin(ctx)
	defer cancel()
	err := i.inner.DeleteRecord(ctx, collection, id)
	i.observe(OpDeleteRecord, start, err)
	return err
}

func (i *instrumented) DeleteCollection(ctx context.Context, collection string) error {
	ctx, cancel, start := i.begin(ctx)
	defer cancel()
	err := i.inner.DeleteCollection(ctx, collection)
	i.observe(OpDeleteCollection, start, err)
	return err
}

func (i *instrumented) ExportRecords(ctx context.Context, collection string, withVectors bool) ([]record.Record, error) {
	ctx, cancel, start := i.begin(ctx)
	defer cancel()
	out, err := i.inner.ExportRecords(ctx, collection, withVectors)
	i.observe(OpExport, start, err)
	if err == nil {
		i.fetched(OpExport, len(out))
	}
	return out, err
}

func (i *instrumented) Close() error { return i.inner.Close() }
