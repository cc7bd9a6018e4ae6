package chroma

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/kailas-cloud/vecscope/internal/domain"
	"github.com/kailas-cloud/vecscope/internal/domain/record"
)

const basePath = "/api/v2/tenants/default_tenant/databases/default_database"

// fakeServer is a minimal Chroma v2 API. Handlers are keyed by "METHOD path".
type fakeServer struct {
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	calls    map[string]int
	bodies   map[string][]byte
	auth     []string
}

func newFakeServer(t *testing.T) (*fakeServer, *Conn) {
	t.Helper()
	fs := &fakeServer{
		handlers: map[string]http.HandlerFunc{},
		calls:    map[string]int{},
		bodies:   map[string][]byte{},
	}
	srv := httptest.NewServer(http.HandlerFunc(fs.serve))
	t.Cleanup(srv.Close)

	c, err := New(Config{URL: srv.URL, APIKey: "tok"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return fs, c
}

func (fs *fakeServer) serve(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	body, _ := io.ReadAll(r.Body)

	fs.mu.Lock()
	fs.calls[key]++
	fs.bodies[key] = body
	fs.auth = append(fs.auth, r.Header.Get("Authorization"))
	h := fs.handlers[key]
	fs.mu.Unlock()

	if h == nil {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"NotFoundError","message":"no route ` + key + `"}`))
		return
	}
	h(w, r)
}

func (fs *fakeServer) on(method, path string, status int, body string) {
	fs.handlers[method+" "+path] = func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

// withDocs registers collection "docs" (id c1) with the given get response and count.
func (fs *fakeServer) withDocs(getBody string, count int) {
	fs.on(http.MethodGet, basePath+"/collections/docs", 200, `{"id":"c1","name":"docs","metadata":null,"dimension":3}`)
	fs.on(http.MethodGet, basePath+"/collections/c1/count", 200, itoa(count))
	fs.on(http.MethodPost, basePath+"/collections/c1/get", 200, getBody)
}

func itoa(n int) string {
	data, _ := json.Marshal(n)
	return string(data)
}

const threeDocs = `{
	"ids": ["1","2","3"],
	"metadatas": [{"title":"Alpha"},{"tag":"x"},null],
	"documents": [null, null, "gamma text"],
	"embeddings": [[0.1,0.2,0.3],[0.4,0.5,0.6],[0.7,0.8,0.9]]
}`

func TestBaseURL(t *testing.T) {
	tests := []struct{ in, want string }{
		{"http://chroma:8000", "http://chroma:8000"},
		{"http://chroma", "http://chroma:8000"},
		{"https://chroma.example.com:443/some/path", "https://chroma.example.com:443"},
		{"http://:9000", "http://localhost:9000"},
	}
	for _, tc := range tests {
		got, err := BaseURL(tc.in, 0)
		if err != nil {
			t.Fatalf("BaseURL(%s): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("BaseURL(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
	if _, err := BaseURL("grpc://chroma", 0); !errors.Is(err, domain.ErrConnectionConfig) {
		t.Errorf("expected ErrConnectionConfig, got %v", err)
	}
}

func TestProbe(t *testing.T) {
	fs, c := newFakeServer(t)
	fs.on(http.MethodGet, "/api/v2/heartbeat", 200, `{"nanosecond heartbeat": 1717000000000}`)

	if err := c.Probe(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fs.auth[0] != "Bearer tok" {
		t.Errorf("Authorization = %q", fs.auth[0])
	}
}

func TestListCollections_Empty(t *testing.T) {
	fs, c := newFakeServer(t)
	fs.on(http.MethodGet, basePath+"/collections", 200, `[]`)

	got, err := c.ListCollections(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestListCollections_Defaults(t *testing.T) {
	fs, c := newFakeServer(t)
	fs.on(http.MethodGet, basePath+"/collections", 200, `[
		{"id":"c1","name":"plain","metadata":null,"dimension":null},
		{"id":"c2","name":"l2","metadata":{"hnsw:space":"l2"},"dimension":384},
		{"id":"c3","name":"ip","metadata":null,"configuration_json":{"hnsw":{"space":"ip"}}}
	]`)
	fs.on(http.MethodGet, basePath+"/collections/c1/count", 200, `5`)
	fs.on(http.MethodGet, basePath+"/collections/c2/count", 200, `0`)
	fs.on(http.MethodGet, basePath+"/collections/c3/count", 200, `7`)

	got, err := c.ListCollections(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []record.CollectionSummary{
		{Name: "plain", VectorSize: 0, Distance: "cosine", PointsCount: 5, SegmentsCount: 1, Status: "green"},
		{Name: "l2", VectorSize: 0, Distance: "cosine", PointsCount: 0, SegmentsCount: 1, Status: "green"},
		{Name: "ip", VectorSize: 0, Distance: "cosine", PointsCount: 7, SegmentsCount: 1, Status: "green"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d collections, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("collection %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestListRecords_LocalSlice(t *testing.T) {
	fs, c := newFakeServer(t)
	fs.withDocs(threeDocs, 3)

	q, _ := record.NewPageQuery(2, 1, true, true)
	page, err := c.ListRecords(context.Background(), "docs", q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 3 || page.Truncated {
		t.Errorf("Total = %d, Truncated = %v", page.Total, page.Truncated)
	}
	if len(page.Records) != 2 || page.Records[0].ID != "2" || page.Records[1].ID != "3" {
		t.Fatalf("unexpected records: %+v", page.Records)
	}
	if page.Records[1].Payload[record.DocumentKey] != "gamma text" {
		t.Errorf("document not merged: %+v", page.Records[1].Payload)
	}
	if len(page.Records[0].Vector) != 3 {
		t.Errorf("vector missing: %+v", page.Records[0])
	}
	if fs.calls["GET "+basePath+"/collections/c1/count"] != 1 {
		t.Error("count call must be issued")
	}

	var sent getRequest
	_ = json.Unmarshal(fs.bodies["POST "+basePath+"/collections/c1/get"], &sent)
	if sent.Limit != 10000 || strings.Join(sent.Include, ",") != "metadatas,documents,embeddings" {
		t.Errorf("unexpected get request: %+v", sent)
	}
}

func TestListRecords_OffsetPastEnd(t *testing.T) {
	fs, c := newFakeServer(t)
	fs.withDocs(threeDocs, 3)

	q, _ := record.NewPageQuery(10, 50, true, false)
	page, err := c.ListRecords(context.Background(), "docs", q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Records) != 0 || page.Total != 3 {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestListRecords_TruncatedAboveCap(t *testing.T) {
	fs, c := newFakeServer(t)
	fs.withDocs(threeDocs, 25000)

	q, _ := record.NewPageQuery(10, 0, false, false)
	page, err := c.ListRecords(context.Background(), "docs", q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !page.Truncated || page.Total != 25000 {
		t.Errorf("Total = %d, Truncated = %v", page.Total, page.Truncated)
	}
}

func TestListRecords_CollectionMissing(t *testing.T) {
	fs, c := newFakeServer(t)
	fs.on(http.MethodGet, basePath+"/collections/nope", 404,
		`{"error":"NotFoundError","message":"Collection [nope] does not exist"}`)

	q, _ := record.NewPageQuery(10, 0, true, false)
	_, err := c.ListRecords(context.Background(), "nope", q)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "Collection [nope] does not exist") {
		t.Errorf("native message lost: %v", err)
	}
}

func TestSearch_ScoreConversion(t *testing.T) {
	fs, c := newFakeServer(t)
	fs.withDocs(threeDocs, 3)
	fs.on(http.MethodPost, basePath+"/collections/c1/query", 200, `{
		"ids": [["2","1","3"]],
		"distances": [[0.125, 0.4, 1.3]],
		"metadatas": [[{"tag":"x"},{"title":"Alpha"},null]],
		"documents": [[null,null,"gamma text"]]
	}`)

	q, _ := record.NewSearchQuery([]float32{0.1, 0.2, 0.3}, "", 3, nil)
	res, err := c.Search(context.Background(), "docs", q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	distances := []float64{0.125, 0.4, 1.3}
	if len(res.Records) != 3 {
		t.Fatalf("got %d records, want 3", len(res.Records))
	}
	for i, r := range res.Records {
		if math.Abs(*r.Score-(1-distances[i])) > 1e-9 {
			t.Errorf("record %s score = %v, want %v", r.ID, *r.Score, 1-distances[i])
		}
		if i > 0 && *r.Score > *res.Records[i-1].Score {
			t.Errorf("scores not non-increasing at %d", i)
		}
	}
	if res.Records[2].Payload[record.DocumentKey] != "gamma text" {
		t.Errorf("document not merged: %+v", res.Records[2].Payload)
	}

	var sent queryRequest
	_ = json.Unmarshal(fs.bodies["POST "+basePath+"/collections/c1/query"], &sent)
	if sent.NResults != 3 || len(sent.QueryEmbeddings) != 1 {
		t.Errorf("unexpected query request: %+v", sent)
	}
}

func TestSearch_NullDistanceDropped(t *testing.T) {
	fs, c := newFakeServer(t)
	fs.withDocs(threeDocs, 3)
	fs.on(http.MethodPost, basePath+"/collections/c1/query", 200, `{
		"ids": [["2","1","3"]],
		"distances": [[0.2, null, 0.6]],
		"metadatas": [[null,null,null]],
		"documents": [[null,null,null]]
	}`)

	q, _ := record.NewSearchQuery([]float32{0.1, 0.2, 0.3}, "", 3, nil)
	res, err := c.Search(context.Background(), "docs", q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Records) != 2 || res.Records[0].ID != "2" || res.Records[1].ID != "3" {
		t.Fatalf("unexpected records: %+v", res.Records)
	}
	for _, r := range res.Records {
		if !r.HasScore() {
			t.Errorf("record %s has no score", r.ID)
		}
	}
}

func TestSearch_LocalThreshold(t *testing.T) {
	fs, c := newFakeServer(t)
	fs.withDocs(threeDocs, 3)
	fs.on(http.MethodPost, basePath+"/collections/c1/query", 200, `{
		"ids": [["2","1","3"]],
		"distances": [[0.1, 0.4, 0.9]]
	}`)

	threshold := 0.5
	q, _ := record.NewSearchQuery([]float32{1}, "", 3, &threshold)
	res, err := c.Search(context.Background(), "docs", q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Records) != 2 || res.Records[0].ID != "2" || res.Records[1].ID != "1" {
		t.Errorf("unexpected records: %+v", res.Records)
	}
}

func TestTextSearch_MatchesDocument(t *testing.T) {
	fs, c := newFakeServer(t)
	fs.withDocs(threeDocs, 3)

	q, _ := record.NewTextQuery("GAMMA", 10, false)
	res, err := c.TextSearch(context.Background(), "docs", q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.MatchedCount != 1 || res.Records[0].ID != "3" || res.ScannedCount != 3 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestTextSearch_Scenario(t *testing.T) {
	fs, c := newFakeServer(t)
	fs.withDocs(threeDocs, 3)

	q, _ := record.NewTextQuery("x", 10, false)
	res, err := c.TextSearch(context.Background(), "docs", q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// "gamma text" on id 3 contains an x too
	if res.MatchedCount != 2 || res.Records[0].ID != "2" || res.Records[1].ID != "3" {
		t.Errorf("unexpected result: %+v", res.Records)
	}
}

func TestClearCollection_Empty(t *testing.T) {
	fs, c := newFakeServer(t)
	fs.withDocs(`{"ids":[]}`, 0)

	n, err := c.ClearCollection(context.Background(), "docs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("cleared = %d, want 0", n)
	}
	if fs.calls["POST "+basePath+"/collections/c1/delete"] != 0 {
		t.Error("delete must not be called for an empty collection")
	}
}

func TestClearCollection_IDOnlyFetch(t *testing.T) {
	fs, c := newFakeServer(t)
	fs.withDocs(`{"ids":["a","b"]}`, 2)
	fs.on(http.MethodPost, basePath+"/collections/c1/delete", 200, `{}`)

	n, err := c.ClearCollection(context.Background(), "docs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("cleared = %d, want 2", n)
	}

	var get getRequest
	_ = json.Unmarshal(fs.bodies["POST "+basePath+"/collections/c1/get"], &get)
	if get.Include == nil || len(get.Include) != 0 {
		t.Errorf("expected empty include list, got %v", get.Include)
	}
	var del deleteRequest
	_ = json.Unmarshal(fs.bodies["POST "+basePath+"/collections/c1/delete"], &del)
	if strings.Join(del.IDs, ",") != "a,b" {
		t.Errorf("deleted ids = %v", del.IDs)
	}
}

func TestDeleteRecord(t *testing.T) {
	fs, c := newFakeServer(t)
	fs.withDocs(`{"ids":[]}`, 0)
	fs.on(http.MethodPost, basePath+"/collections/c1/delete", 200, `null`)

	if err := c.DeleteRecord(context.Background(), "docs", "gone"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDeleteCollection(t *testing.T) {
	fs, c := newFakeServer(t)
	fs.on(http.MethodDelete, basePath+"/collections/docs", 200, `{}`)

	if err := c.DeleteCollection(context.Background(), "docs"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.DeleteCollection(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestExportRecords(t *testing.T) {
	fs, c := newFakeServer(t)
	fs.withDocs(threeDocs, 3)

	records, err := c.ExportRecords(context.Background(), "docs", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	if records[0].Vector != nil {
		t.Error("vectors exported without being requested")
	}
	if records[2].Payload[record.DocumentKey] != "gamma text" {
		t.Errorf("document not merged: %+v", records[2].Payload)
	}
}

func TestExportRecords_EmptyIsNotFound(t *testing.T) {
	fs, c := newFakeServer(t)
	fs.withDocs(`{"ids":[]}`, 0)

	_, err := c.ExportRecords(context.Background(), "docs", true)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBackendError(t *testing.T) {
	fs, c := newFakeServer(t)
	fs.on(http.MethodGet, basePath+"/collections", 500, `{"error":"InternalError","message":"sqlite is locked"}`)

	_, err := c.ListCollections(context.Background())
	if !errors.Is(err, domain.ErrBackendOperation) || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected plain backend error, got %v", err)
	}
	if want := "chromadb list collections: status 500: sqlite is locked"; err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}
