// Package chi exposes the browser REST API on a go-chi router.
package chi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecscope/internal/domain"
	"github.com/kailas-cloud/vecscope/internal/domain/record"
	"github.com/kailas-cloud/vecscope/internal/export"
	"github.com/kailas-cloud/vecscope/internal/logger"
	browseuc "github.com/kailas-cloud/vecscope/internal/usecase/browse"
	healthuc "github.com/kailas-cloud/vecscope/internal/usecase/health"
	instanceuc "github.com/kailas-cloud/vecscope/internal/usecase/instance"
	"github.com/kailas-cloud/vecscope/internal/version"
)

// Request defaults.
const (
	defaultPointsLimit     = 100
	defaultSearchLimit     = 10
	defaultTextSearchLimit = 50
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server implements the REST handlers.
type Server struct {
	instances     *instanceuc.Service
	browse        *browseuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	now           func() time.Time
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	instances *instanceuc.Service,
	browse *browseuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		instances: instances,
		browse:    browse,
		health:    health,
		logger:    logger,
		now:       time.Now,
	}
	// Order matters: a failed probe wraps both ErrConnectionConfig and the
	// engine error, which may itself match ErrNotFound.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrDuplicateName, http.StatusBadRequest, ErrorCodeDuplicateName),
		sentinelHandler(domain.ErrConnectionConfig, http.StatusBadRequest, ErrorCodeConnectionFailed),
		sentinelHandler(domain.ErrEmbeddingNotConfigured, http.StatusBadRequest, ErrorCodeEmbeddingNotConfigured),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, ErrorCodeEmbeddingProviderError),
		sentinelHandler(domain.ErrBackendOperation, http.StatusInternalServerError, ErrorCodeBackendError),
	}
	return s
}

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{Message: "vecscope API", Version: version.Version})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// ListInstances handles GET /instances.
func (s *Server) ListInstances(w http.ResponseWriter, r *http.Request) {
	list, err := s.instances.List(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]Instance, len(list))
	for i, d := range list {
		items[i] = instanceToAPI(d)
	}
	writeJSON(w, http.StatusOK, InstanceList{Instances: items})
}

// AddInstance handles POST /instances.
func (s *Server) AddInstance(w http.ResponseWriter, r *http.Request) {
	var req InstanceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	d, err := s.instances.Add(r.Context(), req.Name, req.URL, deref(req.APIKey, ""), domain.EngineKind(req.Type))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Instance added successfully", Name: d.Name()})
}

// DeleteInstance handles DELETE /instances/{name}.
func (s *Server) DeleteInstance(w http.ResponseWriter, r *http.Request, name string) {
	if err := s.instances.Remove(r.Context(), name); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Instance deleted successfully", Name: name})
}

// ListConfigs handles GET /configs.
func (s *Server) ListConfigs(w http.ResponseWriter, r *http.Request) {
	names, err := s.instances.LegacyNames(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ConfigList{Configs: names})
}

// GetConfig handles GET /configs/{name}.
func (s *Server) GetConfig(w http.ResponseWriter, r *http.Request, name string) {
	d, err := s.instances.GetLegacy(r.Context(), name)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Config{Name: d.Name(), URL: d.URL(), HasAPIKey: d.HasCredential()})
}

// AddConfig handles POST /configs.
func (s *Server) AddConfig(w http.ResponseWriter, r *http.Request) {
	var req ConfigRequest
	if !decodeBody(w, r, &req) {
		return
	}

	d, err := s.instances.AddLegacy(r.Context(), req.Name, req.URL, deref(req.APIKey, ""))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Configuration added successfully", Name: d.Name()})
}

// DeleteConfig handles DELETE /configs/{name}.
func (s *Server) DeleteConfig(w http.ResponseWriter, r *http.Request, name string) {
	if err := s.instances.RemoveLegacy(r.Context(), name); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Configuration deleted successfully", Name: name})
}

// ListCollections handles GET /collections/{instance}.
func (s *Server) ListCollections(w http.ResponseWriter, r *http.Request, inst string) {
	cols, err := s.browse.ListCollections(r.Context(), inst)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]CollectionInfo, len(cols))
	for i, c := range cols {
		items[i] = collectionToAPI(c)
	}
	writeJSON(w, http.StatusOK, CollectionList{Collections: items})
}

// DeleteCollection handles DELETE /collections/{instance}/{collection}.
func (s *Server) DeleteCollection(w http.ResponseWriter, r *http.Request, inst, collection string) {
	if err := s.browse.DeleteCollection(r.Context(), inst, collection); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Collection '%s' deleted successfully", collection),
	})
}

// ListPoints handles GET /points/{instance}/{collection}.
func (s *Server) ListPoints(w http.ResponseWriter, r *http.Request, inst, collection string, params PointsParams) {
	q, err := record.NewPageQuery(
		deref(params.Limit, defaultPointsLimit),
		deref(params.Offset, 0),
		deref(params.WithPayload, true),
		deref(params.WithVector, false),
	)
	if err != nil {
		s.handleDomainError(w, r, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
		return
	}

	page, err := s.browse.ListRecords(r.Context(), inst, collection, q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PointsResponse{
		Points:    pointsToAPI(page.Records),
		Total:     page.Total,
		Limit:     page.Limit,
		Offset:    page.Offset,
		Truncated: page.Truncated,
	})
}

// ClearPoints handles DELETE /points/{instance}/{collection}.
func (s *Server) ClearPoints(w http.ResponseWriter, r *http.Request, inst, collection string) {
	n, err := s.browse.ClearCollection(r.Context(), inst, collection)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ClearResponse{
		Message: fmt.Sprintf("Cleared %d points from collection '%s'", n, collection),
		Cleared: n,
	})
}

// DeletePoint handles DELETE /points/{instance}/{collection}/{id}.
func (s *Server) DeletePoint(w http.ResponseWriter, r *http.Request, inst, collection, id string) {
	if err := s.browse.DeleteRecord(r.Context(), inst, collection, id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: fmt.Sprintf("Point %s deleted successfully", id)})
}

// Search handles POST /search/{instance}.
func (s *Server) Search(w http.ResponseWriter, r *http.Request, inst string) {
	var req SearchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.CollectionName == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "collection_name is required")
		return
	}

	q, err := record.NewSearchQuery(req.QueryVector, req.QueryText, deref(req.Limit, defaultSearchLimit), req.ScoreThreshold)
	if err != nil {
		s.handleDomainError(w, r, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
		return
	}

	ctx, usage := domain.WithUsage(r.Context())
	res, err := s.browse.Search(ctx, inst, req.CollectionName, q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, SearchResponse{Results: pointsToAPI(res.Records)})
}

// TextSearch handles POST /text-search/{instance}.
func (s *Server) TextSearch(w http.ResponseWriter, r *http.Request, inst string) {
	var req TextSearchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.CollectionName == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "collection_name is required")
		return
	}

	q, err := record.NewTextQuery(req.SearchText, deref(req.Limit, defaultTextSearchLimit), req.CaseSensitive)
	if err != nil {
		s.handleDomainError(w, r, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
		return
	}

	res, err := s.browse.TextSearch(r.Context(), inst, req.CollectionName, q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TextSearchResponse{
		Results:       pointsToAPI(res.Records),
		Total:         res.MatchedCount,
		SearchedTotal: res.ScannedCount,
		Truncated:     res.Truncated,
	})
}

// Export handles GET /export/{instance}/{collection}. The table is rendered
// in memory first so a failure still yields a JSON error.
func (s *Server) Export(w http.ResponseWriter, r *http.Request, inst, collection string, params ExportParams) {
	table, err := s.browse.Export(r.Context(), inst, collection, deref(params.WithVectors, false))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	var buf bytes.Buffer
	rows, err := table.WriteCSV(&buf, logger.FromContextOr(r.Context(), s.logger))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+export.Filename(collection, s.now()))
	w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
	w.Header().Set("X-Exported-Rows", strconv.Itoa(rows))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.Usage) {
	if usage != nil && usage.Embedded {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.Tokens))
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// sentinelHandler matches a single sentinel and echoes the full error text,
// which carries the engine's own message.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
