package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecscope/internal/config"
	"github.com/kailas-cloud/vecscope/internal/db"
	dbFile "github.com/kailas-cloud/vecscope/internal/db/file"
	dbRedis "github.com/kailas-cloud/vecscope/internal/db/redis"
	"github.com/kailas-cloud/vecscope/internal/domain"
	"github.com/kailas-cloud/vecscope/internal/engine"
	logpkg "github.com/kailas-cloud/vecscope/internal/logger"
	"github.com/kailas-cloud/vecscope/internal/metrics"
	"github.com/kailas-cloud/vecscope/internal/repository/embcache"
	instancerepo "github.com/kailas-cloud/vecscope/internal/repository/instance"
	chiTransport "github.com/kailas-cloud/vecscope/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/vecscope/internal/transport/openai"
	browseuc "github.com/kailas-cloud/vecscope/internal/usecase/browse"
	embeddinguc "github.com/kailas-cloud/vecscope/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/vecscope/internal/usecase/health"
	instanceuc "github.com/kailas-cloud/vecscope/internal/usecase/instance"
	"github.com/kailas-cloud/vecscope/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting vecscope API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("registry_driver", cfg.Registry.Driver),
		zap.Int("safety_cap", cfg.Engines.SafetyCap),
	)

	store, err := openStore(cfg.Registry)
	if err != nil {
		logger.Fatal("Failed to create registry store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Registry.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Registry store not ready", zap.Error(err))
	}
	logger.Info("Registry store ready", zap.String("key", cfg.Registry.Key))

	// Register metrics explicitly (no init())
	metrics.RegisterBackendMetrics()
	metrics.RegisterEmbeddingMetrics()

	factory := engine.NewFactory(engine.Options{
		SafetyCap:      cfg.Engines.SafetyCap,
		Timeout:        cfg.Engines.RequestTimeout(),
		QdrantGRPCPort: cfg.Engines.Qdrant.GRPCPort,
		QdrantRESTPort: cfg.Engines.Qdrant.RESTPort,
		ChromaTenant:   cfg.Engines.Chroma.Tenant,
		ChromaDatabase: cfg.Engines.Chroma.Database,
		ChromaPort:     cfg.Engines.Chroma.Port,
		HTTPClient:     &http.Client{Timeout: cfg.Engines.RequestTimeout()},
	})

	// Pass nil interfaces (not typed nil pointers!) when embedding is off.
	var (
		queryEmbedder browseuc.Embedder
		embChecker    healthuc.EmbeddingChecker
	)
	if cfg.Embedding.Enabled() {
		base, embedder := buildEmbedder(cfg.Embedding, store, logger)
		queryEmbedder, embChecker = embedder, base
		logger.Info("Query embedder created",
			zap.String("provider", cfg.Embedding.Provider),
			zap.String("model", cfg.Embedding.Model),
			zap.Bool("cache", cfg.Embedding.Cache),
		)
	} else {
		logger.Info("No embedding provider configured; query_text search disabled")
	}

	repo := instancerepo.New(store, cfg.Registry.Key, logger)
	instanceSvc := instanceuc.New(repo, factory)
	browseSvc := browseuc.New(instanceSvc, factory, queryEmbedder)
	healthSvc := healthuc.New(store, embChecker, healthuc.DefaultTimeout, logger)

	server := chiTransport.NewServer(instanceSvc, browseSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	chiTransport.HandlerWithOptions(server, chiTransport.RouterOptions{
		BaseRouter: r,
		ErrorHandlerFunc: func(w http.ResponseWriter, _ *http.Request, err error) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
				Code:    chiTransport.ErrorCodeBadRequest,
				Message: err.Error(),
			})
		},
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// openStore creates the registry store for the configured driver.
func openStore(cfg config.RegistryConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverFile:
		return dbFile.NewStore(dbFile.Config{Dir: cfg.Dir})
	case config.DriverRedis:
		return dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
	default:
		return nil, fmt.Errorf("unknown registry driver %q", cfg.Driver)
	}
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented.
// The bare provider is returned separately for health checks.
func buildEmbedder(cfg config.EmbeddingConfig, store db.Store, logger *zap.Logger) (*openaiEmb.Embedder, domain.Embedder) {
	// Base provider (with transport metrics built-in)
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Timeout:    cfg.Timeout(),
	})

	var embedder domain.Embedder = base
	if cfg.Cache {
		embedder = embcache.New(base, store, cfg.Model, metrics.EmbeddingCacheTotal, logger)
	}

	return base, embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, logger)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.ErrorCodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line: one per request. Instance and collection
			// names come from the matched route.
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			}
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if inst := rctx.URLParam("instance"); inst != "" {
					fields = append(fields, zap.String("instance", inst))
				}
				if col := rctx.URLParam("collection"); col != "" {
					fields = append(fields, zap.String("collection", col))
				}
			}
			reqLogger.Info("http_request", fields...)
		})
	}
}
