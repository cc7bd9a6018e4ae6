package vecscope

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecscope/internal/db"
	dbFile "github.com/kailas-cloud/vecscope/internal/db/file"
	dbRedis "github.com/kailas-cloud/vecscope/internal/db/redis"
	"github.com/kailas-cloud/vecscope/internal/domain"
	"github.com/kailas-cloud/vecscope/internal/domain/instance"
	"github.com/kailas-cloud/vecscope/internal/domain/record"
	"github.com/kailas-cloud/vecscope/internal/engine"
	"github.com/kailas-cloud/vecscope/internal/export"
	instancerepo "github.com/kailas-cloud/vecscope/internal/repository/instance"
	browseuc "github.com/kailas-cloud/vecscope/internal/usecase/browse"
	healthuc "github.com/kailas-cloud/vecscope/internal/usecase/health"
	instanceuc "github.com/kailas-cloud/vecscope/internal/usecase/instance"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, swapped for mocks in tests.
type instanceUseCase interface {
	List(ctx context.Context) ([]instance.Descriptor, error)
	Add(ctx context.Context, name, rawURL, apiKey string, kind domain.EngineKind) (instance.Descriptor, error)
	Remove(ctx context.Context, name string) error
	Probe(ctx context.Context, name string) (instance.Descriptor, error)
}

type browseUseCase interface {
	ListCollections(ctx context.Context, inst string) ([]record.CollectionSummary, error)
	DeleteCollection(ctx context.Context, inst, collection string) error
	ListRecords(ctx context.Context, inst, collection string, q record.PageQuery) (record.Page, error)
	Search(ctx context.Context, inst, collection string, q record.SearchQuery) (record.SearchResult, error)
	TextSearch(ctx context.Context, inst, collection string, q record.TextQuery) (record.TextSearchResult, error)
	ClearCollection(ctx context.Context, inst, collection string) (int, error)
	DeleteRecord(ctx context.Context, inst, collection, id string) error
	Export(ctx context.Context, inst, collection string, withVectors bool) (export.Table, error)
}

// Client is the vecscope SDK entry point.
type Client struct {
	store       db.Store
	instanceSvc instanceUseCase
	browseSvc   browseUseCase
	healthSvc   healthUseCase
	obs         *observer
}

// New creates a Client and opens the instance registry.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{key: instancerepo.DefaultKey}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("vecscope: registry required (use WithFileRegistry or WithRedis)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("vecscope: registry not ready: %w", err)
	}

	return wireClient(store, cfg, obs), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "file":
		s, err := dbFile.NewStore(dbFile.Config{Dir: cfg.dir})
		if err != nil {
			return nil, fmt.Errorf("vecscope: create file store: %w", err)
		}
		return s, nil
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("vecscope: create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("vecscope: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) *Client {
	factory := engine.NewFactory(engine.Options{
		SafetyCap:      cfg.safetyCap,
		Timeout:        cfg.requestTimeout,
		ChromaTenant:   cfg.chromaTenant,
		ChromaDatabase: cfg.chromaDatabase,
	})

	// Pass nil interfaces (not typed nil pointers!) without an embedder.
	var (
		embedder browseuc.Embedder
		checker  healthuc.EmbeddingChecker
	)
	if cfg.embedder != nil {
		embedder = &embedderAdapter{inner: cfg.embedder}
		if hc, ok := cfg.embedder.(domain.HealthChecker); ok {
			checker = hc
		}
	}

	instanceSvc := instanceuc.New(instancerepo.New(store, cfg.key, zap.NewNop()), factory)
	return &Client{
		store:       store,
		instanceSvc: instanceSvc,
		browseSvc:   browseuc.New(instanceSvc, factory, embedder),
		healthSvc:   healthuc.New(store, checker, 0, nil),
		obs:         obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks registry connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Instances returns the instance registry service.
func (c *Client) Instances() *InstanceService {
	return &InstanceService{svc: c.instanceSvc, obs: c.obs}
}

// Collections returns the browsing service for one registered instance.
func (c *Client) Collections(inst string) *CollectionService {
	return &CollectionService{instance: inst, svc: c.browseSvc, obs: c.obs}
}
