package vecscope

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "file" or "redis"
	dir      string
	addrs    []string
	password string
	key      string

	embedder Embedder

	safetyCap      int
	requestTimeout time.Duration
	chromaTenant   string
	chromaDatabase string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithFileRegistry stores the instance registry in dir.
func WithFileRegistry(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "file"
		c.dir = dir
	})
}

// WithRedis stores the instance registry in Redis, sharing it with
// vecscope servers configured with the same key.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRegistryKey overrides the key the registry document is stored under.
// Default: "instances.json".
func WithRegistryKey(key string) Option {
	return optionFunc(func(c *clientConfig) {
		c.key = key
	})
}

// WithEmbedder sets the provider used to turn query text into vectors.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithSafetyCap bounds how many records one bulk fetch may return.
// Default: 10000.
func WithSafetyCap(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.safetyCap = n
	})
}

// WithRequestTimeout bounds every engine call. Default: no timeout.
func WithRequestTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.requestTimeout = d
	})
}

// WithChromaDatabase selects the Chroma tenant and database.
// Defaults: "default_tenant", "default_database".
func WithChromaDatabase(tenant, database string) Option {
	return optionFunc(func(c *clientConfig) {
		c.chromaTenant = tenant
		c.chromaDatabase = database
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
