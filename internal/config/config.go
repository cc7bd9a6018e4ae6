package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Registry drivers.
const (
	DriverFile  = "file"
	DriverRedis = "redis"
)

// Config holds the vecscope API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Registry  RegistryConfig  `yaml:"registry"`
	Engines   EnginesConfig   `yaml:"engines"`
	Auth      AuthConfig      `yaml:"auth"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// RegistryConfig selects where instance descriptors are persisted.
type RegistryConfig struct {
	Driver string `yaml:"driver"` // file, redis (default: file)
	Dir    string `yaml:"dir"`    // file driver only
	Key    string `yaml:"key"`

	Addrs            []string `yaml:"addrs"` // redis driver only
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EnginesConfig holds settings shared by every engine adapter.
type EnginesConfig struct {
	SafetyCap         int          `yaml:"safety_cap"`
	RequestTimeoutSec int          `yaml:"request_timeout_sec"` // 0 = no per-operation timeout
	Qdrant            QdrantConfig `yaml:"qdrant"`
	Chroma            ChromaConfig `yaml:"chroma"`
}

// QdrantConfig holds qdrant connection defaults.
type QdrantConfig struct {
	GRPCPort int `yaml:"grpc_port"`
	RESTPort int `yaml:"rest_port"`
}

// ChromaConfig holds chroma connection defaults.
type ChromaConfig struct {
	Tenant   string `yaml:"tenant"`
	Database string `yaml:"database"`
	Port     int    `yaml:"port"`
}

// EmbeddingConfig holds the optional query embedding provider.
// An empty Model disables text queries.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	TimeoutSec int    `yaml:"timeout_sec"`
	// Cache stores query embeddings in the registry store.
	Cache bool `yaml:"cache"`
}

// Enabled reports whether an embedding provider is configured.
func (e EmbeddingConfig) Enabled() bool { return e.Model != "" }

// Timeout returns the provider request timeout.
func (e EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSec) * time.Second
}

// RequestTimeout returns the per-operation engine timeout, zero if unset.
func (e EnginesConfig) RequestTimeout() time.Duration {
	return time.Duration(e.RequestTimeoutSec) * time.Second
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	// Exports and text scans block for up to a full safety-cap fetch.
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Registry.Driver == "" {
		c.Registry.Driver = DriverFile
	}
	if c.Registry.Dir == "" {
		c.Registry.Dir = "data"
	}
	if c.Registry.Key == "" {
		c.Registry.Key = "instances.json"
	}
	if c.Registry.ReadinessTimeout <= 0 {
		c.Registry.ReadinessTimeout = 10
	}

	if c.Engines.SafetyCap <= 0 {
		c.Engines.SafetyCap = 10000
	}
	if c.Engines.Qdrant.GRPCPort <= 0 {
		c.Engines.Qdrant.GRPCPort = 6334
	}
	if c.Engines.Qdrant.RESTPort <= 0 {
		c.Engines.Qdrant.RESTPort = 6333
	}
	if c.Engines.Chroma.Tenant == "" {
		c.Engines.Chroma.Tenant = "default_tenant"
	}
	if c.Engines.Chroma.Database == "" {
		c.Engines.Chroma.Database = "default_database"
	}
	if c.Engines.Chroma.Port <= 0 {
		c.Engines.Chroma.Port = 8000
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 30
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Registry.Driver {
	case DriverFile:
	case DriverRedis:
		if len(c.Registry.Addrs) == 0 {
			return fmt.Errorf("registry.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("registry.driver must be %q or %q, got %q", DriverFile, DriverRedis, c.Registry.Driver)
	}
	if c.Engines.RequestTimeoutSec < 0 {
		return fmt.Errorf("engines.request_timeout_sec must not be negative, got %d", c.Engines.RequestTimeoutSec)
	}
	for _, key := range c.Auth.APIKeys {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("auth.api_keys must not contain empty keys")
		}
	}
	if c.Embedding.Enabled() {
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("embedding.api_key is required when embedding.model is set")
		}
		if c.Embedding.Dimensions < 0 {
			return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
		}
	}
	if c.Embedding.Cache && !c.Embedding.Enabled() {
		return fmt.Errorf("embedding.cache requires embedding.model")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
