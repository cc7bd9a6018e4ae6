package engine

import (
	"fmt"
	"net/http"
	"time"

	"github.com/kailas-cloud/vecscope/internal/domain"
	"github.com/kailas-cloud/vecscope/internal/domain/instance"
	"github.com/kailas-cloud/vecscope/internal/engine/chroma"
	"github.com/kailas-cloud/vecscope/internal/engine/qdrant"
)

// Compile-time checks: both adapters implement Conn.
var (
	_ Conn = (*qdrant.Conn)(nil)
	_ Conn = (*chroma.Conn)(nil)
)

// Options configures connections built by a Factory.
type Options struct {
	// SafetyCap bounds bulk fetches. Zero selects DefaultSafetyCap.
	SafetyCap int
	// Timeout bounds each operation. Zero leaves only the caller's context.
	Timeout time.Duration

	QdrantGRPCPort int
	QdrantRESTPort int

	ChromaTenant   string
	ChromaDatabase string
	ChromaPort     int
	// HTTPClient is shared by Chroma connections.
	HTTPClient *http.Client
}

// Factory turns instance descriptors into live connections.
type Factory struct {
	opts Options
}

// NewFactory creates a Factory.
func NewFactory(opts Options) *Factory {
	if opts.SafetyCap <= 0 {
		opts.SafetyCap = DefaultSafetyCap
	}
	return &Factory{opts: opts}
}

// SafetyCap returns the configured bulk fetch bound.
func (f *Factory) SafetyCap() int { return f.opts.SafetyCap }

// Connect builds a handle for d. No network round trip happens here.
// Fails with domain.ErrConnectionConfig on an unknown engine kind or a bad URL.
func (f *Factory) Connect(d instance.Descriptor) (Conn, error) {
	var (
		c   Conn
		err error
	)
	switch d.Kind() {
	case domain.EngineQdrant:
		c, err = qdrant.New(qdrant.Config{
			URL:       d.URL(),
			APIKey:    d.Credential(),
			GRPCPort:  f.opts.QdrantGRPCPort,
			RESTPort:  f.opts.QdrantRESTPort,
			SafetyCap: f.opts.SafetyCap,
		})
	case domain.EngineChroma:
		c, err = chroma.New(chroma.Config{
			URL:        d.URL(),
			APIKey:     d.Credential(),
			Tenant:     f.opts.ChromaTenant,
			Database:   f.opts.ChromaDatabase,
			Port:       f.opts.ChromaPort,
			SafetyCap:  f.opts.SafetyCap,
			HTTPClient: f.opts.HTTPClient,
		})
	default:
		return nil, fmt.Errorf("unsupported database type %q: %w", d.Kind(), domain.ErrConnectionConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s instance %q: %w", d.Kind(), d.Name(), err)
	}
	return Instrument(c, f.opts.Timeout), nil
}
