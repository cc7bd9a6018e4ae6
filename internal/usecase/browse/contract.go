package browse

import (
	"context"

	"github.com/kailas-cloud/vecscope/internal/domain"
	"github.com/kailas-cloud/vecscope/internal/domain/instance"
	"github.com/kailas-cloud/vecscope/internal/engine"
)

// Resolver maps an instance name to its descriptor.
type Resolver interface {
	Resolve(ctx context.Context, name string) (instance.Descriptor, error)
}

// Connector builds engine connections.
type Connector interface {
	Connect(d instance.Descriptor) (engine.Conn, error)
}

// Embedder vectorizes query text. Optional.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
