package instance

import (
	"context"

	"github.com/kailas-cloud/vecscope/internal/domain/instance"
	"github.com/kailas-cloud/vecscope/internal/engine"
)

// Repository defines the registry contract.
type Repository interface {
	List(ctx context.Context) ([]instance.Descriptor, error)
	Get(ctx context.Context, name string) (instance.Descriptor, error)
	Exists(ctx context.Context, name string, legacyOnly bool) (bool, error)
	Add(ctx context.Context, d instance.Descriptor) error
	Remove(ctx context.Context, name string) error
}

// Connector builds engine connections.
type Connector interface {
	Connect(d instance.Descriptor) (engine.Conn, error)
}
