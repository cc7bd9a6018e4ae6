package vecscope

import (
	"context"
	"fmt"
	"time"
)

// InstanceService manages the instance registry.
type InstanceService struct {
	svc instanceUseCase
	obs *observer
}

// AddOption configures instance registration.
type AddOption func(*addConfig)

type addConfig struct {
	apiKey string
}

// WithAPIKey sets the engine API key stored with the instance.
func WithAPIKey(key string) AddOption {
	return func(c *addConfig) { c.apiKey = key }
}

// List returns every registered instance.
func (s *InstanceService) List(ctx context.Context) (_ []Instance, err error) {
	start := time.Now()
	defer func() { s.obs.observe("instance.list", start, err) }()

	list, err := s.svc.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	out := make([]Instance, len(list))
	for i, d := range list {
		out[i] = fromInternalInstance(d)
	}
	return out, nil
}

// Add probes the instance and registers it. Fails with ErrDuplicateName
// before any network call when the name is taken.
func (s *InstanceService) Add(
	ctx context.Context, name, url string, kind EngineKind, opts ...AddOption,
) (_ Instance, err error) {
	start := time.Now()
	defer func() { s.obs.observe("instance.add", start, err, "instance", name) }()

	cfg := &addConfig{}
	for _, o := range opts {
		o(cfg)
	}

	d, err := s.svc.Add(ctx, name, url, cfg.apiKey, kind.internal())
	if err != nil {
		return Instance{}, fmt.Errorf("add instance: %w", err)
	}
	return fromInternalInstance(d), nil
}

// Remove unregisters an instance.
func (s *InstanceService) Remove(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("instance.remove", start, err, "instance", name) }()

	if err = s.svc.Remove(ctx, name); err != nil {
		return fmt.Errorf("remove instance: %w", err)
	}
	return nil
}

// Probe checks connectivity of a registered instance.
func (s *InstanceService) Probe(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("instance.probe", start, err, "instance", name) }()

	if _, err = s.svc.Probe(ctx, name); err != nil {
		return fmt.Errorf("probe instance: %w", err)
	}
	return nil
}
