package instance

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/vecscope/internal/domain"
	"github.com/kailas-cloud/vecscope/internal/domain/instance"
)

// Service manages registered instances and resolves names to descriptors.
type Service struct {
	repo      Repository
	connector Connector
}

// New creates an instance service.
func New(repo Repository, connector Connector) *Service {
	return &Service{repo: repo, connector: connector}
}

// List returns every stored descriptor in insertion order.
func (s *Service) List(ctx context.Context) ([]instance.Descriptor, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	return list, nil
}

// Add validates, probes and stores a new instance. The duplicate-name check
// runs before the probe.
func (s *Service) Add(ctx context.Context, name, rawURL, apiKey string, kind domain.EngineKind) (instance.Descriptor, error) {
	d, err := instance.New(name, rawURL, apiKey, kind)
	if err != nil {
		return instance.Descriptor{}, fmt.Errorf("validate instance: %w: %w", domain.ErrInvalidInput, err)
	}
	return d, s.register(ctx, d)
}

// Remove deletes every stored entry named name.
func (s *Service) Remove(ctx context.Context, name string) error {
	if err := s.repo.Remove(ctx, name); err != nil {
		return fmt.Errorf("remove instance: %w", err)
	}
	return nil
}

// Resolve returns the descriptor name refers to. A legacy entry wins over a
// regular one with the same name.
func (s *Service) Resolve(ctx context.Context, name string) (instance.Descriptor, error) {
	d, err := s.repo.Get(ctx, name)
	if err != nil {
		return instance.Descriptor{}, fmt.Errorf("resolve instance: %w", err)
	}
	return d, nil
}

// Probe checks connectivity of a stored instance.
func (s *Service) Probe(ctx context.Context, name string) (instance.Descriptor, error) {
	d, err := s.Resolve(ctx, name)
	if err != nil {
		return instance.Descriptor{}, err
	}
	return d, s.probe(ctx, d)
}

func (s *Service) register(ctx context.Context, d instance.Descriptor) error {
	exists, err := s.repo.Exists(ctx, d.Name(), d.Legacy())
	if err != nil {
		return fmt.Errorf("check instance: %w", err)
	}
	if exists {
		return fmt.Errorf("add instance %q: %w", d.Name(), domain.ErrDuplicateName)
	}
	if err := s.probe(ctx, d); err != nil {
		return err
	}
	if err := s.repo.Add(ctx, d); err != nil {
		return fmt.Errorf("add instance: %w", err)
	}
	return nil
}

// probe connects and runs the engine's cheapest call.
func (s *Service) probe(ctx context.Context, d instance.Descriptor) error {
	conn, err := s.connector.Connect(d)
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.Probe(ctx); err != nil {
		return fmt.Errorf("connection test failed: %w: %w", domain.ErrConnectionConfig, err)
	}
	return nil
}
