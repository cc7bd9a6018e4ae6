package instance

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/vecscope/internal/domain"
	"github.com/kailas-cloud/vecscope/internal/domain/instance"
)

// The legacy view exposes the qdrant-only configuration endpoints. It is a
// projection of the same descriptor set, not a separate store.

// LegacyNames returns names whose resolved descriptor is a qdrant instance,
// legacy entries first.
func (s *Service) LegacyNames(ctx context.Context) ([]string, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list configs: %w", err)
	}

	legacy := map[string]bool{}
	names := make([]string, 0, len(list))
	for _, d := range list {
		if d.Legacy() {
			legacy[d.Name()] = true
			names = append(names, d.Name())
		}
	}
	seen := map[string]bool{}
	for _, d := range list {
		if d.Legacy() || legacy[d.Name()] || seen[d.Name()] || d.Kind() != domain.EngineQdrant {
			continue
		}
		seen[d.Name()] = true
		names = append(names, d.Name())
	}
	return names, nil
}

// GetLegacy resolves name and fails with domain.ErrNotFound unless it is a
// qdrant instance.
func (s *Service) GetLegacy(ctx context.Context, name string) (instance.Descriptor, error) {
	d, err := s.Resolve(ctx, name)
	if err != nil {
		return instance.Descriptor{}, err
	}
	if d.Kind() != domain.EngineQdrant {
		return instance.Descriptor{}, fmt.Errorf("configuration %q: %w", name, domain.ErrNotFound)
	}
	return d, nil
}

// AddLegacy registers a qdrant configuration flagged as legacy. Only another
// legacy entry with the same name conflicts; a regular entry is shadowed.
func (s *Service) AddLegacy(ctx context.Context, name, rawURL, apiKey string) (instance.Descriptor, error) {
	d, err := instance.NewLegacy(name, rawURL, apiKey)
	if err != nil {
		return instance.Descriptor{}, fmt.Errorf("validate config: %w: %w", domain.ErrInvalidInput, err)
	}
	return d, s.register(ctx, d)
}

// RemoveLegacy deletes every entry named name, provided the legacy view has it.
func (s *Service) RemoveLegacy(ctx context.Context, name string) error {
	if _, err := s.GetLegacy(ctx, name); err != nil {
		return err
	}
	return s.Remove(ctx, name)
}
