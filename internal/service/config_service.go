package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pohualizcalli/academy-admin/internal/domain"
	"github.com/pohualizcalli/academy-admin/internal/repository"
)

// ConfigurationService reads and writes the diploma field-mapping document.
type ConfigurationService struct {
	configs repository.ConfigurationRepository
}

func NewConfigurationService(configs repository.ConfigurationRepository) *ConfigurationService {
	return &ConfigurationService{configs: configs}
}

// Get returns the current configuration. Before the first save it returns an
// empty mapping document instead of ErrNotFound; the worker treats a missing
// configuration and an empty one the same way.
func (s *ConfigurationService) Get(ctx context.Context) (*domain.Configuration, error) {
	cfg, err := s.configs.Get(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.Configuration{FieldMappings: map[string]any{}}, nil
	}
	if err != nil {
		return nil, err
	}
	if cfg.FieldMappings == nil {
		cfg.FieldMappings = map[string]any{}
	}
	return cfg, nil
}

func (s *ConfigurationService) Put(ctx context.Context, updatedBy string, mappings map[string]any) (*domain.Configuration, error) {
	if mappings == nil {
		return nil, fmt.Errorf("%w: fieldMappings is required", domain.ErrValidation)
	}
	return s.configs.Upsert(ctx, &domain.Configuration{
		FieldMappings: mappings,
		UpdatedBy:     updatedBy,
	})
}
