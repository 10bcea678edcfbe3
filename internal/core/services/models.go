package services

import (
	"context"
	"fmt"

	"model-trainer-service/internal/core/domain"
	ports "model-trainer-service/internal/core/ports/output"
)

// ModelService exposes the registry to consumers: the latest version for the
// weights-sync poller and the full history per model.
type ModelService struct {
	registry ports.RegistryRepository
}

func NewModelService(registry ports.RegistryRepository) *ModelService {
	return &ModelService{registry: registry}
}

func (s *ModelService) Latest(ctx context.Context, modelName string) (*domain.ModelVersion, error) {
	if err := domain.ValidateModelName(modelName); err != nil {
		return nil, fmt.Errorf("model name %q: %w", modelName, err)
	}
	return s.registry.Latest(ctx, modelName)
}

func (s *ModelService) History(ctx context.Context, modelName string) ([]*domain.ModelVersion, error) {
	if err := domain.ValidateModelName(modelName); err != nil {
		return nil, fmt.Errorf("model name %q: %w", modelName, err)
	}
	return s.registry.History(ctx, modelName)
}
