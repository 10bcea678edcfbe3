package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"model-trainer-service/internal/core/domain"
	ports "model-trainer-service/internal/core/ports/output"
)

// MetricsService aggregates the headline numbers exposed on the metrics
// endpoint.
type MetricsService struct {
	artifacts ports.ArtifactRepository
	registry  ports.RegistryRepository
	modelName string
}

func NewMetricsService(artifacts ports.ArtifactRepository, registry ports.RegistryRepository, modelName string) *MetricsService {
	return &MetricsService{artifacts: artifacts, registry: registry, modelName: modelName}
}

// MetricsSummary contains the engine-wide totals.
type MetricsSummary struct {
	TotalImages       int        `json:"total_images"`
	ModelsTrained     int        `json:"models_trained"`
	LastTrainingAt    *time.Time `json:"last_training_at,omitempty"`
	LatestValAccuracy *float64   `json:"latest_val_accuracy,omitempty"`
}

// Summary computes the totals from the durable records, so restarts never
// reset them.
func (s *MetricsService) Summary(ctx context.Context) (*MetricsSummary, error) {
	counts, err := s.artifacts.CountByLabel(ctx)
	if err != nil {
		return nil, fmt.Errorf("count dataset: %w", err)
	}
	total := 0
	for _, n := range counts {
		total += n
	}

	trained, err := s.registry.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count versions: %w", err)
	}

	summary := &MetricsSummary{TotalImages: total, ModelsTrained: trained}

	latest, err := s.registry.Latest(ctx, s.modelName)
	if err != nil {
		if errors.Is(err, domain.ErrModelNotFound) {
			return summary, nil
		}
		return nil, fmt.Errorf("latest model: %w", err)
	}
	at := latest.CreatedAt
	summary.LastTrainingAt = &at
	if acc, ok := latest.ValAccuracy(); ok {
		summary.LatestValAccuracy = &acc
	}
	return summary, nil
}
