package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"model-trainer-service/internal/core/domain"
	ports "model-trainer-service/internal/core/ports/output"
)

// DatasetService answers queries over the committed artifact population and
// carries the external labeling path.
type DatasetService struct {
	artifacts ports.ArtifactRepository
	store     ports.ArtifactStore
}

func NewDatasetService(artifacts ports.ArtifactRepository, store ports.ArtifactStore) *DatasetService {
	return &DatasetService{artifacts: artifacts, store: store}
}

// Stats recomputes the dataset composition from the committed records.
// Cheap enough for frequent polling.
func (s *DatasetService) Stats(ctx context.Context) (domain.DatasetSnapshot, error) {
	counts, err := s.artifacts.CountByLabel(ctx)
	if err != nil {
		return domain.DatasetSnapshot{}, fmt.Errorf("count dataset: %w", err)
	}
	return domain.NewDatasetSnapshot(counts, time.Now().UTC()), nil
}

func (s *DatasetService) Get(ctx context.Context, id uuid.UUID) (*domain.Artifact, error) {
	return s.artifacts.GetByID(ctx, id)
}

func (s *DatasetService) List(ctx context.Context, filter ports.ArtifactFilter) ([]*domain.Artifact, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 200 {
		filter.Limit = 200
	}
	return s.artifacts.List(ctx, filter)
}

// Relabel overwrites an artifact's label from the external labeling path.
// Idempotent, last write wins. The metadata side-car is rewritten so a
// later index rebuild sees the corrected label.
func (s *DatasetService) Relabel(ctx context.Context, id uuid.UUID, label domain.Label, confidence *float64) (*domain.Artifact, error) {
	if err := domain.ValidateLabel(label); err != nil {
		return nil, fmt.Errorf("relabel %s: %w", id, err)
	}
	if err := s.artifacts.UpdateLabel(ctx, id, label, confidence); err != nil {
		return nil, fmt.Errorf("relabel %s: %w", id, err)
	}
	art, err := s.artifacts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload %s: %w", id, err)
	}

	doc, err := json.Marshal(art)
	if err == nil {
		_, err = s.store.PutMetadata(ctx, art.StorageKey(), doc)
	}
	if err != nil {
		log.WithError(err).WithField("artifact_id", art.ID).Warn("failed to rewrite metadata side-car")
	}
	return art, nil
}
