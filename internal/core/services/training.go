package services

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"model-trainer-service/internal/core/domain"
	ports "model-trainer-service/internal/core/ports/output"
)

// TrainingOptions are the tunables of a training cycle.
type TrainingOptions struct {
	// DefaultModel is trained when a cycle names no model.
	DefaultModel string
	// Threshold is the minimum dataset size before a cycle may run.
	Threshold int
	// ValRatio is the validation share of the split.
	ValRatio float64
	// Seed makes the split deterministic across cycles.
	Seed int64
}

// TrainingService runs the cycle that turns the current dataset into a new
// registry version: dataset check, split, evaluation, append. Cycles are
// serialized through the shared RunTracker.
type TrainingService struct {
	artifacts ports.ArtifactRepository
	registry  ports.RegistryRepository
	runner    ports.TrainingRunner
	tracker   *RunTracker
	opts      TrainingOptions
}

func NewTrainingService(
	artifacts ports.ArtifactRepository,
	registry ports.RegistryRepository,
	runner ports.TrainingRunner,
	tracker *RunTracker,
	opts TrainingOptions,
) *TrainingService {
	if opts.DefaultModel == "" {
		opts.DefaultModel = "vit"
	}
	if opts.Threshold <= 0 {
		opts.Threshold = 50
	}
	if opts.ValRatio <= 0 || opts.ValRatio >= 1 {
		opts.ValRatio = 0.1
	}
	return &TrainingService{
		artifacts: artifacts,
		registry:  registry,
		runner:    runner,
		tracker:   tracker,
		opts:      opts,
	}
}

// RunCycle executes one training cycle for modelName (the default model when
// empty) and returns the version it appended. Below the dataset threshold it
// returns domain.ErrInsufficientData and appends nothing.
func (s *TrainingService) RunCycle(ctx context.Context, modelName string) (*domain.ModelVersion, error) {
	if modelName == "" {
		modelName = s.opts.DefaultModel
	}
	if err := domain.ValidateModelName(modelName); err != nil {
		return nil, fmt.Errorf("model name %q: %w", modelName, err)
	}

	if !s.tracker.TryBeginTraining() {
		return nil, fmt.Errorf("start training: %w", domain.ErrTrainingInProgress)
	}
	version, err := s.runCycle(ctx, modelName)
	s.tracker.EndTraining(version, err)
	return version, err
}

func (s *TrainingService) runCycle(ctx context.Context, modelName string) (*domain.ModelVersion, error) {
	counts, err := s.artifacts.CountByLabel(ctx)
	if err != nil {
		return nil, fmt.Errorf("count dataset: %w", err)
	}
	snapshot := domain.NewDatasetSnapshot(counts, time.Now().UTC())
	if snapshot.Total < s.opts.Threshold {
		return nil, fmt.Errorf("dataset has %d artifacts, need %d: %w",
			snapshot.Total, s.opts.Threshold, domain.ErrInsufficientData)
	}

	split := domain.SplitDataset(snapshot.Total, s.opts.ValRatio, s.opts.Seed)
	log.WithFields(log.Fields{
		"model":   modelName,
		"dataset": snapshot.Total,
		"train":   split.TrainSize,
		"val":     split.ValSize,
	}).Info("training cycle started")

	metrics, err := s.runner.Evaluate(ctx, snapshot, split)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", modelName, err)
	}

	entry := &domain.ModelVersion{
		ModelName:   modelName,
		DatasetSize: snapshot.Total,
		TrainSize:   split.TrainSize,
		ValSize:     split.ValSize,
		Metrics:     metrics,
	}
	stored, err := s.registry.Append(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("append version: %w", err)
	}

	acc, _ := stored.ValAccuracy()
	log.WithFields(log.Fields{
		"model":        stored.ModelName,
		"version":      stored.Version,
		"val_accuracy": acc,
	}).Info("model version published")
	return stored, nil
}
