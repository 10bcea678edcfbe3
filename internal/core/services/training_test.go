package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"model-trainer-service/internal/core/domain"
	"model-trainer-service/internal/testutil"
)

func newTrainingService(artifacts *testutil.MockArtifactRepo, registry *testutil.MockRegistryRepo,
	runner *testutil.MockTrainingRunner, tracker *RunTracker) *TrainingService {
	return NewTrainingService(artifacts, registry, runner, tracker, TrainingOptions{})
}

func TestTrainingService_RunCyclePublishesVersion(t *testing.T) {
	artifacts := new(testutil.MockArtifactRepo)
	registry := new(testutil.MockRegistryRepo)
	runner := new(testutil.MockTrainingRunner)
	tracker := NewRunTracker()
	svc := newTrainingService(artifacts, registry, runner, tracker)

	// 51 artifacts split 0.1 -> 46 train / 5 val.
	artifacts.On("CountByLabel", mock.Anything).Return(map[domain.Label]int{
		domain.LabelReal:        30,
		domain.LabelAIGenerated: 21,
	}, nil)

	metrics := domain.Metrics{domain.MetricValAccuracy: 0.91, domain.MetricValLoss: 0.21}
	runner.On("Evaluate", mock.Anything,
		mock.MatchedBy(func(s domain.DatasetSnapshot) bool { return s.Total == 51 }),
		domain.SplitPlan{TrainSize: 46, ValSize: 5, Seed: 0},
	).Return(metrics, nil)

	var appended *domain.ModelVersion
	registry.On("Append", mock.Anything, mock.AnythingOfType("*domain.ModelVersion")).
		Run(func(args mock.Arguments) {
			appended = args.Get(1).(*domain.ModelVersion)
		}).
		Return(&domain.ModelVersion{ModelName: "vit", Version: 1, Metrics: metrics}, nil)

	version, err := svc.RunCycle(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, 1, version.Version)
	assert.Equal(t, "vit", version.ModelName)

	require.NotNil(t, appended)
	assert.Equal(t, "vit", appended.ModelName)
	assert.Equal(t, 51, appended.DatasetSize)
	assert.Equal(t, 46, appended.TrainSize)
	assert.Equal(t, 5, appended.ValSize)
	assert.Equal(t, metrics, appended.Metrics)

	st := tracker.Status()
	assert.False(t, st.TrainingRunning)
	assert.Equal(t, version, st.LastTraining)
	assert.Empty(t, st.LastTrainingErr)
}

func TestTrainingService_BelowThresholdAppendsNothing(t *testing.T) {
	artifacts := new(testutil.MockArtifactRepo)
	registry := new(testutil.MockRegistryRepo)
	runner := new(testutil.MockTrainingRunner)
	svc := newTrainingService(artifacts, registry, runner, NewRunTracker())

	artifacts.On("CountByLabel", mock.Anything).Return(map[domain.Label]int{
		domain.LabelReal:        25,
		domain.LabelAIGenerated: 24,
	}, nil)

	_, err := svc.RunCycle(context.Background(), "")

	assert.ErrorIs(t, err, domain.ErrInsufficientData)
	runner.AssertNotCalled(t, "Evaluate", mock.Anything, mock.Anything, mock.Anything)
	registry.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestTrainingService_EvaluationFailureLeavesRegistryUntouched(t *testing.T) {
	artifacts := new(testutil.MockArtifactRepo)
	registry := new(testutil.MockRegistryRepo)
	runner := new(testutil.MockTrainingRunner)
	tracker := NewRunTracker()
	svc := newTrainingService(artifacts, registry, runner, tracker)

	artifacts.On("CountByLabel", mock.Anything).Return(map[domain.Label]int{
		domain.LabelReal: 60,
	}, nil)
	runner.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.ErrEvaluationFailed)

	_, err := svc.RunCycle(context.Background(), "")

	assert.ErrorIs(t, err, domain.ErrEvaluationFailed)
	registry.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)

	st := tracker.Status()
	assert.False(t, st.TrainingRunning)
	assert.NotEmpty(t, st.LastTrainingErr)
	assert.Nil(t, st.LastTraining)
}

func TestTrainingService_NamedModel(t *testing.T) {
	artifacts := new(testutil.MockArtifactRepo)
	registry := new(testutil.MockRegistryRepo)
	runner := new(testutil.MockTrainingRunner)
	svc := newTrainingService(artifacts, registry, runner, NewRunTracker())

	artifacts.On("CountByLabel", mock.Anything).Return(map[domain.Label]int{
		domain.LabelReal:        40,
		domain.LabelAIGenerated: 40,
	}, nil)
	runner.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).
		Return(domain.Metrics{domain.MetricValAccuracy: 0.7}, nil)
	registry.On("Append", mock.Anything, mock.MatchedBy(func(v *domain.ModelVersion) bool {
		return v.ModelName == "resnet-50"
	})).Return(&domain.ModelVersion{ModelName: "resnet-50", Version: 4}, nil)

	version, err := svc.RunCycle(context.Background(), "resnet-50")

	require.NoError(t, err)
	assert.Equal(t, "resnet-50", version.ModelName)
	assert.Equal(t, 4, version.Version)
}

func TestTrainingService_RejectsInvalidModelName(t *testing.T) {
	artifacts := new(testutil.MockArtifactRepo)
	registry := new(testutil.MockRegistryRepo)
	runner := new(testutil.MockTrainingRunner)
	svc := newTrainingService(artifacts, registry, runner, NewRunTracker())

	_, err := svc.RunCycle(context.Background(), "Not A Model")

	assert.ErrorIs(t, err, domain.ErrInvalidModelName)
	artifacts.AssertNotCalled(t, "CountByLabel", mock.Anything)
}

func TestTrainingService_RejectsConcurrentCycle(t *testing.T) {
	artifacts := new(testutil.MockArtifactRepo)
	registry := new(testutil.MockRegistryRepo)
	runner := new(testutil.MockTrainingRunner)
	tracker := NewRunTracker()
	svc := newTrainingService(artifacts, registry, runner, tracker)
	require.True(t, tracker.TryBeginTraining())

	_, err := svc.RunCycle(context.Background(), "")

	assert.ErrorIs(t, err, domain.ErrTrainingInProgress)
	artifacts.AssertNotCalled(t, "CountByLabel", mock.Anything)
}
