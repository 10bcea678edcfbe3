package testutil

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"model-trainer-service/internal/core/domain"
	ports "model-trainer-service/internal/core/ports/output"
)

// MockArtifactStore is a mock of ArtifactStore.
type MockArtifactStore struct {
	mock.Mock
}

func (m *MockArtifactStore) Put(ctx context.Context, key string, payload []byte) (string, error) {
	args := m.Called(ctx, key, payload)
	return args.String(0), args.Error(1)
}

func (m *MockArtifactStore) PutMetadata(ctx context.Context, key string, doc []byte) (string, error) {
	args := m.Called(ctx, key, doc)
	return args.String(0), args.Error(1)
}

func (m *MockArtifactStore) Get(ctx context.Context, location string) ([]byte, error) {
	args := m.Called(ctx, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockArtifactStore) GetMetadata(ctx context.Context, location string) ([]byte, error) {
	args := m.Called(ctx, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockArtifactStore) Exists(ctx context.Context, location string) (bool, error) {
	args := m.Called(ctx, location)
	return args.Bool(0), args.Error(1)
}

func (m *MockArtifactStore) ListMetadata(ctx context.Context, fn func(doc []byte) error) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

func (m *MockArtifactStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockDedupIndex is a mock of DeduplicationIndex.
type MockDedupIndex struct {
	mock.Mock
}

func (m *MockDedupIndex) CheckAndReserve(ctx context.Context, contentHash string, lease time.Duration) (ports.Reservation, error) {
	args := m.Called(ctx, contentHash, lease)
	return args.Get(0).(ports.Reservation), args.Error(1)
}

func (m *MockDedupIndex) Commit(ctx context.Context, art *domain.Artifact) error {
	args := m.Called(ctx, art)
	return args.Error(0)
}

func (m *MockDedupIndex) Release(ctx context.Context, contentHash string) error {
	args := m.Called(ctx, contentHash)
	return args.Error(0)
}

func (m *MockDedupIndex) ReleaseExpired(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockArtifactRepo is a mock of ArtifactRepository.
type MockArtifactRepo struct {
	mock.Mock
}

func (m *MockArtifactRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Artifact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Artifact), args.Error(1)
}

func (m *MockArtifactRepo) GetByHash(ctx context.Context, contentHash string) (*domain.Artifact, error) {
	args := m.Called(ctx, contentHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Artifact), args.Error(1)
}

func (m *MockArtifactRepo) List(ctx context.Context, filter ports.ArtifactFilter) ([]*domain.Artifact, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Artifact), args.Error(1)
}

func (m *MockArtifactRepo) CountByLabel(ctx context.Context) (map[domain.Label]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.Label]int), args.Error(1)
}

func (m *MockArtifactRepo) UpdateLabel(ctx context.Context, id uuid.UUID, label domain.Label, confidence *float64) error {
	args := m.Called(ctx, id, label, confidence)
	return args.Error(0)
}

// MockRegistryRepo is a mock of RegistryRepository.
type MockRegistryRepo struct {
	mock.Mock
}

func (m *MockRegistryRepo) Append(ctx context.Context, entry *domain.ModelVersion) (*domain.ModelVersion, error) {
	args := m.Called(ctx, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ModelVersion), args.Error(1)
}

func (m *MockRegistryRepo) Latest(ctx context.Context, modelName string) (*domain.ModelVersion, error) {
	args := m.Called(ctx, modelName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ModelVersion), args.Error(1)
}

func (m *MockRegistryRepo) History(ctx context.Context, modelName string) ([]*domain.ModelVersion, error) {
	args := m.Called(ctx, modelName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ModelVersion), args.Error(1)
}

func (m *MockRegistryRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockFetcher is a mock of Fetcher.
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchBatch(ctx context.Context, limit int) ([]domain.SourceItem, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SourceItem), args.Error(1)
}

func (m *MockFetcher) SourceName() string {
	args := m.Called()
	return args.String(0)
}

// MockTrainingRunner is a mock of TrainingRunner.
type MockTrainingRunner struct {
	mock.Mock
}

func (m *MockTrainingRunner) Evaluate(ctx context.Context, dataset domain.DatasetSnapshot, split domain.SplitPlan) (domain.Metrics, error) {
	args := m.Called(ctx, dataset, split)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Metrics), args.Error(1)
}

// MockDetectorClient is a mock of DetectorClient.
type MockDetectorClient struct {
	mock.Mock
}

func (m *MockDetectorClient) Classify(ctx context.Context, image []byte) (*ports.Detection, error) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Detection), args.Error(1)
}
