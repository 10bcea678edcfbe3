package services

import (
	"sync"
	"time"

	"model-trainer-service/internal/core/domain"
)

// RunStatus is a point-in-time view of the run state for status reporting.
type RunStatus struct {
	StartedAt        time.Time
	IngestionRunning bool
	TrainingRunning  bool

	LastIngestionAt  time.Time
	LastIngestion    *domain.IngestionReport
	LastIngestionErr string

	LastTrainingAt  time.Time
	LastTraining    *domain.ModelVersion
	LastTrainingErr string
}

// RunTracker serializes the two long-running pipelines and remembers their
// most recent outcomes. Both the HTTP triggers and the scheduler go through
// it, so a run is never re-entered no matter who started it.
type RunTracker struct {
	mu        sync.Mutex
	startedAt time.Time

	ingestionRunning bool
	trainingRunning  bool

	lastIngestionAt  time.Time
	lastIngestion    *domain.IngestionReport
	lastIngestionErr string

	lastTrainingAt  time.Time
	lastTraining    *domain.ModelVersion
	lastTrainingErr string
}

func NewRunTracker() *RunTracker {
	return &RunTracker{startedAt: time.Now().UTC()}
}

// TryBeginIngestion claims the ingestion slot. It returns false when a run
// is already in flight.
func (t *RunTracker) TryBeginIngestion() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ingestionRunning {
		return false
	}
	t.ingestionRunning = true
	return true
}

// EndIngestion releases the ingestion slot and records the outcome. A nil
// report with a non-nil err marks an aborted run.
func (t *RunTracker) EndIngestion(report *domain.IngestionReport, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ingestionRunning = false
	t.lastIngestionAt = time.Now().UTC()
	t.lastIngestionErr = ""
	if report != nil {
		t.lastIngestion = report
	}
	if err != nil {
		t.lastIngestionErr = err.Error()
	}
}

// TryBeginTraining claims the training slot. It returns false when a cycle
// is already in flight.
func (t *RunTracker) TryBeginTraining() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.trainingRunning {
		return false
	}
	t.trainingRunning = true
	return true
}

// EndTraining releases the training slot and records the outcome.
func (t *RunTracker) EndTraining(version *domain.ModelVersion, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.trainingRunning = false
	t.lastTrainingAt = time.Now().UTC()
	t.lastTrainingErr = ""
	if version != nil {
		t.lastTraining = version
	}
	if err != nil {
		t.lastTrainingErr = err.Error()
	}
}

func (t *RunTracker) Status() RunStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return RunStatus{
		StartedAt:        t.startedAt,
		IngestionRunning: t.ingestionRunning,
		TrainingRunning:  t.trainingRunning,
		LastIngestionAt:  t.lastIngestionAt,
		LastIngestion:    t.lastIngestion,
		LastIngestionErr: t.lastIngestionErr,
		LastTrainingAt:   t.lastTrainingAt,
		LastTraining:     t.lastTraining,
		LastTrainingErr:  t.lastTrainingErr,
	}
}
