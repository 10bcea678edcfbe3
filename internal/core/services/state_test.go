package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"model-trainer-service/internal/core/domain"
)

func TestRunTracker_SerializesRuns(t *testing.T) {
	tr := NewRunTracker()

	require.True(t, tr.TryBeginIngestion())
	assert.False(t, tr.TryBeginIngestion())

	// The two pipelines hold independent slots.
	require.True(t, tr.TryBeginTraining())
	assert.False(t, tr.TryBeginTraining())

	tr.EndIngestion(nil, nil)
	assert.True(t, tr.TryBeginIngestion())

	tr.EndTraining(nil, nil)
	assert.True(t, tr.TryBeginTraining())
}

func TestRunTracker_KeepsLastGoodOutcomeAcrossFailedRun(t *testing.T) {
	tr := NewRunTracker()

	good := domain.NewIngestionReport(time.Now().UTC())
	good.TotalAccepted = 12
	require.True(t, tr.TryBeginIngestion())
	tr.EndIngestion(good, nil)

	require.True(t, tr.TryBeginIngestion())
	tr.EndIngestion(nil, errors.New("storage ping: down"))

	st := tr.Status()
	require.NotNil(t, st.LastIngestion)
	assert.Equal(t, 12, st.LastIngestion.TotalAccepted)
	assert.Equal(t, "storage ping: down", st.LastIngestionErr)
	assert.False(t, st.IngestionRunning)
}

func TestRunTracker_ClearsErrorOnNextSuccess(t *testing.T) {
	tr := NewRunTracker()

	require.True(t, tr.TryBeginTraining())
	tr.EndTraining(nil, errors.New("evaluate vit: boom"))
	assert.NotEmpty(t, tr.Status().LastTrainingErr)

	require.True(t, tr.TryBeginTraining())
	tr.EndTraining(&domain.ModelVersion{ModelName: "vit", Version: 1}, nil)

	st := tr.Status()
	assert.Empty(t, st.LastTrainingErr)
	require.NotNil(t, st.LastTraining)
	assert.Equal(t, 1, st.LastTraining.Version)
	assert.False(t, st.LastTrainingAt.IsZero())
}
