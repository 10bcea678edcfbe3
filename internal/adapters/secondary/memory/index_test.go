package memory

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"model-trainer-service/internal/adapters/secondary/localfs"
	"model-trainer-service/internal/core/domain"
	ports "model-trainer-service/internal/core/ports/output"
)

func testArtifact(hash string, label domain.Label) *domain.Artifact {
	return &domain.Artifact{
		ID:          uuid.New(),
		ContentHash: hash,
		Source:      domain.SourceUnsplash,
		Label:       label,
		CreatedAt:   time.Now().UTC(),
		Location:    "images/2026/01/01/" + hash + ".jpg",
	}
}

func TestIndex_ReserveCommitDuplicate(t *testing.T) {
	x := NewIndex()
	ctx := context.Background()

	res, err := x.CheckAndReserve(ctx, "abc", time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Accepted)

	art := testArtifact("abc", domain.LabelReal)
	require.NoError(t, x.Commit(ctx, art))

	// The same content seen again is a duplicate pointing at the winner.
	res, err = x.CheckAndReserve(ctx, "abc", time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, art.Location, res.ExistingLocation)
}

func TestIndex_ConcurrentReserveSingleWinner(t *testing.T) {
	x := NewIndex()
	ctx := context.Background()

	const attempts = 32
	accepted := make(chan bool, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := x.CheckAndReserve(ctx, "same-hash", time.Minute)
			assert.NoError(t, err)
			accepted <- res.Accepted
		}()
	}
	wg.Wait()
	close(accepted)

	winners := 0
	for ok := range accepted {
		if ok {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}

func TestIndex_PendingReservationBlocksWithoutLocation(t *testing.T) {
	x := NewIndex()
	ctx := context.Background()

	res, err := x.CheckAndReserve(ctx, "abc", time.Minute)
	require.NoError(t, err)
	require.True(t, res.Accepted)

	// The winner has not committed yet: the loser sees a duplicate with no
	// location to point at.
	res, err = x.CheckAndReserve(ctx, "abc", time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Empty(t, res.ExistingLocation)
}

func TestIndex_ReleaseMakesHashRetryable(t *testing.T) {
	x := NewIndex()
	ctx := context.Background()

	res, err := x.CheckAndReserve(ctx, "abc", time.Minute)
	require.NoError(t, err)
	require.True(t, res.Accepted)

	require.NoError(t, x.Release(ctx, "abc"))

	res, err = x.CheckAndReserve(ctx, "abc", time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Accepted)
}

func TestIndex_ExpiredLeaseIsReclaimed(t *testing.T) {
	x := NewIndex()
	ctx := context.Background()

	now := time.Now().UTC()
	x.now = func() time.Time { return now }

	res, err := x.CheckAndReserve(ctx, "abc", time.Minute)
	require.NoError(t, err)
	require.True(t, res.Accepted)

	// Within the lease the claim holds.
	now = now.Add(30 * time.Second)
	res, err = x.CheckAndReserve(ctx, "abc", time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Accepted)

	// Past the lease a new attempt takes the claim over.
	now = now.Add(2 * time.Minute)
	res, err = x.CheckAndReserve(ctx, "abc", time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Accepted)
}

func TestIndex_ReleaseExpired(t *testing.T) {
	x := NewIndex()
	ctx := context.Background()

	now := time.Now().UTC()
	x.now = func() time.Time { return now }

	for _, hash := range []string{"a", "b", "c"} {
		_, err := x.CheckAndReserve(ctx, hash, time.Minute)
		require.NoError(t, err)
	}
	require.NoError(t, x.Commit(ctx, testArtifact("c", domain.LabelReal)))

	now = now.Add(5 * time.Minute)
	released, err := x.ReleaseExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, released)

	// Committed entries are never reclaimed.
	res, err := x.CheckAndReserve(ctx, "c", time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Accepted)
}

func TestIndex_CommitWithoutReservation(t *testing.T) {
	x := NewIndex()
	err := x.Commit(context.Background(), testArtifact("ghost", domain.LabelReal))
	assert.Error(t, err)
}

func TestIndex_Queries(t *testing.T) {
	x := NewIndex()
	ctx := context.Background()

	arts := []*domain.Artifact{
		testArtifact("h1", domain.LabelReal),
		testArtifact("h2", domain.LabelReal),
		testArtifact("h3", domain.LabelAIGenerated),
		testArtifact("h4", domain.LabelNone),
	}
	arts[2].Source = domain.SourceLexica
	for _, a := range arts {
		_, err := x.CheckAndReserve(ctx, a.ContentHash, time.Minute)
		require.NoError(t, err)
		require.NoError(t, x.Commit(ctx, a))
	}

	got, err := x.GetByID(ctx, arts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, arts[0].ContentHash, got.ContentHash)

	_, err = x.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrArtifactNotFound)

	got, err = x.GetByHash(ctx, "h3")
	require.NoError(t, err)
	assert.Equal(t, domain.LabelAIGenerated, got.Label)

	counts, err := x.CountByLabel(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[domain.LabelReal])
	assert.Equal(t, 1, counts[domain.LabelAIGenerated])
	assert.Equal(t, 1, counts[domain.LabelNone])

	real := domain.LabelReal
	listed, err := x.List(ctx, ports.ArtifactFilter{Label: &real})
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	listed, err = x.List(ctx, ports.ArtifactFilter{Source: domain.SourceLexica})
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	listed, err = x.List(ctx, ports.ArtifactFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestIndex_UpdateLabel(t *testing.T) {
	x := NewIndex()
	ctx := context.Background()

	art := testArtifact("h1", domain.LabelNone)
	_, err := x.CheckAndReserve(ctx, art.ContentHash, time.Minute)
	require.NoError(t, err)
	require.NoError(t, x.Commit(ctx, art))

	conf := 0.93
	require.NoError(t, x.UpdateLabel(ctx, art.ID, domain.LabelAIGenerated, &conf))

	got, err := x.GetByID(ctx, art.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LabelAIGenerated, got.Label)
	require.NotNil(t, got.LabelConfidence)
	assert.Equal(t, conf, *got.LabelConfidence)

	err = x.UpdateLabel(ctx, uuid.New(), domain.LabelReal, nil)
	assert.ErrorIs(t, err, domain.ErrArtifactNotFound)
}

func TestIndex_RebuildFromStore(t *testing.T) {
	ctx := context.Background()
	store, err := localfs.NewStore(t.TempDir())
	require.NoError(t, err)

	// Persist two artifacts the way ingestion does: binary, then side-car.
	x := NewIndex()
	for _, art := range []*domain.Artifact{
		testArtifact("h1", domain.LabelReal),
		testArtifact("h2", domain.LabelAI),
	} {
		_, err := x.CheckAndReserve(ctx, art.ContentHash, time.Minute)
		require.NoError(t, err)
		loc, err := store.Put(ctx, art.StorageKey(), []byte(art.ContentHash))
		require.NoError(t, err)
		art.Location = loc
		doc, err := json.Marshal(art)
		require.NoError(t, err)
		_, err = store.PutMetadata(ctx, art.StorageKey(), doc)
		require.NoError(t, err)
		require.NoError(t, x.Commit(ctx, art))
	}

	// A fresh index rebuilt from the store sees the same population.
	rebuilt := NewIndex()
	n, err := rebuilt.Rebuild(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	counts, err := rebuilt.CountByLabel(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[domain.LabelReal])
	assert.Equal(t, 1, counts[domain.LabelAI])

	res, err := rebuilt.CheckAndReserve(ctx, "h1", time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Accepted)
}
