package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"model-trainer-service/internal/core/domain"
	ports "model-trainer-service/internal/core/ports/output"
)

type entryState int

const (
	statePending entryState = iota
	stateCommitted
)

type entry struct {
	state     entryState
	expiresAt time.Time
	artifact  *domain.Artifact
}

// Index is the in-process deduplication index and artifact view for the
// single-instance profile. Durability comes from the metadata side-cars in
// the artifact store: Rebuild scans them on startup and repopulates the
// index, so losing the process never loses the dedup history.
//
// The mutex guards only map operations, never IO, so concurrent ingestion
// of distinct hashes is effectively contention-free.
type Index struct {
	mu      sync.Mutex
	entries map[string]*entry
	byID    map[uuid.UUID]string
	now     func() time.Time
}

func NewIndex() *Index {
	return &Index{
		entries: map[string]*entry{},
		byID:    map[uuid.UUID]string{},
		now:     time.Now,
	}
}

var (
	_ ports.DeduplicationIndex = (*Index)(nil)
	_ ports.ArtifactRepository = (*Index)(nil)
)

// Rebuild repopulates the index from the store's metadata documents.
// Documents that fail to decode are skipped with a warning; they indicate
// side-car corruption, not a reason to refuse startup.
func (x *Index) Rebuild(ctx context.Context, store ports.ArtifactStore) (int, error) {
	restored := 0
	err := store.ListMetadata(ctx, func(doc []byte) error {
		var art domain.Artifact
		if err := json.Unmarshal(doc, &art); err != nil {
			log.WithError(err).Warn("skipping undecodable artifact metadata")
			return nil
		}
		x.mu.Lock()
		x.entries[art.ContentHash] = &entry{state: stateCommitted, artifact: &art}
		x.byID[art.ID] = art.ContentHash
		x.mu.Unlock()
		restored++
		return nil
	})
	if err != nil {
		return restored, fmt.Errorf("rebuild index: %w", err)
	}
	return restored, nil
}

func (x *Index) CheckAndReserve(ctx context.Context, contentHash string, lease time.Duration) (ports.Reservation, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if e, ok := x.entries[contentHash]; ok {
		switch {
		case e.state == stateCommitted:
			return ports.Reservation{ExistingLocation: e.artifact.Location}, nil
		case x.now().Before(e.expiresAt):
			// Another attempt holds a live reservation; its write is in
			// flight, so there is no location to point at yet.
			return ports.Reservation{}, nil
		}
		// Abandoned reservation, lease expired: reclaim it.
	}
	x.entries[contentHash] = &entry{state: statePending, expiresAt: x.now().Add(lease)}
	return ports.Reservation{Accepted: true}, nil
}

func (x *Index) Commit(ctx context.Context, art *domain.Artifact) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	e, ok := x.entries[art.ContentHash]
	if !ok || e.state != statePending {
		return fmt.Errorf("commit %s: reservation lost", art.ContentHash)
	}
	e.state = stateCommitted
	e.artifact = art
	e.expiresAt = time.Time{}
	x.byID[art.ID] = art.ContentHash
	return nil
}

func (x *Index) Release(ctx context.Context, contentHash string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if e, ok := x.entries[contentHash]; ok && e.state == statePending {
		delete(x.entries, contentHash)
	}
	return nil
}

func (x *Index) ReleaseExpired(ctx context.Context) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	released := 0
	now := x.now()
	for hash, e := range x.entries {
		if e.state == statePending && now.After(e.expiresAt) {
			delete(x.entries, hash)
			released++
		}
	}
	return released, nil
}

func (x *Index) GetByID(ctx context.Context, id uuid.UUID) (*domain.Artifact, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	hash, ok := x.byID[id]
	if !ok {
		return nil, domain.ErrArtifactNotFound
	}
	return x.artifactLocked(hash)
}

func (x *Index) GetByHash(ctx context.Context, contentHash string) (*domain.Artifact, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.artifactLocked(contentHash)
}

func (x *Index) artifactLocked(hash string) (*domain.Artifact, error) {
	e, ok := x.entries[hash]
	if !ok || e.state != stateCommitted {
		return nil, domain.ErrArtifactNotFound
	}
	clone := *e.artifact
	return &clone, nil
}

func (x *Index) List(ctx context.Context, filter ports.ArtifactFilter) ([]*domain.Artifact, error) {
	x.mu.Lock()
	var all []*domain.Artifact
	for _, e := range x.entries {
		if e.state != stateCommitted {
			continue
		}
		if filter.Label != nil && e.artifact.Label != *filter.Label {
			continue
		}
		if filter.Source != "" && e.artifact.Source != filter.Source {
			continue
		}
		clone := *e.artifact
		all = append(all, &clone)
	}
	x.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	if filter.Limit > 0 && len(all) > filter.Limit {
		all = all[:filter.Limit]
	}
	return all, nil
}

func (x *Index) CountByLabel(ctx context.Context) (map[domain.Label]int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	counts := map[domain.Label]int{}
	for _, e := range x.entries {
		if e.state == stateCommitted {
			counts[e.artifact.Label]++
		}
	}
	return counts, nil
}

func (x *Index) UpdateLabel(ctx context.Context, id uuid.UUID, label domain.Label, confidence *float64) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	hash, ok := x.byID[id]
	if !ok {
		return domain.ErrArtifactNotFound
	}
	e := x.entries[hash]
	if e == nil || e.state != stateCommitted {
		return domain.ErrArtifactNotFound
	}
	e.artifact.Label = label
	e.artifact.LabelConfidence = confidence
	return nil
}
