package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"model-trainer-service/internal/core/domain"
)

// Reservation is the outcome of an atomic claim on a content hash. Exactly
// one of two concurrent claims for the same hash is accepted; the loser sees
// the winner's location once committed, or an empty location while the
// winning write is still in flight.
type Reservation struct {
	Accepted         bool
	ExistingLocation string
}

// DeduplicationIndex is the single authority on whether an exact payload has
// been seen before. Reservations are leased: a claim that is neither
// committed nor released becomes reclaimable after its lease expires, so a
// crashed run never blocks future ingestion of the same content.
type DeduplicationIndex interface {
	// CheckAndReserve atomically claims contentHash if absent.
	CheckAndReserve(ctx context.Context, contentHash string, lease time.Duration) (Reservation, error)
	// Commit finalizes a reservation with the persisted artifact record.
	Commit(ctx context.Context, art *domain.Artifact) error
	// Release drops a pending reservation after a failed write.
	Release(ctx context.Context, contentHash string) error
	// ReleaseExpired reclaims abandoned reservations, returning the count.
	ReleaseExpired(ctx context.Context) (int, error)
}

type ArtifactFilter struct {
	Label   *domain.Label
	Source  string
	Limit   int
	Created time.Time
}

// ArtifactRepository is the queryable view over committed artifacts. It is
// backed by the same records the deduplication index commits, so its counts
// always agree with what was actually persisted.
type ArtifactRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Artifact, error)
	GetByHash(ctx context.Context, contentHash string) (*domain.Artifact, error)
	List(ctx context.Context, filter ArtifactFilter) ([]*domain.Artifact, error)
	// CountByLabel groups the committed population by label.
	CountByLabel(ctx context.Context) (map[domain.Label]int, error)
	// UpdateLabel overwrites the label (last write wins). The ingestion path
	// never calls this; it exists for the external labeling capability.
	UpdateLabel(ctx context.Context, id uuid.UUID, label domain.Label, confidence *float64) error
}
