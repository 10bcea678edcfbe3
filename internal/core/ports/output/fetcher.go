package ports

import (
	"context"

	"model-trainer-service/internal/core/domain"
)

// Fetcher retrieves a bounded batch of candidate artifacts from one external
// origin. Each implementation owns its credentials, its per-source rate
// budget, and the translation of the origin's responses into the common
// provenance shape.
//
// Per-download failures are absorbed internally (the returned batch is just
// smaller). Source-level failures return the partial batch together with an
// error wrapping domain.ErrSourceRateLimited or domain.ErrSourceUnavailable;
// the caller isolates them per source. A fetcher must never panic its way
// out of a batch.
type Fetcher interface {
	FetchBatch(ctx context.Context, limit int) ([]domain.SourceItem, error)
	SourceName() string
}
