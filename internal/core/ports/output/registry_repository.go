package ports

import (
	"context"

	"model-trainer-service/internal/core/domain"
)

// RegistryRepository is the append-only ledger of trained model versions.
// Append assigns the next version number atomically per model name:
// concurrent appends never produce duplicates or gaps. Entries are immutable
// once written.
type RegistryRepository interface {
	// Append persists entry, assigning Version, ID and CreatedAt. The
	// passed entry is not mutated; the stored record is returned.
	Append(ctx context.Context, entry *domain.ModelVersion) (*domain.ModelVersion, error)
	// Latest returns the highest version for modelName, or
	// domain.ErrModelNotFound when none exists.
	Latest(ctx context.Context, modelName string) (*domain.ModelVersion, error)
	// History returns all versions for modelName in ascending version
	// order, newest last. An empty history is not an error.
	History(ctx context.Context, modelName string) ([]*domain.ModelVersion, error)
	// Count returns the total number of versions across all models.
	Count(ctx context.Context) (int, error)
}
