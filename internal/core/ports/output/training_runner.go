package ports

import (
	"context"

	"model-trainer-service/internal/core/domain"
)

// TrainingRunner is the externally supplied model-fitting capability. The
// engine only depends on this contract; the fitting algorithm itself is out
// of its hands. Evaluate receives the dataset composition and the split to
// train against and returns the evaluation metrics for the resulting model.
type TrainingRunner interface {
	Evaluate(ctx context.Context, dataset domain.DatasetSnapshot, split domain.SplitPlan) (domain.Metrics, error)
}
