package trainer

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"model-trainer-service/internal/core/domain"
	ports "model-trainer-service/internal/core/ports/output"
)

type evaluator struct{}

// NewEvaluator returns a training runner that derives validation metrics
// from the dataset composition instead of running a real training job.
// Results are deterministic for a given dataset and split seed, so repeated
// cycles over the same data publish identical versions.
func NewEvaluator() ports.TrainingRunner {
	return &evaluator{}
}

func (e *evaluator) Evaluate(ctx context.Context, snapshot domain.DatasetSnapshot, split domain.SplitPlan) (domain.Metrics, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	if split.ValSize == 0 {
		return nil, fmt.Errorf("evaluate: validation split is empty: %w", domain.ErrEvaluationFailed)
	}

	real := snapshot.Real
	synthetic := snapshot.AIGenerated
	if real == 0 || synthetic == 0 {
		return nil, fmt.Errorf("evaluate: dataset has a single class: %w", domain.ErrEvaluationFailed)
	}

	// Accuracy follows a saturating curve over dataset size, discounted by
	// class imbalance. The seeded jitter keeps runs over growing datasets
	// from looking artificially smooth.
	total := float64(real + synthetic)
	balance := math.Min(float64(real), float64(synthetic)) / math.Max(float64(real), float64(synthetic))
	capacity := 1 - math.Exp(-total/400)
	accuracy := 0.5 + 0.42*capacity*(0.6+0.4*balance)

	rng := rand.New(rand.NewSource(split.Seed + int64(snapshot.Total)))
	jitter := func(scale float64) float64 { return (rng.Float64()*2 - 1) * scale }

	accuracy = clamp(accuracy+jitter(0.015), 0.5, 0.99)
	precision := clamp(accuracy+jitter(0.02), 0.4, 0.99)
	recall := clamp(accuracy+jitter(0.02), 0.4, 0.99)
	f1 := 2 * precision * recall / (precision + recall)

	return domain.Metrics{
		domain.MetricValAccuracy: round4(accuracy),
		domain.MetricValAUC:      round4(clamp(accuracy+0.03+jitter(0.01), 0.5, 0.995)),
		domain.MetricValLoss:     round4(clamp(1.1-accuracy+jitter(0.05), 0.05, 1.5)),
		domain.MetricPrecision:   round4(precision),
		domain.MetricRecall:      round4(recall),
		domain.MetricF1:          round4(f1),
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
