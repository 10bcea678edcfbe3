package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Metric names produced by evaluation. The metrics map is open-ended;
// these are the keys the engine itself reads back.
const (
	MetricValAccuracy = "val_accuracy"
	MetricValAUC      = "val_auc"
	MetricValLoss     = "val_loss"
	MetricPrecision   = "precision"
	MetricRecall      = "recall"
	MetricF1          = "f1"
)

type Metrics map[string]float64

// ValidateModelName rejects names that cannot serve as registry keys or as
// path segments in weights locations.
func ValidateModelName(name string) error {
	if name == "" || len(name) > 64 || name == "." || name == ".." {
		return ErrInvalidModelName
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			return ErrInvalidModelName
		}
	}
	return nil
}

// ModelVersion is one completed training run. Entries are immutable once
// appended; the registry never edits or removes them.
type ModelVersion struct {
	ID          uuid.UUID `json:"id"`
	ModelName   string    `json:"model_name"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	DatasetSize int       `json:"dataset_size"`
	TrainSize   int       `json:"train_size"`
	ValSize     int       `json:"val_size"`
	Metrics     Metrics   `json:"metrics"`
	Notes       string    `json:"notes,omitempty"`
}

// VersionTag renders the version the way downstream consumers address it.
func (v *ModelVersion) VersionTag() string {
	return fmt.Sprintf("v%d", v.Version)
}

// WeightsPath is the stable download path the sync consumer polls for.
func (v *ModelVersion) WeightsPath() string {
	return fmt.Sprintf("models/%s/%s/weights.pt", v.ModelName, v.VersionTag())
}

// ValAccuracy returns the validation accuracy metric, if recorded.
func (v *ModelVersion) ValAccuracy() (float64, bool) {
	if v.Metrics == nil {
		return 0, false
	}
	acc, ok := v.Metrics[MetricValAccuracy]
	return acc, ok
}
