package domain

import "time"

// DatasetSnapshot is a point-in-time composition summary of the persisted
// artifact population. It is always recomputed from durable records, never
// stored, so it cannot drift from the artifacts it summarizes.
type DatasetSnapshot struct {
	Total       int           `json:"total"`
	Real        int           `json:"real"`
	AIGenerated int           `json:"ai_generated"`
	Unlabeled   int           `json:"unlabeled"`
	ByLabel     map[Label]int `json:"by_label"`
	AsOf        time.Time     `json:"as_of"`
}

func NewDatasetSnapshot(byLabel map[Label]int, asOf time.Time) DatasetSnapshot {
	s := DatasetSnapshot{ByLabel: byLabel, AsOf: asOf}
	if s.ByLabel == nil {
		s.ByLabel = map[Label]int{}
	}
	for label, n := range s.ByLabel {
		s.Total += n
		switch {
		case label == LabelReal:
			s.Real += n
		case label.Synthetic():
			s.AIGenerated += n
		case label == LabelNone:
			s.Unlabeled += n
		}
	}
	return s
}

// SplitPlan is the train/validation partition for one training cycle.
type SplitPlan struct {
	TrainSize int   `json:"train_size"`
	ValSize   int   `json:"val_size"`
	Seed      int64 `json:"seed"`
}

// SplitDataset partitions total into train and validation sets. The
// validation share is truncated, so the training side keeps the remainder
// (51 with a 0.1 ratio gives 46 train / 5 val).
func SplitDataset(total int, valRatio float64, seed int64) SplitPlan {
	val := int(float64(total) * valRatio)
	return SplitPlan{TrainSize: total - val, ValSize: val, Seed: seed}
}
