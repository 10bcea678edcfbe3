package ports

import "context"

// Detection is one classification result from the external detector.
type Detection struct {
	AIProbability float64 `json:"ai_probability"`
	Model         string  `json:"model,omitempty"`
}

// DetectorClient calls the external image classifier used for auto-labeling
// artifacts whose fetcher could not supply a label. Optional capability;
// classification failures leave artifacts unlabeled.
type DetectorClient interface {
	Classify(ctx context.Context, image []byte) (*Detection, error)
}
