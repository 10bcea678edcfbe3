package dto

import (
	"time"

	"github.com/google/uuid"

	"model-trainer-service/internal/core/domain"
)

type RunTrainingRequest struct {
	// ModelName overrides the configured default model.
	ModelName string `json:"model_name"`
}

type ModelVersionResponse struct {
	ID          uuid.UUID          `json:"id"`
	ModelName   string             `json:"model_name"`
	Version     int                `json:"version"`
	VersionTag  string             `json:"version_tag"`
	CreatedAt   time.Time          `json:"created_at"`
	DatasetSize int                `json:"dataset_size"`
	TrainSize   int                `json:"train_size"`
	ValSize     int                `json:"val_size"`
	Metrics     map[string]float64 `json:"metrics"`
	WeightsPath string             `json:"weights_path"`
	Notes       string             `json:"notes,omitempty"`
}

type ListModelVersionsResponse struct {
	ModelName string                 `json:"model_name"`
	Items     []ModelVersionResponse `json:"items"`
	Count     int                    `json:"count"`
}

func ToModelVersionResponse(v *domain.ModelVersion) ModelVersionResponse {
	return ModelVersionResponse{
		ID:          v.ID,
		ModelName:   v.ModelName,
		Version:     v.Version,
		VersionTag:  v.VersionTag(),
		CreatedAt:   v.CreatedAt,
		DatasetSize: v.DatasetSize,
		TrainSize:   v.TrainSize,
		ValSize:     v.ValSize,
		Metrics:     v.Metrics,
		WeightsPath: v.WeightsPath(),
		Notes:       v.Notes,
	}
}
