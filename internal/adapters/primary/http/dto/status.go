package dto

import (
	"time"

	"model-trainer-service/internal/core/domain"
	"model-trainer-service/internal/core/services"
)

type DatasetStatsResponse struct {
	Total       int            `json:"total"`
	Real        int            `json:"real"`
	AIGenerated int            `json:"ai_generated"`
	Unlabeled   int            `json:"unlabeled"`
	ByLabel     map[string]int `json:"by_label"`
	AsOf        time.Time      `json:"as_of"`
}

func ToDatasetStatsResponse(s domain.DatasetSnapshot) DatasetStatsResponse {
	byLabel := make(map[string]int, len(s.ByLabel))
	for label, n := range s.ByLabel {
		byLabel[string(label)] = n
	}
	return DatasetStatsResponse{
		Total:       s.Total,
		Real:        s.Real,
		AIGenerated: s.AIGenerated,
		Unlabeled:   s.Unlabeled,
		ByLabel:     byLabel,
		AsOf:        s.AsOf,
	}
}

type StatusResponse struct {
	StartedAt        time.Time `json:"started_at"`
	UptimeSeconds    int64     `json:"uptime_seconds"`
	IngestionRunning bool      `json:"ingestion_running"`
	TrainingRunning  bool      `json:"training_running"`

	LastIngestionAt    *time.Time               `json:"last_ingestion_at,omitempty"`
	LastIngestion      *IngestionReportResponse `json:"last_ingestion,omitempty"`
	LastIngestionError string                   `json:"last_ingestion_error,omitempty"`

	LastTrainingAt    *time.Time            `json:"last_training_at,omitempty"`
	LastTraining      *ModelVersionResponse `json:"last_training,omitempty"`
	LastTrainingError string                `json:"last_training_error,omitempty"`

	Dataset DatasetStatsResponse `json:"dataset"`
}

func ToStatusResponse(st services.RunStatus, stats domain.DatasetSnapshot) StatusResponse {
	resp := StatusResponse{
		StartedAt:          st.StartedAt,
		UptimeSeconds:      int64(time.Since(st.StartedAt).Seconds()),
		IngestionRunning:   st.IngestionRunning,
		TrainingRunning:    st.TrainingRunning,
		LastIngestionError: st.LastIngestionErr,
		LastTrainingError:  st.LastTrainingErr,
		Dataset:            ToDatasetStatsResponse(stats),
	}
	if !st.LastIngestionAt.IsZero() {
		at := st.LastIngestionAt
		resp.LastIngestionAt = &at
	}
	if st.LastIngestion != nil {
		report := ToIngestionReportResponse(st.LastIngestion)
		resp.LastIngestion = &report
	}
	if !st.LastTrainingAt.IsZero() {
		at := st.LastTrainingAt
		resp.LastTrainingAt = &at
	}
	if st.LastTraining != nil {
		version := ToModelVersionResponse(st.LastTraining)
		resp.LastTraining = &version
	}
	return resp
}
