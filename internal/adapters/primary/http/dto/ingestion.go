package dto

import (
	"time"

	"model-trainer-service/internal/core/domain"
)

type RunIngestionRequest struct {
	// Sources narrows the run; empty means every enabled source.
	Sources []string `json:"sources"`
}

type SourceReportResponse struct {
	Attempted  int    `json:"attempted"`
	Accepted   int    `json:"accepted"`
	Duplicates int    `json:"duplicates"`
	Failed     int    `json:"failed"`
	Failure    string `json:"failure,omitempty"`
	Error      string `json:"error,omitempty"`
}

type IngestionReportResponse struct {
	StartedAt     time.Time                       `json:"started_at"`
	DurationMS    int64                           `json:"duration_ms"`
	TotalAccepted int                             `json:"total_accepted"`
	PerSource     map[string]SourceReportResponse `json:"per_source"`
}

func ToIngestionReportResponse(r *domain.IngestionReport) IngestionReportResponse {
	resp := IngestionReportResponse{
		StartedAt:     r.StartedAt,
		DurationMS:    r.Duration.Milliseconds(),
		TotalAccepted: r.TotalAccepted,
		PerSource:     make(map[string]SourceReportResponse, len(r.PerSource)),
	}
	for name, sr := range r.PerSource {
		resp.PerSource[name] = SourceReportResponse{
			Attempted:  sr.Attempted,
			Accepted:   sr.Accepted,
			Duplicates: sr.Duplicates,
			Failed:     sr.Failed,
			Failure:    string(sr.Failure),
			Error:      sr.Error,
		}
	}
	return resp
}
