package dto

import (
	"time"

	"github.com/google/uuid"

	"model-trainer-service/internal/core/domain"
)

type AttributionResponse struct {
	Platform   string `json:"platform"`
	Author     string `json:"author"`
	License    string `json:"license"`
	URL        string `json:"url"`
	CreditLine string `json:"credit_line"`
}

type ArtifactResponse struct {
	ID              uuid.UUID              `json:"id"`
	ContentHash     string                 `json:"content_hash"`
	Source          string                 `json:"source"`
	Label           string                 `json:"label"`
	LabelConfidence *float64               `json:"label_confidence,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	Attribution     *AttributionResponse   `json:"attribution,omitempty"`
	SourceMetadata  map[string]interface{} `json:"source_metadata,omitempty"`
	Location        string                 `json:"location"`
}

type ListArtifactsResponse struct {
	Items    []ArtifactResponse `json:"items"`
	Count    int                `json:"count"`
	PageSize int                `json:"page_size"`
}

type RelabelArtifactRequest struct {
	Label      string   `json:"label" binding:"required"`
	Confidence *float64 `json:"confidence"`
}

func ToArtifactResponse(a *domain.Artifact) ArtifactResponse {
	resp := ArtifactResponse{
		ID:              a.ID,
		ContentHash:     a.ContentHash,
		Source:          a.Source,
		Label:           string(a.Label),
		LabelConfidence: a.LabelConfidence,
		CreatedAt:       a.CreatedAt,
		SourceMetadata:  a.SourceMetadata,
		Location:        a.Location,
	}
	if a.Attribution != nil {
		resp.Attribution = &AttributionResponse{
			Platform:   a.Attribution.Platform,
			Author:     a.Attribution.Author,
			License:    a.Attribution.License,
			URL:        a.Attribution.URL,
			CreditLine: a.Attribution.CreditLine(),
		}
	}
	return resp
}
