package handlers

import (
	"github.com/gin-gonic/gin"

	ports "model-trainer-service/internal/core/ports/output"
	"model-trainer-service/internal/core/services"
)

type Handler struct {
	ingestionSvc *services.IngestionService
	trainingSvc  *services.TrainingService
	datasetSvc   *services.DatasetService
	modelSvc     *services.ModelService
	metricsSvc   *services.MetricsService
	tracker      *services.RunTracker
	store        ports.ArtifactStore
}

func New(
	ingestionSvc *services.IngestionService,
	trainingSvc *services.TrainingService,
	datasetSvc *services.DatasetService,
	modelSvc *services.ModelService,
	metricsSvc *services.MetricsService,
	tracker *services.RunTracker,
	store ports.ArtifactStore,
) *Handler {
	return &Handler{
		ingestionSvc: ingestionSvc,
		trainingSvc:  trainingSvc,
		datasetSvc:   datasetSvc,
		modelSvc:     modelSvc,
		metricsSvc:   metricsSvc,
		tracker:      tracker,
		store:        store,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	// Engine state
	r.GET("/status", h.GetStatus)
	r.GET("/metrics", h.GetMetrics)

	// Pipeline triggers
	r.POST("/ingestion/runs", h.RunIngestion)
	r.POST("/training/runs", h.RunTraining)

	// Dataset
	r.GET("/dataset/stats", h.GetDatasetStats)
	r.GET("/artifacts", h.ListArtifacts)
	r.GET("/artifacts/:id", h.GetArtifact)
	r.PATCH("/artifacts/:id/label", h.RelabelArtifact)

	// Registry
	r.GET("/models/:name/latest", h.GetLatestModel)
	r.GET("/models/:name/versions", h.ListModelVersions)
}
