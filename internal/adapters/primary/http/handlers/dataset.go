package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"model-trainer-service/internal/adapters/primary/http/dto"
	"model-trainer-service/internal/core/domain"
	ports "model-trainer-service/internal/core/ports/output"
)

func (h *Handler) GetDatasetStats(c *gin.Context) {
	stats, err := h.datasetSvc.Stats(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("dataset stats failed")
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToDatasetStatsResponse(stats))
}

func (h *Handler) ListArtifacts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 {
		limit = 50
	} else if limit > 200 {
		limit = 200
	}

	filter := ports.ArtifactFilter{
		Source: c.Query("source"),
		Limit:  limit,
	}
	// A present-but-empty label filter selects unlabeled artifacts.
	if raw, ok := c.GetQuery("label"); ok {
		label := domain.Label(raw)
		if label != domain.LabelNone {
			if err := domain.ValidateLabel(label); err != nil {
				mapDomainError(c, err)
				return
			}
		}
		filter.Label = &label
	}

	artifacts, err := h.datasetSvc.List(c.Request.Context(), filter)
	if err != nil {
		log.WithError(err).Error("list artifacts failed")
		mapDomainError(c, err)
		return
	}

	items := make([]dto.ArtifactResponse, 0, len(artifacts))
	for _, a := range artifacts {
		items = append(items, dto.ToArtifactResponse(a))
	}
	c.JSON(http.StatusOK, dto.ListArtifactsResponse{
		Items:    items,
		Count:    len(items),
		PageSize: filter.Limit,
	})
}

func (h *Handler) GetArtifact(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid artifact id"})
		return
	}

	artifact, err := h.datasetSvc.Get(c.Request.Context(), id)
	if err != nil {
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToArtifactResponse(artifact))
}

// RelabelArtifact is the external labeling path. Overwrites are idempotent,
// last write wins.
func (h *Handler) RelabelArtifact(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid artifact id"})
		return
	}

	var req dto.RelabelArtifactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	artifact, err := h.datasetSvc.Relabel(c.Request.Context(), id, domain.Label(req.Label), req.Confidence)
	if err != nil {
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToArtifactResponse(artifact))
}
