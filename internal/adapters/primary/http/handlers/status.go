package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"model-trainer-service/internal/adapters/primary/http/dto"
)

// Healthz is the unauthenticated liveness probe. It reports degraded when
// artifact storage is unreachable, since every pipeline depends on it.
func (h *Handler) Healthz(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) GetStatus(c *gin.Context) {
	stats, err := h.datasetSvc.Stats(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("status dataset stats failed")
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToStatusResponse(h.tracker.Status(), stats))
}
