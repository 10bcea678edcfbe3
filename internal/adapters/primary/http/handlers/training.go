package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"model-trainer-service/internal/adapters/primary/http/dto"
)

// RunTraining triggers one synchronous training cycle and returns the
// version it published. The body is optional; an empty body trains the
// configured default model.
func (h *Handler) RunTraining(c *gin.Context) {
	var req dto.RunTrainingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	version, err := h.trainingSvc.RunCycle(c.Request.Context(), req.ModelName)
	if err != nil {
		log.WithError(err).Warn("training cycle failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToModelVersionResponse(version))
}
