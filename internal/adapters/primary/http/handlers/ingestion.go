package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"model-trainer-service/internal/adapters/primary/http/dto"
)

// RunIngestion triggers one synchronous acquisition run. The request body is
// optional; an empty body runs every enabled source. A client disconnect
// cancels the run through the request context.
func (h *Handler) RunIngestion(c *gin.Context) {
	var req dto.RunIngestionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	report, err := h.ingestionSvc.Run(c.Request.Context(), req.Sources)
	if err != nil {
		log.WithError(err).Warn("ingestion run failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToIngestionReportResponse(report))
}
