package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) GetMetrics(c *gin.Context) {
	summary, err := h.metricsSvc.Summary(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("metrics summary failed")
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
