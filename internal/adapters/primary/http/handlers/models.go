package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"model-trainer-service/internal/adapters/primary/http/dto"
)

// GetLatestModel serves the weights-sync consumer: the newest version for a
// model together with its stable weights download path.
func (h *Handler) GetLatestModel(c *gin.Context) {
	version, err := h.modelSvc.Latest(c.Request.Context(), c.Param("name"))
	if err != nil {
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToModelVersionResponse(version))
}

func (h *Handler) ListModelVersions(c *gin.Context) {
	name := c.Param("name")
	versions, err := h.modelSvc.History(c.Request.Context(), name)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	items := make([]dto.ModelVersionResponse, 0, len(versions))
	for _, v := range versions {
		items = append(items, dto.ToModelVersionResponse(v))
	}
	c.JSON(http.StatusOK, dto.ListModelVersionsResponse{
		ModelName: name,
		Items:     items,
		Count:     len(items),
	})
}
