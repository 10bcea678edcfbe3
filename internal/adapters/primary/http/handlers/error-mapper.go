package handlers

import (
	"errors"
	"net/http"

	"model-trainer-service/internal/core/domain"

	"github.com/gin-gonic/gin"
)

func mapDomainError(c *gin.Context, err error) {
	switch {
	// Not found errors
	case errors.Is(err, domain.ErrArtifactNotFound),
		errors.Is(err, domain.ErrModelNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	// A run is already holding the slot
	case errors.Is(err, domain.ErrIngestionInProgress),
		errors.Is(err, domain.ErrTrainingInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	// The request is fine but the dataset will not carry a cycle yet
	case errors.Is(err, domain.ErrInsufficientData),
		errors.Is(err, domain.ErrEvaluationFailed):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})

	// Bad request / validation errors
	case errors.Is(err, domain.ErrInvalidLabel),
		errors.Is(err, domain.ErrInvalidModelName),
		errors.Is(err, domain.ErrNoSourcesEnabled):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrSourceRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})

	default:
		// Includes ErrVersionConflict: a broken registry invariant is an
		// internal fault, never the caller's.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
