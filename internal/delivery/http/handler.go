package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mmrshk/purio-backend/internal/domain"
	"github.com/mmrshk/purio-backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	scorer *usecase.ProductScorer
	repo   domain.ProductRepository // nil when running without a database
	log    zerolog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(scorer *usecase.ProductScorer, repo domain.ProductRepository, log zerolog.Logger) *Handler {
	return &Handler{scorer: scorer, repo: repo, log: log}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "purio-backend",
		"version": "1.0.0",
	})
}

// ScoreProduct scores an inline product payload without touching storage.
func (h *Handler) ScoreProduct(c *gin.Context) {
	var product domain.ProductInput
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product payload: " + err.Error()})
		return
	}
	if product.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product name is required"})
		return
	}

	outcome := h.scorer.Score(c.Request.Context(), &product)
	c.JSON(http.StatusOK, outcome)
}

// RescoreProduct loads a stored product, scores it, and persists the result
// unless dry_run=true is passed.
func (h *Handler) RescoreProduct(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no product store configured"})
		return
	}

	id := c.Param("id")
	product, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		case errors.Is(err, domain.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.log.Error().Str("product_id", id).Err(err).Msg("loading product failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "loading product failed"})
		}
		return
	}

	outcome := h.scorer.Score(c.Request.Context(), product)

	dryRun := c.Query("dry_run") == "true"
	if !dryRun {
		if err := h.repo.UpdateScores(c.Request.Context(), id, outcome.Result); err != nil {
			h.log.Error().Str("product_id", id).Err(err).Msg("persisting scores failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "persisting scores failed"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"result":  outcome.Result,
		"stats":   outcome.Stats,
		"dry_run": dryRun,
	})
}
