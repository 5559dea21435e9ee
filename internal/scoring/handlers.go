package scoring

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fraudguard-io/fraudguard/internal/features"
	"github.com/fraudguard-io/fraudguard/internal/history"
	"github.com/fraudguard-io/fraudguard/internal/logging"
	"github.com/fraudguard-io/fraudguard/internal/model"
)

// Handler provides HTTP endpoints for fraud scoring
type Handler struct {
	service *Service
}

// NewHandler creates a new scoring handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up scoring routes. The group must already carry the
// identity middleware.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/predict", h.Predict)
	r.GET("/predictions/history", h.GetHistory)
	r.GET("/analytics", h.GetAnalytics)
}

// Predict handles POST /predict
func (h *Handler) Predict(c *gin.Context) {
	var raw features.RawTransaction
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}

	p, err := h.service.Score(c.Request.Context(), &raw)
	if err != nil {
		respondScoringError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetHistory handles GET /predictions/history
func (h *Handler) GetHistory(c *gin.Context) {
	entries := h.service.History()
	if entries == nil {
		entries = []history.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{
		"predictions": entries,
		"count":       len(entries),
	})
}

// GetAnalytics handles GET /analytics
func (h *Handler) GetAnalytics(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Analytics())
}

func respondScoringError(c *gin.Context, err error) {
	var ferr *features.ValidationError
	switch {
	case errors.As(err, &ferr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": ferr.Error(),
			"field":   ferr.Field,
		})
	case errors.Is(err, model.ErrFeatureMismatch):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "feature_mismatch",
			"message": "Feature vector does not match the loaded model",
		})
	case errors.Is(err, model.ErrModelUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "model_unavailable",
			"message": "Fraud model is not available",
		})
	default:
		logging.L(c.Request.Context()).Error("scoring error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Scoring failed",
		})
	}
}
