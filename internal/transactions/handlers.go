package transactions

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fraudguard-io/fraudguard/internal/features"
	"github.com/fraudguard-io/fraudguard/internal/logging"
	"github.com/fraudguard-io/fraudguard/internal/model"
	"github.com/fraudguard-io/fraudguard/internal/pagination"
	"github.com/fraudguard-io/fraudguard/internal/validation"
)

// Handler provides HTTP endpoints for transaction records
type Handler struct {
	service *Service
}

// NewHandler creates a new transactions handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up transaction routes. The group must already carry the
// identity middleware.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/transactions", h.CreateTransaction)
	r.GET("/transactions", h.ListTransactions)
	r.GET("/transactions/stats", h.GetStats)
	r.GET("/transactions/:id", h.GetTransaction)
	r.DELETE("/transactions/:id", h.DeleteTransaction)
}

// CreateTransactionRequest is the POST /transactions body.
type CreateTransactionRequest struct {
	features.RawTransaction
	FraudPrediction *SuppliedPrediction `json:"fraudPrediction"`
}

// CreateTransaction handles POST /transactions
func (h *Handler) CreateTransaction(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}

	owner := validation.OwnerFrom(c)
	txn, err := h.service.Create(c.Request.Context(), owner, CreateRequest{
		Raw:             req.RawTransaction,
		FraudPrediction: req.FraudPrediction,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	logging.L(c.Request.Context()).Info("transaction recorded",
		"transaction_id", txn.ExternalID, "status", txn.Status, "source", txn.Source)
	c.JSON(http.StatusCreated, txn)
}

// ListTransactions handles GET /transactions
func (h *Handler) ListTransactions(c *gin.Context) {
	page := pagination.FromQuery(c)
	owner := validation.OwnerFrom(c)

	items, total, err := h.service.List(c.Request.Context(), owner, page.Limit, page.Skip)
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []*Transaction{}
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": items,
		"totalCount":   total,
		"limit":        page.Limit,
		"skip":         page.Skip,
	})
}

// GetTransaction handles GET /transactions/:id
func (h *Handler) GetTransaction(c *gin.Context) {
	owner := validation.OwnerFrom(c)
	txn, err := h.service.Get(c.Request.Context(), owner, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

// DeleteTransaction handles DELETE /transactions/:id
func (h *Handler) DeleteTransaction(c *gin.Context) {
	owner := validation.OwnerFrom(c)
	if err := h.service.Delete(c.Request.Context(), owner, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// GetStats handles GET /transactions/stats
func (h *Handler) GetStats(c *gin.Context) {
	owner := validation.OwnerFrom(c)
	stats, err := h.service.Stats(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func respondError(c *gin.Context, err error) {
	var verrs validation.ValidationErrors
	var ferr *features.ValidationError
	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": verrs.Error(),
			"details": verrs,
		})
	case errors.As(err, &ferr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": ferr.Error(),
		})
	case errors.Is(err, ErrTransactionNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Transaction not found",
		})
	case errors.Is(err, ErrDuplicateExternalID):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "duplicate_transaction",
			"message": "A transaction with this ID already exists",
		})
	case errors.Is(err, model.ErrModelUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "model_unavailable",
			"message": "Fraud model is not available",
		})
	case errors.Is(err, model.ErrFeatureMismatch):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "feature_mismatch",
			"message": "Feature vector does not match the loaded model",
		})
	default:
		logging.L(c.Request.Context()).Error("transaction storage error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "storage_error",
			"message": "Storage operation failed",
		})
	}
}
