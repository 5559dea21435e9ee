package model

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fraudguard-io/fraudguard/internal/logging"
)

// EventEmitter receives model lifecycle notifications
type EventEmitter interface {
	ModelLoaded(version string)
}

// Handler provides HTTP endpoints for model management
type Handler struct {
	holder      *Holder
	defaultPath string
	defaultKey  string
	adminSecret string
	events      EventEmitter
}

// NewHandler creates a new model handler. defaultPath and defaultKey are used
// when a load request does not override them.
func NewHandler(holder *Holder, defaultPath, defaultKey, adminSecret string) *Handler {
	return &Handler{
		holder:      holder,
		defaultPath: defaultPath,
		defaultKey:  defaultKey,
		adminSecret: adminSecret,
	}
}

// WithEvents adds a lifecycle event emitter
func (h *Handler) WithEvents(events EventEmitter) *Handler {
	h.events = events
	return h
}

// RegisterRoutes sets up model routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/model", h.GetStatus)
	r.POST("/model/load", h.LoadModel)
}

// GetStatus handles GET /model
func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.holder.Status())
}

// LoadModelRequest optionally overrides the configured bundle location.
type LoadModelRequest struct {
	Path string `json:"path"`
	Key  string `json:"key"`
}

// LoadModel handles POST /model/load. It requires the admin secret and swaps
// the model atomically; on failure the previous model stays active.
func (h *Handler) LoadModel(c *gin.Context) {
	if h.adminSecret == "" {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": "Model administration is disabled",
		})
		return
	}
	provided := c.GetHeader("X-Admin-Secret")
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.adminSecret)) != 1 {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": "Invalid admin secret",
		})
		return
	}

	var req LoadModelRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}
	path := req.Path
	if path == "" {
		path = h.defaultPath
	}
	key := req.Key
	if key == "" {
		key = h.defaultKey
	}
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "No model path configured or provided",
		})
		return
	}

	if err := h.holder.Load(path, key); err != nil {
		logging.L(c.Request.Context()).Error("model load failed", "path", path, "error", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "model_load_failed",
			"message": err.Error(),
		})
		return
	}

	status := h.holder.Status()
	logging.L(c.Request.Context()).Info("model loaded",
		"path", path, "version", status.Version, "probability", status.Probability)
	if h.events != nil {
		h.events.ModelLoaded(status.Version)
	}
	c.JSON(http.StatusOK, status)
}
