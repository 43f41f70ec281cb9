package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/vidgrab-go/internal/app"
	"github.com/yourusername/vidgrab-go/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// AcquisitionHandler serves the info, download and clean endpoints
type AcquisitionHandler struct {
	orch   *app.Orchestrator
	logger *zap.Logger
}

// NewAcquisitionHandler creates a new acquisition handler
func NewAcquisitionHandler(orch *app.Orchestrator, logger *zap.Logger) *AcquisitionHandler {
	return &AcquisitionHandler{
		orch:   orch,
		logger: logger,
	}
}

// InfoRequest represents a metadata request
type InfoRequest struct {
	URL string `json:"url"`
}

// DownloadRequest represents a download request
type DownloadRequest struct {
	URL     string `json:"url"`
	Format  string `json:"format" binding:"omitempty,oneof=video audio"`
	Quality string `json:"quality" binding:"omitempty,oneof=best 1080 720 480 360 1080p 720p 480p 360p"`
}

// Info handles POST /api/info
func (h *AcquisitionHandler) Info(c *gin.Context) {
	var req InfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	info, err := h.orch.Info(c.Request.Context(), req.URL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"info":    info,
	})
}

// Download handles POST /api/download. The staged file is streamed as an
// attachment and scheduled for deletion once the response is written.
func (h *AcquisitionHandler) Download(c *gin.Context) {
	var body DownloadRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	req, err := domain.NewDownloadRequest(body.URL, body.Format, body.Quality)
	if err != nil {
		respondError(c, err)
		return
	}

	delivery, err := h.orch.Acquire(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	defer h.orch.Release(delivery)

	c.Header("Content-Type", delivery.ContentType)
	c.FileAttachment(delivery.Path, delivery.FileName)
}

// Clean handles POST /api/clean
func (h *AcquisitionHandler) Clean(c *gin.Context) {
	cleaned := h.orch.Clean()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"cleaned": cleaned,
	})
}

// Stats handles GET /api/stats
func (h *AcquisitionHandler) Stats(c *gin.Context) {
	stats, err := h.orch.Stats()
	if err != nil {
		h.historyError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// History handles GET /api/history
func (h *AcquisitionHandler) History(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultHistoryLimit)))
	if err != nil || limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	records, err := h.orch.History(limit)
	if err != nil {
		h.historyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":        len(records),
		"acquisitions": records,
	})
}

func (h *AcquisitionHandler) historyError(c *gin.Context, err error) {
	if errors.Is(err, app.ErrHistoryDisabled) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	h.logger.Error("Failed to read acquisition history", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read history"})
}

// respondError writes the client-safe message with the status for its kind
func respondError(c *gin.Context, err error) {
	c.JSON(domain.HTTPStatus(err), gin.H{"error": domain.PublicMessage(err)})
}
