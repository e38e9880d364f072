package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/parentrebuild/backend/internal/domain"
	"github.com/parentrebuild/backend/internal/usecase"
)

const (
	serviceName    = "parentrebuild-backend"
	serviceVersion = "1.0.0"

	defaultPreviewLimit = 3
	tsvContentType      = "text/tab-separated-values; charset=utf-8"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	rebuildService *usecase.RebuildService
}

// NewHandler creates a new HTTP handler. A nil service answers 503 on API routes.
func NewHandler(rebuildService *usecase.RebuildService) *Handler {
	return &Handler{rebuildService: rebuildService}
}

// inventoryPreviewRequest is the body of POST /inventory/preview
type inventoryPreviewRequest struct {
	SKUs []string `json:"skus" binding:"required"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// PreviewRebuild plans and validates a request without contacting Amazon
func (h *Handler) PreviewRebuild(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	var req domain.RebuildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	limit := defaultPreviewLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	plan, problems, err := h.rebuildService.Preview(&req)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}

	previews := gin.H{}
	batches := []*domain.Batch{&plan.Delete, &plan.Create}
	if plan.Parent != nil {
		batches = append(batches, plan.Parent)
	}
	for _, batch := range batches {
		preview, err := usecase.CompactPreview(batch.Messages, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render preview"})
			return
		}
		previews[string(batch.Phase)] = preview
	}

	resp := gin.H{
		"counts": gin.H{
			"delete":    len(plan.Delete.Messages),
			"create":    len(plan.Create.Messages),
			"parent":    parentCount(plan),
			"inventory": len(plan.InventorySKUs),
		},
		"inventorySkus": plan.InventorySKUs,
		"problems":      problems,
		"valid":         len(problems) == 0,
		"preview":       previews,
	}
	c.JSON(http.StatusOK, resp)
}

// RunRebuild validates and submits a request, waiting for every phase
func (h *Handler) RunRebuild(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	var req domain.RebuildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	report, err := h.rebuildService.Run(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err, report)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetFeedStatus returns the remote status payload of any feed
func (h *Handler) GetFeedStatus(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	feed, err := h.rebuildService.FeedStatus(c.Request.Context(), c.Param("feedId"))
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	if len(feed.Raw) > 0 {
		c.JSON(http.StatusOK, json.RawMessage(feed.Raw))
		return
	}
	c.JSON(http.StatusOK, feed)
}

// GetFeedReport returns the processing report of any feed
func (h *Handler) GetFeedReport(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	report, err := h.rebuildService.FeedReport(c.Request.Context(), c.Param("feedId"))
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	if !report.Available {
		c.JSON(http.StatusOK, gin.H{"feedId": report.FeedID, "available": false, "report": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"feedId":     report.FeedID,
		"documentId": report.DocumentID,
		"available":  true,
		"report":     report.Body,
	})
}

// PreviewInventory renders the inventory feed for the given SKUs as TSV
func (h *Handler) PreviewInventory(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	var req inventoryPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	body, err := h.rebuildService.InventoryPreview(req.SKUs)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="inventory.tsv"`)
	c.Data(http.StatusOK, tsvContentType, body)
}

// GetRun returns the ledger entries of a run
func (h *Handler) GetRun(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	runID := c.Param("runId")
	subs, err := h.rebuildService.RunHistory(c.Request.Context(), runID)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runId": runID, "submissions": subs})
}

func (h *Handler) ready(c *gin.Context) bool {
	if h.rebuildService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Rebuild service not configured"})
		return false
	}
	return true
}

// writeError maps domain errors to HTTP statuses. A partial run report is
// included when one exists.
func (h *Handler) writeError(c *gin.Context, err error, report *domain.RunReport) {
	var validationErr *domain.ValidationError
	resp := gin.H{}
	if report != nil {
		resp["report"] = report
	}

	switch {
	case errors.As(err, &validationErr):
		resp["error"] = "Feed validation failed"
		resp["problems"] = validationErr.Problems
		c.JSON(http.StatusUnprocessableEntity, resp)
	case errors.Is(err, domain.ErrInvalidRequest):
		resp["error"] = err.Error()
		c.JSON(http.StatusBadRequest, resp)
	case errors.Is(err, domain.ErrNotFound):
		resp["error"] = "Not found"
		c.JSON(http.StatusNotFound, resp)
	case errors.Is(err, domain.ErrPhaseFailed):
		resp["error"] = err.Error()
		c.JSON(http.StatusConflict, resp)
	case usecase.IsTransportError(err):
		log.Printf("[API] SP-API failure: %v", err)
		resp["error"] = "SP-API request failed"
		resp["detail"] = err.Error()
		c.JSON(http.StatusBadGateway, resp)
	default:
		log.Printf("[API] Unexpected error: %v", err)
		resp["error"] = "Internal server error"
		c.JSON(http.StatusInternalServerError, resp)
	}
}

func parentCount(plan *domain.RebuildPlan) int {
	if plan.Parent == nil {
		return 0
	}
	return len(plan.Parent.Messages)
}
