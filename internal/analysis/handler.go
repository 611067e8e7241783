package analysis

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dajrodri/well-architected-iac-analyzer/internal/cancel"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/queue"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/shared/server/middleware"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/shared/server/respond"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/shared/telemetry"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/workitems"
)

// Handler wires HTTP handlers to the analysis orchestrator. With a queue
// configured, runs are dispatched to the worker fleet; otherwise they execute
// in a background goroutine. The caller polls the work item or watches the
// progress stream for the outcome.
type Handler struct {
	Orchestrator *Orchestrator
	Cancels      *cancel.Registry
	Queue        queue.Client
}

// NewHandler constructs a Handler.
func NewHandler(orchestrator *Orchestrator, cancels *cancel.Registry) *Handler {
	return &Handler{Orchestrator: orchestrator, Cancels: cancels}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analysis", h.start)
	rg.POST("/analysis/cancel", h.cancel)
}

type startRequest struct {
	WorkItemID string   `json:"workItemId"`
	WorkloadID string   `json:"workloadId"`
	Pillars    []string `json:"pillars"`
}

type cancelRequest struct {
	WorkItemID string `json:"workItemId"`
}

func (h *Handler) start(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.WorkItemID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "workItemId is required", nil)
		return
	}
	if len(req.Pillars) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "at least one pillar is required", nil)
		return
	}

	item, err := h.Orchestrator.Items.Get(c.Request.Context(), userID, req.WorkItemID)
	if err != nil {
		switch {
		case errors.Is(err, workitems.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "work item not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start analysis", nil)
		}
		return
	}
	if item.AnalysisStatus == workitems.StatusInProgress {
		respond.Error(c, http.StatusConflict, "already_running", "analysis is already running for this work item", nil)
		return
	}

	in := RunInput{
		UserID:     userID,
		WorkItemID: req.WorkItemID,
		WorkloadID: req.WorkloadID,
		Pillars:    req.Pillars,
	}

	if h.Queue != nil {
		msg := queue.Message{
			WorkItemID: req.WorkItemID,
			UserID:     userID,
			WorkloadID: req.WorkloadID,
			Pillars:    req.Pillars,
			RequestID:  c.GetString("requestId"),
			EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
			Version:    1,
		}
		if err := h.Queue.Send(c.Request.Context(), msg); err != nil {
			telemetry.Error("analysis.enqueue_failed", map[string]any{
				"work_item_id": req.WorkItemID,
				"error":        err.Error(),
			})
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to enqueue analysis", nil)
			return
		}
		respond.Accepted(c, gin.H{
			"workItemId": item.ID,
			"status":     workitems.StatusPending,
			"queued":     true,
		})
		return
	}

	runCtx, _ := h.Cancels.Begin(context.WithoutCancel(c.Request.Context()), req.WorkItemID, cancel.ProcessAnalysis)

	go func() {
		defer h.Cancels.Finish(req.WorkItemID, cancel.ProcessAnalysis)
		if _, err := h.Orchestrator.Run(runCtx, in); err != nil {
			telemetry.Error("analysis.run_error", map[string]any{
				"work_item_id": req.WorkItemID,
				"error":        err.Error(),
			})
		}
	}()

	respond.Accepted(c, gin.H{
		"workItemId": item.ID,
		"status":     workitems.StatusInProgress,
	})
}

func (h *Handler) cancel(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.WorkItemID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "workItemId is required", nil)
		return
	}

	if _, err := h.Orchestrator.Items.Get(c.Request.Context(), userID, req.WorkItemID); err != nil {
		switch {
		case errors.Is(err, workitems.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "work item not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to cancel analysis", nil)
		}
		return
	}

	fired := h.Cancels.Cancel(req.WorkItemID, cancel.ProcessAnalysis)
	respond.JSON(c, http.StatusOK, gin.H{
		"workItemId": req.WorkItemID,
		"cancelled":  fired,
	})
}
