package generation

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dajrodri/well-architected-iac-analyzer/internal/cancel"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/shared/server/middleware"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/shared/server/respond"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/shared/telemetry"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/workitems"
)

// Handler wires HTTP handlers to the generation orchestrator. Generation runs
// in a background goroutine; detail enrichment is synchronous.
type Handler struct {
	Orchestrator *Orchestrator
	Cancels      *cancel.Registry
}

// NewHandler constructs a Handler.
func NewHandler(orchestrator *Orchestrator, cancels *cancel.Registry) *Handler {
	return &Handler{Orchestrator: orchestrator, Cancels: cancels}
}

// RegisterRoutes attaches generation routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/generation", h.start)
	rg.POST("/generation/cancel", h.cancel)
	rg.POST("/details", h.details)
}

type startRequest struct {
	WorkItemID      string   `json:"workItemId"`
	Recommendations []string `json:"recommendations"`
	TemplateType    string   `json:"templateType"`
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
	if req.WorkItemID == "" || req.TemplateType == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "workItemId and templateType are required", nil)
		return
	}

	item, err := h.Orchestrator.Items.Get(c.Request.Context(), userID, req.WorkItemID)
	if err != nil {
		switch {
		case errors.Is(err, workitems.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "work item not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start generation", nil)
		}
		return
	}
	if !item.IsImage() {
		respond.Error(c, http.StatusBadRequest, "validation_error", "IaC generation requires an architecture diagram image", nil)
		return
	}
	if item.IaCStatus == workitems.StatusInProgress {
		respond.Error(c, http.StatusConflict, "already_running", "generation is already running for this work item", nil)
		return
	}

	in := RunInput{
		UserID:          userID,
		WorkItemID:      req.WorkItemID,
		Recommendations: req.Recommendations,
		TemplateType:    req.TemplateType,
	}
	runCtx, _ := h.Cancels.Begin(context.WithoutCancel(c.Request.Context()), req.WorkItemID, cancel.ProcessGeneration)

	go func() {
		defer h.Cancels.Finish(req.WorkItemID, cancel.ProcessGeneration)
		if _, err := h.Orchestrator.Run(runCtx, in); err != nil {
			telemetry.Error("generation.run_error", map[string]any{
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
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to cancel generation", nil)
		}
		return
	}

	fired := h.Cancels.Cancel(req.WorkItemID, cancel.ProcessGeneration)
	respond.JSON(c, http.StatusOK, gin.H{
		"workItemId": req.WorkItemID,
		"cancelled":  fired,
	})
}

func (h *Handler) details(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req DetailsInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	req.UserID = userID

	out, err := h.Orchestrator.GetMoreDetails(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, workitems.ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, workitems.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "work item not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to generate details", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, out)
}
