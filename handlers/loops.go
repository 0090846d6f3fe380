package handlers

import (
	"field-swarm/models"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type loopRequest struct {
	Title             string         `json:"title" binding:"required"`
	Description       string         `json:"description"`
	AssigneeID        *int64         `json:"assigneeId"`
	Status            string         `json:"status"`
	Priority          string         `json:"priority"`
	Domain            string         `json:"domain"`
	DueDate           string         `json:"dueDate"`
	RippleCheck       map[string]any `json:"rippleCheck"`
	IsRegenerative    *bool          `json:"isRegenerative"`
	ExtractiveMarkers []string       `json:"extractiveMarkers"`
	FieldImpactRadius string         `json:"fieldImpactRadius"`
}

func (h *Handler) GetLoops(c *gin.Context) {
	loops, err := h.store.Loops(c.Request.Context())
	if err != nil {
		h.fail(c, "Loop", "Failed to fetch loops", err)
		return
	}
	c.JSON(http.StatusOK, loops)
}

func (h *Handler) GetLoop(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	loop, err := h.store.Loop(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "Loop", "Failed to fetch loop", err)
		return
	}
	c.JSON(http.StatusOK, loop)
}

func (h *Handler) CreateLoop(c *gin.Context) {
	var req loopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	due, err := parseDueDate(req.DueDate, h.now())
	if err != nil {
		badRequest(c, err)
		return
	}

	loop := &models.Loop{
		Title:             req.Title,
		Description:       req.Description,
		AssigneeID:        req.AssigneeID,
		Status:            req.Status,
		Priority:          req.Priority,
		Domain:            req.Domain,
		DueDate:           due,
		RippleCheck:       req.RippleCheck,
		IsRegenerative:    req.IsRegenerative == nil || *req.IsRegenerative,
		ExtractiveMarkers: req.ExtractiveMarkers,
		FieldImpactRadius: req.FieldImpactRadius,
	}
	ctx := c.Request.Context()
	if err := h.store.CreateLoop(ctx, loop); err != nil {
		h.fail(c, "Loop", "Failed to create loop", err)
		return
	}

	if loop.AssigneeID != nil {
		if err := h.logActivity(c, loop.AssigneeID, "loop_created", "Created new loop: "+loop.Title, loop.Description, nil); err != nil {
			h.fail(c, "Loop", "Failed to create loop", err)
			return
		}
	}

	h.hub.Broadcast("loop_created", loop)
	c.JSON(http.StatusOK, loop)
}

type loopUpdate struct {
	Status         string   `json:"status"`
	RippleImpact   *int     `json:"rippleImpact"`
	CoherenceScore *float64 `json:"coherenceScore"`
}

func (h *Handler) UpdateLoop(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req loopUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	if req.Status != "" {
		if err := h.store.UpdateLoopStatus(ctx, id, req.Status); err != nil {
			h.fail(c, "Loop", "Failed to update loop", err)
			return
		}
	}
	if req.RippleImpact != nil || req.CoherenceScore != nil {
		if err := h.store.UpdateLoopMetrics(ctx, id, req.RippleImpact, req.CoherenceScore); err != nil {
			h.fail(c, "Loop", "Failed to update loop", err)
			return
		}
	}

	h.hub.Broadcast("loop_updated", gin.H{
		"id":             id,
		"status":         req.Status,
		"rippleImpact":   req.RippleImpact,
		"coherenceScore": req.CoherenceScore,
	})
	message(c, http.StatusOK, "Loop updated successfully")
}

// CompleteLoop closes the loop and credits its assignee, more when the due
// date was met.
func (h *Handler) CompleteLoop(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	loop, err := h.store.CompleteLoop(ctx, id)
	if err != nil {
		h.fail(c, "Loop", "Failed to complete loop", err)
		return
	}

	if loop.AssigneeID != nil {
		onTime := loop.OnTime(h.now())
		if err := h.ledger.LoopCompletion(ctx, *loop.AssigneeID, onTime); err != nil {
			h.fail(c, "Loop", "Failed to complete loop", err)
			return
		}
		h.log.Debug("loop completion credited",
			zap.Int64("loop_id", id),
			zap.Int64("user_id", *loop.AssigneeID),
			zap.Bool("on_time", onTime))
	}

	h.hub.Broadcast("loop_completed", gin.H{"id": id})
	message(c, http.StatusOK, "Loop completed successfully")
}
