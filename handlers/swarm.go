package handlers

import (
	"field-swarm/models"
	"field-swarm/swarm"
	"net/http"

	"github.com/gin-gonic/gin"
)

type swarmSignalRequest struct {
	TargetType  string         `json:"targetType" binding:"required,oneof=loop signal decision system"`
	TargetID    *int64         `json:"targetId"`
	SignalType  string         `json:"signalType" binding:"required,oneof=coherence dissonance ripple"`
	Intensity   int            `json:"intensity" binding:"omitempty,min=1,max=5"`
	UserID      *int64         `json:"userId"`
	IsAnonymous *bool          `json:"isAnonymous"`
	Metadata    map[string]any `json:"metadata"`
}

// CreateSwarmSignal accepts one piece of peer feedback, then broadcasts the
// signal and any triggers the recomputed bucket now raises.
func (h *Handler) CreateSwarmSignal(c *gin.Context) {
	var req swarmSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sig := &models.SwarmSignal{
		TargetType:  req.TargetType,
		TargetID:    req.TargetID,
		SignalType:  req.SignalType,
		Intensity:   req.Intensity,
		UserID:      req.UserID,
		IsAnonymous: req.IsAnonymous == nil || *req.IsAnonymous,
		Metadata:    req.Metadata,
	}
	sub, err := h.engine.Submit(c.Request.Context(), sig)
	if err != nil {
		h.fail(c, "Swarm signal", "Failed to create swarm signal", err)
		return
	}

	h.hub.Broadcast("swarm_signal_created", sub.Signal)
	if len(sub.Triggers) > 0 {
		h.hub.Broadcast("triggers", gin.H{
			"targetType": sig.TargetType,
			"targetId":   sig.TargetID,
			"triggers":   sub.Triggers,
		})
	}
	c.JSON(http.StatusOK, sub.Signal)
}

type swarmQuery struct {
	TargetType string `form:"targetType"`
	TargetID   *int64 `form:"targetId"`
}

func (h *Handler) GetSwarmSignals(c *gin.Context) {
	var q swarmQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	var (
		signals []models.SwarmSignal
		err     error
	)
	if q.TargetType == "" {
		signals, err = h.store.AllSwarmSignals(ctx)
	} else {
		signals, err = h.store.SwarmSignals(ctx, q.TargetType, q.TargetID)
	}
	if err != nil {
		h.fail(c, "Swarm signal", "Failed to fetch swarm signals", err)
		return
	}
	c.JSON(http.StatusOK, signals)
}

func target(c *gin.Context) swarm.Target {
	return swarm.Target{Type: c.Param("targetType"), ID: optionalID(c.Param("targetId"))}
}

func (h *Handler) GetSwarmAggregation(c *gin.Context) {
	agg, err := h.engine.Aggregation(c.Request.Context(), target(c))
	if err != nil {
		h.fail(c, "Aggregation", "Failed to fetch swarm aggregation", err)
		return
	}
	c.JSON(http.StatusOK, agg)
}

func (h *Handler) GetActiveTriggers(c *gin.Context) {
	triggers, err := h.engine.Active(c.Request.Context(), h.activeWindow)
	if err != nil {
		h.fail(c, "Trigger", "Failed to fetch triggers", err)
		return
	}
	c.JSON(http.StatusOK, triggers)
}

func (h *Handler) CheckTriggers(c *gin.Context) {
	triggers, err := h.engine.Evaluate(c.Request.Context(), target(c))
	if err != nil {
		h.fail(c, "Trigger", "Failed to check triggers", err)
		return
	}
	c.JSON(http.StatusOK, triggers)
}
