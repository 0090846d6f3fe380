package handlers

import (
	"field-swarm/models"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetTrustActions(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		message(c, http.StatusBadRequest, "Invalid user ID")
		return
	}
	actions, err := h.store.TrustActions(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, "Trust action", "Failed to fetch trust actions", err)
		return
	}
	c.JSON(http.StatusOK, actions)
}

type trustActionRequest struct {
	UserID      *int64  `json:"userId"`
	ActionType  string  `json:"actionType" binding:"required"`
	Description string  `json:"description"`
	ImpactScore float64 `json:"impactScore"`
	WitnessedBy *int64  `json:"witnessedBy"`
}

func (h *Handler) CreateTrustAction(c *gin.Context) {
	var req trustActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	action := &models.TrustAction{
		UserID:      req.UserID,
		ActionType:  req.ActionType,
		Description: req.Description,
		ImpactScore: req.ImpactScore,
		WitnessedBy: req.WitnessedBy,
	}
	if err := h.store.CreateTrustAction(c.Request.Context(), action); err != nil {
		h.fail(c, "Trust action", "Failed to create trust action", err)
		return
	}
	if err := h.logActivity(c, action.UserID, "trust_action", "Trust action: "+action.ActionType, action.Description, nil); err != nil {
		h.fail(c, "Trust action", "Failed to create trust action", err)
		return
	}

	h.hub.Broadcast("trust_action_created", action)
	c.JSON(http.StatusOK, action)
}

type trustActivityRequest struct {
	UserID int64   `json:"userId" binding:"required"`
	Reason string  `json:"reason" binding:"required"`
	Value  float64 `json:"value"`
}

// RecordTrustActivity appends a qualitative trust event with a caller
// chosen reason and magnitude.
func (h *Handler) RecordTrustActivity(c *gin.Context) {
	var req trustActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.ledger.Record(c.Request.Context(), req.UserID, req.Reason, req.Value); err != nil {
		h.fail(c, "Trust action", "Failed to log trust activity", err)
		return
	}
	message(c, http.StatusOK, "Trust activity logged successfully")
}

type signalActivityRequest struct {
	UserID   int64 `json:"userId" binding:"required"`
	Accurate bool  `json:"accurate"`
}

func (h *Handler) RecordSignalActivity(c *gin.Context) {
	var req signalActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.ledger.SignalAccuracy(c.Request.Context(), req.UserID, req.Accurate); err != nil {
		h.fail(c, "Trust action", "Failed to record signal activity", err)
		return
	}
	message(c, http.StatusOK, "Signal activity recorded")
}
