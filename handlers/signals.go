package handlers

import (
	"field-swarm/models"
	"field-swarm/store"
	"field-swarm/trust"
	"net/http"

	"github.com/gin-gonic/gin"
)

type signalQuery struct {
	SignalType string `form:"signalType"`
	Severity   string `form:"severity"`
	Domain     string `form:"domain"`
	Status     string `form:"status"`
	Limit      int    `form:"limit"`
}

func (h *Handler) GetSignals(c *gin.Context) {
	var q signalQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	signals, err := h.store.FilterSignals(c.Request.Context(), store.SignalFilter{
		SignalType: q.SignalType,
		Severity:   q.Severity,
		Domain:     q.Domain,
		Status:     q.Status,
		Limit:      q.Limit,
	})
	if err != nil {
		h.fail(c, "Signal", "Failed to fetch signals", err)
		return
	}
	c.JSON(http.StatusOK, signals)
}

func (h *Handler) GetSignal(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	signal, err := h.store.Signal(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "Signal", "Failed to fetch signal", err)
		return
	}
	c.JSON(http.StatusOK, signal)
}

type signalRequest struct {
	Title                 string         `json:"title" binding:"required"`
	Description           string         `json:"description"`
	ReporterID            *int64         `json:"reporterId"`
	SignalType            string         `json:"signalType" binding:"required"`
	Severity              string         `json:"severity"`
	Domain                string         `json:"domain"`
	Status                string         `json:"status"`
	FalseResonanceMarkers []string       `json:"falseResonanceMarkers"`
	DiversityCheck        bool           `json:"diversityCheck"`
	SanctuaryPath         bool           `json:"sanctuaryPath"`
	Metadata              map[string]any `json:"metadata"`
}

func (h *Handler) CreateSignal(c *gin.Context) {
	var req signalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	signal := &models.Signal{
		Title:                 req.Title,
		Description:           req.Description,
		ReporterID:            req.ReporterID,
		SignalType:            req.SignalType,
		Severity:              req.Severity,
		Domain:                req.Domain,
		Status:                req.Status,
		FalseResonanceMarkers: req.FalseResonanceMarkers,
		DiversityCheck:        req.DiversityCheck,
		SanctuaryPath:         req.SanctuaryPath,
		Metadata:              req.Metadata,
	}
	if signal.Severity == "" {
		signal.Severity = "medium"
	}
	if err := h.store.CreateSignal(c.Request.Context(), signal); err != nil {
		h.fail(c, "Signal", "Failed to create signal", err)
		return
	}

	if signal.ReporterID != nil {
		if err := h.logActivity(c, signal.ReporterID, "signal_raised", "Raised signal: "+signal.Title, signal.Description, nil); err != nil {
			h.fail(c, "Signal", "Failed to create signal", err)
			return
		}
	}

	h.hub.Broadcast("signal_created", signal)
	c.JSON(http.StatusOK, signal)
}

type signalUpdate struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateSignal(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req signalUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if req.Status != "" {
		if err := h.store.UpdateSignalStatus(c.Request.Context(), id, req.Status); err != nil {
			h.fail(c, "Signal", "Failed to update signal", err)
			return
		}
	}
	message(c, http.StatusOK, "Signal updated successfully")
}

type evaluateRequest struct {
	Outcome string `json:"outcome" binding:"required"`
}

// EvaluateSignal records how a signal played out and credits or debits its
// reporter accordingly.
func (h *Handler) EvaluateSignal(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if !trust.ValidOutcome(req.Outcome) {
		message(c, http.StatusBadRequest, "Outcome must be resolved, escalated or ignored")
		return
	}

	accurate, err := h.outcomes.EvaluateSignal(c.Request.Context(), id, req.Outcome)
	if err != nil {
		h.fail(c, "Signal", "Failed to evaluate signal", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"signalId": id, "outcome": req.Outcome, "accurate": accurate})
}
