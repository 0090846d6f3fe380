package handlers

import (
	"errors"
	"field-swarm/models"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// defaultUserID stands in for callers that do not say who they are.
const defaultUserID int64 = 1

func (h *Handler) GetInstitutionBundles(c *gin.Context) {
	bundles, err := h.store.InstitutionBundles(c.Request.Context())
	if err != nil {
		h.fail(c, "Institution bundle", "Failed to fetch institution bundles", err)
		return
	}
	c.JSON(http.StatusOK, bundles)
}

type bundleUpdate struct {
	BundleID *int64         `json:"bundleId"`
	Config   map[string]any `json:"config"`
}

// UpdateInstitutionBundle acknowledges a bundle configuration change. Bundle
// configuration is not editable yet, so the request is echoed back.
func (h *Handler) UpdateInstitutionBundle(c *gin.Context) {
	var req bundleUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Bundle configuration updated successfully",
		"bundleId": req.BundleID,
		"config":   req.Config,
	})
}

type sideWorkQuery struct {
	UserID *int64 `form:"userId"`
}

func (h *Handler) GetSideWork(c *gin.Context) {
	var q sideWorkQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	userID := defaultUserID
	if q.UserID != nil {
		userID = *q.UserID
	}

	tasks, err := h.store.SideWorkTasks(c.Request.Context(), &userID)
	if err != nil {
		h.fail(c, "Side work task", "Failed to fetch side work tasks", err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

type generateRequest struct {
	UserID int64 `json:"userId"`
}

func (h *Handler) GenerateSideWork(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}
	if req.UserID == 0 {
		req.UserID = defaultUserID
	}

	tasks, err := h.store.GenerateSideWorkTasks(c.Request.Context(), req.UserID)
	if err != nil {
		h.fail(c, "Side work task", "Failed to generate side work tasks", err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *Handler) AcceptSideWork(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.store.AcceptSideWorkTask(c.Request.Context(), id); err != nil {
		h.fail(c, "Side work task", "Failed to accept side work task", err)
		return
	}
	message(c, http.StatusOK, "Task accepted successfully")
}

func (h *Handler) CompleteSideWork(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.store.CompleteSideWorkTask(c.Request.Context(), id); err != nil {
		h.fail(c, "Side work task", "Failed to complete side work task", err)
		return
	}
	message(c, http.StatusOK, "Task completed successfully")
}

type sanctuaryRequest struct {
	UserID *int64 `json:"userId"`
	Reason string `json:"reason"`
	Type   string `json:"type"`
}

// RequestSanctuary raises a wellbeing concern on the sanctuary path and opens
// a sanctuary protocol for the requester.
func (h *Handler) RequestSanctuary(c *gin.Context) {
	var req sanctuaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	reason := req.Reason
	if reason == "" {
		reason = "User requested sanctuary support"
	}

	ctx := c.Request.Context()
	signal := &models.Signal{
		Title:         "Sanctuary Request",
		Description:   reason,
		ReporterID:    req.UserID,
		SignalType:    models.SignalTypeConcern,
		Severity:      "medium",
		Domain:        "wellbeing",
		Status:        "sanctuary",
		SanctuaryPath: true,
	}
	if err := h.store.CreateSignal(ctx, signal); err != nil {
		h.fail(c, "Signal", "Failed to create sanctuary request", err)
		return
	}

	triggerType := req.Type
	if triggerType == "" {
		triggerType = "self_request"
	}
	protocol := &models.SanctuaryProtocol{
		ParticipantID:     req.UserID,
		TriggerType:       triggerType,
		HealingActivities: []string{},
		SupportNetwork:    []string{},
		ReentryConditions: map[string]any{"signalId": signal.ID},
	}
	if err := h.store.CreateSanctuaryProtocol(ctx, protocol); err != nil {
		h.fail(c, "Signal", "Failed to create sanctuary request", err)
		return
	}

	err := h.logActivity(c, req.UserID, "sanctuary_requested", "Sanctuary requested",
		"User requested sanctuary support", map[string]any{"type": req.Type, "signalId": signal.ID})
	if err != nil {
		h.fail(c, "Signal", "Failed to create sanctuary request", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sanctuary request created", "signalId": signal.ID})
}

func (h *Handler) GetFieldRituals(c *gin.Context) {
	rituals, err := h.store.FieldRituals(c.Request.Context())
	if err != nil {
		h.fail(c, "Field ritual", "Failed to fetch field rituals", err)
		return
	}
	c.JSON(http.StatusOK, rituals)
}

type ritualRequest struct {
	Name             string `json:"name" binding:"required"`
	RitualType       string `json:"ritualType" binding:"required"`
	Domain           string `json:"domain"`
	Description      string `json:"description"`
	Instructions     string `json:"instructions"`
	Frequency        string `json:"frequency"`
	ParticipantCount int    `json:"participantCount"`
	CulturalContext  string `json:"culturalContext"`
	IsOptional       *bool  `json:"isOptional"`
	BundleID         *int64 `json:"bundleId"`
}

func (h *Handler) CreateFieldRitual(c *gin.Context) {
	var req ritualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ritual := &models.FieldRitual{
		Name:             req.Name,
		RitualType:       req.RitualType,
		Domain:           req.Domain,
		Description:      req.Description,
		Instructions:     req.Instructions,
		Frequency:        req.Frequency,
		ParticipantCount: req.ParticipantCount,
		CulturalContext:  req.CulturalContext,
		IsOptional:       req.IsOptional == nil || *req.IsOptional,
		BundleID:         req.BundleID,
	}
	if err := h.store.CreateFieldRitual(c.Request.Context(), ritual); err != nil {
		h.fail(c, "Field ritual", "Failed to create field ritual", err)
		return
	}

	author := defaultUserID
	if err := h.logActivity(c, &author, "ritual_created", "Created field ritual: "+ritual.Name, ritual.Description, nil); err != nil {
		h.fail(c, "Field ritual", "Failed to create field ritual", err)
		return
	}

	h.hub.Broadcast("ritual_created", ritual)
	c.JSON(http.StatusOK, ritual)
}

type participateRequest struct {
	UserID int64 `json:"userId"`
}

func (h *Handler) ParticipateInRitual(c *gin.Context) {
	ritualID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req participateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}
	if req.UserID == 0 {
		req.UserID = defaultUserID
	}

	err := h.logActivity(c, &req.UserID, "ritual_participation", "Participated in field ritual",
		fmt.Sprintf("Participated in field ritual %d", ritualID), map[string]any{"ritualId": ritualID})
	if err != nil {
		h.fail(c, "Field ritual", "Failed to participate in ritual", err)
		return
	}
	message(c, http.StatusOK, "Successfully joined ritual")
}
