package handlers

import (
	"field-swarm/models"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetDecisions(c *gin.Context) {
	decisions, err := h.store.Decisions(c.Request.Context())
	if err != nil {
		h.fail(c, "Decision", "Failed to fetch decisions", err)
		return
	}
	c.JSON(http.StatusOK, decisions)
}

type decisionRequest struct {
	Title          string         `json:"title" binding:"required"`
	Description    string         `json:"description"`
	InitiatorID    *int64         `json:"initiatorId"`
	Status         string         `json:"status"`
	DecisionType   string         `json:"decisionType"`
	VotingDeadline string         `json:"votingDeadline"`
	Outcome        map[string]any `json:"outcome"`
}

func (h *Handler) CreateDecision(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	deadline, err := parseDueDate(req.VotingDeadline, h.now())
	if err != nil {
		badRequest(c, err)
		return
	}

	decision := &models.Decision{
		Title:          req.Title,
		Description:    req.Description,
		InitiatorID:    req.InitiatorID,
		Status:         req.Status,
		DecisionType:   req.DecisionType,
		VotingDeadline: deadline,
		Outcome:        req.Outcome,
	}
	if decision.DecisionType == "" {
		decision.DecisionType = "consensus"
	}
	if err := h.store.CreateDecision(c.Request.Context(), decision); err != nil {
		h.fail(c, "Decision", "Failed to create decision", err)
		return
	}

	if decision.InitiatorID != nil {
		if err := h.logActivity(c, decision.InitiatorID, "decision_initiated", "Initiated decision: "+decision.Title, decision.Description, nil); err != nil {
			h.fail(c, "Decision", "Failed to create decision", err)
			return
		}
	}

	h.hub.Broadcast("decision_created", decision)
	c.JSON(http.StatusOK, decision)
}

type joinRequest struct {
	UserID int64  `json:"userId" binding:"required"`
	Role   string `json:"role"`
}

// JoinDecision adds the participant and credits them; facilitators are
// credited more than participants.
func (h *Handler) JoinDecision(c *gin.Context) {
	decisionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Role == "" {
		req.Role = "participant"
	}

	ctx := c.Request.Context()
	if err := h.store.JoinDecision(ctx, decisionID, req.UserID, req.Role); err != nil {
		h.fail(c, "Decision", "Failed to join decision", err)
		return
	}
	if err := h.ledger.DecisionJoined(ctx, req.UserID, req.Role); err != nil {
		h.fail(c, "Decision", "Failed to join decision", err)
		return
	}
	userID := req.UserID
	err := h.logActivity(c, &userID, "decision_joined",
		fmt.Sprintf("Joined decision as %s", req.Role),
		"Participating in collaborative decision-making process", nil)
	if err != nil {
		h.fail(c, "Decision", "Failed to join decision", err)
		return
	}

	h.hub.Broadcast("decision_joined", gin.H{"decisionId": decisionID, "userId": req.UserID, "role": req.Role})
	message(c, http.StatusOK, "Successfully joined decision")
}

func (h *Handler) GetResources(c *gin.Context) {
	resources, err := h.store.Resources(c.Request.Context())
	if err != nil {
		h.fail(c, "Resource", "Failed to fetch resources", err)
		return
	}
	c.JSON(http.StatusOK, resources)
}

type resourceRequest struct {
	Title        string  `json:"title" binding:"required"`
	Description  string  `json:"description"`
	Amount       float64 `json:"amount"`
	ResourceType string  `json:"resourceType"`
	Domain       string  `json:"domain"`
	Status       string  `json:"status"`
	RequesterID  *int64  `json:"requesterId"`
}

func (h *Handler) CreateResource(c *gin.Context) {
	var req resourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resource := &models.Resource{
		Title:        req.Title,
		Description:  req.Description,
		Amount:       req.Amount,
		ResourceType: req.ResourceType,
		Domain:       req.Domain,
		Status:       req.Status,
		RequesterID:  req.RequesterID,
	}
	if err := h.store.CreateResource(c.Request.Context(), resource); err != nil {
		h.fail(c, "Resource", "Failed to create resource", err)
		return
	}

	if resource.RequesterID != nil {
		if err := h.logActivity(c, resource.RequesterID, "resource_requested", "Requested resource: "+resource.Title, resource.Description, nil); err != nil {
			h.fail(c, "Resource", "Failed to create resource", err)
			return
		}
	}

	h.hub.Broadcast("resource_created", resource)
	c.JSON(http.StatusOK, resource)
}

type allocateRequest struct {
	AllocatedTo string `json:"allocatedTo"`
	ApproverID  *int64 `json:"approverId"`
}

func (h *Handler) AllocateResource(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req allocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.store.AllocateResource(ctx, id, req.AllocatedTo, req.ApproverID); err != nil {
		h.fail(c, "Resource", "Failed to allocate resource", err)
		return
	}

	if req.ApproverID != nil {
		if err := h.ledger.ResourceAllocated(ctx, *req.ApproverID); err != nil {
			h.fail(c, "Resource", "Failed to allocate resource", err)
			return
		}
		err := h.logActivity(c, req.ApproverID, "resource_allocated",
			"Approved resource allocation", "Allocated resource to: "+req.AllocatedTo, nil)
		if err != nil {
			h.fail(c, "Resource", "Failed to allocate resource", err)
			return
		}
	}

	h.hub.Broadcast("resource_allocated", gin.H{"id": id, "allocatedTo": req.AllocatedTo, "approverId": req.ApproverID})
	message(c, http.StatusOK, "Resource allocated successfully")
}
