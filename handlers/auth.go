package handlers

import (
	"errors"
	"field-swarm/auth"
	"net/http"

	"github.com/gin-gonic/gin"
)

type codeRequest struct {
	Code string `json:"code"`
}

func (h *Handler) ValidateCode(c *gin.Context) {
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	check, err := h.auth.ValidateInviteCode(c.Request.Context(), req.Code)
	if err != nil {
		h.fail(c, "Code", "Validation failed", err)
		return
	}
	if !check.Valid {
		c.JSON(http.StatusBadRequest, gin.H{"valid": false, "message": check.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "existingUser": check.ExistingUser})
}

type pseudonymRequest struct {
	Pseudonym string `json:"pseudonym"`
}

func (h *Handler) CheckPseudonym(c *gin.Context) {
	var req pseudonymRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	avail, err := h.auth.CheckPseudonym(c.Request.Context(), req.Pseudonym)
	if err != nil {
		h.fail(c, "Pseudonym", "Check failed", err)
		return
	}
	if !avail.Available {
		c.JSON(http.StatusConflict, gin.H{"available": false, "message": avail.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": true})
}

type registerRequest struct {
	Pseudonym  string `json:"pseudonym"`
	SignalRole string `json:"signalRole"`
	InviteCode string `json:"inviteCode"`
	StyleEmoji string `json:"styleEmoji"`
	FieldColor string `json:"fieldColor"`
}

func (h *Handler) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.auth.Register(c.Request.Context(), auth.Registration{
		Pseudonym:  req.Pseudonym,
		SignalRole: req.SignalRole,
		InviteCode: req.InviteCode,
		StyleEmoji: req.StyleEmoji,
		FieldColor: req.FieldColor,
	})
	switch {
	case errors.Is(err, auth.ErrInvalidCode):
		message(c, http.StatusBadRequest, "Invalid invite code")
		return
	case errors.Is(err, auth.ErrPseudonymTaken):
		message(c, http.StatusConflict, "Pseudonym not available")
		return
	case err != nil:
		h.fail(c, "User", "Registration failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "message": "Registration successful"})
}

type loginRequest struct {
	Pseudonym  string `json:"pseudonym"`
	InviteCode string `json:"inviteCode"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.auth.Login(c.Request.Context(), req.Pseudonym, req.InviteCode)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		message(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		h.fail(c, "User", "Login failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "message": "Login successful"})
}

type sessionRequest struct {
	UserID    int64  `json:"userId"`
	Pseudonym string `json:"pseudonym"`
}

func (h *Handler) Session(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.auth.Session(c.Request.Context(), req.UserID, req.Pseudonym)
	if errors.Is(err, auth.ErrInvalidSession) {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false, "message": "Invalid session"})
		return
	}
	if err != nil {
		h.fail(c, "User", "Session validation failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "user": user})
}

// Logout has nothing to revoke; clients drop their stored identity.
func (h *Handler) Logout(c *gin.Context) {
	message(c, http.StatusOK, "Logged out successfully")
}

type inviteRequest struct {
	UserID      int64  `json:"userId"`
	Description string `json:"description"`
}

func (h *Handler) GenerateInvite(c *gin.Context) {
	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	invite, err := h.auth.GenerateInviteCode(c.Request.Context(), req.UserID, req.Description)
	if errors.Is(err, auth.ErrUnknownUser) {
		message(c, http.StatusUnauthorized, "User not found")
		return
	}
	if err != nil {
		h.fail(c, "User", "Code generation failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":        invite.Code,
		"description": invite.Description,
		"message":     "Invite code generated successfully",
	})
}
