package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.store.User(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "User", "Failed to fetch user", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateUser accepts and ignores profile changes. Trust is derived from
// activity, never set through the API.
func (h *Handler) UpdateUser(c *gin.Context) {
	if _, ok := pathID(c, "id"); !ok {
		return
	}
	message(c, http.StatusOK, "User updated successfully")
}

func (h *Handler) CompleteOnboarding(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.store.CompleteOnboarding(c.Request.Context(), id); err != nil {
		h.fail(c, "User", "Failed to complete onboarding", err)
		return
	}
	message(c, http.StatusOK, "Onboarding completed successfully")
}

func (h *Handler) CompleteOrientation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.store.CompleteOrientation(c.Request.Context(), id); err != nil {
		h.fail(c, "User", "Failed to complete orientation", err)
		return
	}
	message(c, http.StatusOK, "Field orientation completed successfully")
}

func (h *Handler) SignFieldAgreement(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.store.SignFieldAgreement(c.Request.Context(), id); err != nil {
		h.fail(c, "User", "Failed to sign field agreement", err)
		return
	}

	err := h.logActivity(c, &id, "field_agreement_signed", "Field agreement signed",
		"User signed the field agreement", map[string]any{"signedAt": h.now().Format(time.RFC3339)})
	if err != nil {
		h.fail(c, "User", "Failed to sign field agreement", err)
		return
	}
	message(c, http.StatusOK, "Field agreement signed successfully")
}
