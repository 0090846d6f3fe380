package handlers

import (
	"encoding/json"
	"field-swarm/models"
	"field-swarm/store"
	"net/http"

	"github.com/gin-gonic/gin"
)

type libraryQuery struct {
	SignalType string `form:"signalType"`
	Domain     string `form:"domain"`
	Visibility string `form:"visibility"`
}

func (h *Handler) GetLibraryEntries(c *gin.Context) {
	var q libraryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	entries, err := h.store.LibraryEntries(c.Request.Context(), store.LibraryFilter(q))
	if err != nil {
		h.fail(c, "Signal library entry", "Failed to fetch signal library entries", err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) GetLibraryEntry(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	entry, err := h.store.LibraryEntry(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "Signal library entry", "Failed to fetch signal library entry", err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

type libraryRequest struct {
	Title            string   `json:"title" binding:"required"`
	Description      string   `json:"description"`
	CreatorID        *int64   `json:"creatorId"`
	CreatorPseudonym string   `json:"creatorPseudonym"`
	MediaType        string   `json:"mediaType" binding:"required"`
	MediaURL         string   `json:"mediaUrl"`
	MediaContent     string   `json:"mediaContent"`
	SignalType       string   `json:"signalType" binding:"required"`
	LoopType         string   `json:"loopType"`
	FieldCondition   string   `json:"fieldCondition"`
	Domain           string   `json:"domain"`
	Tags             []string `json:"tags"`
	Visibility       string   `json:"visibility"`
	SacredUse        bool     `json:"sacredUse"`
	IsElderShelf     bool     `json:"isElderShelf"`
}

func (h *Handler) CreateLibraryEntry(c *gin.Context) {
	var req libraryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	entry := &models.SignalLibraryEntry{
		Title:            req.Title,
		Description:      req.Description,
		CreatorID:        req.CreatorID,
		CreatorPseudonym: req.CreatorPseudonym,
		MediaType:        req.MediaType,
		MediaURL:         req.MediaURL,
		MediaContent:     req.MediaContent,
		SignalType:       req.SignalType,
		LoopType:         req.LoopType,
		FieldCondition:   req.FieldCondition,
		Domain:           req.Domain,
		Tags:             req.Tags,
		Visibility:       req.Visibility,
		SacredUse:        req.SacredUse,
		IsElderShelf:     req.IsElderShelf,
	}
	if err := h.store.CreateLibraryEntry(c.Request.Context(), entry); err != nil {
		h.fail(c, "Signal library entry", "Failed to create signal library entry", err)
		return
	}

	if entry.CreatorID != nil {
		err := h.logActivity(c, entry.CreatorID, "signal_library_contribution",
			"Contributed to Signal Library: "+entry.Title, entry.Description, nil)
		if err != nil {
			h.fail(c, "Signal library entry", "Failed to create signal library entry", err)
			return
		}
	}

	h.hub.Broadcast("signal_library_entry_created", entry)
	c.JSON(http.StatusOK, entry)
}

// libraryUpdate lists the fields a patch may change; absent fields are kept.
type libraryUpdate struct {
	Title          *string   `json:"title"`
	Description    *string   `json:"description"`
	MediaURL       *string   `json:"mediaUrl"`
	MediaContent   *string   `json:"mediaContent"`
	SignalType     *string   `json:"signalType"`
	LoopType       *string   `json:"loopType"`
	FieldCondition *string   `json:"fieldCondition"`
	Domain         *string   `json:"domain"`
	Tags           *[]string `json:"tags"`
	Visibility     *string   `json:"visibility"`
	SacredUse      *bool     `json:"sacredUse"`
	IsElderShelf   *bool     `json:"isElderShelf"`
}

func (u libraryUpdate) columns() (map[string]any, error) {
	cols := map[string]any{}
	for col, v := range map[string]*string{
		"title":           u.Title,
		"description":     u.Description,
		"media_url":       u.MediaURL,
		"media_content":   u.MediaContent,
		"signal_type":     u.SignalType,
		"loop_type":       u.LoopType,
		"field_condition": u.FieldCondition,
		"domain":          u.Domain,
		"visibility":      u.Visibility,
	} {
		if v != nil {
			cols[col] = *v
		}
	}
	if u.SacredUse != nil {
		cols["sacred_use"] = *u.SacredUse
	}
	if u.IsElderShelf != nil {
		cols["is_elder_shelf"] = *u.IsElderShelf
	}
	// Map updates skip the column serializer, so tags are encoded here.
	if u.Tags != nil {
		raw, err := json.Marshal(*u.Tags)
		if err != nil {
			return nil, err
		}
		cols["tags"] = string(raw)
	}
	return cols, nil
}

func (h *Handler) UpdateLibraryEntry(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req libraryUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	cols, err := req.columns()
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := h.store.UpdateLibraryEntry(c.Request.Context(), id, cols); err != nil {
		h.fail(c, "Signal library entry", "Failed to update signal library entry", err)
		return
	}
	message(c, http.StatusOK, "Signal library entry updated successfully")
}

func (h *Handler) AddRipple(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.store.IncrementRipples(c.Request.Context(), id); err != nil {
		h.fail(c, "Signal library entry", "Failed to add ripple", err)
		return
	}
	message(c, http.StatusOK, "Ripple added successfully")
}
