package handlers

import (
	"context"
	"field-swarm/models"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthData is the field-wide snapshot served by /system/health.
type HealthData struct {
	SystemCoherence int       `json:"systemCoherence"`
	ActiveLoops     int       `json:"activeLoops"`
	CompletedLoops  int       `json:"completedLoops"`
	OverdueLoops    int       `json:"overdueLoops"`
	TotalSignals    int       `json:"totalSignals"`
	ActiveDecisions int       `json:"activeDecisions"`
	TotalResources  int       `json:"totalResources"`
	LastUpdated     time.Time `json:"lastUpdated"`
}

func (h *Handler) GetSystemMetrics(c *gin.Context) {
	metrics, err := h.store.SystemMetrics(c.Request.Context())
	if err != nil {
		h.fail(c, "Metric", "Failed to fetch system metrics", err)
		return
	}
	c.JSON(http.StatusOK, metrics)
}

func (h *Handler) GetSystemHealth(c *gin.Context) {
	ctx := c.Request.Context()

	health, err := h.loadHealth(ctx)
	if err != nil {
		h.fail(c, "Health", "Failed to calculate system health", err)
		return
	}
	if err := h.store.UpdateSystemMetric(ctx, "system_coherence", float64(health.SystemCoherence)); err != nil {
		h.fail(c, "Health", "Failed to calculate system health", err)
		return
	}
	c.JSON(http.StatusOK, health)
}

// loadHealth counts loops by status alongside signals, open decisions and
// resources. Coherence is the completed share of all tracked loops.
func (h *Handler) loadHealth(ctx context.Context) (*HealthData, error) {
	counts := make(map[string]int, 3)
	for _, status := range []string{models.LoopActive, models.LoopCompleted, models.LoopOverdue} {
		loops, err := h.store.LoopsByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		counts[status] = len(loops)
	}

	signals, err := h.store.Signals(ctx)
	if err != nil {
		return nil, err
	}
	decisions, err := h.store.ActiveDecisions(ctx)
	if err != nil {
		return nil, err
	}
	resources, err := h.store.Resources(ctx)
	if err != nil {
		return nil, err
	}

	health := &HealthData{
		ActiveLoops:     counts[models.LoopActive],
		CompletedLoops:  counts[models.LoopCompleted],
		OverdueLoops:    counts[models.LoopOverdue],
		TotalSignals:    len(signals),
		ActiveDecisions: len(decisions),
		TotalResources:  len(resources),
		LastUpdated:     h.now(),
	}
	total := health.ActiveLoops + health.CompletedLoops + health.OverdueLoops
	if total > 0 {
		health.SystemCoherence = int(math.Round(float64(health.CompletedLoops) / float64(total) * 100))
	}
	return health, nil
}

type activityQuery struct {
	Limit int `form:"limit"`
}

func (h *Handler) GetActivities(c *gin.Context) {
	var q activityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	activities, err := h.store.RecentActivities(c.Request.Context(), q.Limit)
	if err != nil {
		h.fail(c, "Activity", "Failed to fetch activities", err)
		return
	}
	c.JSON(http.StatusOK, activities)
}
