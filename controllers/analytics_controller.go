package controllers

import (
	"net/http"
	"time"

	"pantrytrack/services"

	"github.com/gin-gonic/gin"
)

type AnalyticsController struct {
	Svc *services.AnalyticsService
}

func NewAnalyticsController(svc *services.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{Svc: svc}
}

// GET /analytics/summary?from=&to=&includeMissingDays=true
// Defaults to the current calendar month.
func (h *AnalyticsController) GetAnalyticsSummary(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	now := time.Now().UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	from, ok := queryDate(c, "from", first)
	if !ok {
		return
	}
	to, ok := queryDate(c, "to", last)
	if !ok {
		return
	}
	includeMissing := c.DefaultQuery("includeMissingDays", "false") == "true"

	out, err := h.Svc.Summary(c.Request.Context(), userID, from, to, includeMissing)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /analytics/weekly?week_start=&mode=chart|detailed
func (h *AnalyticsController) GetWeeklyOverview(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	weekStart, ok := queryDate(c, "week_start", time.Now().UTC())
	if !ok {
		return
	}
	mode := c.DefaultQuery("mode", "detailed")

	out, err := h.Svc.WeeklyOverview(c.Request.Context(), userID, weekStart, mode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *AnalyticsController) GetInventoryStats(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	out, err := h.Svc.InventoryStats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
