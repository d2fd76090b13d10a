package controllers

import (
	"net/http"

	"pantrytrack/models"
	"pantrytrack/services"

	"github.com/gin-gonic/gin"
)

type SettingsController struct {
	Settings *services.SettingsService
	Goals    *services.GoalService
}

func NewSettingsController(settings *services.SettingsService, goals *services.GoalService) *SettingsController {
	return &SettingsController{Settings: settings, Goals: goals}
}

func (h *SettingsController) Get(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	out, err := h.Settings.Get(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// PUT /settings replaces all settings; omitted fields take their defaults.
func (h *SettingsController) Update(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	in := models.DefaultSettings()
	if !bindJSON(c, &in) {
		return
	}
	out, err := h.Settings.Update(c.Request.Context(), uid, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *SettingsController) RecentSearches(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	out, err := h.Settings.RecentSearches(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *SettingsController) ClearRecentSearches(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.Settings.ClearRecentSearches(c.Request.Context(), uid); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SettingsController) GetGoals(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	out, err := h.Goals.Get(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *SettingsController) UpdateGoals(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var in services.GoalView
	if !bindJSON(c, &in) {
		return
	}
	out, err := h.Goals.Upsert(c.Request.Context(), uid, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
