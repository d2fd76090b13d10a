package controllers

import (
	"net/http"
	"time"

	"pantrytrack/services"

	"github.com/gin-gonic/gin"
)

type MealLogController struct {
	Logs *services.MealLogService
}

func NewMealLogController(logs *services.MealLogService) *MealLogController {
	return &MealLogController{Logs: logs}
}

// GET /meal-logs?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *MealLogController) List(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	from, ok := queryDate(c, "from", time.Time{})
	if !ok {
		return
	}
	to, ok := queryDate(c, "to", time.Time{})
	if !ok {
		return
	}
	out, err := h.Logs.List(c.Request.Context(), uid, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *MealLogController) Get(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	out, err := h.Logs.Get(c.Request.Context(), uid, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *MealLogController) Create(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var in services.MealLogInput
	if !bindJSON(c, &in) {
		return
	}
	out, err := h.Logs.Create(c.Request.Context(), uid, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *MealLogController) Update(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.MealLogInput
	if !bindJSON(c, &in) {
		return
	}
	out, err := h.Logs.Update(c.Request.Context(), uid, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *MealLogController) Delete(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Logs.Delete(c.Request.Context(), uid, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
