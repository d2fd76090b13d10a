package controllers

import (
	"net/http"

	"pantrytrack/services"

	"github.com/gin-gonic/gin"
)

type MealPlanController struct {
	Plans *services.MealPlanService
}

func NewMealPlanController(plans *services.MealPlanService) *MealPlanController {
	return &MealPlanController{Plans: plans}
}

func (h *MealPlanController) List(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	out, err := h.Plans.ListPlans(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *MealPlanController) Get(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	out, err := h.Plans.GetPlan(c.Request.Context(), uid, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *MealPlanController) Create(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var in services.MealPlanInput
	if !bindJSON(c, &in) {
		return
	}
	out, err := h.Plans.CreatePlan(c.Request.Context(), uid, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *MealPlanController) Update(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.MealPlanInput
	if !bindJSON(c, &in) {
		return
	}
	out, err := h.Plans.UpdatePlan(c.Request.Context(), uid, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *MealPlanController) Delete(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Plans.DeletePlan(c.Request.Context(), uid, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /meal-plans/:id/blocks
func (h *MealPlanController) AddBlock(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.BlockInput
	if !bindJSON(c, &in) {
		return
	}
	out, err := h.Plans.AddBlock(c.Request.Context(), uid, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// DELETE /meal-plans/:id/blocks/:blockId
func (h *MealPlanController) DeleteBlock(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	blockID, ok := paramID(c, "blockId")
	if !ok {
		return
	}
	if err := h.Plans.DeleteBlock(c.Request.Context(), uid, id, blockID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /meal-plans/:id/apply-rotation {"rotation_id": 1, "meal_type": "dinner"}
func (h *MealPlanController) ApplyRotation(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		RotationID uint   `json:"rotation_id" binding:"required"`
		MealType   string `json:"meal_type" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.Plans.ApplyRotation(c.Request.Context(), uid, id, req.RotationID, req.MealType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /meal-plans/:id/shopping-list?all=true
func (h *MealPlanController) ShoppingList(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	out, err := h.Plans.ShoppingList(c.Request.Context(), uid, id, c.Query("all") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ---------- rotations ----------

func (h *MealPlanController) ListRotations(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	out, err := h.Plans.ListRotations(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *MealPlanController) GetRotation(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	out, err := h.Plans.GetRotation(c.Request.Context(), uid, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *MealPlanController) CreateRotation(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var in services.RotationInput
	if !bindJSON(c, &in) {
		return
	}
	out, err := h.Plans.CreateRotation(c.Request.Context(), uid, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *MealPlanController) UpdateRotation(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.RotationInput
	if !bindJSON(c, &in) {
		return
	}
	out, err := h.Plans.UpdateRotation(c.Request.Context(), uid, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *MealPlanController) DeleteRotation(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Plans.DeleteRotation(c.Request.Context(), uid, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
