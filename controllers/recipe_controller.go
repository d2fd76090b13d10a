package controllers

import (
	"net/http"
	"strconv"

	"pantrytrack/services"

	"github.com/gin-gonic/gin"
)

type RecipeController struct {
	Recipes *services.RecipeService
	AI      *services.AIService
}

func NewRecipeController(recipes *services.RecipeService, ai *services.AIService) *RecipeController {
	return &RecipeController{Recipes: recipes, AI: ai}
}

// GET /recipes?tag_id=&q=&cookable=true
func (h *RecipeController) List(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	f := services.RecipeFilter{Name: c.Query("q"), Cookable: c.Query("cookable") == "true"}
	if v := c.Query("tag_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tag_id"})
			return
		}
		f.TagID = uint(id)
	}
	out, err := h.Recipes.List(c.Request.Context(), uid, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *RecipeController) Get(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	out, err := h.Recipes.Get(c.Request.Context(), uid, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *RecipeController) Create(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var in services.RecipeInput
	if !bindJSON(c, &in) {
		return
	}
	out, err := h.Recipes.Create(c.Request.Context(), uid, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *RecipeController) Update(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.RecipeInput
	if !bindJSON(c, &in) {
		return
	}
	out, err := h.Recipes.Update(c.Request.Context(), uid, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *RecipeController) Delete(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Recipes.Delete(c.Request.Context(), uid, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /recipes/generate {"prompt": "...", "servings": 2, "save": true}
func (h *RecipeController) Generate(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req services.RecipeRequest
	if !bindJSON(c, &req) {
		return
	}
	gen, err := h.AI.GenerateRecipe(c.Request.Context(), uid, req)
	if err != nil {
		respondError(c, err)
		return
	}
	if !req.Save {
		c.JSON(http.StatusOK, gen)
		return
	}
	saved, err := h.Recipes.Create(c.Request.Context(), uid, gen.Recipe)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"recipe": saved, "unmatched": gen.Unmatched})
}
