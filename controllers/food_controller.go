package controllers

import (
	"net/http"
	"strconv"

	"pantrytrack/services"

	"github.com/gin-gonic/gin"
)

type FoodController struct {
	Food *services.FoodService
}

func NewFoodController(food *services.FoodService) *FoodController {
	return &FoodController{Food: food}
}

// GET /food/barcode/:code
func (h *FoodController) Barcode(c *gin.Context) {
	item, err := h.Food.Barcode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// GET /food/search?q=apple&page=1
func (h *FoodController) Search(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	c.JSON(http.StatusOK, h.Food.Search(c.Request.Context(), c.Query("q"), page))
}

// POST /food/recognize {"image_base64": "data:..."}
func (h *FoodController) Recognize(c *gin.Context) {
	var req struct {
		ImageBase64 string `json:"image_base64" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.Food.Recognize(c.Request.Context(), req.ImageBase64)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// POST /food/bulk {"codes": ["..."]}
func (h *FoodController) Bulk(c *gin.Context) {
	var req struct {
		Codes []string `json:"codes" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.Food.BulkLookup(c.Request.Context(), req.Codes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
