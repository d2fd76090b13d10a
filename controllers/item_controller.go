package controllers

import (
	"net/http"
	"strconv"

	"pantrytrack/models"
	"pantrytrack/services"

	"github.com/gin-gonic/gin"
)

type ItemController struct {
	Items *services.ItemService
}

func NewItemController(items *services.ItemService) *ItemController {
	return &ItemController{Items: items}
}

func itemFilter(c *gin.Context) (services.ItemFilter, bool) {
	f := services.ItemFilter{Category: c.Query("category"), Query: c.Query("q")}
	if v := c.Query("in_stock"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid in_stock"})
			return f, false
		}
		f.InStock = &b
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return f, false
		}
		f.Limit = n
	}
	return f, true
}

// GET /items?category=&in_stock=&q=&limit=
func (h *ItemController) List(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	f, ok := itemFilter(c)
	if !ok {
		return
	}
	items, err := h.Items.List(c.Request.Context(), uid, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GET /items/search?q=
func (h *ItemController) Search(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	f, ok := itemFilter(c)
	if !ok {
		return
	}
	q := f.Query
	f.Query = ""
	res, err := h.Items.Search(c.Request.Context(), uid, q, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ItemController) Categories(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	cats, err := h.Items.Categories(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cats)
}

func (h *ItemController) Get(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	item, err := h.Items.Get(c.Request.Context(), uid, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *ItemController) Create(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	// new items are in stock unless the body says otherwise
	in := models.FoodItem{InStock: true}
	if !bindJSON(c, &in) {
		return
	}
	item, err := h.Items.Create(c.Request.Context(), uid, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *ItemController) Update(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in models.FoodItem
	if !bindJSON(c, &in) {
		return
	}
	item, err := h.Items.Update(c.Request.Context(), uid, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// PATCH /items/:id/stock {"in_stock": false}
func (h *ItemController) SetStock(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		InStock *bool `json:"in_stock" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.Items.SetStock(c.Request.Context(), uid, id, *req.InStock)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *ItemController) Delete(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Items.Delete(c.Request.Context(), uid, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /items/:id/image {"image_base64": "data:image/jpeg;base64,..."}
func (h *ItemController) UploadImage(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		ImageBase64 string `json:"image_base64" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.Items.AttachImage(c.Request.Context(), uid, id, req.ImageBase64)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *ItemController) Assessment(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	out, err := h.Items.Assess(c.Request.Context(), uid, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
