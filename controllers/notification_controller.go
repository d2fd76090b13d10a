package controllers

import (
	"net/http"
	"strconv"

	"pantrytrack/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type NotificationController struct {
	DB     *gorm.DB
	Alerts *services.AlertBus
	Push   *services.PushService
}

func NewNotificationController(db *gorm.DB, alerts *services.AlertBus, push *services.PushService) *NotificationController {
	return &NotificationController{DB: db, Alerts: alerts, Push: push}
}

type toggleReq struct {
	Enabled bool `json:"enabled"`
}

// POST /notifications/toggle
func (h *NotificationController) Toggle(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req toggleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	if err := services.SetNotificationsEnabled(c.Request.Context(), h.DB, uid, req.Enabled); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "notifications updated",
		"enabled": req.Enabled,
	})
}

// GET /alerts?unread=true&limit=50
func (h *NotificationController) ListAlerts(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	out, err := h.Alerts.List(c.Request.Context(), uid, c.Query("unread") == "true", limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// POST /alerts/:id/read
func (h *NotificationController) MarkRead(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Alerts.MarkRead(c.Request.Context(), uid, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type pushReq struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data"`
}

// POST /dev/push-test sends a push to the caller's devices. Only routed
// outside production.
func (h *NotificationController) PushTest(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Push == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "push notifications are not configured"})
		return
	}
	var req pushReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Title == "" {
		req.Title = "Test notification"
	}
	if req.Body == "" {
		req.Body = "Push delivery works."
	}
	h.Push.PushToUser(c.Request.Context(), uid, req.Title, req.Body, req.Data)
	c.JSON(http.StatusOK, gin.H{"message": "sent"})
}
