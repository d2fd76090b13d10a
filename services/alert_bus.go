package services

import (
	"context"
	"fmt"
	"time"

	"pantrytrack/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Pusher delivers mobile push notifications.
type Pusher interface {
	PushToUser(ctx context.Context, userID uint, title, body string, data map[string]string)
}

// AlertBus persists an alert, then broadcasts it over websockets and push.
type AlertBus struct {
	db   *gorm.DB
	rt   *RealtimeHub
	push Pusher
	log  *zap.Logger
}

func NewAlertBus(db *gorm.DB, rt *RealtimeHub, push Pusher, log *zap.Logger) *AlertBus {
	if log == nil {
		log = zap.NewNop()
	}
	return &AlertBus{db: db, rt: rt, push: push, log: log}
}

// Emit is safe to call on a nil bus.
func (b *AlertBus) Emit(ctx context.Context, userID uint, kind, level string, itemID *uint, message string) *models.Alert {
	if b == nil || b.db == nil {
		return nil
	}
	a := &models.Alert{UserID: userID, Kind: kind, Level: level, ItemID: itemID, Message: message, CreatedAt: time.Now()}
	if err := b.db.WithContext(ctx).Create(a).Error; err != nil {
		b.log.Warn("persist alert", zap.Uint("user_id", userID), zap.Error(err))
		return nil
	}

	if b.rt != nil {
		b.rt.Broadcast(userID, map[string]any{
			"kind":  "alert.created",
			"alert": a,
		})
	}
	if b.push != nil {
		b.push.PushToUser(ctx, userID, "Pantry alert", message, map[string]string{
			"kind": kind, "alertId": fmt.Sprintf("%d", a.ID),
		})
	}
	return a
}

func (b *AlertBus) List(ctx context.Context, userID uint, unreadOnly bool, limit int) ([]models.Alert, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q := b.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read = ?", false)
	}
	var out []models.Alert
	err := q.Order("created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

func (b *AlertBus) MarkRead(ctx context.Context, userID, alertID uint) error {
	res := b.db.WithContext(ctx).Model(&models.Alert{}).
		Where("id = ? AND user_id = ?", alertID, userID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("alert %w", ErrNotFound)
	}
	return nil
}
