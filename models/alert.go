package models

import "time"

// Alert kinds.
const (
	AlertOutOfStock  = "out_of_stock"
	AlertBackInStock = "back_in_stock"
)

type Alert struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index" json:"-"`
	Kind      string    `gorm:"size:32" json:"kind"`
	Level     string    `gorm:"size:20" json:"level"` // "warning" | "info"
	ItemID    *uint     `json:"item_id,omitempty"`
	Message   string    `gorm:"type:text" json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
