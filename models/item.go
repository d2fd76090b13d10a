package models

import (
	"time"

	"gorm.io/gorm"
)

// Item is a pantry product row. Nullable columns are pointers so rows written
// by older clients (or by hand) still load.
type Item struct {
	gorm.Model
	UserID         uint   `gorm:"not null;uniqueIndex:idx_items_user_name"`
	Name           string `gorm:"not null"`
	NormalizedName string `gorm:"not null;uniqueIndex:idx_items_user_name"`
	Category       *string
	InStock        *bool

	// serving metadata
	ServingSize      *float64
	ServingUnit      *string `gorm:"size:32"`
	ServingSizeGrams *float64

	// nutrition per serving
	Calories *float64
	Protein  *float64
	Carbs    *float64
	Fat      *float64
	Fiber    *float64
	Sugar    *float64
	Sodium   *float64 // mg
	SatFat   *float64

	// purchase info for cost calculations
	Price         *float64
	PriceQuantity *float64
	PriceUnit     *string `gorm:"size:32"`

	Barcode  *string `gorm:"size:64;index"`
	ImageURL *string
	Notes    *string `gorm:"type:text"`
}

// Nutrition holds per-serving (or aggregated) nutrient amounts.
type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
	Sugar    float64 `json:"sugar"`
	Sodium   float64 `json:"sodium"`
	SatFat   float64 `json:"sat_fat"`
}

// Add returns n + o.
func (n Nutrition) Add(o Nutrition) Nutrition {
	return Nutrition{
		Calories: n.Calories + o.Calories,
		Protein:  n.Protein + o.Protein,
		Carbs:    n.Carbs + o.Carbs,
		Fat:      n.Fat + o.Fat,
		Fiber:    n.Fiber + o.Fiber,
		Sugar:    n.Sugar + o.Sugar,
		Sodium:   n.Sodium + o.Sodium,
		SatFat:   n.SatFat + o.SatFat,
	}
}

// Scale multiplies every nutrient by f.
func (n Nutrition) Scale(f float64) Nutrition {
	return Nutrition{
		Calories: n.Calories * f,
		Protein:  n.Protein * f,
		Carbs:    n.Carbs * f,
		Fat:      n.Fat * f,
		Fiber:    n.Fiber * f,
		Sugar:    n.Sugar * f,
		Sodium:   n.Sodium * f,
		SatFat:   n.SatFat * f,
	}
}

// FoodItem is the view model served to clients.
type FoodItem struct {
	ID               uint      `json:"id"`
	Name             string    `json:"name" binding:"required"`
	Category         string    `json:"category"`
	InStock          bool      `json:"in_stock"`
	ServingSize      float64   `json:"serving_size"`
	ServingUnit      string    `json:"serving_unit"`
	ServingSizeGrams *float64  `json:"serving_size_grams,omitempty"`
	Nutrition        Nutrition `json:"nutrition"`
	Price            float64   `json:"price,omitempty"`
	PriceQuantity    float64   `json:"price_quantity,omitempty"`
	PriceUnit        string    `json:"price_unit,omitempty"`
	CostPerUnit      float64   `json:"cost_per_unit"`
	Barcode          string    `json:"barcode,omitempty"`
	ImageURL         string    `json:"image_url,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
