package models

import (
	"time"

	"gorm.io/gorm"
)

// Nutrition sources for a recipe.
const (
	NutritionSourceLinked = "linked" // computed from recipe_items
	NutritionSourceManual = "manual"
	NutritionSourceAI     = "ai"
)

type Recipe struct {
	gorm.Model
	UserID          uint   `gorm:"index;not null"`
	Name            string `gorm:"not null"`
	Instructions    string `gorm:"type:text"`
	Servings        int
	IngredientsText string `gorm:"type:text"` // free-text lines, one per ingredient
	NutritionSource string `gorm:"size:16"`

	// per-serving values for manual / ai recipes
	Calories float64
	Protein  float64
	Carbs    float64
	Fat      float64

	Items []RecipeItem
	Tags  []Tag `gorm:"many2many:recipe_tags;"`
}

// RecipeItem links a recipe to a pantry item with an amount.
type RecipeItem struct {
	gorm.Model
	RecipeID uint `gorm:"index;not null"`
	ItemID   uint `gorm:"index;not null"`
	Item     Item
	Quantity float64
	Unit     string `gorm:"size:32"`
	Notes    string
}

type RecipeIngredient struct {
	ItemID   uint    `json:"item_id"`
	ItemName string  `json:"item_name,omitempty"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Notes    string  `json:"notes,omitempty"`
	InStock  bool    `json:"in_stock"`
}

type RecipeView struct {
	ID              uint               `json:"id"`
	Name            string             `json:"name"`
	Instructions    string             `json:"instructions"`
	Servings        int                `json:"servings"`
	IngredientLines []string           `json:"ingredient_lines,omitempty"`
	Ingredients     []RecipeIngredient `json:"ingredients"`
	NutritionSource string             `json:"nutrition_source"`
	Nutrition       Nutrition          `json:"nutrition_per_serving"`
	TotalCost       float64            `json:"total_cost"`
	CostPerServing  float64            `json:"cost_per_serving"`
	Tags            []TagView          `json:"tags"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}
