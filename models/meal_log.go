package models

import (
	"time"

	"gorm.io/gorm"
)

// MealLog is one meal eaten on a given day.
type MealLog struct {
	gorm.Model
	UserID   uint      `gorm:"index;not null"`
	Date     time.Time `gorm:"index;not null"` // truncated to the day
	MealType string    `gorm:"size:16"`        // breakfast|lunch|dinner|snack
	Name     string
	Notes    string `gorm:"type:text"`

	Calories float64
	Protein  float64
	Carbs    float64
	Fat      float64
	Cost     float64

	Recipes []MealLogRecipe
}

type MealLogRecipe struct {
	gorm.Model
	MealLogID uint `gorm:"index;not null"`
	RecipeID  uint `gorm:"index;not null"`
	Recipe    Recipe
	Servings  float64
}

type MealLogRecipeRef struct {
	RecipeID   uint    `json:"recipe_id"`
	RecipeName string  `json:"recipe_name,omitempty"`
	Servings   float64 `json:"servings"`
}

type MealLogView struct {
	ID       uint               `json:"id"`
	Date     string             `json:"date"`
	MealType string             `json:"meal_type,omitempty"`
	Name     string             `json:"name"`
	Notes    string             `json:"notes,omitempty"`
	Recipes  []MealLogRecipeRef `json:"recipes"`
	Calories float64            `json:"calories"`
	Protein  float64            `json:"protein"`
	Carbs    float64            `json:"carbs"`
	Fat      float64            `json:"fat"`
	Cost     float64            `json:"cost"`
}
