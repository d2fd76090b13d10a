package models

import (
	"time"

	"gorm.io/gorm"
)

type WeeklyMealPlan struct {
	gorm.Model
	UserID    uint            `gorm:"index;not null"`
	WeekStart time.Time       `gorm:"index;not null"` // Monday
	Name      string
	Notes     string          `gorm:"type:text"`
	Blocks    []MealPlanBlock `gorm:"foreignKey:PlanID"`
}

// MealPlanBlock is one slot of a weekly plan.
type MealPlanBlock struct {
	gorm.Model
	PlanID    uint   `gorm:"index;not null"`
	DayOfWeek int    // 0 = Monday
	MealType  string `gorm:"size:16"`
	RecipeID  *uint
	Recipe    *Recipe
	Notes     string
	Position  int
}

// RecipeRotation is an ordered list of recipes cycled through when planning.
type RecipeRotation struct {
	gorm.Model
	UserID  uint `gorm:"index;not null"`
	Name    string
	Active  bool `gorm:"default:true"`
	Cursor  int
	Recipes []RotationRecipe `gorm:"foreignKey:RotationID"`
}

type RotationRecipe struct {
	gorm.Model
	RotationID uint `gorm:"index;not null"`
	RecipeID   uint `gorm:"not null"`
	Position   int
}
