package models

import "gorm.io/gorm"

// NutritionGoal holds each user's daily targets.
type NutritionGoal struct {
	gorm.Model
	UserID      uint    `gorm:"uniqueIndex;not null"`
	Calories    float64 // kcal
	Protein     float64 // g
	Carbs       float64 // g
	Fat         float64 // g
	DailyBudget float64 // currency units
}
