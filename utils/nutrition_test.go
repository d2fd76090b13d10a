package utils

import (
	"testing"

	"pantrytrack/models"

	"github.com/stretchr/testify/assert"
)

func TestCalculateRecipeNutrition(t *testing.T) {
	idx := IndexItems([]models.FoodItem{oats, banana})
	n := CalculateRecipeNutrition([]Ingredient{
		{ItemID: 1, Quantity: 80, Unit: "g"},
		{ItemID: 3, Quantity: 1, Unit: "piece"},
		{ItemID: 42, Quantity: 1, Unit: "g"},
	}, idx, 2)

	assert.InDelta(t, 202.5, n.Calories, 1e-9)
	assert.InDelta(t, 5.65, n.Protein, 1e-9)
	assert.InDelta(t, 40.5, n.Carbs, 1e-9)
}

func TestCalculateRecipeNutrition_ZeroServings(t *testing.T) {
	idx := IndexItems([]models.FoodItem{banana})
	n := CalculateRecipeNutrition([]Ingredient{{ItemID: 3, Quantity: 2, Unit: "piece"}}, idx, 0)
	assert.InDelta(t, 210, n.Calories, 1e-9)
}

func TestDeriveMealTotals(t *testing.T) {
	n, cost := DeriveMealTotals([]MealPart{
		{PerServing: models.Nutrition{Calories: 100, Protein: 3.333}, CostPerServing: 1.234},
		{PerServing: models.Nutrition{Calories: 50, Protein: 1}, CostPerServing: 0.5, Servings: 2},
	})
	assert.Equal(t, 200.0, n.Calories)
	assert.Equal(t, 5.33, n.Protein)
	assert.Equal(t, 2.23, cost)

	n, cost = DeriveMealTotals(nil)
	assert.Zero(t, n)
	assert.Zero(t, cost)
}
