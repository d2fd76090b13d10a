package utils

import (
	"testing"

	"pantrytrack/models"

	"github.com/stretchr/testify/assert"
)

func grams(v float64) *float64 { return &v }

var (
	oats = models.FoodItem{
		ID: 1, Name: "Rolled Oats", ServingSize: 40, ServingUnit: "g", ServingSizeGrams: grams(40),
		Nutrition: models.Nutrition{Calories: 150, Protein: 5, Carbs: 27, Fat: 2.5},
		Price:     4.5, PriceQuantity: 1000, PriceUnit: "g",
	}
	milk = models.FoodItem{
		ID: 2, Name: "Whole Milk", ServingSize: 1, ServingUnit: "cup",
		Nutrition: models.Nutrition{Calories: 149, Protein: 8, Carbs: 12, Fat: 8},
		Price:     3.2, PriceQuantity: 1, PriceUnit: "l",
	}
	banana = models.FoodItem{
		ID: 3, Name: "Banana", ServingSize: 1, ServingUnit: "piece", ServingSizeGrams: grams(118),
		Nutrition: models.Nutrition{Calories: 105, Protein: 1.3, Carbs: 27, Fat: 0.4},
	}
)

func TestCalculateCostPerUnit(t *testing.T) {
	assert.InDelta(t, 0.0045, CalculateCostPerUnit(4.5, 1000), 1e-9)
	assert.Zero(t, CalculateCostPerUnit(0, 10))
	assert.Zero(t, CalculateCostPerUnit(5, 0))
	assert.Zero(t, CalculateCostPerUnit(-1, 10))
}

func TestCalculateIngredientCost(t *testing.T) {
	tests := []struct {
		name string
		ing  Ingredient
		item models.FoodItem
		want float64
	}{
		{"same unit", Ingredient{ItemID: 1, Quantity: 80, Unit: "g"}, oats, 0.36},
		{"servings", Ingredient{ItemID: 1, Quantity: 2, Unit: "serving"}, oats, 0.36},
		{"kilograms", Ingredient{ItemID: 1, Quantity: 0.5, Unit: "kg"}, oats, 2.25},
		{"volume conversion", Ingredient{ItemID: 2, Quantity: 1, Unit: "cup"}, milk, 3.2 * 0.236588},
		{"unpriced item", Ingredient{ItemID: 3, Quantity: 2, Unit: "piece"}, banana, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CalculateIngredientCost(tt.ing, tt.item), 1e-6)
		})
	}
}

func TestCalculateRecipeTotalCost_SkipsUnknownItems(t *testing.T) {
	idx := IndexItems([]models.FoodItem{oats, milk})
	total := CalculateRecipeTotalCost([]Ingredient{
		{ItemID: 1, Quantity: 80, Unit: "g"},
		{ItemID: 99, Quantity: 5, Unit: "g"},
	}, idx)
	assert.InDelta(t, 0.36, total, 1e-9)
}

func TestCalculateCostPerServing(t *testing.T) {
	assert.Equal(t, 3.33, CalculateCostPerServing(10, 3))
	assert.Equal(t, 10.0, CalculateCostPerServing(10, 0))
}

func TestQuantityIn(t *testing.T) {
	assert.Equal(t, 80.0, QuantityIn(2, "servings", oats, "g"))
	assert.Equal(t, 2.0, QuantityIn(80, "g", oats, "serving"))
	assert.Equal(t, 3.0, QuantityIn(3, "serving", oats, "portion"))
	assert.InDelta(t, 1000.0, QuantityIn(1, "kg", oats, "grams"), 1e-9)
}
