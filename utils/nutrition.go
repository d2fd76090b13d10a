package utils

import "pantrytrack/models"

// CalculateIngredientNutrition is the nutrition contributed by one ingredient.
func CalculateIngredientNutrition(ing Ingredient, item models.FoodItem) models.Nutrition {
	return item.Nutrition.Scale(ServingsFor(ing.Quantity, ing.Unit, item))
}

// CalculateRecipeNutrition returns per-serving nutrition for a recipe made of
// ingredients. Unknown items are skipped; servings <= 0 counts as one.
func CalculateRecipeNutrition(ingredients []Ingredient, items ItemIndex, servings int) models.Nutrition {
	var total models.Nutrition
	for _, ing := range ingredients {
		item, ok := items[ing.ItemID]
		if !ok {
			continue
		}
		total = total.Add(CalculateIngredientNutrition(ing, item))
	}
	if servings <= 0 {
		servings = 1
	}
	return total.Scale(1 / float64(servings))
}

func RoundNutrition(n models.Nutrition) models.Nutrition {
	return models.Nutrition{
		Calories: Round2(n.Calories),
		Protein:  Round2(n.Protein),
		Carbs:    Round2(n.Carbs),
		Fat:      Round2(n.Fat),
		Fiber:    Round2(n.Fiber),
		Sugar:    Round2(n.Sugar),
		Sodium:   Round2(n.Sodium),
		SatFat:   Round2(n.SatFat),
	}
}

// MealPart is one recipe eaten as part of a meal.
type MealPart struct {
	PerServing     models.Nutrition
	CostPerServing float64
	Servings       float64
}

// DeriveMealTotals sums nutrition and cost over the recipes of a meal.
// Servings <= 0 counts as one.
func DeriveMealTotals(parts []MealPart) (models.Nutrition, float64) {
	var n models.Nutrition
	var cost float64
	for _, p := range parts {
		s := p.Servings
		if s <= 0 {
			s = 1
		}
		n = n.Add(p.PerServing.Scale(s))
		cost += p.CostPerServing * s
	}
	return RoundNutrition(n), Round2(cost)
}
