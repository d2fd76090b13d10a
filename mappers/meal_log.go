package mappers

import (
	"pantrytrack/models"
)

const DateLayout = "2006-01-02"

func DBMealLogToMealLog(row models.MealLog) models.MealLogView {
	v := models.MealLogView{
		ID:       row.ID,
		Date:     row.Date.Format(DateLayout),
		MealType: row.MealType,
		Name:     row.Name,
		Notes:    row.Notes,
		Recipes:  make([]models.MealLogRecipeRef, 0, len(row.Recipes)),
		Calories: row.Calories,
		Protein:  row.Protein,
		Carbs:    row.Carbs,
		Fat:      row.Fat,
		Cost:     row.Cost,
	}
	for _, r := range row.Recipes {
		v.Recipes = append(v.Recipes, models.MealLogRecipeRef{
			RecipeID:   r.RecipeID,
			RecipeName: r.Recipe.Name,
			Servings:   r.Servings,
		})
	}
	return v
}
