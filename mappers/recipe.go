package mappers

import (
	"strings"

	"pantrytrack/models"
	"pantrytrack/utils"
)

// DBRecipeToRecipe maps a recipe row, with Items.Item and Tags preloaded, to
// its view. Linked recipes get nutrition and cost computed from their items;
// manual and ai recipes report the stored per-serving values.
func DBRecipeToRecipe(row models.Recipe) models.RecipeView {
	servings := row.Servings
	if servings <= 0 {
		servings = 1
	}
	source := row.NutritionSource
	if source == "" {
		source = models.NutritionSourceLinked
	}

	ingredients := make([]utils.Ingredient, 0, len(row.Items))
	lookup := make(map[uint]models.FoodItem, len(row.Items))
	view := models.RecipeView{
		ID:              row.ID,
		Name:            row.Name,
		Instructions:    row.Instructions,
		Servings:        servings,
		IngredientLines: SplitIngredientLines(row.IngredientsText),
		Ingredients:     make([]models.RecipeIngredient, 0, len(row.Items)),
		NutritionSource: source,
		Tags:            make([]models.TagView, 0, len(row.Tags)),
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
	for _, ri := range row.Items {
		ing := models.RecipeIngredient{
			ItemID:   ri.ItemID,
			Quantity: ri.Quantity,
			Unit:     ri.Unit,
			Notes:    ri.Notes,
		}
		if ri.Item.ID != 0 {
			fi := DBItemToFoodItem(ri.Item)
			lookup[fi.ID] = fi
			ing.ItemName = fi.Name
			ing.InStock = fi.InStock
		}
		view.Ingredients = append(view.Ingredients, ing)
		ingredients = append(ingredients, utils.Ingredient{ItemID: ri.ItemID, Quantity: ri.Quantity, Unit: ri.Unit})
	}
	for _, t := range row.Tags {
		view.Tags = append(view.Tags, DBTagToTag(t))
	}

	if source == models.NutritionSourceLinked {
		view.Nutrition = utils.CalculateRecipeNutrition(ingredients, lookup, servings)
	} else {
		view.Nutrition = models.Nutrition{
			Calories: row.Calories,
			Protein:  row.Protein,
			Carbs:    row.Carbs,
			Fat:      row.Fat,
		}
	}
	view.Nutrition = utils.RoundNutrition(view.Nutrition)
	view.TotalCost = utils.Round2(utils.CalculateRecipeTotalCost(ingredients, lookup))
	view.CostPerServing = utils.CalculateCostPerServing(view.TotalCost, servings)
	return view
}

// SplitIngredientLines turns the stored free-text ingredient list into
// trimmed, non-empty lines.
func SplitIngredientLines(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// JoinIngredientLines is the inverse of SplitIngredientLines.
func JoinIngredientLines(lines []string) string {
	var kept []string
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}

func DBTagToTag(t models.Tag) models.TagView {
	color := t.Color
	if color == "" {
		color = models.DefaultTagColor
	}
	return models.TagView{ID: t.ID, Name: t.Name, Color: color, Description: t.Description}
}
