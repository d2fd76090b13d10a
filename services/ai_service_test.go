package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"pantrytrack/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func aiFixture(t *testing.T, gen TextGenerator) (*fixture, *AIService, uint, models.FoodItem, models.FoodItem) {
	f := newFixture(t)
	u := newUser(t, f.db, "cook@example.com")
	oats := f.item(t, u, oatsItem())
	milk := f.item(t, u, milkItem())
	return f, NewAIService(gen, f.items, nil), u, oats, milk
}

func TestAIService_GenerateRecipe_Linked(t *testing.T) {
	gen := &fakeGenerator{reply: "Here you go!\n```json\n" + `{
		"name": "Overnight Oats",
		"servings": 1,
		"instructions": ["Mix oats and milk.", "", "Chill overnight."],
		"ingredients": [
			{"name": "rolled oats", "quantity": 80, "unit": "g"},
			{"name": "Whole Milk", "quantity": 0.5, "unit": "cup"},
		],
	}` + "\n```"}
	_, s, u, oats, milk := aiFixture(t, gen)

	got, err := s.GenerateRecipe(context.Background(), u, RecipeRequest{Prompt: "quick breakfast", MaxMinutes: 10})
	require.NoError(t, err)

	assert.Equal(t, "Overnight Oats", got.Recipe.Name)
	assert.Equal(t, 1, got.Recipe.Servings)
	assert.Equal(t, "1. Mix oats and milk.\n3. Chill overnight.", got.Recipe.Instructions)
	assert.Equal(t, models.NutritionSourceLinked, got.Recipe.NutritionSource)
	assert.Nil(t, got.Recipe.Nutrition)
	assert.Equal(t, []IngredientInput{
		{ItemID: oats.ID, Quantity: 80, Unit: "g"},
		{ItemID: milk.ID, Quantity: 0.5, Unit: "cup"},
	}, got.Recipe.Ingredients)
	assert.Equal(t, []string{"80 g rolled oats", "0.5 cup Whole Milk"}, got.Recipe.IngredientLines)
	assert.Equal(t, []string{}, got.Unmatched)

	require.Len(t, gen.prompts, 1)
	p := gen.prompts[0]
	assert.Contains(t, p, "- Rolled Oats (Grains)")
	assert.Contains(t, p, "Servings: 2")
	assert.Contains(t, p, "under 10 minutes")
	assert.Contains(t, p, "Request: quick breakfast")
}

func TestAIService_GenerateRecipe_Unmatched(t *testing.T) {
	gen := &fakeGenerator{reply: `{"name":"Honey Oats","instructions":"Stir.","ingredients":[` +
		`{"name":"oats, rolled oats","quantity":0,"unit":""},{"name":"honey","quantity":1,"unit":"tbsp"}],` +
		`"nutrition_per_serving":{"calories":310,"protein":9,"carbs":58,"fat":5}`}
	_, s, u, oats, _ := aiFixture(t, gen)

	got, err := s.GenerateRecipe(context.Background(), u, RecipeRequest{Servings: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, got.Recipe.Servings)
	assert.Equal(t, "Stir.", got.Recipe.Instructions)
	assert.Equal(t, models.NutritionSourceAI, got.Recipe.NutritionSource)
	require.NotNil(t, got.Recipe.Nutrition)
	assert.Equal(t, 310.0, got.Recipe.Nutrition.Calories)
	assert.Equal(t, []IngredientInput{{ItemID: oats.ID, Quantity: 1}}, got.Recipe.Ingredients)
	assert.Equal(t, []string{"honey"}, got.Unmatched)
	assert.Equal(t, []string{"oats, rolled oats", "1 tbsp honey"}, got.Recipe.IngredientLines)
}

func TestAIService_GenerateRecipe_OnlyInStock(t *testing.T) {
	gen := &fakeGenerator{reply: `{"name":"Toast"}`}
	f, s, u, _, milk := aiFixture(t, gen)
	milk.InStock = false
	_, err := f.items.Update(context.Background(), u, milk.ID, milk)
	require.NoError(t, err)

	_, err = s.GenerateRecipe(context.Background(), u, RecipeRequest{OnlyInStock: true})
	require.NoError(t, err)
	assert.Contains(t, gen.prompts[0], "Rolled Oats")
	assert.NotContains(t, gen.prompts[0], "Whole Milk")
}

func TestAIService_GenerateRecipe_Failures(t *testing.T) {
	ctx := context.Background()

	_, err := NewAIService(nil, nil, nil).GenerateRecipe(ctx, 1, RecipeRequest{})
	assert.ErrorIs(t, err, ErrUnavailable)

	for name, gen := range map[string]*fakeGenerator{
		"model error": {err: errors.New("quota exceeded")},
		"no json":     {reply: "Sorry, I can't help with that."},
		"no name":     {reply: `{"servings": 2}`},
	} {
		t.Run(name, func(t *testing.T) {
			_, s, u, _, _ := aiFixture(t, gen)
			_, err := s.GenerateRecipe(ctx, u, RecipeRequest{})
			assert.ErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestAIService_InferMealName(t *testing.T) {
	ctx := context.Background()
	names := []string{"Porridge", "Latte"}

	assert.Equal(t, "Sunday Brunch", NewAIService(&fakeGenerator{reply: `{"name":" Sunday Brunch "}`}, nil, nil).InferMealName(ctx, names))

	long := `{"name":"` + strings.Repeat("a", 81) + `"}`
	for _, gen := range []*fakeGenerator{{reply: long}, {reply: `{"name":""}`}, {err: errors.New("down")}} {
		assert.Equal(t, "Porridge & Latte", NewAIService(gen, nil, nil).InferMealName(ctx, names))
	}

	gen := &fakeGenerator{reply: `{"name":"x"}`}
	NewAIService(gen, nil, nil).InferMealName(ctx, nil)
	assert.Empty(t, gen.prompts)
}

func TestIngredientLine(t *testing.T) {
	assert.Equal(t, "1.33 cup flour", ingredientLine(1.3333, "cup", "flour"))
	assert.Equal(t, "salt", ingredientLine(0, " ", "salt"))
	assert.Equal(t, "2 eggs", ingredientLine(2, "", "eggs"))
}

func TestInstructionsText(t *testing.T) {
	assert.Equal(t, "", instructionsText(nil))
	assert.Equal(t, "", instructionsText(42.0))
	assert.Equal(t, "1. a\n2. b", instructionsText([]any{"a", " b "}))
}
