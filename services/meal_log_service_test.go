package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"pantrytrack/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mealFixture(t *testing.T) (*fixture, uint, models.RecipeView, models.RecipeView) {
	f := newFixture(t)
	u := newUser(t, f.db, "a@example.com")
	oats := f.item(t, u, oatsItem())
	milk := f.item(t, u, milkItem())
	porridge := f.recipe(t, u, RecipeInput{
		Name:        "Porridge",
		Servings:    1,
		Ingredients: []IngredientInput{{ItemID: oats.ID, Quantity: 40, Unit: "g"}},
	})
	latte := f.recipe(t, u, RecipeInput{
		Name:        "Latte",
		Servings:    1,
		Ingredients: []IngredientInput{{ItemID: milk.ID, Quantity: 1, Unit: "cup"}},
	})
	return f, u, porridge, latte
}

func TestMealLogService_CreateDerivesTotals(t *testing.T) {
	f, u, porridge, latte := mealFixture(t)
	ctx := context.Background()

	log, err := f.logs.Create(ctx, u, MealLogInput{
		Date:     "2026-03-09",
		MealType: "Breakfast",
		Recipes: []MealLogRecipeInput{
			{RecipeID: porridge.ID, Servings: 2},
			{RecipeID: latte.ID},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-09", log.Date)
	assert.Equal(t, "breakfast", log.MealType)
	assert.Equal(t, "Porridge & Latte", log.Name)
	// 2 * 150 + 149
	assert.Equal(t, 449.0, log.Calories)
	assert.Equal(t, 18.0, log.Protein)
	// 2 * 0.18 + 0.76
	assert.Equal(t, 1.12, log.Cost)
	require.Len(t, log.Recipes, 2)
	assert.Equal(t, 1.0, log.Recipes[1].Servings)
	assert.Equal(t, "Latte", log.Recipes[1].RecipeName)
}

func TestMealLogService_OverridesAndDefaults(t *testing.T) {
	f, u, porridge, _ := mealFixture(t)
	ctx := context.Background()
	f.logs.now = func() time.Time { return time.Date(2026, 3, 10, 22, 30, 0, 0, time.UTC) }

	cal, cost := 500.0, 0.0
	log, err := f.logs.Create(ctx, u, MealLogInput{
		Name:     "  Big bowl ",
		Recipes:  []MealLogRecipeInput{{RecipeID: porridge.ID}},
		Calories: &cal,
		Cost:     &cost,
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", log.Date)
	assert.Equal(t, "Big bowl", log.Name)
	assert.Equal(t, 500.0, log.Calories)
	assert.Equal(t, 0.0, log.Cost)
	assert.Equal(t, 5.0, log.Protein)

	empty, err := f.logs.Create(ctx, u, MealLogInput{Date: "2026-03-10"})
	require.NoError(t, err)
	assert.Equal(t, "Meal", empty.Name)
	assert.Empty(t, empty.Recipes)
}

func TestMealLogService_Validation(t *testing.T) {
	f, u, porridge, _ := mealFixture(t)
	ctx := context.Background()
	other := newUser(t, f.db, "b@example.com")

	cases := map[string]MealLogInput{
		"bad date":       {Date: "10/03/2026"},
		"bad meal type":  {MealType: "brunch"},
		"negative":       {Recipes: []MealLogRecipeInput{{RecipeID: porridge.ID, Servings: -1}}},
		"unknown recipe": {Recipes: []MealLogRecipeInput{{RecipeID: 999}}},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.logs.Create(ctx, u, in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	_, err := f.logs.Create(ctx, other, MealLogInput{Recipes: []MealLogRecipeInput{{RecipeID: porridge.ID}}})
	assert.ErrorIs(t, err, ErrInvalidInput, "recipes of other users are unknown")
}

func TestMealLogService_ListUpdateDelete(t *testing.T) {
	f, u, porridge, latte := mealFixture(t)
	ctx := context.Background()

	mk := func(date string, id uint) models.MealLogView {
		v, err := f.logs.Create(ctx, u, MealLogInput{Date: date, Recipes: []MealLogRecipeInput{{RecipeID: id}}})
		require.NoError(t, err)
		return v
	}
	a := mk("2026-03-01", porridge.ID)
	b := mk("2026-03-05", latte.ID)
	c := mk("2026-03-05", porridge.ID)

	all, err := f.logs.List(ctx, u, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uint{c.ID, b.ID, a.ID}, []uint{all[0].ID, all[1].ID, all[2].ID})

	ranged, err := f.logs.List(ctx, u,
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, ranged, 2, "upper bound is inclusive")

	upd, err := f.logs.Update(ctx, u, a.ID, MealLogInput{
		Date:    "2026-03-02",
		Recipes: []MealLogRecipeInput{{RecipeID: latte.ID, Servings: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", upd.Date)
	assert.Equal(t, "Latte", upd.Name)
	assert.Equal(t, 298.0, upd.Calories)
	require.Len(t, upd.Recipes, 1)
	assert.Equal(t, latte.ID, upd.Recipes[0].RecipeID)

	_, err = f.logs.Update(ctx, u, 999, MealLogInput{})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, f.logs.Delete(ctx, u, a.ID))
	_, err = f.logs.Get(ctx, u, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.logs.Delete(ctx, u, a.ID), ErrNotFound)
}

func TestMealLogService_DeletedRecipeStillResolves(t *testing.T) {
	f, u, porridge, _ := mealFixture(t)
	ctx := context.Background()

	log, err := f.logs.Create(ctx, u, MealLogInput{Recipes: []MealLogRecipeInput{{RecipeID: porridge.ID}}})
	require.NoError(t, err)
	require.NoError(t, f.recipes.Delete(ctx, u, porridge.ID))

	got, err := f.logs.Get(ctx, u, log.ID)
	require.NoError(t, err)
	require.Len(t, got.Recipes, 1)
	assert.Equal(t, "Porridge", got.Recipes[0].RecipeName)
}

func TestMealLogService_AIName(t *testing.T) {
	f, u, porridge, latte := mealFixture(t)
	ctx := context.Background()
	gen := &fakeGenerator{reply: "```json\n{\"name\": \"Cozy Oat Breakfast\"}\n```"}
	f.logs.ai = NewAIService(gen, f.items, nil)

	log, err := f.logs.Create(ctx, u, MealLogInput{Recipes: []MealLogRecipeInput{{RecipeID: porridge.ID}, {RecipeID: latte.ID}}})
	require.NoError(t, err)
	assert.Equal(t, "Cozy Oat Breakfast", log.Name)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Porridge, Latte")

	gen.err = errors.New("quota exceeded")
	log, err = f.logs.Create(ctx, u, MealLogInput{Recipes: []MealLogRecipeInput{{RecipeID: porridge.ID}, {RecipeID: latte.ID}}})
	require.NoError(t, err)
	assert.Equal(t, "Porridge & Latte", log.Name)
}
