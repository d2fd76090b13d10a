package services

import (
	"context"
	"testing"
	"time"

	"pantrytrack/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time { return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC) }

func seedAnalytics(t *testing.T) (*fixture, uint, models.RecipeView, models.RecipeView) {
	f := newFixture(t)
	u := newUser(t, f.db, "a@example.com")
	a := f.recipe(t, u, RecipeInput{Name: "Tacos"})
	b := f.recipe(t, u, RecipeInput{Name: "Curry"})

	require.NoError(t, f.db.Create(&models.NutritionGoal{UserID: u, Calories: 2000, Protein: 100, Carbs: 250, Fat: 70, DailyBudget: 10}).Error)
	logs := []models.MealLog{
		{UserID: u, Date: day(9), Calories: 800, Protein: 50, Cost: 5, Recipes: []models.MealLogRecipe{{RecipeID: a.ID, Servings: 1}}},
		{UserID: u, Date: day(9), Calories: 1200, Protein: 50, Cost: 5, Recipes: []models.MealLogRecipe{{RecipeID: b.ID, Servings: 2}}},
		{UserID: u, Date: day(10), Calories: 1000, Protein: 25, Cost: 4, Recipes: []models.MealLogRecipe{{RecipeID: a.ID, Servings: 1.5}}},
		{UserID: u, Date: day(20), Calories: 5000},
	}
	for i := range logs {
		require.NoError(t, f.db.Create(&logs[i]).Error)
	}
	return f, u, a, b
}

func TestAnalyticsService_Summary(t *testing.T) {
	f, u, a, _ := seedAnalytics(t)
	s := NewAnalyticsService(f.db)
	ctx := context.Background()

	sum, err := s.Summary(ctx, u, day(9), day(11), false)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Metadata.DaysCounted)
	assert.Equal(t, "2026-03-09", sum.Range.From)
	cal := sum.Macros["calories"]
	assert.Equal(t, 1500.0, cal.AvgConsumed)
	assert.Equal(t, 2000.0, cal.AvgGoal)
	assert.Equal(t, 75.0, cal.AvgPercent)
	assert.Equal(t, "kcal", cal.Unit)
	assert.Equal(t, 7.0, sum.Spending.AvgConsumed)
	assert.Equal(t, 70.0, sum.Spending.AvgPercent)

	assert.Equal(t, 3, sum.Totals.Meals)
	assert.Equal(t, 14.0, sum.Totals.Cost)
	assert.Equal(t, 3000.0, sum.Totals.Nutrient.Calories)

	require.Len(t, sum.TopRecipes, 2)
	assert.Equal(t, TopRecipe{RecipeID: a.ID, Name: "Tacos", Times: 2, Servings: 2.5}, sum.TopRecipes[0])

	withMissing, err := s.Summary(ctx, u, day(9), day(11), true)
	require.NoError(t, err)
	assert.Equal(t, 3, withMissing.Metadata.DaysCounted)
	assert.Equal(t, 1000.0, withMissing.Macros["calories"].AvgConsumed)
	assert.Equal(t, 50.0, withMissing.Macros["calories"].AvgPercent)

	_, err = s.Summary(ctx, u, day(11), day(9), false)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAnalyticsService_WeeklyOverview(t *testing.T) {
	f, u, _, _ := seedAnalytics(t)
	s := NewAnalyticsService(f.db)
	ctx := context.Background()

	chart, err := s.WeeklyOverview(ctx, u, day(11), "chart")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-09", chart.WeekStart)
	days := chart.Days.([]DayChart)
	require.Len(t, days, 7)
	assert.Equal(t, 100.0, days[0].Percentages["calories"])
	assert.Equal(t, 50.0, days[1].Percentages["calories"])
	assert.Equal(t, 40.0, days[1].Percentages["cost"])
	assert.Zero(t, days[2].Percentages["calories"])

	detailed, err := s.WeeklyOverview(ctx, u, day(9), "detailed")
	require.NoError(t, err)
	dd := detailed.Days.([]DayDetailed)
	assert.Equal(t, 2, dd[0].Meals)
	assert.Equal(t, Metric{Actual: 100, Target: 100, Percent: 100}, dd[0].Metrics["protein_g"])
	assert.Equal(t, "2026-03-15", dd[6].Date)

	_, err = s.WeeklyOverview(ctx, u, day(9), "pie")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAnalyticsService_InventoryStats(t *testing.T) {
	f := newFixture(t)
	u := newUser(t, f.db, "a@example.com")
	f.item(t, u, oatsItem())
	milk := milkItem()
	milk.InStock = false
	f.item(t, u, milk)
	f.item(t, u, models.FoodItem{
		Name: "Salted Butter", InStock: true, ServingSize: 14, ServingUnit: "g", ServingSizeGrams: gramsPtr(14),
		Nutrition: models.Nutrition{Calories: 100, Fat: 11, SatFat: 7},
	})

	st, err := NewAnalyticsService(f.db).InventoryStats(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalItems)
	assert.Equal(t, 2, st.InStock)
	assert.Equal(t, 1, st.OutOfStock)
	assert.Equal(t, map[string]int{"Grains": 1, "Dairy": 1, "Other": 1}, st.ByCategory)
	assert.Equal(t, 4.5, st.StockValue)
	assert.Equal(t, 2, st.PricedItems)
	assert.Equal(t, 1, st.FlaggedItems)
}

func TestPct(t *testing.T) {
	assert.Equal(t, 0.0, pct(0, 0))
	assert.Equal(t, 100.0, pct(5, 0))
	assert.Equal(t, 33.33, pct(1, 3))
}
