package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"pantrytrack/mappers"
	"pantrytrack/models"
	"pantrytrack/utils"

	"gorm.io/gorm"
)

type AnalyticsService struct{ db *gorm.DB }

func NewAnalyticsService(db *gorm.DB) *AnalyticsService { return &AnalyticsService{db: db} }

// ---------- Summary ----------

type NutrAvg struct {
	AvgConsumed float64 `json:"avg_consumed"`
	AvgGoal     float64 `json:"avg_goal,omitempty"`
	AvgPercent  float64 `json:"avg_percent,omitempty"`
	Unit        string  `json:"unit,omitempty"`
}

type TopRecipe struct {
	RecipeID uint    `json:"recipe_id"`
	Name     string  `json:"name"`
	Times    int     `json:"times"`
	Servings float64 `json:"servings"`
}

type AnalyticsSummary struct {
	Range struct {
		From string `json:"from"`
		To   string `json:"to"`
	} `json:"range"`

	Macros   map[string]NutrAvg `json:"macros"`   // calories, protein, carbs, fat
	Spending NutrAvg            `json:"spending"` // daily cost vs budget

	Totals struct {
		Meals    int              `json:"meals"`
		Cost     float64          `json:"cost"`
		Nutrient models.Nutrition `json:"nutrition"`
	} `json:"totals"`

	TopRecipes []TopRecipe `json:"top_recipes"`

	Metadata struct {
		DaysCounted        int  `json:"days_counted"`
		IncludeMissingDays bool `json:"include_missing_days"`
	} `json:"metadata"`
}

// dayTotals is what a user ate on one day.
type dayTotals struct {
	Calories, Protein, Carbs, Fat, Cost float64
	Meals                               int
}

func (s *AnalyticsService) dailyTotals(ctx context.Context, userID uint, from, to time.Time) (map[string]dayTotals, []models.MealLog, error) {
	var logs []models.MealLog
	err := s.db.WithContext(ctx).
		Preload("Recipes").
		Preload("Recipes.Recipe", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, dayStart(from), dayEnd(to)).
		Order("date ASC").
		Find(&logs).Error
	if err != nil {
		return nil, nil, err
	}
	idx := map[string]dayTotals{}
	for _, l := range logs {
		key := l.Date.Format(mappers.DateLayout)
		d := idx[key]
		d.Calories += l.Calories
		d.Protein += l.Protein
		d.Carbs += l.Carbs
		d.Fat += l.Fat
		d.Cost += l.Cost
		d.Meals++
		idx[key] = d
	}
	return idx, logs, nil
}

func (s *AnalyticsService) Summary(
	ctx context.Context, userID uint, from, to time.Time, includeMissing bool,
) (*AnalyticsSummary, error) {
	if to.Before(from) {
		return nil, invalid("'to' must not be before 'from'")
	}
	idx, logs, err := s.dailyTotals(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	goal, err := s.getGoalSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	// accumulator
	type acc struct{ sum, gsum, psum float64 }
	m := map[string]*acc{"calories": {}, "protein": {}, "carbs": {}, "fat": {}, "cost": {}}

	var dates []time.Time
	if includeMissing {
		for d := dayStart(from); !d.After(to); d = d.AddDate(0, 0, 1) {
			dates = append(dates, d)
		}
	} else {
		seen := map[string]bool{}
		for _, l := range logs {
			key := l.Date.Format(mappers.DateLayout)
			if !seen[key] {
				seen[key] = true
				dates = append(dates, dayStart(l.Date))
			}
		}
	}

	for _, d := range dates {
		dt := idx[d.Format(mappers.DateLayout)]
		type pair struct {
			g float64
			k string
			c float64
		}
		for _, p := range []pair{
			{goal.Calories, "calories", dt.Calories},
			{goal.Protein, "protein", dt.Protein},
			{goal.Carbs, "carbs", dt.Carbs},
			{goal.Fat, "fat", dt.Fat},
			{goal.DailyBudget, "cost", dt.Cost},
		} {
			m[p.k].sum += p.c
			m[p.k].gsum += p.g
			if p.g > 0 {
				m[p.k].psum += (p.c / p.g) * 100.0
			}
		}
	}

	n := len(dates)
	nutr := func(k, unit string) NutrAvg {
		return NutrAvg{AvgConsumed: avg(m[k].sum, n), AvgGoal: avg(m[k].gsum, n), AvgPercent: avg(m[k].psum, n), Unit: unit}
	}

	out := &AnalyticsSummary{}
	out.Range.From = from.Format(mappers.DateLayout)
	out.Range.To = to.Format(mappers.DateLayout)
	out.Metadata.DaysCounted = n
	out.Metadata.IncludeMissingDays = includeMissing
	out.Macros = map[string]NutrAvg{
		"calories": nutr("calories", "kcal"),
		"protein":  nutr("protein", "g"),
		"carbs":    nutr("carbs", "g"),
		"fat":      nutr("fat", "g"),
	}
	out.Spending = nutr("cost", "")

	for _, l := range logs {
		out.Totals.Meals++
		out.Totals.Cost += l.Cost
		out.Totals.Nutrient = out.Totals.Nutrient.Add(models.Nutrition{Calories: l.Calories, Protein: l.Protein, Carbs: l.Carbs, Fat: l.Fat})
	}
	out.Totals.Cost = round2(out.Totals.Cost)
	out.Totals.Nutrient = utils.RoundNutrition(out.Totals.Nutrient)
	out.TopRecipes = topRecipes(logs, 5)
	return out, nil
}

func topRecipes(logs []models.MealLog, limit int) []TopRecipe {
	byID := map[uint]*TopRecipe{}
	for _, l := range logs {
		for _, r := range l.Recipes {
			t, ok := byID[r.RecipeID]
			if !ok {
				t = &TopRecipe{RecipeID: r.RecipeID, Name: r.Recipe.Name}
				byID[r.RecipeID] = t
			}
			t.Times++
			t.Servings += r.Servings
		}
	}
	out := make([]TopRecipe, 0, len(byID))
	for _, t := range byID {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Times != out[j].Times {
			return out[i].Times > out[j].Times
		}
		return out[i].RecipeID < out[j].RecipeID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ---------- Weekly Overview ----------

type WeeklyOverviewResponse struct {
	WeekStart string `json:"week_start"`
	Mode      string `json:"mode"` // chart|detailed
	Days      any    `json:"days"`
}

type DayChart struct {
	Date        string             `json:"date"`
	Percentages map[string]float64 `json:"percentages"`
}
type Metric struct {
	Actual  float64 `json:"actual"`
	Target  float64 `json:"target"`
	Percent float64 `json:"percent"`
}
type DayDetailed struct {
	Date    string            `json:"date"`
	Meals   int               `json:"meals"`
	Metrics map[string]Metric `json:"metrics"`
}

func (s *AnalyticsService) WeeklyOverview(
	ctx context.Context, userID uint, weekStart time.Time, mode string,
) (*WeeklyOverviewResponse, error) {

	if mode != "chart" && mode != "detailed" {
		return nil, invalid("mode must be 'chart' or 'detailed'")
	}

	from := mondayOf(weekStart)
	to := from.AddDate(0, 0, 6)

	idx, _, err := s.dailyTotals(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	goal, err := s.getGoalSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &WeeklyOverviewResponse{
		WeekStart: from.Format(mappers.DateLayout),
		Mode:      mode,
	}

	if mode == "chart" {
		days := make([]DayChart, 0, daysPerWeek)
		for i := 0; i < daysPerWeek; i++ {
			key := from.AddDate(0, 0, i).Format(mappers.DateLayout)
			dt := idx[key]
			days = append(days, DayChart{
				Date: key,
				Percentages: map[string]float64{
					"calories":      pct(dt.Calories, goal.Calories),
					"protein":       pct(dt.Protein, goal.Protein),
					"carbohydrates": pct(dt.Carbs, goal.Carbs),
					"fat":           pct(dt.Fat, goal.Fat),
					"cost":          pct(dt.Cost, goal.DailyBudget),
				},
			})
		}
		out.Days = days
		return out, nil
	}

	days := make([]DayDetailed, 0, daysPerWeek)
	for i := 0; i < daysPerWeek; i++ {
		key := from.AddDate(0, 0, i).Format(mappers.DateLayout)
		dt := idx[key]
		days = append(days, DayDetailed{
			Date:  key,
			Meals: dt.Meals,
			Metrics: map[string]Metric{
				"calories":  {Actual: round2(dt.Calories), Target: round2(goal.Calories), Percent: pct(dt.Calories, goal.Calories)},
				"protein_g": {Actual: round2(dt.Protein), Target: round2(goal.Protein), Percent: pct(dt.Protein, goal.Protein)},
				"carbs_g":   {Actual: round2(dt.Carbs), Target: round2(goal.Carbs), Percent: pct(dt.Carbs, goal.Carbs)},
				"fat_g":     {Actual: round2(dt.Fat), Target: round2(goal.Fat), Percent: pct(dt.Fat, goal.Fat)},
				"cost":      {Actual: round2(dt.Cost), Target: round2(goal.DailyBudget), Percent: pct(dt.Cost, goal.DailyBudget)},
			},
		})
	}
	out.Days = days
	return out, nil
}

// ---------- Inventory ----------

type InventoryStats struct {
	TotalItems   int            `json:"total_items"`
	InStock      int            `json:"in_stock"`
	OutOfStock   int            `json:"out_of_stock"`
	ByCategory   map[string]int `json:"by_category"`
	StockValue   float64        `json:"stock_value"`
	PricedItems  int            `json:"priced_items"`
	FlaggedItems int            `json:"flagged_items"` // high-severity nutrition warnings
}

func (s *AnalyticsService) InventoryStats(ctx context.Context, userID uint) (*InventoryStats, error) {
	var rows []models.Item
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	goal, err := s.getGoalSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := &InventoryStats{ByCategory: map[string]int{}}
	for _, fi := range mappers.DBItemsToFoodItems(rows) {
		out.TotalItems++
		out.ByCategory[fi.Category]++
		if fi.InStock {
			out.InStock++
			out.StockValue += fi.Price
		} else {
			out.OutOfStock++
		}
		if fi.Price > 0 {
			out.PricedItems++
		}
		var grams float64
		if fi.ServingSizeGrams != nil {
			grams = *fi.ServingSizeGrams
		}
		if utils.HasHighSeverity(utils.AssessNutrition(fi.Name, fi.Nutrition, grams, goal.Calories)) {
			out.FlaggedItems++
		}
	}
	out.StockValue = round2(out.StockValue)
	return out, nil
}

// ---------- internals ----------

func (s *AnalyticsService) getGoalSnapshot(ctx context.Context, userID uint) (*models.NutritionGoal, error) {
	var g models.NutritionGoal
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		First(&g).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.NutritionGoal{}, nil
		}
		return nil, err
	}
	return &g, nil
}

func pct(actual, goal float64) float64 {
	if goal <= 0 {
		if actual <= 0 {
			return 0
		}
		return 100
	}
	return round2((actual / goal) * 100.0)
}

func avg(sum float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	return round2(sum / float64(n))
}

func round2(v float64) float64 { return utils.Round2(v) }

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func dayEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
