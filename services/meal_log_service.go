package services

import (
	"context"
	"strings"
	"time"

	"pantrytrack/mappers"
	"pantrytrack/models"
	"pantrytrack/utils"

	"gorm.io/gorm"
)

var mealTypes = map[string]bool{"breakfast": true, "lunch": true, "dinner": true, "snack": true}

type MealLogRecipeInput struct {
	RecipeID uint    `json:"recipe_id" binding:"required"`
	Servings float64 `json:"servings"`
}

// MealLogInput creates or replaces a meal log. Macros and cost are derived
// from the recipes; any non-nil override wins.
type MealLogInput struct {
	Date     string               `json:"date"` // YYYY-MM-DD, defaults to today
	MealType string               `json:"meal_type"`
	Name     string               `json:"name"`
	Notes    string               `json:"notes"`
	Recipes  []MealLogRecipeInput `json:"recipes"`
	Calories *float64             `json:"calories"`
	Protein  *float64             `json:"protein"`
	Carbs    *float64             `json:"carbs"`
	Fat      *float64             `json:"fat"`
	Cost     *float64             `json:"cost"`
}

type MealLogService struct {
	db      *gorm.DB
	recipes *RecipeService
	ai      *AIService
	now     func() time.Time
}

func NewMealLogService(db *gorm.DB, recipes *RecipeService, ai *AIService) *MealLogService {
	return &MealLogService{db: db, recipes: recipes, ai: ai, now: time.Now}
}

func preloadMealLog(db *gorm.DB) *gorm.DB {
	return db.Preload("Recipes").Preload("Recipes.Recipe", func(db *gorm.DB) *gorm.DB {
		return db.Unscoped()
	})
}

// List returns logs dated within [from, to], newest first. A zero bound is
// open.
func (s *MealLogService) List(ctx context.Context, userID uint, from, to time.Time) ([]models.MealLogView, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if !from.IsZero() {
		q = q.Where("date >= ?", dayStart(from))
	}
	if !to.IsZero() {
		q = q.Where("date <= ?", dayEnd(to))
	}
	var rows []models.MealLog
	if err := preloadMealLog(q).Order("date DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.MealLogView, 0, len(rows))
	for _, r := range rows {
		out = append(out, mappers.DBMealLogToMealLog(r))
	}
	return out, nil
}

func (s *MealLogService) Get(ctx context.Context, userID, id uint) (models.MealLogView, error) {
	var row models.MealLog
	err := preloadMealLog(s.db.WithContext(ctx)).Where("id = ? AND user_id = ?", id, userID).First(&row).Error
	if err != nil {
		return models.MealLogView{}, notFound(err, "meal log")
	}
	return mappers.DBMealLogToMealLog(row), nil
}

func (s *MealLogService) Create(ctx context.Context, userID uint, in MealLogInput) (models.MealLogView, error) {
	row, err := s.build(ctx, userID, in)
	if err != nil {
		return models.MealLogView{}, err
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.MealLogView{}, err
	}
	return s.Get(ctx, userID, row.ID)
}

func (s *MealLogService) Update(ctx context.Context, userID, id uint, in MealLogInput) (models.MealLogView, error) {
	var existing models.MealLog
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&existing).Error; err != nil {
		return models.MealLogView{}, notFound(err, "meal log")
	}
	row, err := s.build(ctx, userID, in)
	if err != nil {
		return models.MealLogView{}, err
	}
	row.Model = existing.Model

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("meal_log_id = ?", id).Delete(&models.MealLogRecipe{}).Error; err != nil {
			return err
		}
		if err := tx.Omit("Recipes").Save(&row).Error; err != nil {
			return err
		}
		for _, r := range row.Recipes {
			r.MealLogID = id
			if err := tx.Create(&r).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.MealLogView{}, err
	}
	return s.Get(ctx, userID, id)
}

func (s *MealLogService) Delete(ctx context.Context, userID, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.MealLog
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&row).Error; err != nil {
			return notFound(err, "meal log")
		}
		if err := tx.Unscoped().Where("meal_log_id = ?", id).Delete(&models.MealLogRecipe{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&row).Error
	})
}

// build validates input and derives the log's totals and name.
func (s *MealLogService) build(ctx context.Context, userID uint, in MealLogInput) (models.MealLog, error) {
	date := dayStart(s.now().UTC())
	if d := strings.TrimSpace(in.Date); d != "" {
		parsed, err := time.Parse(mappers.DateLayout, d)
		if err != nil {
			return models.MealLog{}, invalid("date must be YYYY-MM-DD")
		}
		date = parsed
	}
	mealType := strings.ToLower(strings.TrimSpace(in.MealType))
	if mealType != "" && !mealTypes[mealType] {
		return models.MealLog{}, invalid("meal_type must be breakfast, lunch, dinner or snack")
	}

	ids := make([]uint, 0, len(in.Recipes))
	for _, r := range in.Recipes {
		if r.Servings < 0 {
			return models.MealLog{}, invalid("servings must not be negative")
		}
		ids = append(ids, r.RecipeID)
	}
	views, err := s.recipes.Views(ctx, userID, uniqueIDs(ids))
	if err != nil {
		return models.MealLog{}, err
	}

	row := models.MealLog{
		UserID:   userID,
		Date:     date,
		MealType: mealType,
		Name:     strings.TrimSpace(in.Name),
		Notes:    strings.TrimSpace(in.Notes),
	}
	parts := make([]utils.MealPart, 0, len(in.Recipes))
	names := make([]string, 0, len(in.Recipes))
	for _, r := range in.Recipes {
		v, ok := views[r.RecipeID]
		if !ok {
			return models.MealLog{}, invalid("unknown recipe %d", r.RecipeID)
		}
		servings := r.Servings
		if servings == 0 {
			servings = 1
		}
		parts = append(parts, utils.MealPart{PerServing: v.Nutrition, CostPerServing: v.CostPerServing, Servings: servings})
		names = append(names, v.Name)
		row.Recipes = append(row.Recipes, models.MealLogRecipe{RecipeID: r.RecipeID, Servings: servings})
	}

	n, cost := utils.DeriveMealTotals(parts)
	row.Calories = override(in.Calories, n.Calories)
	row.Protein = override(in.Protein, n.Protein)
	row.Carbs = override(in.Carbs, n.Carbs)
	row.Fat = override(in.Fat, n.Fat)
	row.Cost = override(in.Cost, cost)

	if row.Name == "" {
		row.Name = s.ai.InferMealName(ctx, names)
	}
	return row, nil
}

func override(v *float64, derived float64) float64 {
	if v != nil {
		return *v
	}
	return derived
}
