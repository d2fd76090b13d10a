package services

import (
	"context"
	"strings"

	"pantrytrack/mappers"
	"pantrytrack/models"

	"gorm.io/gorm"
)

type IngredientInput struct {
	ItemID   uint    `json:"item_id" binding:"required"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Notes    string  `json:"notes,omitempty"`
}

// RecipeInput is the writable shape of a recipe. Nutrition is only used for
// manual and ai recipes; linked recipes compute it from their ingredients.
type RecipeInput struct {
	Name            string            `json:"name" binding:"required"`
	Instructions    string            `json:"instructions"`
	Servings        int               `json:"servings"`
	IngredientLines []string          `json:"ingredient_lines"`
	Ingredients     []IngredientInput `json:"ingredients"`
	NutritionSource string            `json:"nutrition_source"`
	Nutrition       *models.Nutrition `json:"nutrition_per_serving,omitempty"`
	TagIDs          []uint            `json:"tag_ids"`
}

type RecipeFilter struct {
	TagID    uint
	Name     string
	Cookable bool // every linked ingredient in stock
}

type RecipeService struct {
	db       *gorm.DB
	settings *SettingsService
}

func NewRecipeService(db *gorm.DB, settings *SettingsService) *RecipeService {
	return &RecipeService{db: db, settings: settings}
}

func preloadRecipe(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("recipe_items.id")
	}).Preload("Items.Item").Preload("Tags", func(db *gorm.DB) *gorm.DB {
		return db.Order("tags.name")
	})
}

func (s *RecipeService) List(ctx context.Context, userID uint, f RecipeFilter) ([]models.RecipeView, error) {
	q := s.db.WithContext(ctx).Where("recipes.user_id = ?", userID)
	if name := strings.TrimSpace(f.Name); name != "" {
		q = q.Where("LOWER(recipes.name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	if f.TagID != 0 {
		q = q.Joins("JOIN recipe_tags ON recipe_tags.recipe_id = recipes.id AND recipe_tags.tag_id = ?", f.TagID)
	}
	var rows []models.Recipe
	if err := preloadRecipe(q).Order("recipes.name").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.RecipeView, 0, len(rows))
	for _, r := range rows {
		v := mappers.DBRecipeToRecipe(r)
		if f.Cookable && !cookable(v) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func cookable(v models.RecipeView) bool {
	if len(v.Ingredients) == 0 {
		return false
	}
	for _, ing := range v.Ingredients {
		if !ing.InStock {
			return false
		}
	}
	return true
}

func (s *RecipeService) Get(ctx context.Context, userID, id uint) (models.RecipeView, error) {
	row, err := s.load(s.db.WithContext(ctx), userID, id)
	if err != nil {
		return models.RecipeView{}, err
	}
	return mappers.DBRecipeToRecipe(row), nil
}

// Views returns the views of the given recipes keyed by id. Soft-deleted
// recipes are included so historical meal logs still resolve.
func (s *RecipeService) Views(ctx context.Context, userID uint, ids []uint) (map[uint]models.RecipeView, error) {
	out := make(map[uint]models.RecipeView, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Recipe
	err := preloadRecipe(s.db.WithContext(ctx).Unscoped()).
		Where("user_id = ? AND id IN ?", userID, ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ID] = mappers.DBRecipeToRecipe(r)
	}
	return out, nil
}

func (s *RecipeService) load(db *gorm.DB, userID, id uint) (models.Recipe, error) {
	var row models.Recipe
	err := preloadRecipe(db).Where("id = ? AND user_id = ?", id, userID).First(&row).Error
	return row, notFound(err, "recipe")
}

func (s *RecipeService) Create(ctx context.Context, userID uint, in RecipeInput) (models.RecipeView, error) {
	if err := s.normalize(ctx, userID, &in); err != nil {
		return models.RecipeView{}, err
	}
	var id uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := s.checkRefs(tx, userID, in)
		if err != nil {
			return err
		}
		row := models.Recipe{UserID: userID, Tags: tags}
		applyRecipeInput(&row, in)
		for _, ing := range in.Ingredients {
			row.Items = append(row.Items, recipeItem(ing))
		}
		if err := tx.Omit("Tags.*").Create(&row).Error; err != nil {
			return err
		}
		id = row.ID
		return nil
	})
	if err != nil {
		return models.RecipeView{}, err
	}
	return s.Get(ctx, userID, id)
}

// Update replaces the recipe's fields, ingredients and tags.
func (s *RecipeService) Update(ctx context.Context, userID, id uint, in RecipeInput) (models.RecipeView, error) {
	if err := s.normalize(ctx, userID, &in); err != nil {
		return models.RecipeView{}, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Recipe
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&row).Error; err != nil {
			return notFound(err, "recipe")
		}
		tags, err := s.checkRefs(tx, userID, in)
		if err != nil {
			return err
		}
		applyRecipeInput(&row, in)
		if err := tx.Omit("Items", "Tags").Save(&row).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("recipe_id = ?", id).Delete(&models.RecipeItem{}).Error; err != nil {
			return err
		}
		for _, ing := range in.Ingredients {
			ri := recipeItem(ing)
			ri.RecipeID = id
			if err := tx.Create(&ri).Error; err != nil {
				return err
			}
		}
		return tx.Model(&row).Association("Tags").Replace(tags)
	})
	if err != nil {
		return models.RecipeView{}, err
	}
	return s.Get(ctx, userID, id)
}

// Delete soft-deletes a recipe. Meal logs keep referencing it; plans and
// rotations drop it.
func (s *RecipeService) Delete(ctx context.Context, userID, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Recipe
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&row).Error; err != nil {
			return notFound(err, "recipe")
		}
		if err := tx.Model(&models.MealPlanBlock{}).Where("recipe_id = ?", id).Update("recipe_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("recipe_id = ?", id).Delete(&models.RotationRecipe{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&row).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&row).Error
	})
}

func (s *RecipeService) normalize(ctx context.Context, userID uint, in *RecipeInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalid("name is required")
	}
	if in.Servings <= 0 {
		in.Servings = models.DefaultSettings().DefaultServings
		if s.settings != nil {
			if prefs, err := s.settings.Get(ctx, userID); err == nil {
				in.Servings = prefs.DefaultServings
			}
		}
	}
	switch in.NutritionSource {
	case "":
		in.NutritionSource = models.NutritionSourceManual
		if len(in.Ingredients) > 0 {
			in.NutritionSource = models.NutritionSourceLinked
		}
	case models.NutritionSourceLinked, models.NutritionSourceManual, models.NutritionSourceAI:
	default:
		return invalid("unknown nutrition_source %q", in.NutritionSource)
	}
	for _, ing := range in.Ingredients {
		if ing.ItemID == 0 {
			return invalid("ingredient item_id is required")
		}
		if ing.Quantity < 0 {
			return invalid("ingredient quantity must not be negative")
		}
	}
	return nil
}

// checkRefs verifies every ingredient item and tag belongs to the user and
// returns the tags.
func (s *RecipeService) checkRefs(tx *gorm.DB, userID uint, in RecipeInput) ([]models.Tag, error) {
	ids := make([]uint, 0, len(in.Ingredients))
	for _, ing := range in.Ingredients {
		ids = append(ids, ing.ItemID)
	}
	itemIDs := uniqueIDs(ids)
	if len(itemIDs) > 0 {
		var n int64
		if err := tx.Model(&models.Item{}).Where("user_id = ? AND id IN ?", userID, itemIDs).Count(&n).Error; err != nil {
			return nil, err
		}
		if int(n) != len(itemIDs) {
			return nil, invalid("unknown ingredient item")
		}
	}

	tags := []models.Tag{}
	tagIDs := uniqueIDs(in.TagIDs)
	if len(tagIDs) > 0 {
		if err := tx.Where("user_id = ? AND id IN ?", userID, tagIDs).Find(&tags).Error; err != nil {
			return nil, err
		}
		if len(tags) != len(tagIDs) {
			return nil, invalid("unknown tag")
		}
	}
	return tags, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func applyRecipeInput(row *models.Recipe, in RecipeInput) {
	row.Name = in.Name
	row.Instructions = strings.TrimSpace(in.Instructions)
	row.Servings = in.Servings
	row.IngredientsText = mappers.JoinIngredientLines(in.IngredientLines)
	row.NutritionSource = in.NutritionSource
	row.Calories, row.Protein, row.Carbs, row.Fat = 0, 0, 0, 0
	if in.Nutrition != nil && in.NutritionSource != models.NutritionSourceLinked {
		row.Calories = in.Nutrition.Calories
		row.Protein = in.Nutrition.Protein
		row.Carbs = in.Nutrition.Carbs
		row.Fat = in.Nutrition.Fat
	}
}

func recipeItem(ing IngredientInput) models.RecipeItem {
	qty := ing.Quantity
	if qty == 0 {
		qty = 1
	}
	return models.RecipeItem{
		ItemID:   ing.ItemID,
		Quantity: qty,
		Unit:     strings.TrimSpace(ing.Unit),
		Notes:    strings.TrimSpace(ing.Notes),
	}
}
