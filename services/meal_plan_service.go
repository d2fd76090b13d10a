package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"pantrytrack/mappers"
	"pantrytrack/models"
	"pantrytrack/utils"

	"gorm.io/gorm"
)

const daysPerWeek = 7

type MealPlanInput struct {
	WeekStart string `json:"week_start"` // any date in the week, YYYY-MM-DD
	Name      string `json:"name"`
	Notes     string `json:"notes"`
}

type BlockInput struct {
	DayOfWeek int    `json:"day_of_week"` // 0 = Monday
	MealType  string `json:"meal_type" binding:"required"`
	RecipeID  *uint  `json:"recipe_id"`
	Notes     string `json:"notes"`
	Position  int    `json:"position"`
}

type RotationInput struct {
	Name      string `json:"name" binding:"required"`
	Active    *bool  `json:"active"`
	RecipeIDs []uint `json:"recipe_ids"`
}

type MealPlanView struct {
	ID        uint        `json:"id"`
	WeekStart string      `json:"week_start"`
	Name      string      `json:"name"`
	Notes     string      `json:"notes,omitempty"`
	Blocks    []BlockView `json:"blocks"`
}

type BlockView struct {
	ID         uint   `json:"id"`
	DayOfWeek  int    `json:"day_of_week"`
	Date       string `json:"date"`
	MealType   string `json:"meal_type"`
	RecipeID   *uint  `json:"recipe_id,omitempty"`
	RecipeName string `json:"recipe_name,omitempty"`
	Notes      string `json:"notes,omitempty"`
	Position   int    `json:"position"`
}

type RotationView struct {
	ID      uint            `json:"id"`
	Name    string          `json:"name"`
	Active  bool            `json:"active"`
	Cursor  int             `json:"cursor"`
	Recipes []RotationEntry `json:"recipes"`
}

type RotationEntry struct {
	RecipeID uint   `json:"recipe_id"`
	Name     string `json:"name"`
}

// ShoppingItem is an aggregated quantity of one pantry item to buy.
type ShoppingItem struct {
	ItemID        uint     `json:"item_id"`
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	Quantity      float64  `json:"quantity"`
	Unit          string   `json:"unit"`
	EstimatedCost float64  `json:"estimated_cost"`
	InStock       bool     `json:"in_stock"`
	Recipes       []string `json:"recipes"`
}

type MealPlanService struct {
	db      *gorm.DB
	recipes *RecipeService
	now     func() time.Time
}

func NewMealPlanService(db *gorm.DB, recipes *RecipeService) *MealPlanService {
	return &MealPlanService{db: db, recipes: recipes, now: time.Now}
}

// mondayOf returns midnight UTC of the Monday starting t's week.
func mondayOf(t time.Time) time.Time {
	d := dayStart(t.UTC())
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func preloadPlan(db *gorm.DB) *gorm.DB {
	return db.Preload("Blocks", func(db *gorm.DB) *gorm.DB {
		return db.Order("day_of_week, position, id")
	}).Preload("Blocks.Recipe")
}

func planView(p models.WeeklyMealPlan) MealPlanView {
	v := MealPlanView{
		ID:        p.ID,
		WeekStart: p.WeekStart.Format(mappers.DateLayout),
		Name:      p.Name,
		Notes:     p.Notes,
		Blocks:    make([]BlockView, 0, len(p.Blocks)),
	}
	for _, b := range p.Blocks {
		bv := BlockView{
			ID:        b.ID,
			DayOfWeek: b.DayOfWeek,
			Date:      p.WeekStart.AddDate(0, 0, b.DayOfWeek).Format(mappers.DateLayout),
			MealType:  b.MealType,
			RecipeID:  b.RecipeID,
			Notes:     b.Notes,
			Position:  b.Position,
		}
		if b.Recipe != nil {
			bv.RecipeName = b.Recipe.Name
		}
		v.Blocks = append(v.Blocks, bv)
	}
	return v
}

func (s *MealPlanService) ListPlans(ctx context.Context, userID uint) ([]MealPlanView, error) {
	var rows []models.WeeklyMealPlan
	if err := preloadPlan(s.db.WithContext(ctx)).Where("user_id = ?", userID).Order("week_start DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]MealPlanView, 0, len(rows))
	for _, r := range rows {
		out = append(out, planView(r))
	}
	return out, nil
}

func (s *MealPlanService) plan(db *gorm.DB, userID, id uint) (models.WeeklyMealPlan, error) {
	var row models.WeeklyMealPlan
	err := preloadPlan(db).Where("id = ? AND user_id = ?", id, userID).First(&row).Error
	return row, notFound(err, "meal plan")
}

func (s *MealPlanService) GetPlan(ctx context.Context, userID, id uint) (MealPlanView, error) {
	row, err := s.plan(s.db.WithContext(ctx), userID, id)
	if err != nil {
		return MealPlanView{}, err
	}
	return planView(row), nil
}

func (s *MealPlanService) weekStart(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return mondayOf(s.now()), nil
	}
	t, err := time.Parse(mappers.DateLayout, raw)
	if err != nil {
		return time.Time{}, invalid("week_start must be YYYY-MM-DD")
	}
	return mondayOf(t), nil
}

func (s *MealPlanService) CreatePlan(ctx context.Context, userID uint, in MealPlanInput) (MealPlanView, error) {
	ws, err := s.weekStart(in.WeekStart)
	if err != nil {
		return MealPlanView{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = "Week of " + ws.Format(mappers.DateLayout)
	}
	row := models.WeeklyMealPlan{UserID: userID, WeekStart: ws, Name: name, Notes: strings.TrimSpace(in.Notes)}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return MealPlanView{}, err
	}
	return planView(row), nil
}

func (s *MealPlanService) UpdatePlan(ctx context.Context, userID, id uint, in MealPlanInput) (MealPlanView, error) {
	row, err := s.plan(s.db.WithContext(ctx), userID, id)
	if err != nil {
		return MealPlanView{}, err
	}
	if strings.TrimSpace(in.WeekStart) != "" {
		if row.WeekStart, err = s.weekStart(in.WeekStart); err != nil {
			return MealPlanView{}, err
		}
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		row.Name = name
	}
	row.Notes = strings.TrimSpace(in.Notes)
	if err := s.db.WithContext(ctx).Omit("Blocks").Save(&row).Error; err != nil {
		return MealPlanView{}, err
	}
	return s.GetPlan(ctx, userID, id)
}

func (s *MealPlanService) DeletePlan(ctx context.Context, userID, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.WeeklyMealPlan
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&row).Error; err != nil {
			return notFound(err, "meal plan")
		}
		if err := tx.Unscoped().Where("plan_id = ?", id).Delete(&models.MealPlanBlock{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&row).Error
	})
}

func (s *MealPlanService) AddBlock(ctx context.Context, userID, planID uint, in BlockInput) (MealPlanView, error) {
	mealType := strings.ToLower(strings.TrimSpace(in.MealType))
	if in.DayOfWeek < 0 || in.DayOfWeek >= daysPerWeek {
		return MealPlanView{}, invalid("day_of_week must be 0 (Monday) to 6 (Sunday)")
	}
	if !mealTypes[mealType] {
		return MealPlanView{}, invalid("meal_type must be breakfast, lunch, dinner or snack")
	}
	if _, err := s.plan(s.db.WithContext(ctx), userID, planID); err != nil {
		return MealPlanView{}, err
	}
	if in.RecipeID != nil {
		if err := s.ownsRecipes(ctx, userID, []uint{*in.RecipeID}); err != nil {
			return MealPlanView{}, err
		}
	}
	block := models.MealPlanBlock{
		PlanID:    planID,
		DayOfWeek: in.DayOfWeek,
		MealType:  mealType,
		RecipeID:  in.RecipeID,
		Notes:     strings.TrimSpace(in.Notes),
		Position:  in.Position,
	}
	if err := s.db.WithContext(ctx).Create(&block).Error; err != nil {
		return MealPlanView{}, err
	}
	return s.GetPlan(ctx, userID, planID)
}

func (s *MealPlanService) DeleteBlock(ctx context.Context, userID, planID, blockID uint) error {
	if _, err := s.plan(s.db.WithContext(ctx), userID, planID); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Unscoped().Where("id = ? AND plan_id = ?", blockID, planID).Delete(&models.MealPlanBlock{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "meal plan block")
	}
	return nil
}

func (s *MealPlanService) ownsRecipes(ctx context.Context, userID uint, ids []uint) error {
	ids = uniqueIDs(ids)
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).Where("user_id = ? AND id IN ?", userID, ids).Count(&n).Error; err != nil {
		return err
	}
	if int(n) != len(ids) {
		return invalid("unknown recipe")
	}
	return nil
}

// ---------- Rotations ----------

func (s *MealPlanService) rotationView(ctx context.Context, userID uint, r models.RecipeRotation) (RotationView, error) {
	v := RotationView{ID: r.ID, Name: r.Name, Active: r.Active, Cursor: r.Cursor, Recipes: make([]RotationEntry, 0, len(r.Recipes))}
	ids := make([]uint, 0, len(r.Recipes))
	for _, rr := range r.Recipes {
		ids = append(ids, rr.RecipeID)
	}
	views, err := s.recipes.Views(ctx, userID, uniqueIDs(ids))
	if err != nil {
		return v, err
	}
	for _, rr := range r.Recipes {
		v.Recipes = append(v.Recipes, RotationEntry{RecipeID: rr.RecipeID, Name: views[rr.RecipeID].Name})
	}
	return v, nil
}

func preloadRotation(db *gorm.DB) *gorm.DB {
	return db.Preload("Recipes", func(db *gorm.DB) *gorm.DB {
		return db.Order("position, id")
	})
}

func (s *MealPlanService) rotation(db *gorm.DB, userID, id uint) (models.RecipeRotation, error) {
	var row models.RecipeRotation
	err := preloadRotation(db).Where("id = ? AND user_id = ?", id, userID).First(&row).Error
	return row, notFound(err, "rotation")
}

func (s *MealPlanService) ListRotations(ctx context.Context, userID uint) ([]RotationView, error) {
	var rows []models.RecipeRotation
	if err := preloadRotation(s.db.WithContext(ctx)).Where("user_id = ?", userID).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]RotationView, 0, len(rows))
	for _, r := range rows {
		v, err := s.rotationView(ctx, userID, r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *MealPlanService) GetRotation(ctx context.Context, userID, id uint) (RotationView, error) {
	row, err := s.rotation(s.db.WithContext(ctx), userID, id)
	if err != nil {
		return RotationView{}, err
	}
	return s.rotationView(ctx, userID, row)
}

func (s *MealPlanService) CreateRotation(ctx context.Context, userID uint, in RotationInput) (RotationView, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return RotationView{}, invalid("name is required")
	}
	if len(in.RecipeIDs) > 0 {
		if err := s.ownsRecipes(ctx, userID, in.RecipeIDs); err != nil {
			return RotationView{}, err
		}
	}
	row := models.RecipeRotation{UserID: userID, Name: name, Active: true}
	if in.Active != nil {
		row.Active = *in.Active
	}
	for i, id := range in.RecipeIDs {
		row.Recipes = append(row.Recipes, models.RotationRecipe{RecipeID: id, Position: i})
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return RotationView{}, err
	}
	if in.Active != nil && !*in.Active {
		if err := s.db.WithContext(ctx).Model(&models.RecipeRotation{Model: gorm.Model{ID: row.ID}}).Update("active", false).Error; err != nil {
			return RotationView{}, err
		}
	}
	return s.GetRotation(ctx, userID, row.ID)
}

// UpdateRotation renames the rotation and replaces its recipe order. The
// cursor resets when the recipe list changes.
func (s *MealPlanService) UpdateRotation(ctx context.Context, userID, id uint, in RotationInput) (RotationView, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return RotationView{}, invalid("name is required")
	}
	if len(in.RecipeIDs) > 0 {
		if err := s.ownsRecipes(ctx, userID, in.RecipeIDs); err != nil {
			return RotationView{}, err
		}
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.rotation(tx, userID, id)
		if err != nil {
			return err
		}
		updates := map[string]any{"name": name}
		if in.Active != nil {
			updates["active"] = *in.Active
		}
		if !sameOrder(row.Recipes, in.RecipeIDs) {
			updates["cursor"] = 0
			if err := tx.Unscoped().Where("rotation_id = ?", id).Delete(&models.RotationRecipe{}).Error; err != nil {
				return err
			}
			for i, rid := range in.RecipeIDs {
				if err := tx.Create(&models.RotationRecipe{RotationID: id, RecipeID: rid, Position: i}).Error; err != nil {
					return err
				}
			}
		}
		return tx.Model(&models.RecipeRotation{Model: gorm.Model{ID: row.ID}}).Updates(updates).Error
	})
	if err != nil {
		return RotationView{}, err
	}
	return s.GetRotation(ctx, userID, id)
}

func sameOrder(current []models.RotationRecipe, ids []uint) bool {
	if len(current) != len(ids) {
		return false
	}
	for i := range current {
		if current[i].RecipeID != ids[i] {
			return false
		}
	}
	return true
}

func (s *MealPlanService) DeleteRotation(ctx context.Context, userID, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.rotation(tx, userID, id)
		if err != nil {
			return err
		}
		if err := tx.Unscoped().Where("rotation_id = ?", id).Delete(&models.RotationRecipe{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&row).Error
	})
}

// ApplyRotation fills mealType on all seven days of a plan with the
// rotation's recipes, starting at its cursor and advancing it. Existing
// blocks for that meal type are replaced.
func (s *MealPlanService) ApplyRotation(ctx context.Context, userID, planID, rotationID uint, mealType string) (MealPlanView, error) {
	mealType = strings.ToLower(strings.TrimSpace(mealType))
	if !mealTypes[mealType] {
		return MealPlanView{}, invalid("meal_type must be breakfast, lunch, dinner or snack")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.plan(tx, userID, planID); err != nil {
			return err
		}
		rot, err := s.rotation(tx, userID, rotationID)
		if err != nil {
			return err
		}
		if !rot.Active {
			return invalid("rotation %q is paused", rot.Name)
		}
		if len(rot.Recipes) == 0 {
			return invalid("rotation %q has no recipes", rot.Name)
		}

		if err := tx.Unscoped().Where("plan_id = ? AND meal_type = ?", planID, mealType).Delete(&models.MealPlanBlock{}).Error; err != nil {
			return err
		}
		n := len(rot.Recipes)
		cursor := rot.Cursor % n
		for day := 0; day < daysPerWeek; day++ {
			rid := rot.Recipes[(cursor+day)%n].RecipeID
			block := models.MealPlanBlock{PlanID: planID, DayOfWeek: day, MealType: mealType, RecipeID: &rid}
			if err := tx.Create(&block).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.RecipeRotation{Model: gorm.Model{ID: rot.ID}}).Update("cursor", (cursor+daysPerWeek)%n).Error
	})
	if err != nil {
		return MealPlanView{}, err
	}
	return s.GetPlan(ctx, userID, planID)
}

// ShoppingList aggregates the linked ingredients of every planned recipe.
// Amounts of the same item are summed in the unit first seen for it. Items
// in stock are skipped unless includeInStock is set.
func (s *MealPlanService) ShoppingList(ctx context.Context, userID, planID uint, includeInStock bool) ([]ShoppingItem, error) {
	plan, err := s.plan(s.db.WithContext(ctx), userID, planID)
	if err != nil {
		return nil, err
	}
	var ids []uint
	for _, b := range plan.Blocks {
		if b.RecipeID != nil {
			ids = append(ids, *b.RecipeID)
		}
	}
	views, err := s.recipes.Views(ctx, userID, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}

	itemIDs := []uint{}
	for _, v := range views {
		for _, ing := range v.Ingredients {
			itemIDs = append(itemIDs, ing.ItemID)
		}
	}
	items, err := s.itemsByID(ctx, userID, uniqueIDs(itemIDs))
	if err != nil {
		return nil, err
	}

	byItem := map[uint]*ShoppingItem{}
	var order []uint
	for _, b := range plan.Blocks {
		if b.RecipeID == nil {
			continue
		}
		v, ok := views[*b.RecipeID]
		if !ok {
			continue
		}
		for _, ing := range v.Ingredients {
			item, ok := items[ing.ItemID]
			if !ok || (item.InStock && !includeInStock) {
				continue
			}
			entry, ok := byItem[item.ID]
			if !ok {
				unit := ing.Unit
				if unit == "" {
					unit = item.ServingUnit
				}
				entry = &ShoppingItem{ItemID: item.ID, Name: item.Name, Category: item.Category, Unit: unit, InStock: item.InStock}
				byItem[item.ID] = entry
				order = append(order, item.ID)
			}
			entry.Quantity += utils.QuantityIn(ing.Quantity, ing.Unit, item, entry.Unit)
			if !containsString(entry.Recipes, v.Name) {
				entry.Recipes = append(entry.Recipes, v.Name)
			}
		}
	}

	out := make([]ShoppingItem, 0, len(order))
	for _, id := range order {
		e := byItem[id]
		e.Quantity = utils.Round2(e.Quantity)
		e.EstimatedCost = utils.Round2(utils.CalculateIngredientCost(
			utils.Ingredient{ItemID: id, Quantity: e.Quantity, Unit: e.Unit}, items[id]))
		out = append(out, *e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *MealPlanService) itemsByID(ctx context.Context, userID uint, ids []uint) (utils.ItemIndex, error) {
	if len(ids) == 0 {
		return utils.ItemIndex{}, nil
	}
	var rows []models.Item
	if err := s.db.WithContext(ctx).Where("user_id = ? AND id IN ?", userID, ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return utils.IndexItems(mappers.DBItemsToFoodItems(rows)), nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

