package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"pantrytrack/mappers"
	"pantrytrack/models"
	"pantrytrack/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Search result sources.
const (
	SearchFullText  = "fulltext"
	SearchSubstring = "substring"
)

// ItemFilter narrows an item listing. Zero values match everything.
type ItemFilter struct {
	Category string
	InStock  *bool
	Query    string
	Limit    int
}

type SearchResult struct {
	Query  string            `json:"query"`
	Source string            `json:"source"`
	Items  []models.FoodItem `json:"items"`
}

// ItemAssessment is an item with its dietary-guideline warnings.
type ItemAssessment struct {
	Item     models.FoodItem `json:"item"`
	Warnings []utils.Warning `json:"warnings"`
	Flagged  bool            `json:"flagged"`
}

type ItemService struct {
	db       *gorm.DB
	settings *SettingsService
	alerts   *AlertBus
	images   utils.ImageStore
	log      *zap.Logger
	fullText bool
}

func NewItemService(db *gorm.DB, settings *SettingsService, alerts *AlertBus, images utils.ImageStore, log *zap.Logger) *ItemService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ItemService{
		db:       db,
		settings: settings,
		alerts:   alerts,
		images:   images,
		log:      log,
		fullText: db.Dialector.Name() == "postgres",
	}
}

func (s *ItemService) scoped(ctx context.Context, userID uint, f ItemFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Item{}).Where("user_id = ?", userID)
	if f.Category != "" {
		q = q.Where("COALESCE(category, ?) = ?", mappers.DefaultCategory, f.Category)
	}
	if f.InStock != nil {
		q = q.Where("COALESCE(in_stock, ?) = ?", true, *f.InStock)
	}
	return q
}

func (s *ItemService) List(ctx context.Context, userID uint, f ItemFilter) ([]models.FoodItem, error) {
	var rows []models.Item
	if err := s.scoped(ctx, userID, f).Order("normalized_name").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := mappers.DBItemsToFoodItems(rows)
	if f.Query != "" {
		items = utils.FilterItems(items, f.Query)
	}
	return limitItems(items, f.Limit), nil
}

func (s *ItemService) row(ctx context.Context, userID, id uint) (models.Item, error) {
	var row models.Item
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&row).Error
	return row, notFound(err, "item")
}

func (s *ItemService) Get(ctx context.Context, userID, id uint) (models.FoodItem, error) {
	row, err := s.row(ctx, userID, id)
	if err != nil {
		return models.FoodItem{}, err
	}
	return mappers.DBItemToFoodItem(row), nil
}

func (s *ItemService) Create(ctx context.Context, userID uint, fi models.FoodItem) (models.FoodItem, error) {
	if strings.TrimSpace(fi.Name) == "" {
		return models.FoodItem{}, invalid("name is required")
	}
	row := mappers.FoodItemToDBInsert(fi)
	row.UserID = userID
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.FoodItem{}, utils.FriendlyDBError(err, "item", row.Name)
	}
	return mappers.DBItemToFoodItem(row), nil
}

// Update replaces every editable column of an item.
func (s *ItemService) Update(ctx context.Context, userID, id uint, fi models.FoodItem) (models.FoodItem, error) {
	if strings.TrimSpace(fi.Name) == "" {
		return models.FoodItem{}, invalid("name is required")
	}
	row, err := s.row(ctx, userID, id)
	if err != nil {
		return models.FoodItem{}, err
	}
	before := mappers.DBItemToFoodItem(row)

	if err := s.db.WithContext(ctx).Model(&row).Updates(mappers.FoodItemToDBUpdate(fi)).Error; err != nil {
		return models.FoodItem{}, utils.FriendlyDBError(err, "item", strings.TrimSpace(fi.Name))
	}
	if row, err = s.row(ctx, userID, id); err != nil {
		return models.FoodItem{}, err
	}
	after := mappers.DBItemToFoodItem(row)
	s.stockChanged(ctx, userID, after, before.InStock)
	return after, nil
}

func (s *ItemService) SetStock(ctx context.Context, userID, id uint, inStock bool) (models.FoodItem, error) {
	row, err := s.row(ctx, userID, id)
	if err != nil {
		return models.FoodItem{}, err
	}
	was := mappers.DBItemToFoodItem(row).InStock
	if err := s.db.WithContext(ctx).Model(&row).Update("in_stock", inStock).Error; err != nil {
		return models.FoodItem{}, err
	}
	row.InStock = &inStock
	fi := mappers.DBItemToFoodItem(row)
	s.stockChanged(ctx, userID, fi, was)
	return fi, nil
}

// Delete removes an item and every recipe ingredient that references it.
// Rows are hard-deleted so the name can be reused.
func (s *ItemService) Delete(ctx context.Context, userID, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Item
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&row).Error; err != nil {
			return notFound(err, "item")
		}
		if err := tx.Unscoped().Where("item_id = ?", id).Delete(&models.RecipeItem{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&row).Error
	})
}

// Search runs full-text search when the database supports it and falls back
// to substring matching otherwise, or when the full-text query fails.
func (s *ItemService) Search(ctx context.Context, userID uint, query string, f ItemFilter) (SearchResult, error) {
	query = strings.TrimSpace(query)
	res := SearchResult{Query: query, Source: SearchSubstring}
	if query != "" && s.settings != nil {
		if _, err := s.settings.AddRecentSearch(ctx, userID, query); err != nil {
			s.log.Warn("record recent search", zap.Uint("user_id", userID), zap.Error(err))
		}
	}

	if query != "" && s.fullText {
		items, err := s.fullTextSearch(ctx, userID, query, f)
		if err == nil {
			res.Source = SearchFullText
			res.Items = limitItems(items, f.Limit)
			return res, nil
		}
		s.log.Warn("full-text search failed, using substring match", zap.String("query", query), zap.Error(err))
	}

	f.Query = query
	items, err := s.List(ctx, userID, f)
	if err != nil {
		return res, err
	}
	res.Items = items
	return res, nil
}

func (s *ItemService) fullTextSearch(ctx context.Context, userID uint, query string, f ItemFilter) ([]models.FoodItem, error) {
	var rows []models.Item
	err := s.scoped(ctx, userID, f).
		Where("search_vector @@ plainto_tsquery('english', ?)", query).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                "ts_rank(search_vector, plainto_tsquery('english', ?)) DESC",
			Vars:               []any{query},
			WithoutParentheses: true,
		}}).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return mappers.DBItemsToFoodItems(rows), nil
}

// Categories lists the distinct categories in use, sorted.
func (s *ItemService) Categories(ctx context.Context, userID uint) ([]string, error) {
	items, err := s.List(ctx, userID, ItemFilter{})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	out := []string{}
	for _, it := range items {
		if !seen[it.Category] {
			seen[it.Category] = true
			out = append(out, it.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

// AttachImage uploads a base64 data URI and stores its public URL on the item.
func (s *ItemService) AttachImage(ctx context.Context, userID, id uint, dataURI string) (models.FoodItem, error) {
	if s.images == nil {
		return models.FoodItem{}, fmt.Errorf("image storage: %w", ErrUnavailable)
	}
	row, err := s.row(ctx, userID, id)
	if err != nil {
		return models.FoodItem{}, err
	}
	url, err := s.images.UploadDataURI(ctx, dataURI, fmt.Sprintf("items/%d", userID))
	if err != nil {
		if errors.Is(err, utils.ErrInvalidImage) {
			return models.FoodItem{}, invalid("%v", err)
		}
		return models.FoodItem{}, err
	}
	if err := s.db.WithContext(ctx).Model(&row).Update("image_url", url).Error; err != nil {
		return models.FoodItem{}, err
	}
	row.ImageURL = &url
	return mappers.DBItemToFoodItem(row), nil
}

// Assess checks an item's per-serving nutrition against dietary guidelines,
// scaled to the user's calorie goal when one is set.
func (s *ItemService) Assess(ctx context.Context, userID, id uint) (ItemAssessment, error) {
	fi, err := s.Get(ctx, userID, id)
	if err != nil {
		return ItemAssessment{}, err
	}
	target := 2000.0
	var goal models.NutritionGoal
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&goal).Error; err == nil && goal.Calories > 0 {
		target = goal.Calories
	}
	var grams float64
	if fi.ServingSizeGrams != nil {
		grams = *fi.ServingSizeGrams
	}
	ws := utils.AssessNutrition(fi.Name, fi.Nutrition, grams, target)
	return ItemAssessment{Item: fi, Warnings: ws, Flagged: utils.HasHighSeverity(ws)}, nil
}

func (s *ItemService) stockChanged(ctx context.Context, userID uint, fi models.FoodItem, wasInStock bool) {
	if fi.InStock == wasInStock || s.alerts == nil {
		return
	}
	if s.settings != nil {
		prefs, err := s.settings.Get(ctx, userID)
		if err == nil && !prefs.LowStockAlerts {
			return
		}
	}
	id := fi.ID
	if fi.InStock {
		s.alerts.Emit(ctx, userID, models.AlertBackInStock, "info", &id, fmt.Sprintf("%s is back in stock.", fi.Name))
		return
	}
	s.alerts.Emit(ctx, userID, models.AlertOutOfStock, "warning", &id, fmt.Sprintf("%s is out of stock.", fi.Name))
}

func limitItems(items []models.FoodItem, limit int) []models.FoodItem {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
