package services

import (
	"context"
	"regexp"
	"strings"

	"pantrytrack/mappers"
	"pantrytrack/models"
	"pantrytrack/utils"

	"gorm.io/gorm"
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

type TagInput struct {
	Name        string `json:"name" binding:"required"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

type TagService struct{ db *gorm.DB }

func NewTagService(db *gorm.DB) *TagService { return &TagService{db: db} }

// List returns the user's tags by name, each with the number of live
// recipes carrying it.
func (s *TagService) List(ctx context.Context, userID uint) ([]models.TagView, error) {
	var rows []models.Tag
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("normalized_name").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.TagView, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	var counts []struct {
		TagID uint
		N     int64
	}
	err := s.db.WithContext(ctx).Table("recipe_tags").
		Select("recipe_tags.tag_id AS tag_id, COUNT(*) AS n").
		Joins("JOIN recipes ON recipes.id = recipe_tags.recipe_id AND recipes.deleted_at IS NULL").
		Where("recipes.user_id = ?", userID).
		Group("recipe_tags.tag_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	byTag := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byTag[c.TagID] = c.N
	}
	for _, r := range rows {
		v := mappers.DBTagToTag(r)
		v.RecipeCount = byTag[r.ID]
		out = append(out, v)
	}
	return out, nil
}

func (s *TagService) Create(ctx context.Context, userID uint, in TagInput) (models.TagView, error) {
	if err := normalizeTag(&in); err != nil {
		return models.TagView{}, err
	}
	row := models.Tag{
		UserID:         userID,
		Name:           in.Name,
		NormalizedName: mappers.NormalizeName(in.Name),
		Color:          in.Color,
		Description:    in.Description,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.TagView{}, utils.FriendlyDBError(err, "tag", in.Name)
	}
	return mappers.DBTagToTag(row), nil
}

func (s *TagService) Update(ctx context.Context, userID, id uint, in TagInput) (models.TagView, error) {
	if err := normalizeTag(&in); err != nil {
		return models.TagView{}, err
	}
	var row models.Tag
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&row).Error; err != nil {
		return models.TagView{}, notFound(err, "tag")
	}
	row.Name = in.Name
	row.NormalizedName = mappers.NormalizeName(in.Name)
	row.Color = in.Color
	row.Description = in.Description
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return models.TagView{}, utils.FriendlyDBError(err, "tag", in.Name)
	}
	return mappers.DBTagToTag(row), nil
}

// Delete removes the tag from every recipe, then the tag itself.
func (s *TagService) Delete(ctx context.Context, userID, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Tag
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&row).Error; err != nil {
			return notFound(err, "tag")
		}
		if err := tx.Exec("DELETE FROM recipe_tags WHERE tag_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&row).Error
	})
}

func normalizeTag(in *TagInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Color = strings.TrimSpace(in.Color)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return invalid("name is required")
	}
	if in.Color == "" {
		in.Color = models.DefaultTagColor
	}
	if !hexColor.MatchString(in.Color) {
		return invalid("color must be a hex value like #22c55e")
	}
	return nil
}
