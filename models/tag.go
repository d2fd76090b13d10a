package models

import "gorm.io/gorm"

const DefaultTagColor = "#6b7280"

type Tag struct {
	gorm.Model
	UserID         uint   `gorm:"not null;uniqueIndex:idx_tags_user_name"`
	Name           string `gorm:"not null"`
	NormalizedName string `gorm:"not null;uniqueIndex:idx_tags_user_name"`
	Color          string `gorm:"size:16"`
	Description    string
}

type TagView struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description,omitempty"`
	RecipeCount int64  `json:"recipe_count,omitempty"`
}
