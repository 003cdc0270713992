package models

import (
	"strings"

	"gorm.io/gorm"
)

// Ingredient is reference data; a name may repeat with a different unit.
type Ingredient struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	Name            string `gorm:"size:128;not null;uniqueIndex:idx_ingredient_name_unit" json:"name"`
	MeasurementUnit string `gorm:"size:64;not null;uniqueIndex:idx_ingredient_name_unit" json:"measurement_unit"`
	// SearchName is Name case-folded in Go; SQLite's LOWER folds ASCII only
	SearchName      string `gorm:"size:128;not null;default:'';index" json:"-"`
}

// SearchKey folds s the way SearchName is stored
func SearchKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (i *Ingredient) BeforeSave(*gorm.DB) error {
	i.SearchName = SearchKey(i.Name)
	return nil
}

// Tag labels recipes and is addressed by slug in filters.
type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:32;uniqueIndex;not null" json:"name"`
	Slug string `gorm:"size:32;uniqueIndex;not null" json:"slug"`
}
