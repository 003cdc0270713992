package models

import "time"

// Recipe is the aggregate root: the row itself, its tag links and its
// ingredient amounts are written together.
type Recipe struct {
	ID          uint      `gorm:"primaryKey"`
	AuthorID    uint      `gorm:"not null;index"`
	Author      User      `gorm:"constraint:OnDelete:CASCADE"`
	Name        string    `gorm:"size:256;not null"`
	Text        string    `gorm:"type:text;not null"`
	Image       string    `gorm:"not null"`
	CookingTime int       `gorm:"not null;check:chk_recipes_cooking_time,cooking_time >= 1"`
	PubDate     time.Time `gorm:"autoCreateTime;index"`

	Tags        []Tag              `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE"`
	Ingredients []RecipeIngredient `gorm:"constraint:OnDelete:CASCADE"`
}

// RecipeIngredient is the join row carrying the amount of one ingredient.
type RecipeIngredient struct {
	ID           uint       `gorm:"primaryKey"`
	RecipeID     uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredient"`
	IngredientID uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredient"`
	Ingredient   Ingredient `gorm:"constraint:OnDelete:CASCADE"`
	Amount       int        `gorm:"not null;check:chk_recipe_ingredients_amount,amount >= 1"`
}

func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}
