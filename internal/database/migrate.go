package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
)

// Migrate creates or updates every table the API uses
func Migrate(db *gorm.DB) error {
	log.Info("Running schema migration")
	err := db.AutoMigrate(
		&models.User{},
		&models.Ingredient{},
		&models.Tag{},
		&models.Recipe{},
		&models.RecipeIngredient{},
		&models.Follow{},
		&models.Favorite{},
		&models.Cart{},
		&models.OAuthClient{},
		&models.OAuthToken{},
	)
	if err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}
	return backfillIngredientSearch(db)
}

// backfillIngredientSearch fills search_name for rows stored before the
// column existed
func backfillIngredientSearch(db *gorm.DB) error {
	var stale []models.Ingredient
	if err := db.Where("search_name = ?", "").Find(&stale).Error; err != nil {
		return fmt.Errorf("failed to load ingredients for backfill: %w", err)
	}
	for _, ingredient := range stale {
		err := db.Model(&models.Ingredient{}).Where("id = ?", ingredient.ID).
			UpdateColumn("search_name", models.SearchKey(ingredient.Name)).Error
		if err != nil {
			return fmt.Errorf("failed to backfill ingredient %d: %w", ingredient.ID, err)
		}
	}
	if len(stale) > 0 {
		log.WithField("count", len(stale)).Info("Ingredient search names backfilled")
	}
	return nil
}

// defaultTags are created on first start so recipes can be published right away
var defaultTags = []models.Tag{
	{Name: "Breakfast", Slug: "breakfast"},
	{Name: "Lunch", Slug: "lunch"},
	{Name: "Dinner", Slug: "dinner"},
}

// SeedTags inserts the default tags when the tags table is empty
func SeedTags(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Tag{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Info("Tags already seeded, skipping")
		return nil
	}

	tags := make([]models.Tag, len(defaultTags))
	copy(tags, defaultTags)
	if err := db.Create(&tags).Error; err != nil {
		return fmt.Errorf("seeding tags: %w", err)
	}
	log.WithField("count", len(tags)).Info("Default tags created")
	return nil
}

// OpenInMemory returns a migrated SQLite database living in memory. It is
// limited to one connection, so every connection sees the same database.
func OpenInMemory() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(withForeignKeys(":memory:")), gormConfig())
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"db_driver": "sqlite", "db_path": ":memory:"}).Debug("In-memory database ready")
	return db, nil
}
