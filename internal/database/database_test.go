package database

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseConfigDSN(t *testing.T) {
	testCases := []struct {
		name     string
		cfg      DatabaseConfig
		expected string
	}{
		{
			name: "postgres",
			cfg: DatabaseConfig{Driver: "Postgres", Host: "db", Port: "5432", User: "u",
				Password: "p", Name: "foodgram", SSLMode: "disable"},
			expected: "host=db user=u password=p dbname=foodgram port=5432 sslmode=disable",
		},
		{
			name:     "sqlite file gets foreign keys",
			cfg:      DatabaseConfig{Driver: "sqlite", Path: "foodgram.sqlite"},
			expected: "foodgram.sqlite?_foreign_keys=on",
		},
		{
			name:     "sqlite with params keeps them",
			cfg:      DatabaseConfig{Path: "file:test.db?cache=shared"},
			expected: "file:test.db?cache=shared&_foreign_keys=on",
		},
		{
			name:     "unknown driver",
			cfg:      DatabaseConfig{Driver: "oracle"},
			expected: "",
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.cfg.DSN())
		})
	}
}

func TestDatabaseConfigStringMasksPassword(t *testing.T) {
	cfg := DatabaseConfig{Driver: "postgres", Password: "topsecret"}
	assert.NotContains(t, cfg.String(), "topsecret")
	assert.Contains(t, cfg.String(), "[REDACTED]")
}

func TestInitDatabaseSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "init.sqlite")

	db, err := InitDatabase(context.Background(), DatabaseConfig{Driver: "sqlite", Path: path})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	assert.True(t, db.Migrator().HasTable(&models.Recipe{}))
	assert.True(t, db.Migrator().HasTable("recipe_tags"))
	assert.True(t, db.Migrator().HasTable(&models.Cart{}))
}

func TestInitDatabaseUnsupportedDriver(t *testing.T) {
	_, err := InitDatabase(context.Background(), DatabaseConfig{Driver: "oracle"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unsupported database driver"))
}

func TestSeedTagsIsIdempotent(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)

	require.NoError(t, SeedTags(db))
	require.NoError(t, SeedTags(db))

	var count int64
	require.NoError(t, db.Model(&models.Tag{}).Count(&count).Error)
	assert.Equal(t, int64(len(defaultTags)), count)
}

func TestFollowRejectsSelfEdge(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)

	user := models.User{Email: "a@example.com", Username: "a", FirstName: "A", LastName: "A", Password: "x"}
	require.NoError(t, db.Create(&user).Error)

	err = db.Create(&models.Follow{UserID: user.ID, AuthorID: user.ID}).Error
	assert.Error(t, err, "the check constraint must reject following yourself")
}

func TestMigrateBackfillsIngredientSearchName(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)

	// rows written before search_name existed carry the column default
	require.NoError(t, db.Exec("INSERT INTO ingredients (name, measurement_unit) VALUES (?, ?)", "Сахар", "г").Error)
	require.NoError(t, Migrate(db))

	var ingredient models.Ingredient
	require.NoError(t, db.Where("name = ?", "Сахар").First(&ingredient).Error)
	assert.Equal(t, "сахар", ingredient.SearchName)
}
