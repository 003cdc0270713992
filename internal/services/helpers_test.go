package services

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/database"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/serializers"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/storage"
)

const testMaxCookingTime = 600

var (
	ctx       = context.Background()
	testImage = "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\nfake"))
)

type fixture struct {
	db        *gorm.DB
	store     *storage.LocalStore
	favorites RelationService
	cart      RelationService
	follows   RelationService
	recipes   RecipeService
	users     UserService
	catalog   CatalogService
	shopping  ShoppingListService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	require.NoError(t, database.SeedTags(db))

	f := &fixture{
		db:        db,
		store:     storage.NewLocalStore(t.TempDir(), "/media/"),
		favorites: NewFavoriteService(db),
		cart:      NewCartService(db),
		follows:   NewFollowService(db),
		catalog:   NewCatalogService(db),
		shopping:  NewShoppingListService(db),
	}
	f.recipes = NewRecipeService(db, f.store, f.favorites, f.cart, f.follows, testMaxCookingTime)
	f.users = NewUserService(db, f.store, f.follows)
	return f
}

func (f *fixture) user(t *testing.T, username string) models.User {
	t.Helper()
	u := models.User{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "First",
		LastName:  "Last",
	}
	require.NoError(t, u.SetPassword("password123"))
	require.NoError(t, f.db.Create(&u).Error)
	return u
}

func (f *fixture) ingredient(t *testing.T, name, unit string) models.Ingredient {
	t.Helper()
	i := models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, f.db.Create(&i).Error)
	return i
}

func (f *fixture) tagID(t *testing.T, slug string) uint {
	t.Helper()
	var tag models.Tag
	require.NoError(t, f.db.Where("slug = ?", slug).First(&tag).Error)
	return tag.ID
}

// recipe creates a recipe through the service so every invariant holds
func (f *fixture) recipe(t *testing.T, author models.User, name string, tags []uint, items ...serializers.IngredientAmountWrite) serializers.RecipeRead {
	t.Helper()
	read, err := f.recipes.Create(ctx, Viewer{ID: author.ID}, payload(name, tags, items...))
	require.NoError(t, err)
	return read
}

func payload(name string, tags []uint, items ...serializers.IngredientAmountWrite) serializers.RecipeWrite {
	text := "Cook it."
	cookingTime := 30
	image := testImage
	return serializers.RecipeWrite{
		Ingredients: items,
		Tags:        tags,
		Image:       &image,
		Name:        &name,
		Text:        &text,
		CookingTime: &cookingTime,
	}
}

func amount(id uint, n int) serializers.IngredientAmountWrite {
	return serializers.IngredientAmountWrite{ID: id, Amount: n}
}

func requireKind(t *testing.T, err error, kind ErrorKind) *Error {
	t.Helper()
	require.Error(t, err)
	svcErr, ok := AsError(err)
	require.True(t, ok, "expected *services.Error, got %T: %v", err, err)
	require.Equal(t, kind, svcErr.Kind, "unexpected kind for %v", err)
	return svcErr
}
