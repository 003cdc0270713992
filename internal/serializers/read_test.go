package serializers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
)

func TestRecipeToRead(t *testing.T) {
	author := models.User{ID: 4, Email: "a@example.com", Username: "chef", FirstName: "Ann", LastName: "Lee"}
	recipe := models.Recipe{
		ID:          9,
		Author:      author,
		AuthorID:    author.ID,
		Name:        "Soup",
		Text:        "Boil.",
		Image:       "/media/recipes/images/x.png",
		CookingTime: 40,
		Tags:        []models.Tag{{ID: 1, Name: "Lunch", Slug: "lunch"}},
		Ingredients: []models.RecipeIngredient{
			{IngredientID: 3, Amount: 2, Ingredient: models.Ingredient{ID: 3, Name: "carrot", MeasurementUnit: "pc"}},
			{IngredientID: 1, Amount: 500, Ingredient: models.Ingredient{ID: 1, Name: "water", MeasurementUnit: "ml"}},
		},
	}

	read := RecipeToRead(recipe, ViewerFlags{IsSubscribed: true, IsInShoppingCart: true})
	assert.Equal(t, uint(9), read.ID)
	assert.True(t, read.Author.IsSubscribed)
	assert.Nil(t, read.Author.Avatar)
	assert.False(t, read.IsFavorited)
	assert.True(t, read.IsInShoppingCart)
	require.Len(t, read.Ingredients, 2)
	assert.Equal(t, IngredientAmountRead{ID: 3, Name: "carrot", MeasurementUnit: "pc", Amount: 2}, read.Ingredients[0])
	assert.Equal(t, uint(1), read.Ingredients[1].ID)
	assert.Equal(t, []TagRead{{ID: 1, Name: "Lunch", Slug: "lunch"}}, read.Tags)
}

func TestUserToFollowCard(t *testing.T) {
	u := models.User{ID: 2, Username: "baker", Avatar: "/media/users/a.png"}
	card := UserToFollowCard(u, true, []models.Recipe{{ID: 5, Name: "Bread", CookingTime: 90}}, 7)

	assert.True(t, card.IsSubscribed)
	require.NotNil(t, card.Avatar)
	assert.Equal(t, "/media/users/a.png", *card.Avatar)
	assert.Equal(t, []ShortRecipe{{ID: 5, Name: "Bread", CookingTime: 90}}, card.Recipes)
	assert.Equal(t, int64(7), card.RecipesCount)

	empty := UserToFollowCard(u, true, nil, 0)
	assert.NotNil(t, empty.Recipes)
	assert.Empty(t, empty.Recipes)
}
