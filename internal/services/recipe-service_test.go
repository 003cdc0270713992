package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/serializers"
)

func TestCreateRecipeRoundTrip(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author")
	eggs := f.ingredient(t, "eggs", "pcs")
	milk := f.ingredient(t, "milk", "ml")
	lunch, dinner := f.tagID(t, "lunch"), f.tagID(t, "dinner")

	created := f.recipe(t, author, "Omelette", []uint{dinner, lunch}, amount(milk.ID, 100), amount(eggs.ID, 3))

	got, err := f.recipes.Get(ctx, Viewer{}, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	assert.Equal(t, "Omelette", got.Name)
	assert.Equal(t, author.ID, got.Author.ID)
	assert.Equal(t, []serializers.IngredientAmountRead{
		{ID: milk.ID, Name: "milk", MeasurementUnit: "ml", Amount: 100},
		{ID: eggs.ID, Name: "eggs", MeasurementUnit: "pcs", Amount: 3},
	}, got.Ingredients)
	require.Len(t, got.Tags, 2)
	assert.ElementsMatch(t, []uint{lunch, dinner}, []uint{got.Tags[0].ID, got.Tags[1].ID})

	assert.True(t, strings.HasPrefix(got.Image, "/media/recipes/images/"))
	assert.True(t, strings.HasSuffix(got.Image, ".png"))
	key, ok := f.store.KeyFromURL(got.Image)
	require.True(t, ok)
	_, err = os.Stat(filepath.Join(f.store.Root, key))
	assert.NoError(t, err)
}

func TestRecipesWithSameIngredientsDoNotCollapse(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author")
	flour := f.ingredient(t, "flour", "g")
	tag := f.tagID(t, "breakfast")

	first := f.recipe(t, author, "Bread", []uint{tag}, amount(flour.ID, 500))
	second := f.recipe(t, author, "Bread", []uint{tag}, amount(flour.ID, 500))
	assert.NotEqual(t, first.ID, second.ID)

	list, err := f.recipes.List(ctx, Viewer{}, RecipeFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Equal(t, first.ID, list[1].ID)
}

func TestViewerFlags(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author")
	reader := f.user(t, "reader")
	sugar := f.ingredient(t, "sugar", "g")
	recipe := f.recipe(t, author, "Cake", []uint{f.tagID(t, "dinner")}, amount(sugar.ID, 200))

	require.NoError(t, f.favorites.Add(ctx, reader.ID, recipe.ID))
	require.NoError(t, f.cart.Add(ctx, reader.ID, recipe.ID))
	require.NoError(t, f.follows.Add(ctx, reader.ID, author.ID))

	anonymous, err := f.recipes.Get(ctx, Viewer{}, recipe.ID)
	require.NoError(t, err)
	assert.False(t, anonymous.IsFavorited)
	assert.False(t, anonymous.IsInShoppingCart)
	assert.False(t, anonymous.Author.IsSubscribed)

	seen, err := f.recipes.Get(ctx, Viewer{ID: reader.ID}, recipe.ID)
	require.NoError(t, err)
	assert.True(t, seen.IsFavorited)
	assert.True(t, seen.IsInShoppingCart)
	assert.True(t, seen.Author.IsSubscribed)

	own, err := f.recipes.Get(ctx, Viewer{ID: author.ID}, recipe.ID)
	require.NoError(t, err)
	assert.False(t, own.IsFavorited)
	assert.False(t, own.Author.IsSubscribed)
}

func TestCreateRecipeValidation(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author")
	salt := f.ingredient(t, "salt", "g")
	tag := f.tagID(t, "lunch")
	viewer := Viewer{ID: author.ID}

	fieldsOf := func(t *testing.T, p serializers.RecipeWrite) map[string][]string {
		t.Helper()
		_, err := f.recipes.Create(ctx, viewer, p)
		return requireKind(t, err, KindValidation).Fields
	}

	t.Run("repeated ingredient", func(t *testing.T) {
		fields := fieldsOf(t, payload("Soup", []uint{tag}, amount(salt.ID, 1), amount(salt.ID, 2)))
		assert.Equal(t, []string{fmt.Sprintf(serializers.MsgDuplicateIngredient, salt.ID)}, fields["ingredients"])
	})

	t.Run("empty tags", func(t *testing.T) {
		fields := fieldsOf(t, payload("Soup", []uint{}, amount(salt.ID, 1)))
		assert.Equal(t, []string{serializers.MsgNoTags}, fields["tags"])
	})

	t.Run("cooking time zero and over max", func(t *testing.T) {
		p := payload("Soup", []uint{tag}, amount(salt.ID, 1))
		zero := 0
		p.CookingTime = &zero
		low := fieldsOf(t, p)["cooking_time"]

		over := testMaxCookingTime + 1
		p.CookingTime = &over
		high := fieldsOf(t, p)["cooking_time"]

		assert.Equal(t, []string{serializers.MsgCookingTimeTooSmall}, low)
		assert.Equal(t, []string{fmt.Sprintf(serializers.MsgCookingTimeTooLarge, testMaxCookingTime)}, high)
		assert.NotEqual(t, low, high)
	})

	t.Run("unknown references", func(t *testing.T) {
		fields := fieldsOf(t, payload("Soup", []uint{tag, 999}, amount(salt.ID, 1), amount(888, 1)))
		assert.Equal(t, []string{fmt.Sprintf(MsgUnknownTag, 999)}, fields["tags"])
		assert.Equal(t, []string{fmt.Sprintf(MsgUnknownIngredient, 888)}, fields["ingredients"])
	})

	t.Run("nothing persisted", func(t *testing.T) {
		var count int64
		require.NoError(t, f.db.Model(&models.Recipe{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("anonymous", func(t *testing.T) {
		_, err := f.recipes.Create(ctx, Viewer{}, payload("Soup", []uint{tag}, amount(salt.ID, 1)))
		requireKind(t, err, KindForbidden)
	})
}

func TestUpdateRecipeReplacesAggregate(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author")
	flour := f.ingredient(t, "flour", "g")
	water := f.ingredient(t, "water", "ml")
	yeast := f.ingredient(t, "yeast", "g")
	breakfast, dinner := f.tagID(t, "breakfast"), f.tagID(t, "dinner")

	created := f.recipe(t, author, "Bread", []uint{breakfast}, amount(flour.ID, 500), amount(water.ID, 300))
	var before models.Recipe
	require.NoError(t, f.db.First(&before, created.ID).Error)

	p := payload("Better bread", []uint{dinner}, amount(yeast.ID, 7), amount(flour.ID, 450))
	p.Image = nil
	updated, err := f.recipes.Update(ctx, Viewer{ID: author.ID}, created.ID, p)
	require.NoError(t, err)

	assert.Equal(t, "Better bread", updated.Name)
	assert.Equal(t, created.Image, updated.Image, "image kept when omitted")
	assert.Equal(t, []serializers.TagRead{{ID: dinner, Name: "Dinner", Slug: "dinner"}}, updated.Tags)
	assert.Equal(t, []serializers.IngredientAmountRead{
		{ID: yeast.ID, Name: "yeast", MeasurementUnit: "g", Amount: 7},
		{ID: flour.ID, Name: "flour", MeasurementUnit: "g", Amount: 450},
	}, updated.Ingredients)

	var rows int64
	require.NoError(t, f.db.Model(&models.RecipeIngredient{}).Where("recipe_id = ?", created.ID).Count(&rows).Error)
	assert.Equal(t, int64(2), rows)

	var after models.Recipe
	require.NoError(t, f.db.First(&after, created.ID).Error)
	assert.True(t, before.PubDate.Equal(after.PubDate), "pub_date never changes")
}

func TestUpdateRecipeKeepsOmittedFields(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author")
	flour := f.ingredient(t, "flour", "g")
	tag := f.tagID(t, "breakfast")
	created := f.recipe(t, author, "Pancakes", []uint{tag}, amount(flour.ID, 200))

	cookingTime := 45
	updated, err := f.recipes.Update(ctx, Viewer{ID: author.ID}, created.ID, serializers.RecipeWrite{
		Ingredients: []serializers.IngredientAmountWrite{amount(flour.ID, 250)},
		Tags:        []uint{tag},
		CookingTime: &cookingTime,
	})
	require.NoError(t, err)

	assert.Equal(t, 45, updated.CookingTime)
	assert.Equal(t, "Pancakes", updated.Name)
	assert.Equal(t, "Cook it.", updated.Text)
	assert.Equal(t, created.Image, updated.Image)
	assert.Equal(t, 250, updated.Ingredients[0].Amount)

	// fields that are sent are still validated
	blank := "  "
	_, err = f.recipes.Update(ctx, Viewer{ID: author.ID}, created.ID, serializers.RecipeWrite{
		Ingredients: []serializers.IngredientAmountWrite{amount(flour.ID, 250)},
		Tags:        []uint{tag},
		Name:        &blank,
	})
	svcErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindValidation, svcErr.Kind)
	assert.Equal(t, []string{serializers.MsgBlank}, svcErr.Fields["name"])
	assert.NotContains(t, svcErr.Fields, "text")
}

func TestUpdateRecipeWithNewImageDropsOldFile(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author")
	salt := f.ingredient(t, "salt", "g")
	tag := f.tagID(t, "lunch")
	created := f.recipe(t, author, "Soup", []uint{tag}, amount(salt.ID, 1))

	updated, err := f.recipes.Update(ctx, Viewer{ID: author.ID}, created.ID, payload("Soup", []uint{tag}, amount(salt.ID, 2)))
	require.NoError(t, err)
	assert.NotEqual(t, created.Image, updated.Image)

	oldKey, _ := f.store.KeyFromURL(created.Image)
	_, err = os.Stat(filepath.Join(f.store.Root, oldKey))
	assert.True(t, os.IsNotExist(err))
}

func TestRecipePermissions(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author")
	stranger := f.user(t, "stranger")
	admin := f.user(t, "admin")
	salt := f.ingredient(t, "salt", "g")
	tag := f.tagID(t, "lunch")
	recipe := f.recipe(t, author, "Soup", []uint{tag}, amount(salt.ID, 1))

	_, err := f.recipes.Update(ctx, Viewer{ID: stranger.ID}, recipe.ID, payload("Mine", []uint{tag}, amount(salt.ID, 1)))
	requireKind(t, err, KindForbidden)

	// permission is checked before the payload
	_, err = f.recipes.Update(ctx, Viewer{ID: stranger.ID}, recipe.ID, serializers.RecipeWrite{})
	requireKind(t, err, KindForbidden)

	requireKind(t, f.recipes.Delete(ctx, Viewer{ID: stranger.ID}, recipe.ID), KindForbidden)
	requireKind(t, f.recipes.Delete(ctx, Viewer{ID: author.ID}, 9999), KindNotFound)

	staff := Viewer{ID: admin.ID, IsStaff: true}
	_, err = f.recipes.Update(ctx, staff, recipe.ID, payload("Moderated", []uint{tag}, amount(salt.ID, 1)))
	require.NoError(t, err)
	require.NoError(t, f.recipes.Delete(ctx, staff, recipe.ID))
}

func TestDeleteRecipeRemovesReferences(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author")
	reader := f.user(t, "reader")
	salt := f.ingredient(t, "salt", "g")
	recipe := f.recipe(t, author, "Soup", []uint{f.tagID(t, "lunch")}, amount(salt.ID, 1))
	require.NoError(t, f.favorites.Add(ctx, reader.ID, recipe.ID))
	require.NoError(t, f.cart.Add(ctx, reader.ID, recipe.ID))

	require.NoError(t, f.recipes.Delete(ctx, Viewer{ID: author.ID}, recipe.ID))

	_, err := f.recipes.Get(ctx, Viewer{}, recipe.ID)
	requireKind(t, err, KindNotFound)

	for _, table := range []string{"favorites", "shopping_cart_items", "recipe_ingredients", "recipe_tags"} {
		var count int64
		require.NoError(t, f.db.Table(table).Where("recipe_id = ?", recipe.ID).Count(&count).Error)
		assert.Zero(t, count, table)
	}

	var ingredients int64
	require.NoError(t, f.db.Model(&models.Ingredient{}).Count(&ingredients).Error)
	assert.Equal(t, int64(1), ingredients, "reference data survives")
}

func TestListRecipeFilters(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	salt := f.ingredient(t, "salt", "g")
	breakfast, lunch := f.tagID(t, "breakfast"), f.tagID(t, "lunch")

	both := f.recipe(t, alice, "Both", []uint{breakfast, lunch}, amount(salt.ID, 1))
	onlyLunch := f.recipe(t, bob, "Lunch", []uint{lunch}, amount(salt.ID, 1))
	require.NoError(t, f.favorites.Add(ctx, alice.ID, onlyLunch.ID))
	require.NoError(t, f.cart.Add(ctx, bob.ID, both.ID))

	ids := func(t *testing.T, viewer Viewer, filter RecipeFilter) []uint {
		t.Helper()
		list, err := f.recipes.List(ctx, viewer, filter)
		require.NoError(t, err)
		out := []uint{}
		for _, r := range list {
			out = append(out, r.ID)
		}
		return out
	}

	assert.Equal(t, []uint{both.ID}, ids(t, Viewer{}, RecipeFilter{AuthorID: &alice.ID}))
	assert.Equal(t, []uint{onlyLunch.ID, both.ID}, ids(t, Viewer{}, RecipeFilter{TagSlugs: []string{"lunch"}}))
	assert.Equal(t, []uint{both.ID}, ids(t, Viewer{}, RecipeFilter{TagSlugs: []string{"lunch", "breakfast"}}))
	assert.Equal(t, []uint{onlyLunch.ID}, ids(t, Viewer{ID: alice.ID}, RecipeFilter{OnlyFavorited: true}))
	assert.Equal(t, []uint{both.ID}, ids(t, Viewer{ID: bob.ID}, RecipeFilter{OnlyInCart: true}))
	assert.Len(t, ids(t, Viewer{}, RecipeFilter{OnlyFavorited: true, OnlyInCart: true}), 2, "ignored for anonymous viewers")

	_, err := f.recipes.List(ctx, Viewer{}, RecipeFilter{TagSlugs: []string{"brunch"}})
	fields := requireKind(t, err, KindValidation).Fields
	assert.Equal(t, []string{fmt.Sprintf(MsgUnknownTagSlug, "brunch")}, fields["tags"])
}

func TestShortRecipe(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author")
	salt := f.ingredient(t, "salt", "g")
	recipe := f.recipe(t, author, "Soup", []uint{f.tagID(t, "lunch")}, amount(salt.ID, 1))

	short, err := f.recipes.Short(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, serializers.ShortRecipe{ID: recipe.ID, Name: "Soup", Image: recipe.Image, CookingTime: 30}, short)

	_, err = f.recipes.Short(ctx, 12345)
	requireKind(t, err, KindNotFound)
}
