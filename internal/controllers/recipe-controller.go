package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/serializers"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/services"
)

const msgRecipeNotFound = "Recipe not found"

// RecipeController handles HTTP requests related to recipes
type RecipeController interface {
	// GetRecipes lists recipes with optional filters
	GetRecipes(c *gin.Context)
	// GetRecipeByID retrieves a recipe by its ID
	GetRecipeByID(c *gin.Context)
	// CreateRecipe publishes a recipe authored by the current user
	CreateRecipe(c *gin.Context)
	// UpdateRecipe replaces an existing recipe
	UpdateRecipe(c *gin.Context)
	// DeleteRecipe deletes a recipe by its ID
	DeleteRecipe(c *gin.Context)
	// GetLink returns the absolute link of a recipe
	GetLink(c *gin.Context)
	// DownloadShoppingCart renders the current user's shopping list
	DownloadShoppingCart(c *gin.Context)
}

type recipeController struct {
	recipes  services.RecipeService
	shopping services.ShoppingListService
}

// NewRecipeController creates a new instance of RecipeController
func NewRecipeController(recipes services.RecipeService, shopping services.ShoppingListService) RecipeController {
	return &recipeController{recipes: recipes, shopping: shopping}
}

// GetRecipes godoc
// @Summary List recipes
// @Description List recipes newest first. Tag filters are conjunctive; is_favorited and is_in_shopping_cart only apply to authenticated users.
// @Tags recipes
// @Produce json
// @Param author query int false "Author user ID"
// @Param tags query []string false "Tag slug, repeatable" collectionFormat(multi)
// @Param is_favorited query int false "1 to list only favorites"
// @Param is_in_shopping_cart query int false "1 to list only recipes in the shopping cart"
// @Success 200 {array} serializers.RecipeRead
// @Failure 400 {object} models.APIError
// @Router /api/recipes/ [get]
func (rc *recipeController) GetRecipes(c *gin.Context) {
	filter := services.RecipeFilter{
		TagSlugs:      c.QueryArray("tags"),
		OnlyFavorited: queryFlag(c, "is_favorited"),
		OnlyInCart:    queryFlag(c, "is_in_shopping_cart"),
	}
	if raw := c.Query("author"); raw != "" {
		authorID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondError(c, services.InvalidFields("Invalid filter", serializers.FieldErrors{
				"author": {"Select a valid choice. That choice is not one of the available choices."},
			}))
			return
		}
		id := uint(authorID)
		filter.AuthorID = &id
	}

	recipes, err := rc.recipes.List(c.Request.Context(), viewerFrom(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}

// GetRecipeByID godoc
// @Summary Get recipe by ID
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 200 {object} serializers.RecipeRead
// @Failure 404 {object} models.APIError
// @Router /api/recipes/{id}/ [get]
func (rc *recipeController) GetRecipeByID(c *gin.Context) {
	id, ok := pathID(c, msgRecipeNotFound)
	if !ok {
		return
	}
	recipe, err := rc.recipes.Get(c.Request.Context(), viewerFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// CreateRecipe godoc
// @Summary Create a recipe
// @Description Create a recipe. The image is a base64 data URI.
// @Tags recipes
// @Accept json
// @Produce json
// @Param recipe body serializers.RecipeWrite true "Recipe payload"
// @Success 201 {object} serializers.RecipeRead
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 429 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/ [post]
func (rc *recipeController) CreateRecipe(c *gin.Context) {
	var payload serializers.RecipeWrite
	if !bindJSON(c, &payload, "Invalid recipe payload") {
		return
	}
	recipe, err := rc.recipes.Create(c.Request.Context(), viewerFrom(c), payload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

// UpdateRecipe godoc
// @Summary Update a recipe
// @Description Replace the tags, ingredients and fields of a recipe. The image may be omitted to keep the current one.
// @Tags recipes
// @Accept json
// @Produce json
// @Param id path int true "Recipe ID"
// @Param recipe body serializers.RecipeWrite true "Recipe payload"
// @Success 200 {object} serializers.RecipeRead
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/{id}/ [patch]
func (rc *recipeController) UpdateRecipe(c *gin.Context) {
	id, ok := pathID(c, msgRecipeNotFound)
	if !ok {
		return
	}
	var payload serializers.RecipeWrite
	if !bindJSON(c, &payload, "Invalid recipe payload") {
		return
	}
	recipe, err := rc.recipes.Update(c.Request.Context(), viewerFrom(c), id, payload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// DeleteRecipe godoc
// @Summary Delete a recipe
// @Tags recipes
// @Param id path int true "Recipe ID"
// @Success 204
// @Failure 401 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/{id}/ [delete]
func (rc *recipeController) DeleteRecipe(c *gin.Context) {
	id, ok := pathID(c, msgRecipeNotFound)
	if !ok {
		return
	}
	if err := rc.recipes.Delete(c.Request.Context(), viewerFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetLink godoc
// @Summary Get recipe link
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.APIError
// @Router /api/recipes/{id}/get-link/ [get]
func (rc *recipeController) GetLink(c *gin.Context) {
	id, ok := pathID(c, msgRecipeNotFound)
	if !ok {
		return
	}
	if _, err := rc.recipes.Short(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"short-link": fmt.Sprintf("%s://%s/api/recipes/%d/", requestScheme(c), c.Request.Host, id),
	})
}

// DownloadShoppingCart godoc
// @Summary Download shopping list
// @Description Sum the ingredients of every recipe in the shopping cart. PDF by default, plain text with format=txt.
// @Tags recipes
// @Produce application/pdf
// @Produce text/plain
// @Param format query string false "pdf or txt"
// @Success 200 {file} file
// @Failure 401 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/download_shopping_cart/ [get]
func (rc *recipeController) DownloadShoppingCart(c *gin.Context) {
	viewer := viewerFrom(c)

	if c.Query("format") == "txt" {
		lines, err := rc.shopping.Lines(c.Request.Context(), viewer.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="shopping_list.txt"`)
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(services.RenderShoppingList(lines)))
		return
	}

	var buf bytes.Buffer
	if err := rc.shopping.WritePDF(c.Request.Context(), viewer.ID, &buf); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="shopping_list.pdf"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func queryFlag(c *gin.Context, key string) bool {
	switch c.Query(key) {
	case "1", "true", "True":
		return true
	default:
		return false
	}
}

func requestScheme(c *gin.Context) string {
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}
