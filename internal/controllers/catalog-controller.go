package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/serializers"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/services"
)

// CatalogController serves ingredients and tags. Reads are public, writes
// are for staff.
type CatalogController interface {
	GetIngredients(c *gin.Context)
	GetIngredientByID(c *gin.Context)
	CreateIngredient(c *gin.Context)
	GetTags(c *gin.Context)
	GetTagByID(c *gin.Context)
	CreateTag(c *gin.Context)
}

type catalogController struct {
	catalog services.CatalogService
}

func NewCatalogController(catalog services.CatalogService) CatalogController {
	return &catalogController{catalog: catalog}
}

// GetIngredients godoc
// @Summary List ingredients
// @Description Search ingredients by case-insensitive name prefix
// @Tags ingredients
// @Produce json
// @Param name query string false "Name prefix"
// @Success 200 {array} serializers.IngredientRead
// @Router /api/ingredients/ [get]
func (cc *catalogController) GetIngredients(c *gin.Context) {
	ingredients, err := cc.catalog.ListIngredients(c.Request.Context(), c.Query("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ingredients)
}

// GetIngredientByID godoc
// @Summary Get ingredient by ID
// @Tags ingredients
// @Produce json
// @Param id path int true "Ingredient ID"
// @Success 200 {object} serializers.IngredientRead
// @Failure 404 {object} models.APIError
// @Router /api/ingredients/{id}/ [get]
func (cc *catalogController) GetIngredientByID(c *gin.Context) {
	id, ok := pathID(c, "Ingredient not found")
	if !ok {
		return
	}
	ingredient, err := cc.catalog.GetIngredient(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ingredient)
}

// CreateIngredient godoc
// @Summary Create an ingredient
// @Tags ingredients
// @Accept json
// @Produce json
// @Param ingredient body serializers.IngredientWrite true "Ingredient"
// @Success 201 {object} serializers.IngredientRead
// @Failure 400 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Security BearerAuth
// @Router /api/ingredients/ [post]
func (cc *catalogController) CreateIngredient(c *gin.Context) {
	var payload serializers.IngredientWrite
	if !bindJSON(c, &payload, "Invalid ingredient") {
		return
	}
	ingredient, err := cc.catalog.CreateIngredient(c.Request.Context(), payload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ingredient)
}

// GetTags godoc
// @Summary List tags
// @Tags tags
// @Produce json
// @Success 200 {array} serializers.TagRead
// @Router /api/tags/ [get]
func (cc *catalogController) GetTags(c *gin.Context) {
	tags, err := cc.catalog.ListTags(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

// GetTagByID godoc
// @Summary Get tag by ID
// @Tags tags
// @Produce json
// @Param id path int true "Tag ID"
// @Success 200 {object} serializers.TagRead
// @Failure 404 {object} models.APIError
// @Router /api/tags/{id}/ [get]
func (cc *catalogController) GetTagByID(c *gin.Context) {
	id, ok := pathID(c, "Tag not found")
	if !ok {
		return
	}
	tag, err := cc.catalog.GetTag(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

// CreateTag godoc
// @Summary Create a tag
// @Tags tags
// @Accept json
// @Produce json
// @Param tag body serializers.TagWrite true "Tag"
// @Success 201 {object} serializers.TagRead
// @Failure 400 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Security BearerAuth
// @Router /api/tags/ [post]
func (cc *catalogController) CreateTag(c *gin.Context) {
	var payload serializers.TagWrite
	if !bindJSON(c, &payload, "Invalid tag") {
		return
	}
	tag, err := cc.catalog.CreateTag(c.Request.Context(), payload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}
