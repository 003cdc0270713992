package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/services"
)

// RelationController toggles one kind of user edge: favorite, shopping cart
// or subscription. Add answers with the target rendered by render.
type RelationController struct {
	relation services.RelationService
	notFound string
	render   func(c *gin.Context, viewer services.Viewer, targetID uint) (interface{}, error)
}

// NewRecipeRelationController serves the favorite and shopping cart toggles,
// which answer with the short recipe
func NewRecipeRelationController(relation services.RelationService, recipes services.RecipeService) *RelationController {
	return &RelationController{
		relation: relation,
		notFound: msgRecipeNotFound,
		render: func(c *gin.Context, _ services.Viewer, id uint) (interface{}, error) {
			return recipes.Short(c.Request.Context(), id)
		},
	}
}

// NewSubscriptionController serves subscribe and unsubscribe, which answer
// with the author's follow card
func NewSubscriptionController(follows services.RelationService, users services.UserService) *RelationController {
	return &RelationController{
		relation: follows,
		notFound: "User not found",
		render: func(c *gin.Context, viewer services.Viewer, id uint) (interface{}, error) {
			return users.FollowCard(c.Request.Context(), viewer, id, recipesLimit(c))
		},
	}
}

// Add godoc
// @Summary Add a recipe to favorites, the shopping cart, or subscribe to an author
// @Tags relations
// @Produce json
// @Param id path int true "Recipe or user ID"
// @Param recipes_limit query int false "Recipes in the follow card (subscribe only)"
// @Success 201 {object} serializers.ShortRecipe
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/{id}/favorite/ [post]
// @Router /api/recipes/{id}/shopping_cart/ [post]
// @Router /api/users/{id}/subscribe/ [post]
func (rc *RelationController) Add(c *gin.Context) {
	targetID, ok := pathID(c, rc.notFound)
	if !ok {
		return
	}
	viewer := viewerFrom(c)
	if err := rc.relation.Add(c.Request.Context(), viewer.ID, targetID); err != nil {
		respondError(c, err)
		return
	}

	body, err := rc.render(c, viewer, targetID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, body)
}

// Remove godoc
// @Summary Remove a recipe from favorites, the shopping cart, or unsubscribe
// @Tags relations
// @Param id path int true "Recipe or user ID"
// @Success 204
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/{id}/favorite/ [delete]
// @Router /api/recipes/{id}/shopping_cart/ [delete]
// @Router /api/users/{id}/subscribe/ [delete]
func (rc *RelationController) Remove(c *gin.Context) {
	targetID, ok := pathID(c, rc.notFound)
	if !ok {
		return
	}
	if err := rc.relation.Remove(c.Request.Context(), viewerFrom(c).ID, targetID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
