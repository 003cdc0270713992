package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/middleware"
)

// Handlers groups every controller mounted under /api
type Handlers struct {
	Recipes       RecipeController
	Favorites     *RelationController
	Cart          *RelationController
	Subscriptions *RelationController
	Users         UserController
	Catalog       CatalogController
	Auth          *AuthController
	Clients       *ClientController
	// OAuthToken serves the OAuth2 token endpoint for third-party clients
	OAuthToken gin.HandlerFunc
}

// RegisterRoutes mounts the API on api. createLimit guards recipe creation
// and may be nil.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, auth *middleware.Authenticator, createLimit gin.HandlerFunc) {
	api.Use(auth.OptionalAuth())
	requireAuth := auth.RequireAuth()
	staffOnly := []gin.HandlerFunc{requireAuth, middleware.RequireRole("admin")}

	authApi := api.Group("/auth")
	{
		authApi.POST("/token/login/", h.Auth.Login)
		authApi.POST("/token/logout/", requireAuth, h.Auth.Logout)
		if h.OAuthToken != nil {
			authApi.POST("/oauth/token", h.OAuthToken)
		}
		if h.Clients != nil {
			clients := authApi.Group("/clients", staffOnly...)
			clients.GET("/", h.Clients.ListClients)
			clients.POST("/", h.Clients.CreateClient)
			clients.DELETE("/:id/", h.Clients.DeleteClient)
		}
	}

	users := api.Group("/users")
	{
		users.GET("/", h.Users.GetUsers)
		users.POST("/", h.Users.Register)
		users.GET("/me/", requireAuth, h.Users.Me)
		users.PUT("/me/avatar/", requireAuth, h.Users.SetAvatar)
		users.DELETE("/me/avatar/", requireAuth, h.Users.DeleteAvatar)
		users.POST("/set_password/", requireAuth, h.Users.SetPassword)
		users.GET("/subscriptions/", requireAuth, h.Users.Subscriptions)
		users.GET("/:id/", h.Users.GetUserByID)
		users.POST("/:id/subscribe/", requireAuth, h.Subscriptions.Add)
		users.DELETE("/:id/subscribe/", requireAuth, h.Subscriptions.Remove)
	}

	recipes := api.Group("/recipes")
	{
		recipes.GET("/", h.Recipes.GetRecipes)
		create := []gin.HandlerFunc{requireAuth}
		if createLimit != nil {
			create = append(create, createLimit)
		}
		recipes.POST("/", append(create, h.Recipes.CreateRecipe)...)
		recipes.GET("/download_shopping_cart/", requireAuth, h.Recipes.DownloadShoppingCart)
		recipes.GET("/:id/", h.Recipes.GetRecipeByID)
		recipes.PATCH("/:id/", requireAuth, h.Recipes.UpdateRecipe)
		recipes.DELETE("/:id/", requireAuth, h.Recipes.DeleteRecipe)
		recipes.GET("/:id/get-link/", h.Recipes.GetLink)
		recipes.POST("/:id/favorite/", requireAuth, h.Favorites.Add)
		recipes.DELETE("/:id/favorite/", requireAuth, h.Favorites.Remove)
		recipes.POST("/:id/shopping_cart/", requireAuth, h.Cart.Add)
		recipes.DELETE("/:id/shopping_cart/", requireAuth, h.Cart.Remove)
	}

	ingredients := api.Group("/ingredients")
	{
		ingredients.GET("/", h.Catalog.GetIngredients)
		ingredients.GET("/:id/", h.Catalog.GetIngredientByID)
		ingredients.POST("/", append(staffOnly, h.Catalog.CreateIngredient)...)
	}

	tags := api.Group("/tags")
	{
		tags.GET("/", h.Catalog.GetTags)
		tags.GET("/:id/", h.Catalog.GetTagByID)
		tags.POST("/", append(staffOnly, h.Catalog.CreateTag)...)
	}
}
