package serializers

import "github.com/franciscosanchezn/gin-foodgram-api/internal/models"

// UserRead is the public profile of a user as seen by a viewer
type UserRead struct {
	Email        string  `json:"email"`
	ID           uint    `json:"id"`
	Username     string  `json:"username"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	IsSubscribed bool    `json:"is_subscribed"`
	Avatar       *string `json:"avatar"`
}

// UserCreated is returned by registration; it carries no viewer flags
type UserCreated struct {
	Email     string `json:"email"`
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type TagRead struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type IngredientRead struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

type IngredientAmountRead struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// RecipeRead is the only shape recipes are returned in, including the
// responses to create and update.
type RecipeRead struct {
	ID               uint                   `json:"id"`
	Tags             []TagRead              `json:"tags"`
	Author           UserRead               `json:"author"`
	Ingredients      []IngredientAmountRead `json:"ingredients"`
	IsFavorited      bool                   `json:"is_favorited"`
	IsInShoppingCart bool                   `json:"is_in_shopping_cart"`
	Name             string                 `json:"name"`
	Image            string                 `json:"image"`
	Text             string                 `json:"text"`
	CookingTime      int                    `json:"cooking_time"`
}

// ShortRecipe is the minimal recipe form used by relation responses and
// follow cards
type ShortRecipe struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// FollowCard is a followed author with a preview of their recipes
type FollowCard struct {
	UserRead
	Recipes      []ShortRecipe `json:"recipes"`
	RecipesCount int64         `json:"recipes_count"`
}

// ViewerFlags are the per-viewer booleans of a recipe. All false for anonymous viewers.
type ViewerFlags struct {
	IsSubscribed     bool
	IsFavorited      bool
	IsInShoppingCart bool
}

func UserToRead(u models.User, isSubscribed bool) UserRead {
	var avatar *string
	if u.Avatar != "" {
		a := u.Avatar
		avatar = &a
	}
	return UserRead{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: isSubscribed,
		Avatar:       avatar,
	}
}

func UserToCreated(u models.User) UserCreated {
	return UserCreated{
		Email:     u.Email,
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func TagToRead(t models.Tag) TagRead {
	return TagRead{ID: t.ID, Name: t.Name, Slug: t.Slug}
}

func IngredientToRead(i models.Ingredient) IngredientRead {
	return IngredientRead{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

// RecipeToRead flattens a recipe with preloaded Author, Tags and
// Ingredients.Ingredient into its read shape. Ingredient order follows the
// join rows.
func RecipeToRead(r models.Recipe, flags ViewerFlags) RecipeRead {
	tags := make([]TagRead, 0, len(r.Tags))
	for _, t := range r.Tags {
		tags = append(tags, TagToRead(t))
	}

	ingredients := make([]IngredientAmountRead, 0, len(r.Ingredients))
	for _, ri := range r.Ingredients {
		ingredients = append(ingredients, IngredientAmountRead{
			ID:              ri.IngredientID,
			Name:            ri.Ingredient.Name,
			MeasurementUnit: ri.Ingredient.MeasurementUnit,
			Amount:          ri.Amount,
		})
	}

	return RecipeRead{
		ID:               r.ID,
		Tags:             tags,
		Author:           UserToRead(r.Author, flags.IsSubscribed),
		Ingredients:      ingredients,
		IsFavorited:      flags.IsFavorited,
		IsInShoppingCart: flags.IsInShoppingCart,
		Name:             r.Name,
		Image:            r.Image,
		Text:             r.Text,
		CookingTime:      r.CookingTime,
	}
}

func RecipeToShort(r models.Recipe) ShortRecipe {
	return ShortRecipe{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

func UserToFollowCard(u models.User, isSubscribed bool, recipes []models.Recipe, count int64) FollowCard {
	short := make([]ShortRecipe, 0, len(recipes))
	for _, r := range recipes {
		short = append(short, RecipeToShort(r))
	}
	return FollowCard{
		UserRead:     UserToRead(u, isSubscribed),
		Recipes:      short,
		RecipesCount: count,
	}
}
