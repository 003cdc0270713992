package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/serializers"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/storage"
)

// Messages for references that passed shape validation but do not exist
const (
	MsgUnknownTag        = "Tag %d does not exist."
	MsgUnknownIngredient = "Ingredient %d does not exist."
	MsgUnknownTagSlug    = "Select a valid choice. %s is not one of the available choices."
)

// RecipeFilter narrows a recipe listing. OnlyFavorited and OnlyInCart are
// ignored for anonymous viewers.
type RecipeFilter struct {
	AuthorID      *uint
	TagSlugs      []string
	OnlyFavorited bool
	OnlyInCart    bool
}

// RecipeService provides the recipe aggregate: the recipe row, its tag set and
// its ingredient amounts.
type RecipeService interface {
	// List returns recipes newest first with flags computed for viewer
	List(ctx context.Context, viewer Viewer, filter RecipeFilter) ([]serializers.RecipeRead, error)
	// Get returns one recipe in read shape
	Get(ctx context.Context, viewer Viewer, id uint) (serializers.RecipeRead, error)
	// Create validates the payload and stores a recipe authored by viewer
	Create(ctx context.Context, viewer Viewer, payload serializers.RecipeWrite) (serializers.RecipeRead, error)
	// Update replaces the recipe's tags and ingredients and its scalar fields
	Update(ctx context.Context, viewer Viewer, id uint, payload serializers.RecipeWrite) (serializers.RecipeRead, error)
	// Delete removes the recipe and every row that references it
	Delete(ctx context.Context, viewer Viewer, id uint) error
	// Short returns the minimal form used by relation responses
	Short(ctx context.Context, id uint) (serializers.ShortRecipe, error)
}

type recipeService struct {
	db             *gorm.DB
	store          storage.ImageStore
	favorites      RelationService
	cart           RelationService
	follows        RelationService
	maxCookingTime int
}

// NewRecipeService creates a new instance of RecipeService
func NewRecipeService(db *gorm.DB, store storage.ImageStore, favorites, cart, follows RelationService, maxCookingTime int) RecipeService {
	return &recipeService{
		db:             db,
		store:          store,
		favorites:      favorites,
		cart:           cart,
		follows:        follows,
		maxCookingTime: maxCookingTime,
	}
}

// withAggregate preloads everything RecipeToRead needs
func withAggregate(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(tx *gorm.DB) *gorm.DB { return tx.Order("tags.id") }).
		Preload("Ingredients", func(tx *gorm.DB) *gorm.DB { return tx.Order("recipe_ingredients.id") }).
		Preload("Ingredients.Ingredient")
}

func (s *recipeService) List(ctx context.Context, viewer Viewer, filter RecipeFilter) ([]serializers.RecipeRead, error) {
	db := s.db.WithContext(ctx)
	q := withAggregate(db.Model(&models.Recipe{}))

	if filter.AuthorID != nil {
		q = q.Where("recipes.author_id = ?", *filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		if err := s.checkTagSlugs(db, filter.TagSlugs); err != nil {
			return nil, err
		}
		// Every slug must match, one subquery per slug
		for _, slug := range filter.TagSlugs {
			q = q.Where("recipes.id IN (?)", db.Table("recipe_tags").
				Select("recipe_tags.recipe_id").
				Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
				Where("tags.slug = ?", slug))
		}
	}
	if viewer.Authenticated() {
		if filter.OnlyFavorited {
			q = q.Where("recipes.id IN (?)", db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", viewer.ID))
		}
		if filter.OnlyInCart {
			q = q.Where("recipes.id IN (?)", db.Model(&models.Cart{}).Select("recipe_id").Where("user_id = ?", viewer.ID))
		}
	}

	var recipes []models.Recipe
	if err := q.Order("recipes.pub_date DESC").Order("recipes.id DESC").Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return s.toRead(ctx, viewer, recipes)
}

func (s *recipeService) Get(ctx context.Context, viewer Viewer, id uint) (serializers.RecipeRead, error) {
	recipe, err := s.load(s.db.WithContext(ctx), id)
	if err != nil {
		return serializers.RecipeRead{}, err
	}
	reads, err := s.toRead(ctx, viewer, []models.Recipe{recipe})
	if err != nil {
		return serializers.RecipeRead{}, err
	}
	return reads[0], nil
}

func (s *recipeService) Create(ctx context.Context, viewer Viewer, payload serializers.RecipeWrite) (serializers.RecipeRead, error) {
	if !viewer.Authenticated() {
		return serializers.RecipeRead{}, Forbidden("Authentication credentials were not provided")
	}
	db := s.db.WithContext(ctx)

	in, tags, err := s.validate(db, payload, true)
	if err != nil {
		return serializers.RecipeRead{}, err
	}

	imageURL, err := s.saveImage(ctx, in.Image)
	if err != nil {
		return serializers.RecipeRead{}, err
	}

	recipe := models.Recipe{
		AuthorID:    viewer.ID,
		Name:        in.Name,
		Text:        in.Text,
		Image:       imageURL,
		CookingTime: in.CookingTime,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}
		if err := tx.Model(&recipe).Association("Tags").Replace(tags); err != nil {
			return fmt.Errorf("failed to set recipe tags: %w", err)
		}
		return insertIngredients(tx, recipe.ID, in.Ingredients)
	})
	if err != nil {
		s.discardImage(ctx, imageURL)
		return serializers.RecipeRead{}, err
	}

	log.WithFields(logrus.Fields{
		"recipe_id": recipe.ID,
		"author_id": viewer.ID,
	}).Info("Recipe created")
	return s.Get(ctx, viewer, recipe.ID)
}

func (s *recipeService) Update(ctx context.Context, viewer Viewer, id uint, payload serializers.RecipeWrite) (serializers.RecipeRead, error) {
	db := s.db.WithContext(ctx)

	recipe, err := s.owned(db, viewer, id)
	if err != nil {
		return serializers.RecipeRead{}, err
	}

	// Omitted scalar fields keep their stored values; tags and ingredients
	// are always replaced as a whole.
	if payload.Name == nil {
		payload.Name = &recipe.Name
	}
	if payload.Text == nil {
		payload.Text = &recipe.Text
	}
	if payload.CookingTime == nil {
		payload.CookingTime = &recipe.CookingTime
	}

	in, tags, err := s.validate(db, payload, false)
	if err != nil {
		return serializers.RecipeRead{}, err
	}

	oldImage := recipe.Image
	imageURL := oldImage
	if in.Image != nil {
		if imageURL, err = s.saveImage(ctx, in.Image); err != nil {
			return serializers.RecipeRead{}, err
		}
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&recipe).Association("Tags").Replace(tags); err != nil {
			return fmt.Errorf("failed to replace recipe tags: %w", err)
		}
		// Full replace: existing amounts are dropped and the new list inserted
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return fmt.Errorf("failed to clear recipe ingredients: %w", err)
		}
		if err := insertIngredients(tx, recipe.ID, in.Ingredients); err != nil {
			return err
		}
		return tx.Model(&recipe).Omit(clause.Associations).Updates(map[string]any{
			"name":         in.Name,
			"text":         in.Text,
			"cooking_time": in.CookingTime,
			"image":        imageURL,
		}).Error
	})
	if err != nil {
		if imageURL != oldImage {
			s.discardImage(ctx, imageURL)
		}
		return serializers.RecipeRead{}, err
	}
	if imageURL != oldImage {
		s.discardImage(ctx, oldImage)
	}

	return s.Get(ctx, viewer, recipe.ID)
}

func (s *recipeService) Delete(ctx context.Context, viewer Viewer, id uint) error {
	db := s.db.WithContext(ctx)

	recipe, err := s.owned(db, viewer, id)
	if err != nil {
		return err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.Favorite{}, &models.Cart{}, &models.RecipeIngredient{}} {
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(model).Error; err != nil {
				return fmt.Errorf("failed to delete recipe references: %w", err)
			}
		}
		if err := tx.Model(&recipe).Association("Tags").Clear(); err != nil {
			return fmt.Errorf("failed to clear recipe tags: %w", err)
		}
		return tx.Delete(&recipe).Error
	})
	if err != nil {
		return err
	}

	s.discardImage(ctx, recipe.Image)
	log.WithFields(logrus.Fields{"recipe_id": recipe.ID, "deleted_by": viewer.ID}).Info("Recipe deleted")
	return nil
}

func (s *recipeService) Short(ctx context.Context, id uint) (serializers.ShortRecipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return serializers.ShortRecipe{}, NotFound("Recipe not found")
		}
		return serializers.ShortRecipe{}, err
	}
	return serializers.RecipeToShort(recipe), nil
}

func (s *recipeService) load(db *gorm.DB, id uint) (models.Recipe, error) {
	var recipe models.Recipe
	if err := withAggregate(db).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Recipe{}, NotFound("Recipe not found")
		}
		return models.Recipe{}, fmt.Errorf("failed to load recipe %d: %w", id, err)
	}
	return recipe, nil
}

// owned loads the bare recipe row and checks that viewer may change it
func (s *recipeService) owned(db *gorm.DB, viewer Viewer, id uint) (models.Recipe, error) {
	var recipe models.Recipe
	if err := db.First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Recipe{}, NotFound("Recipe not found")
		}
		return models.Recipe{}, err
	}
	if !viewer.canModify(recipe.AuthorID) {
		return models.Recipe{}, Forbidden("You do not have permission to modify this recipe")
	}
	return recipe, nil
}

// validate runs payload validation and then resolves tag and ingredient ids.
// The returned tags follow the payload order.
func (s *recipeService) validate(db *gorm.DB, payload serializers.RecipeWrite, creating bool) (serializers.RecipeInput, []models.Tag, error) {
	in, err := payload.Validate(serializers.WriteRules{MaxCookingTime: s.maxCookingTime, RequireImage: creating})
	if err != nil {
		return serializers.RecipeInput{}, nil, fieldsError("Invalid recipe payload", err)
	}

	errs := serializers.FieldErrors{}

	var found []models.Tag
	if err := db.Where("id IN ?", in.TagIDs).Find(&found).Error; err != nil {
		return serializers.RecipeInput{}, nil, fmt.Errorf("failed to load tags: %w", err)
	}
	byID := make(map[uint]models.Tag, len(found))
	for _, t := range found {
		byID[t.ID] = t
	}
	tags := make([]models.Tag, 0, len(in.TagIDs))
	for _, id := range in.TagIDs {
		t, ok := byID[id]
		if !ok {
			errs.Add("tags", fmt.Sprintf(MsgUnknownTag, id))
			continue
		}
		tags = append(tags, t)
	}

	ingredientIDs := make([]uint, 0, len(in.Ingredients))
	for _, item := range in.Ingredients {
		ingredientIDs = append(ingredientIDs, item.IngredientID)
	}
	var known []uint
	if err := db.Model(&models.Ingredient{}).Where("id IN ?", ingredientIDs).Pluck("id", &known).Error; err != nil {
		return serializers.RecipeInput{}, nil, fmt.Errorf("failed to load ingredients: %w", err)
	}
	exists := make(map[uint]bool, len(known))
	for _, id := range known {
		exists[id] = true
	}
	for _, id := range ingredientIDs {
		if !exists[id] {
			errs.Add("ingredients", fmt.Sprintf(MsgUnknownIngredient, id))
		}
	}

	if len(errs) > 0 {
		return serializers.RecipeInput{}, nil, InvalidFields("Invalid recipe payload", errs)
	}
	return in, tags, nil
}

func (s *recipeService) checkTagSlugs(db *gorm.DB, slugs []string) error {
	var known []string
	if err := db.Model(&models.Tag{}).Where("slug IN ?", slugs).Pluck("slug", &known).Error; err != nil {
		return fmt.Errorf("failed to load tags: %w", err)
	}
	exists := make(map[string]bool, len(known))
	for _, slug := range known {
		exists[slug] = true
	}
	errs := serializers.FieldErrors{}
	for _, slug := range slugs {
		if !exists[slug] {
			errs.Add("tags", fmt.Sprintf(MsgUnknownTagSlug, slug))
		}
	}
	if len(errs) > 0 {
		return InvalidFields("Invalid filter", errs)
	}
	return nil
}

func insertIngredients(tx *gorm.DB, recipeID uint, items []serializers.IngredientAmount) error {
	rows := make([]models.RecipeIngredient, 0, len(items))
	for _, item := range items {
		rows = append(rows, models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: item.IngredientID,
			Amount:       item.Amount,
		})
	}
	if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to insert recipe ingredients: %w", err)
	}
	return nil
}

// toRead computes the viewer flags for recipes with three batched lookups
func (s *recipeService) toRead(ctx context.Context, viewer Viewer, recipes []models.Recipe) ([]serializers.RecipeRead, error) {
	ids := make([]uint, 0, len(recipes))
	authorIDs := make([]uint, 0, len(recipes))
	for _, r := range recipes {
		ids = append(ids, r.ID)
		authorIDs = append(authorIDs, r.AuthorID)
	}

	favorited, err := s.favorites.Marked(ctx, viewer.ID, ids)
	if err != nil {
		return nil, err
	}
	inCart, err := s.cart.Marked(ctx, viewer.ID, ids)
	if err != nil {
		return nil, err
	}
	following, err := s.follows.Marked(ctx, viewer.ID, authorIDs)
	if err != nil {
		return nil, err
	}

	out := make([]serializers.RecipeRead, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, serializers.RecipeToRead(r, serializers.ViewerFlags{
			IsSubscribed:     following[r.AuthorID],
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
		}))
	}
	return out, nil
}

func (s *recipeService) saveImage(ctx context.Context, img *serializers.Image) (string, error) {
	key := storage.ObjectKey(storage.RecipeImagePrefix, img.Ext)
	url, err := s.store.Save(ctx, key, img.Data, img.ContentType)
	if err != nil {
		return "", fmt.Errorf("failed to store recipe image: %w", err)
	}
	return url, nil
}

// discardImage removes an image that no row points at anymore. Failures only
// leave an orphaned file behind, so they are logged.
func (s *recipeService) discardImage(ctx context.Context, url string) {
	key, ok := s.store.KeyFromURL(url)
	if !ok {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		log.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Failed to delete image")
	}
}
