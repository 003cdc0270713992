package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/serializers"
)

// CatalogService serves the reference data recipes are built from
type CatalogService interface {
	// ListIngredients returns ingredients whose name starts with prefix,
	// ignoring case, ordered by name
	ListIngredients(ctx context.Context, prefix string) ([]serializers.IngredientRead, error)
	GetIngredient(ctx context.Context, id uint) (serializers.IngredientRead, error)
	CreateIngredient(ctx context.Context, payload serializers.IngredientWrite) (serializers.IngredientRead, error)
	// LoadIngredients inserts a JSON array of ingredients, skipping ones that
	// already exist, and reports how many were added
	LoadIngredients(ctx context.Context, r io.Reader) (int, error)

	ListTags(ctx context.Context) ([]serializers.TagRead, error)
	GetTag(ctx context.Context, id uint) (serializers.TagRead, error)
	CreateTag(ctx context.Context, payload serializers.TagWrite) (serializers.TagRead, error)
}

type catalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) CatalogService {
	return &catalogService{db: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *catalogService) ListIngredients(ctx context.Context, prefix string) ([]serializers.IngredientRead, error) {
	q := s.db.WithContext(ctx).Model(&models.Ingredient{})
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		q = q.Where(`search_name LIKE ? ESCAPE '\'`, likeEscaper.Replace(models.SearchKey(prefix))+"%")
	}

	var ingredients []models.Ingredient
	if err := q.Order("name").Order("id").Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}

	out := make([]serializers.IngredientRead, 0, len(ingredients))
	for _, i := range ingredients {
		out = append(out, serializers.IngredientToRead(i))
	}
	return out, nil
}

func (s *catalogService) GetIngredient(ctx context.Context, id uint) (serializers.IngredientRead, error) {
	var ingredient models.Ingredient
	if err := s.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return serializers.IngredientRead{}, NotFound("Ingredient not found")
		}
		return serializers.IngredientRead{}, err
	}
	return serializers.IngredientToRead(ingredient), nil
}

func (s *catalogService) CreateIngredient(ctx context.Context, payload serializers.IngredientWrite) (serializers.IngredientRead, error) {
	ingredient := models.Ingredient{
		Name:            strings.TrimSpace(payload.Name),
		MeasurementUnit: strings.TrimSpace(payload.MeasurementUnit),
	}
	if err := s.db.WithContext(ctx).Create(&ingredient).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return serializers.IngredientRead{}, Conflict("Ingredient with this name and measurement unit already exists")
		}
		return serializers.IngredientRead{}, fmt.Errorf("failed to create ingredient: %w", err)
	}
	return serializers.IngredientToRead(ingredient), nil
}

func (s *catalogService) LoadIngredients(ctx context.Context, r io.Reader) (int, error) {
	var payload []serializers.IngredientWrite
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return 0, fmt.Errorf("failed to decode ingredients: %w", err)
	}

	rows := make([]models.Ingredient, 0, len(payload))
	for i, item := range payload {
		name, unit := strings.TrimSpace(item.Name), strings.TrimSpace(item.MeasurementUnit)
		if name == "" || unit == "" {
			return 0, fmt.Errorf("ingredient %d: name and measurement_unit are required", i)
		}
		rows = append(rows, models.Ingredient{Name: name, MeasurementUnit: unit})
	}
	if len(rows) == 0 {
		return 0, nil
	}

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&rows, 500)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to load ingredients: %w", res.Error)
	}

	log.WithFields(logrus.Fields{
		"read":     len(rows),
		"inserted": res.RowsAffected,
	}).Info("Ingredients loaded")
	return int(res.RowsAffected), nil
}

func (s *catalogService) ListTags(ctx context.Context) ([]serializers.TagRead, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("id").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	out := make([]serializers.TagRead, 0, len(tags))
	for _, t := range tags {
		out = append(out, serializers.TagToRead(t))
	}
	return out, nil
}

func (s *catalogService) GetTag(ctx context.Context, id uint) (serializers.TagRead, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return serializers.TagRead{}, NotFound("Tag not found")
		}
		return serializers.TagRead{}, err
	}
	return serializers.TagToRead(tag), nil
}

func (s *catalogService) CreateTag(ctx context.Context, payload serializers.TagWrite) (serializers.TagRead, error) {
	if err := payload.Validate(); err != nil {
		return serializers.TagRead{}, fieldsError("Invalid tag payload", err)
	}
	tag := models.Tag{Name: strings.TrimSpace(payload.Name), Slug: payload.Slug}
	if err := s.db.WithContext(ctx).Create(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return serializers.TagRead{}, Conflict("Tag with this name or slug already exists")
		}
		return serializers.TagRead{}, fmt.Errorf("failed to create tag: %w", err)
	}
	return serializers.TagToRead(tag), nil
}
