package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
)

// RelationService toggles a (user, target) edge such as a favorite, a cart
// item or a follow.
type RelationService interface {
	// Add creates the edge. The target must exist and the edge must not.
	Add(ctx context.Context, userID, targetID uint) error
	// Remove deletes the edge. The target must exist and the edge must too.
	Remove(ctx context.Context, userID, targetID uint) error
	// Exists reports whether the edge is present
	Exists(ctx context.Context, userID, targetID uint) (bool, error)
	// Marked returns which of targetIDs have an edge from userID
	Marked(ctx context.Context, userID uint, targetIDs []uint) (map[uint]bool, error)
	// TargetIDs lists every target userID has an edge to, oldest first
	TargetIDs(ctx context.Context, userID uint) ([]uint, error)
}

// Relation describes one kind of edge. E is the gorm model of the edge table,
// which always has a user_id column plus TargetColumn.
type Relation[E any] struct {
	TargetTable  string
	TargetColumn string
	// TargetName is used in not found messages
	TargetName string
	New        func(userID, targetID uint) *E

	ConflictMessage string
	MissingMessage  string
	// SelfMessage, when set, forbids edges where userID == targetID
	SelfMessage string
}

type relationService[E any] struct {
	db  *gorm.DB
	rel Relation[E]
}

// NewRelationService builds a RelationService for the edge described by rel
func NewRelationService[E any](db *gorm.DB, rel Relation[E]) RelationService {
	return &relationService[E]{db: db, rel: rel}
}

func NewFavoriteService(db *gorm.DB) RelationService {
	return NewRelationService(db, Relation[models.Favorite]{
		TargetTable:  "recipes",
		TargetColumn: "recipe_id",
		TargetName:   "Recipe",
		New: func(userID, recipeID uint) *models.Favorite {
			return &models.Favorite{UserID: userID, RecipeID: recipeID}
		},
		ConflictMessage: "Recipe is already in favorites",
		MissingMessage:  "Recipe was not in favorites",
	})
}

func NewCartService(db *gorm.DB) RelationService {
	return NewRelationService(db, Relation[models.Cart]{
		TargetTable:  "recipes",
		TargetColumn: "recipe_id",
		TargetName:   "Recipe",
		New: func(userID, recipeID uint) *models.Cart {
			return &models.Cart{UserID: userID, RecipeID: recipeID}
		},
		ConflictMessage: "Recipe is already in the shopping cart",
		MissingMessage:  "Recipe was not in the shopping cart",
	})
}

func NewFollowService(db *gorm.DB) RelationService {
	return NewRelationService(db, Relation[models.Follow]{
		TargetTable:  "users",
		TargetColumn: "author_id",
		TargetName:   "User",
		New: func(userID, authorID uint) *models.Follow {
			return &models.Follow{UserID: userID, AuthorID: authorID}
		},
		ConflictMessage: "You are already following this user",
		MissingMessage:  "You were not following this user",
		SelfMessage:     "You cannot follow yourself",
	})
}

func (s *relationService[E]) Add(ctx context.Context, userID, targetID uint) error {
	db := s.db.WithContext(ctx)
	if err := s.requireTarget(db, targetID); err != nil {
		return err
	}
	if s.rel.SelfMessage != "" && userID == targetID {
		return Invalid(s.rel.SelfMessage)
	}

	exists, err := s.exists(db, userID, targetID)
	if err != nil {
		return err
	}
	if exists {
		return Conflict(s.rel.ConflictMessage)
	}

	// The unique index decides when two requests race past the check above
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(s.rel.New(userID, targetID))
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return Conflict(s.rel.ConflictMessage)
	}
	if res.Error != nil {
		return fmt.Errorf("failed to add %s relation: %w", s.rel.TargetColumn, res.Error)
	}
	if res.RowsAffected == 0 {
		return Conflict(s.rel.ConflictMessage)
	}
	return nil
}

func (s *relationService[E]) Remove(ctx context.Context, userID, targetID uint) error {
	db := s.db.WithContext(ctx)
	if err := s.requireTarget(db, targetID); err != nil {
		return err
	}

	res := db.Where("user_id = ? AND "+s.rel.TargetColumn+" = ?", userID, targetID).Delete(new(E))
	if res.Error != nil {
		return fmt.Errorf("failed to remove %s relation: %w", s.rel.TargetColumn, res.Error)
	}
	if res.RowsAffected == 0 {
		return Invalid(s.rel.MissingMessage)
	}
	return nil
}

func (s *relationService[E]) Exists(ctx context.Context, userID, targetID uint) (bool, error) {
	return s.exists(s.db.WithContext(ctx), userID, targetID)
}

func (s *relationService[E]) Marked(ctx context.Context, userID uint, targetIDs []uint) (map[uint]bool, error) {
	marked := make(map[uint]bool, len(targetIDs))
	if userID == 0 || len(targetIDs) == 0 {
		return marked, nil
	}

	var found []uint
	err := s.db.WithContext(ctx).Model(new(E)).
		Where("user_id = ? AND "+s.rel.TargetColumn+" IN ?", userID, targetIDs).
		Pluck(s.rel.TargetColumn, &found).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load %s relations: %w", s.rel.TargetColumn, err)
	}
	for _, id := range found {
		marked[id] = true
	}
	return marked, nil
}

func (s *relationService[E]) TargetIDs(ctx context.Context, userID uint) ([]uint, error) {
	ids := []uint{}
	err := s.db.WithContext(ctx).Model(new(E)).
		Where("user_id = ?", userID).
		Order("id").
		Pluck(s.rel.TargetColumn, &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s relations: %w", s.rel.TargetColumn, err)
	}
	return ids, nil
}

func (s *relationService[E]) exists(db *gorm.DB, userID, targetID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	var count int64
	err := db.Model(new(E)).
		Where("user_id = ? AND "+s.rel.TargetColumn+" = ?", userID, targetID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check %s relation: %w", s.rel.TargetColumn, err)
	}
	return count > 0, nil
}

func (s *relationService[E]) requireTarget(db *gorm.DB, targetID uint) error {
	var count int64
	if err := db.Table(s.rel.TargetTable).Where("id = ?", targetID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up %s: %w", s.rel.TargetTable, err)
	}
	if count == 0 {
		return NotFound(s.rel.TargetName + " not found")
	}
	return nil
}
