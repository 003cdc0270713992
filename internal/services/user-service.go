package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/serializers"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/storage"
)

const (
	MsgEmailTaken         = "A user with that email already exists."
	MsgUsernameTaken      = "A user with that username already exists."
	MsgInvalidCredentials = "Unable to log in with provided credentials."
	MsgWrongPassword      = "Invalid password."
)

type UserService interface {
	// Register creates an account from a bound registration payload
	Register(ctx context.Context, payload serializers.UserWrite) (serializers.UserCreated, error)
	// Authenticate checks an email and password pair
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	// Profile returns a user as seen by viewer
	Profile(ctx context.Context, viewer Viewer, id uint) (serializers.UserRead, error)
	List(ctx context.Context, viewer Viewer) ([]serializers.UserRead, error)
	SetPassword(ctx context.Context, viewer Viewer, payload serializers.PasswordWrite) error
	// SetAvatar stores a base64 data URI and returns the avatar URL
	SetAvatar(ctx context.Context, viewer Viewer, dataURI string) (string, error)
	DeleteAvatar(ctx context.Context, viewer Viewer) error
	// Subscriptions lists the authors viewer follows. recipesLimit caps each
	// card's recipe preview; nil means no cap.
	Subscriptions(ctx context.Context, viewer Viewer, recipesLimit *int) ([]serializers.FollowCard, error)
	// FollowCard renders a single author the way Subscriptions does
	FollowCard(ctx context.Context, viewer Viewer, authorID uint, recipesLimit *int) (serializers.FollowCard, error)
}

type userService struct {
	db      *gorm.DB
	store   storage.ImageStore
	follows RelationService
}

func NewUserService(db *gorm.DB, store storage.ImageStore, follows RelationService) UserService {
	return &userService{db: db, store: store, follows: follows}
}

func (s *userService) Register(ctx context.Context, payload serializers.UserWrite) (serializers.UserCreated, error) {
	if err := payload.Validate(); err != nil {
		return serializers.UserCreated{}, fieldsError("Invalid registration payload", err)
	}
	db := s.db.WithContext(ctx)

	errs, err := s.takenFields(db, payload.Email, payload.Username)
	if err != nil {
		return serializers.UserCreated{}, err
	}
	if len(errs) > 0 {
		return serializers.UserCreated{}, InvalidFields("Invalid registration payload", errs)
	}

	user := models.User{
		Email:     payload.Email,
		Username:  payload.Username,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
	}
	if err := user.SetPassword(payload.Password); err != nil {
		return serializers.UserCreated{}, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := db.Create(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return serializers.UserCreated{}, fmt.Errorf("failed to create user: %w", err)
		}
		// Another registration took the email or username after the check
		// above; report it the same way.
		errs, lookupErr := s.takenFields(db, payload.Email, payload.Username)
		if lookupErr != nil {
			return serializers.UserCreated{}, lookupErr
		}
		if len(errs) == 0 {
			errs.Add("email", MsgEmailTaken)
			errs.Add("username", MsgUsernameTaken)
		}
		return serializers.UserCreated{}, InvalidFields("Invalid registration payload", errs)
	}

	log.WithFields(logrus.Fields{"user_id": user.ID}).Info("User registered")
	return serializers.UserToCreated(user), nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Invalid(MsgInvalidCredentials)
		}
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, Invalid(MsgInvalidCredentials)
	}
	return &user, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("User not found")
		}
		return nil, err
	}
	return &user, nil
}

func (s *userService) Profile(ctx context.Context, viewer Viewer, id uint) (serializers.UserRead, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return serializers.UserRead{}, err
	}
	subscribed, err := s.follows.Exists(ctx, viewer.ID, user.ID)
	if err != nil {
		return serializers.UserRead{}, err
	}
	return serializers.UserToRead(*user, subscribed), nil
}

func (s *userService) List(ctx context.Context, viewer Viewer) ([]serializers.UserRead, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	following, err := s.follows.Marked(ctx, viewer.ID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]serializers.UserRead, 0, len(users))
	for _, u := range users {
		out = append(out, serializers.UserToRead(u, following[u.ID]))
	}
	return out, nil
}

func (s *userService) SetPassword(ctx context.Context, viewer Viewer, payload serializers.PasswordWrite) error {
	user, err := s.GetUserByID(ctx, viewer.ID)
	if err != nil {
		return err
	}
	if !user.CheckPassword(payload.CurrentPassword) {
		errs := serializers.FieldErrors{}
		errs.Add("current_password", MsgWrongPassword)
		return InvalidFields("Invalid password change", errs)
	}
	if err := user.SetPassword(payload.NewPassword); err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.db.WithContext(ctx).Model(user).Update("password", user.Password).Error
}

func (s *userService) SetAvatar(ctx context.Context, viewer Viewer, dataURI string) (string, error) {
	img, err := serializers.DecodeBase64Image(dataURI)
	if err != nil {
		errs := serializers.FieldErrors{}
		errs.Add("avatar", serializers.MsgInvalidImage)
		return "", InvalidFields("Invalid avatar", errs)
	}
	user, err := s.GetUserByID(ctx, viewer.ID)
	if err != nil {
		return "", err
	}

	url, err := s.store.Save(ctx, storage.ObjectKey(storage.AvatarPrefix, img.Ext), img.Data, img.ContentType)
	if err != nil {
		return "", fmt.Errorf("failed to store avatar: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(user).Update("avatar", url).Error; err != nil {
		s.discardAvatar(ctx, url)
		return "", fmt.Errorf("failed to save avatar: %w", err)
	}
	s.discardAvatar(ctx, user.Avatar)
	return url, nil
}

func (s *userService) DeleteAvatar(ctx context.Context, viewer Viewer) error {
	user, err := s.GetUserByID(ctx, viewer.ID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("avatar", "").Error; err != nil {
		return fmt.Errorf("failed to clear avatar: %w", err)
	}
	s.discardAvatar(ctx, user.Avatar)
	return nil
}

func (s *userService) Subscriptions(ctx context.Context, viewer Viewer, recipesLimit *int) ([]serializers.FollowCard, error) {
	var authors []models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN follows ON follows.author_id = users.id").
		Where("follows.user_id = ?", viewer.ID).
		Order("follows.id").
		Find(&authors).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	subscribed := make(map[uint]bool, len(authors))
	for _, a := range authors {
		subscribed[a.ID] = true
	}
	return s.cards(ctx, authors, subscribed, recipesLimit)
}

func (s *userService) FollowCard(ctx context.Context, viewer Viewer, authorID uint, recipesLimit *int) (serializers.FollowCard, error) {
	author, err := s.GetUserByID(ctx, authorID)
	if err != nil {
		return serializers.FollowCard{}, err
	}
	subscribed, err := s.follows.Exists(ctx, viewer.ID, authorID)
	if err != nil {
		return serializers.FollowCard{}, err
	}
	cards, err := s.cards(ctx, []models.User{*author}, map[uint]bool{authorID: subscribed}, recipesLimit)
	if err != nil {
		return serializers.FollowCard{}, err
	}
	return cards[0], nil
}

// cards builds follow cards with one count query and one recipe query
func (s *userService) cards(ctx context.Context, authors []models.User, subscribed map[uint]bool, recipesLimit *int) ([]serializers.FollowCard, error) {
	out := make([]serializers.FollowCard, 0, len(authors))
	if len(authors) == 0 {
		return out, nil
	}
	db := s.db.WithContext(ctx)

	ids := make([]uint, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}

	var counts []struct {
		AuthorID uint
		Total    int64
	}
	err := db.Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", ids).
		Group("author_id").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}
	totals := make(map[uint]int64, len(counts))
	for _, c := range counts {
		totals[c.AuthorID] = c.Total
	}

	byAuthor := make(map[uint][]models.Recipe, len(authors))
	if recipesLimit == nil || *recipesLimit > 0 {
		var recipes []models.Recipe
		err := db.Where("author_id IN ?", ids).
			Order("pub_date DESC").Order("id DESC").
			Find(&recipes).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load recipes: %w", err)
		}
		for _, r := range recipes {
			if recipesLimit != nil && len(byAuthor[r.AuthorID]) >= *recipesLimit {
				continue
			}
			byAuthor[r.AuthorID] = append(byAuthor[r.AuthorID], r)
		}
	}

	for _, a := range authors {
		out = append(out, serializers.UserToFollowCard(a, subscribed[a.ID], byAuthor[a.ID], totals[a.ID]))
	}
	return out, nil
}

// takenFields reports which of email and username already belong to a user
func (s *userService) takenFields(db *gorm.DB, email, username string) (serializers.FieldErrors, error) {
	errs := serializers.FieldErrors{}
	if taken, err := s.taken(db, "email", email); err != nil {
		return nil, err
	} else if taken {
		errs.Add("email", MsgEmailTaken)
	}
	if taken, err := s.taken(db, "username", username); err != nil {
		return nil, err
	} else if taken {
		errs.Add("username", MsgUsernameTaken)
	}
	return errs, nil
}

func (s *userService) taken(db *gorm.DB, column, value string) (bool, error) {
	var count int64
	if err := db.Model(&models.User{}).Where(column+" = ?", value).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check %s: %w", column, err)
	}
	return count > 0, nil
}

func (s *userService) discardAvatar(ctx context.Context, url string) {
	key, ok := s.store.KeyFromURL(url)
	if !ok {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		log.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Failed to delete avatar")
	}
}

// fieldsError wraps serializer field errors into a validation error
func fieldsError(message string, err error) error {
	var fe serializers.FieldErrors
	if errors.As(err, &fe) {
		return InvalidFields(message, fe)
	}
	return err
}
