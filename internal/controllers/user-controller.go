package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/serializers"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/services"
)

// UserController handles accounts, profiles, avatars and subscriptions
type UserController interface {
	Register(c *gin.Context)
	GetUsers(c *gin.Context)
	GetUserByID(c *gin.Context)
	Me(c *gin.Context)
	SetPassword(c *gin.Context)
	SetAvatar(c *gin.Context)
	DeleteAvatar(c *gin.Context)
	Subscriptions(c *gin.Context)
}

type userController struct {
	users services.UserService
}

func NewUserController(users services.UserService) UserController {
	return &userController{users: users}
}

// Register godoc
// @Summary Register a user
// @Tags users
// @Accept json
// @Produce json
// @Param user body serializers.UserWrite true "Registration payload"
// @Success 201 {object} serializers.UserCreated
// @Failure 400 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Router /api/users/ [post]
func (uc *userController) Register(c *gin.Context) {
	var payload serializers.UserWrite
	if !bindJSON(c, &payload, "Invalid registration payload") {
		return
	}
	created, err := uc.users.Register(c.Request.Context(), payload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {array} serializers.UserRead
// @Router /api/users/ [get]
func (uc *userController) GetUsers(c *gin.Context) {
	users, err := uc.users.List(c.Request.Context(), viewerFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetUserByID godoc
// @Summary Get a user profile
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} serializers.UserRead
// @Failure 404 {object} models.APIError
// @Router /api/users/{id}/ [get]
func (uc *userController) GetUserByID(c *gin.Context) {
	id, ok := pathID(c, "User not found")
	if !ok {
		return
	}
	profile, err := uc.users.Profile(c.Request.Context(), viewerFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Me godoc
// @Summary Get the current user
// @Tags users
// @Produce json
// @Success 200 {object} serializers.UserRead
// @Failure 401 {object} models.APIError
// @Security BearerAuth
// @Router /api/users/me/ [get]
func (uc *userController) Me(c *gin.Context) {
	viewer := viewerFrom(c)
	profile, err := uc.users.Profile(c.Request.Context(), viewer, viewer.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// SetPassword godoc
// @Summary Change the current user's password
// @Tags users
// @Accept json
// @Param payload body serializers.PasswordWrite true "Current and new password"
// @Success 204
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Security BearerAuth
// @Router /api/users/set_password/ [post]
func (uc *userController) SetPassword(c *gin.Context) {
	var payload serializers.PasswordWrite
	if !bindJSON(c, &payload, "Invalid password change") {
		return
	}
	if err := uc.users.SetPassword(c.Request.Context(), viewerFrom(c), payload); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetAvatar godoc
// @Summary Upload an avatar
// @Tags users
// @Accept json
// @Produce json
// @Param payload body serializers.AvatarWrite true "Base64 data URI"
// @Success 200 {object} map[string]string
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Security BearerAuth
// @Router /api/users/me/avatar/ [put]
func (uc *userController) SetAvatar(c *gin.Context) {
	var payload serializers.AvatarWrite
	if !bindJSON(c, &payload, "Invalid avatar") {
		return
	}
	url, err := uc.users.SetAvatar(c.Request.Context(), viewerFrom(c), payload.Avatar)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"avatar": url})
}

// DeleteAvatar godoc
// @Summary Remove the avatar
// @Tags users
// @Success 204
// @Failure 401 {object} models.APIError
// @Security BearerAuth
// @Router /api/users/me/avatar/ [delete]
func (uc *userController) DeleteAvatar(c *gin.Context) {
	if err := uc.users.DeleteAvatar(c.Request.Context(), viewerFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Subscriptions godoc
// @Summary List followed authors
// @Tags users
// @Produce json
// @Param recipes_limit query int false "Recipes per author"
// @Success 200 {array} serializers.FollowCard
// @Failure 401 {object} models.APIError
// @Security BearerAuth
// @Router /api/users/subscriptions/ [get]
func (uc *userController) Subscriptions(c *gin.Context) {
	cards, err := uc.users.Subscriptions(c.Request.Context(), viewerFrom(c), recipesLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cards)
}
