package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/middleware"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/serializers"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/services"
)

// TokenIssuer issues and revokes access tokens
type TokenIssuer interface {
	IssueToken(ctx context.Context, user *models.User) (string, error)
	RevokeToken(ctx context.Context, access string) error
}

type AuthController struct {
	users  services.UserService
	tokens TokenIssuer
}

func NewAuthController(users services.UserService, tokens TokenIssuer) *AuthController {
	return &AuthController{users: users, tokens: tokens}
}

// Login godoc
// @Summary Obtain a token
// @Description Exchange an email and password for an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body serializers.LoginWrite true "Email and password"
// @Success 200 {object} map[string]string
// @Failure 400 {object} models.APIError
// @Router /api/auth/token/login/ [post]
func (ac *AuthController) Login(c *gin.Context) {
	var payload serializers.LoginWrite
	if !bindJSON(c, &payload, "Invalid credentials") {
		return
	}

	user, err := ac.users.Authenticate(c.Request.Context(), payload.Email, payload.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := ac.tokens.IssueToken(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}

	log.WithFields(logrus.Fields{"user_id": user.ID}).Info("User logged in")
	c.JSON(http.StatusOK, gin.H{"auth_token": token})
}

// Logout godoc
// @Summary Revoke the current token
// @Tags auth
// @Success 204
// @Failure 401 {object} models.APIError
// @Security BearerAuth
// @Router /api/auth/token/logout/ [post]
func (ac *AuthController) Logout(c *gin.Context) {
	if err := ac.tokens.RevokeToken(c.Request.Context(), c.GetString(middleware.ContextAccessToken)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
