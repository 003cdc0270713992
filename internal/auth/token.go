package auth

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-oauth2/oauth2/v4"
	"github.com/sirupsen/logrus"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
)

// IssueToken issues an access token for an already authenticated user
// through the first-party client
func (o *OAuthService) IssueToken(ctx context.Context, user *models.User) (string, error) {
	ti, err := o.manager.GenerateAccessToken(ctx, oauth2.PasswordCredentials, &oauth2.TokenGenerateRequest{
		ClientID:     o.opts.ClientID,
		ClientSecret: o.opts.ClientSecret,
		UserID:       strconv.FormatUint(uint64(user.ID), 10),
	})
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	log.WithFields(logrus.Fields{
		"user_id":   user.ID,
		"client_id": o.opts.ClientID,
	}).Debug("Access token issued")
	return ti.GetAccess(), nil
}

// RevokeToken removes the token from the store; later checks reject it even
// though its signature is still valid
func (o *OAuthService) RevokeToken(ctx context.Context, access string) error {
	return o.manager.RemoveAccessToken(ctx, access)
}

// CheckAccessToken reports whether the token is known and not expired
func (o *OAuthService) CheckAccessToken(ctx context.Context, access string) error {
	_, err := o.manager.LoadAccessToken(ctx, access)
	return err
}

// HandleToken handles the OAuth2 token endpoint for third-party clients
// @Summary Token Endpoint
// @Description Obtain an access token with the resource owner password grant. The username is the account email.
// @Tags auth
// @Accept application/x-www-form-urlencoded
// @Produce json
// @Param grant_type formData string true "Grant type: password"
// @Param client_id formData string true "Client ID"
// @Param client_secret formData string true "Client Secret"
// @Param username formData string true "Account email"
// @Param password formData string true "Account password"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/auth/oauth/token [post]
func (o *OAuthService) HandleToken(c *gin.Context) {
	if err := o.server.HandleTokenRequest(c.Writer, c.Request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
