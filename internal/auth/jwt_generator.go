package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-oauth2/oauth2/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
)

// AccessClaims is the payload of a Foodgram access token. The audience is
// the OAuth client the token was issued to.
type AccessClaims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	Scope  string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// AccessGenerator signs access tokens for the oauth2 manager. The role is
// looked up when the token is issued, so promoting a user takes effect on
// their next login.
type AccessGenerator struct {
	key    []byte
	method jwt.SigningMethod
	db     *gorm.DB
}

func NewAccessGenerator(key []byte, method jwt.SigningMethod, db *gorm.DB) *AccessGenerator {
	return &AccessGenerator{key: key, method: method, db: db}
}

// Token implements oauth2.AccessGenerate
func (g *AccessGenerator) Token(ctx context.Context, data *oauth2.GenerateBasic, isGenRefresh bool) (string, string, error) {
	userID := data.UserID
	if userID == "" {
		userID = data.Client.GetUserID()
	}
	if userID == "" {
		return "", "", errors.New("cannot sign a token without a user")
	}

	role, err := g.roleOf(ctx, userID)
	if err != nil {
		return "", "", err
	}

	issuedAt := data.TokenInfo.GetAccessCreateAt()
	access, err := g.sign(AccessClaims{
		UserID: userID,
		Role:   role,
		Scope:  data.TokenInfo.GetScope(),
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{data.Client.GetID()},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(data.TokenInfo.GetAccessExpiresIn())),
			// two logins within the same second still get distinct tokens
			ID: uuid.NewString(),
		},
	})
	if err != nil {
		return "", "", err
	}
	if !isGenRefresh {
		return access, "", nil
	}

	refreshAt := data.TokenInfo.GetRefreshCreateAt()
	refresh, err := g.sign(jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(refreshAt.Add(data.TokenInfo.GetRefreshExpiresIn())),
		ID:        uuid.NewString(),
	})
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (g *AccessGenerator) sign(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(g.method, claims).SignedString(g.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (g *AccessGenerator) roleOf(ctx context.Context, userID string) (string, error) {
	id, err := strconv.ParseUint(userID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	var user models.User
	err = g.db.WithContext(ctx).Select("id", "is_staff").First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("user %d not found", id)
	}
	if err != nil {
		return "", fmt.Errorf("failed to load user %d: %w", id, err)
	}
	return user.Role(), nil
}
