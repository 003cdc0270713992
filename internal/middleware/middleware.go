package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
)

// Keys set in the gin context for authenticated requests
const (
	ContextUserID      = "userID"
	ContextUserRole    = "userRole"
	ContextClientID    = "clientID"
	ContextAccessToken = "accessToken"
)

// TokenChecker confirms that a token with a valid signature was not revoked
type TokenChecker interface {
	CheckAccessToken(ctx context.Context, access string) error
}

// Authenticator validates JWT access tokens issued by the auth package
type Authenticator struct {
	secret []byte
	tokens TokenChecker
}

func NewAuthenticator(jwtSecret string, tokens TokenChecker) *Authenticator {
	return &Authenticator{secret: []byte(jwtSecret), tokens: tokens}
}

// RequireAuth rejects requests without a valid access token. Requests
// already authenticated by OptionalAuth are not checked twice.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, done := c.Get(ContextUserID); done {
			c.Next()
			return
		}
		if c.GetHeader("Authorization") == "" {
			respondUnauthorized(c, "Authentication credentials were not provided.")
			return
		}
		if !a.authenticate(c) {
			return
		}
		c.Next()
	}
}

// OptionalAuth lets anonymous requests through. A token that is present but
// invalid is still rejected.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		if !a.authenticate(c) {
			return
		}
		c.Next()
	}
}

// authenticate validates the Authorization header and fills the context. It
// aborts the request and returns false on failure.
func (a *Authenticator) authenticate(c *gin.Context) bool {
	tokenString, err := bearerToken(c.GetHeader("Authorization"))
	if err != nil {
		respondUnauthorized(c, err.Error())
		return false
	}

	claims, err := parseAndValidateJWT(tokenString, a.secret)
	if err != nil {
		respondUnauthorized(c, err.Error())
		return false
	}

	if a.tokens != nil {
		if err := a.tokens.CheckAccessToken(c.Request.Context(), tokenString); err != nil {
			respondUnauthorized(c, "Invalid token.")
			return false
		}
	}

	if err := extractAndSetClaims(c, claims); err != nil {
		respondUnauthorized(c, err.Error())
		return false
	}
	c.Set(ContextAccessToken, tokenString)
	return true
}

// bearerToken accepts both "Bearer <jwt>" and "Token <jwt>"
func bearerToken(header string) (string, error) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || (!strings.EqualFold(scheme, "Bearer") && !strings.EqualFold(scheme, "Token")) {
		return "", fmt.Errorf("authorization header must use the Bearer or Token scheme")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("access token is empty")
	}
	return token, nil
}

func respondUnauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.NewAPIError(models.ErrUnauthorized, message))
}

// parseJWTToken validates and parses a JWT token using HMAC signing method
func parseJWTToken(tokenString string, jwtSecret []byte) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Reject tokens whose header asks for another algorithm family
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v. Expected HMAC", token.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token parsing failed: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is invalid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims format")
	}
	return claims, nil
}

// parseAndValidateJWT parses the JWT and checks its time claims
func parseAndValidateJWT(tokenString string, jwtSecret []byte) (jwt.MapClaims, error) {
	claims, err := parseJWTToken(tokenString, jwtSecret)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("invalid exp claim: %w", err)
	}
	if exp == nil {
		return nil, fmt.Errorf("token missing required 'exp' claim")
	}
	if exp.Before(now) {
		return nil, fmt.Errorf("token has expired")
	}

	nbf, err := claims.GetNotBefore()
	if err != nil {
		return nil, fmt.Errorf("invalid nbf claim: %w", err)
	}
	if nbf != nil && nbf.After(now) {
		return nil, fmt.Errorf("token not yet valid")
	}

	iat, err := claims.GetIssuedAt()
	if err != nil {
		return nil, fmt.Errorf("invalid iat claim: %w", err)
	}
	// one minute of leeway for clock skew between replicas
	if iat != nil && iat.After(now.Add(time.Minute)) {
		return nil, fmt.Errorf("token issued in the future")
	}

	return claims, nil
}

// extractAndSetClaims copies the identity carried by the token into the gin context
func extractAndSetClaims(c *gin.Context, claims jwt.MapClaims) error {
	userID, err := extractUserID(claims)
	if err != nil {
		return err
	}
	if userID == 0 {
		return fmt.Errorf("invalid user identifier: cannot be zero")
	}
	c.Set(ContextUserID, userID)

	if aud, ok := claims["aud"].(string); ok && aud != "" {
		c.Set(ContextClientID, aud)
	} else if audArray, ok := claims["aud"].([]interface{}); ok && len(audArray) > 0 {
		if firstAud, ok := audArray[0].(string); ok && firstAud != "" {
			c.Set(ContextClientID, firstAud)
		}
	}

	role, err := extractRole(claims)
	if err != nil {
		return err
	}
	c.Set(ContextUserRole, role)
	return nil
}

// extractUserID reads the "uid" claim, which the token generator writes as a
// numeric string
func extractUserID(claims jwt.MapClaims) (uint, error) {
	if uid, ok := claims["uid"].(string); ok && uid != "" {
		parsedID, err := strconv.ParseUint(uid, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid uid claim format: must be a numeric string, got: %s", uid)
		}
		return uint(parsedID), nil
	}

	// JSON numbers decode as float64
	if uid, ok := claims["uid"].(float64); ok {
		if uid <= 0 {
			return 0, fmt.Errorf("invalid uid claim: must be positive, got: %f", uid)
		}
		return uint(uid), nil
	}

	return 0, fmt.Errorf("token missing required 'uid' claim")
}

var allowedRoles = map[string]bool{
	"admin": true,
	"user":  true,
}

func extractRole(claims jwt.MapClaims) (string, error) {
	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return "", fmt.Errorf("token missing required 'role' claim")
	}
	if !allowedRoles[role] {
		return "", fmt.Errorf("invalid role '%s'. Allowed roles: admin, user", role)
	}
	return role, nil
}
